package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/fee"
)

var (
	feeColumns = []string{
		"f.id", "f.class_id", "f.amount", "f.due_date", "f.description", "f.created_at",
		`cl.number AS "class.number"`, `cl.section AS "class.section"`,
	}
	paymentColumns = []string{
		"p.id", "p.student_id", "p.fee_id", "p.amount", "p.payment_date", "p.status", "p.created_at",
		`u.full_name AS "student.full_name"`, `u.email AS "student.email"`,
	}

	feeOrdering     = []core.DBOrdering{{Field: "f.due_date", Ascending: true}, {Field: "cl.number", Ascending: true}, {Field: "f.id", Ascending: true}}
	paymentOrdering = []core.DBOrdering{{Field: "p.created_at"}, {Field: "p.id", Ascending: true}}
)

func feesFrom(columns ...string) sq.SelectBuilder {
	return psql.Select(columns...).From("fees f").Join("classes cl ON cl.id = f.class_id")
}

func paymentsFrom(columns ...string) sq.SelectBuilder {
	return psql.Select(columns...).From("payments p").Join("users u ON u.id = p.student_id")
}

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) CreateFee(ctx context.Context, f fee.Fee) (fee.Fee, error) {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO fees (id, class_id, amount, due_date, description, created_at)
		VALUES (:id, :class_id, :amount, :due_date, :description, :created_at)`,
		f,
	)
	if err != nil {
		return fee.Fee{}, errors.Wrap(err, "inserting fee")
	}
	return repo.GetFee(ctx, f.ID)
}

func (repo *feeRepository) GetFee(ctx context.Context, id string) (fee.Fee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return fee.Fee{}, fee.ErrNotFound
	}
	var f fee.Fee
	if err := repo.db.getBuilt(ctx, &f, feesFrom(feeColumns...).Where(sq.Eq{"f.id": id})); err != nil {
		if isNoRows(err) {
			return fee.Fee{}, fee.ErrNotFound
		}
		return fee.Fee{}, errors.Wrap(err, "selecting fee")
	}
	return f, nil
}

func (repo *feeRepository) QueryFees(ctx context.Context, filter fee.FeeFilter) ([]fee.Fee, error) {
	query := feesFrom(feeColumns...).OrderBy(orderBy(feeOrdering...)...)
	if filter.ClassID != "" {
		query = query.Where(sq.Eq{"f.class_id::text": filter.ClassID})
	}
	if filter.ClassNumber.Valid {
		query = query.Where(sq.Eq{"cl.number": filter.ClassNumber.Int})
	}
	if s := search(filter.Search, "f.description"); s != nil {
		query = query.Where(s)
	}

	fees := make([]fee.Fee, 0)
	if err := repo.db.selectBuilt(ctx, &fees, query); err != nil {
		return nil, errors.Wrap(err, "selecting fees")
	}
	return fees, nil
}

func (repo *feeRepository) CreatePayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO payments (id, student_id, fee_id, amount, payment_date, status, created_at)
		VALUES (:id, :student_id, :fee_id, :amount, :payment_date, :status, :created_at)`,
		p,
	)
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return repo.GetPayment(ctx, p.ID)
}

func (repo *feeRepository) GetPayment(ctx context.Context, id string) (fee.Payment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	var p fee.Payment
	if err := repo.db.getBuilt(ctx, &p, paymentsFrom(paymentColumns...).Where(sq.Eq{"p.id": id})); err != nil {
		if isNoRows(err) {
			return fee.Payment{}, fee.ErrPaymentNotFound
		}
		return fee.Payment{}, errors.Wrap(err, "selecting payment")
	}
	return p, nil
}

func paymentConds(filter fee.PaymentFilter) sq.Eq {
	eq := sq.Eq{}
	if filter.StudentID != "" {
		eq["p.student_id::text"] = filter.StudentID
	}
	if filter.FeeID != "" {
		eq["p.fee_id::text"] = filter.FeeID
	}
	if filter.Status != "" {
		eq["p.status"] = filter.Status
	}
	return eq
}

func (repo *feeRepository) QueryPayments(ctx context.Context, filter fee.PaymentFilter) ([]fee.Payment, error) {
	query := paymentsFrom(paymentColumns...).Where(paymentConds(filter)).OrderBy(orderBy(paymentOrdering...)...)
	payments := make([]fee.Payment, 0)
	if err := repo.db.selectBuilt(ctx, &payments, query); err != nil {
		return nil, errors.Wrap(err, "selecting payments")
	}
	return payments, nil
}

func (repo *feeRepository) UpdatePayment(ctx context.Context, p fee.Payment) (fee.Payment, error) {
	res, err := repo.db.execBuilt(ctx, psql.Update("payments").Set("status", p.Status).Where(sq.Eq{"id::text": p.ID}))
	if err != nil {
		return fee.Payment{}, errors.Wrap(err, "updating payment")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	return repo.GetPayment(ctx, p.ID)
}

func (repo *feeRepository) SumPayments(ctx context.Context, filter fee.PaymentFilter) (fee.Amount, error) {
	query := psql.Select("COALESCE(SUM(p.amount), 0)").From("payments p").Where(paymentConds(filter))
	var total fee.Amount
	if err := repo.db.getBuilt(ctx, &total, query); err != nil {
		return 0, errors.Wrap(err, "summing payments")
	}
	return total, nil
}
