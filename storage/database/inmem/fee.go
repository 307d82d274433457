package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil)

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) CreateFee(_ context.Context, f fee.Fee) (fee.Fee, error) {
	ref, ok := repo.db.classRef(f.ClassID)
	if !ok {
		return fee.Fee{}, core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "unknown class"})
	}
	f.Class = ref

	repo.db.fee.mutex.Lock()
	defer repo.db.fee.mutex.Unlock()

	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	repo.db.fee.table[f.ID] = &f
	return f, nil
}

func (repo *feeRepository) GetFee(_ context.Context, id string) (fee.Fee, error) {
	repo.db.fee.mutex.RLock()
	f, ok := repo.db.fee.table[id]
	repo.db.fee.mutex.RUnlock()

	if !ok {
		return fee.Fee{}, fee.ErrNotFound
	}
	out := *f
	out.Class, _ = repo.db.classRef(out.ClassID)
	return out, nil
}

func (repo *feeRepository) QueryFees(_ context.Context, filter fee.FeeFilter) ([]fee.Fee, error) {
	repo.db.fee.mutex.RLock()
	all := make([]fee.Fee, 0, len(repo.db.fee.table))
	for _, f := range repo.db.fee.table {
		all = append(all, *f)
	}
	repo.db.fee.mutex.RUnlock()

	fees := make([]fee.Fee, 0)
	for _, f := range all {
		f.Class, _ = repo.db.classRef(f.ClassID)
		if filter.ClassID != "" && f.ClassID != filter.ClassID {
			continue
		}
		if filter.ClassNumber.Valid && f.Class.Number != filter.ClassNumber.Int {
			continue
		}
		if filter.Search != "" && !core.ContainsFold(f.Description, filter.Search) {
			continue
		}
		fees = append(fees, f)
	}
	sort.Slice(fees, func(i, j int) bool {
		fi, fj := fees[i], fees[j]
		if !fi.DueDate.Equal(fj.DueDate) {
			return fi.DueDate.Before(fj.DueDate)
		}
		if fi.Class.Number != fj.Class.Number {
			return fi.Class.Number < fj.Class.Number
		}
		return fi.ID < fj.ID
	})
	return fees, nil
}

func (repo *feeRepository) CreatePayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	repo.db.payment.mutex.Lock()
	defer repo.db.payment.mutex.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	repo.db.payment.table[p.ID] = &p
	return p, nil
}

func (repo *feeRepository) GetPayment(_ context.Context, id string) (fee.Payment, error) {
	repo.db.payment.mutex.RLock()
	p, ok := repo.db.payment.table[id]
	repo.db.payment.mutex.RUnlock()

	if !ok {
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	return repo.withStudent(*p), nil
}

// withStudent refreshes the joined student columns.
func (repo *feeRepository) withStudent(p fee.Payment) fee.Payment {
	repo.db.user.mutex.RLock()
	defer repo.db.user.mutex.RUnlock()

	if usr, ok := repo.db.user.table[p.StudentID]; ok {
		p.Student = fee.StudentRef{FullName: usr.FullName, Email: usr.Email}
	}
	return p
}

func (repo *feeRepository) filterPayments(filter fee.PaymentFilter) []fee.Payment {
	repo.db.payment.mutex.RLock()
	defer repo.db.payment.mutex.RUnlock()

	payments := make([]fee.Payment, 0)
	for _, p := range repo.db.payment.table {
		if filter.StudentID != "" && p.StudentID != filter.StudentID {
			continue
		}
		if filter.FeeID != "" && p.FeeID != filter.FeeID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		payments = append(payments, *p)
	}
	return payments
}

func (repo *feeRepository) QueryPayments(_ context.Context, filter fee.PaymentFilter) ([]fee.Payment, error) {
	payments := repo.filterPayments(filter)
	for i := range payments {
		payments[i] = repo.withStudent(payments[i])
	}
	sort.Slice(payments, func(i, j int) bool {
		pi, pj := payments[i], payments[j]
		if !pi.CreatedAt.Equal(pj.CreatedAt) {
			return pi.CreatedAt.After(pj.CreatedAt)
		}
		return pi.ID < pj.ID
	})
	return payments, nil
}

func (repo *feeRepository) UpdatePayment(_ context.Context, p fee.Payment) (fee.Payment, error) {
	repo.db.payment.mutex.Lock()
	orig, ok := repo.db.payment.table[p.ID]
	if !ok {
		repo.db.payment.mutex.Unlock()
		return fee.Payment{}, fee.ErrPaymentNotFound
	}
	orig.Status = p.Status
	updated := *orig
	repo.db.payment.mutex.Unlock()

	return repo.withStudent(updated), nil
}

func (repo *feeRepository) SumPayments(_ context.Context, filter fee.PaymentFilter) (fee.Amount, error) {
	var total fee.Amount
	for _, p := range repo.filterPayments(filter) {
		total += p.Amount
	}
	return total, nil
}
