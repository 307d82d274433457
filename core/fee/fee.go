package fee

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("fee")
	ErrPaymentNotFound = core.NewNotFoundError("payment")
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
)

var AllPaymentStatuses = []PaymentStatus{PaymentPending, PaymentCompleted, PaymentFailed}

func (s PaymentStatus) IsValid() bool {
	for _, status := range AllPaymentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

type Fee struct {
	ID          string             `db:"id" json:"id"`
	ClassID     string             `db:"class_id" json:"class_id"`
	Class       classroom.ClassRef `db:"class" json:"class"`
	Amount      Amount             `db:"amount" json:"amount"`
	DueDate     core.Date          `db:"due_date" json:"due_date"`
	Description string             `db:"description" json:"description"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

type StudentRef struct {
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

type Payment struct {
	ID          string        `db:"id" json:"id"`
	StudentID   string        `db:"student_id" json:"student_id"`
	Student     StudentRef    `db:"student" json:"student"`
	FeeID       string        `db:"fee_id" json:"fee_id"`
	Amount      Amount        `db:"amount" json:"amount"`
	PaymentDate core.Date     `db:"payment_date" json:"payment_date"`
	Status      PaymentStatus `db:"status" json:"status"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

type NewFee struct {
	ClassID     string    `json:"class_id" validate:"required,uuid"`
	Amount      Amount    `json:"amount" validate:"gt=0"`
	DueDate     core.Date `json:"due_date" validate:"required"`
	Description string    `json:"description" validate:"required,notblank"`
}

func (nf *NewFee) Validate(validate *validator.Validate) error {
	nf.ClassID = core.CleanString(nf.ClassID, true /* lower */)
	nf.Description = core.CleanString(nf.Description)
	return validate.Struct(nf)
}

type NewPayment struct {
	StudentID   string        `json:"student_id" validate:"required"`
	FeeID       string        `json:"fee_id" validate:"required,uuid"`
	Amount      Amount        `json:"amount" validate:"gt=0"`
	PaymentDate core.Date     `json:"payment_date"`
	Status      PaymentStatus `json:"status" validate:"omitempty,payment_status"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.StudentID = core.CleanString(np.StudentID, true /* lower */)
	np.FeeID = core.CleanString(np.FeeID, true /* lower */)
	np.Status = PaymentStatus(core.CleanString(string(np.Status), true /* lower */))
	return validate.Struct(np)
}

type UpdatePayment struct {
	Status PaymentStatus `json:"status" validate:"required,payment_status"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	up.Status = PaymentStatus(core.CleanString(string(up.Status), true /* lower */))
	return validate.Struct(up)
}

type FeeFilter struct {
	ClassID     string
	ClassNumber null.Int
	// Search does a case-insensitive match on Description.
	Search string
}

type PaymentFilter struct {
	StudentID string
	FeeID     string
	Status    PaymentStatus
}

type (
	Repository interface {
		CreateFee(ctx context.Context, f Fee) (Fee, error)
		GetFee(ctx context.Context, id string) (Fee, error)
		// QueryFees returns fees ordered by due date, then class number.
		QueryFees(ctx context.Context, filter FeeFilter) ([]Fee, error)

		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		GetPayment(ctx context.Context, id string) (Payment, error)
		// QueryPayments returns payments newest first.
		QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
		SumPayments(ctx context.Context, filter PaymentFilter) (Amount, error)
	}

	Classes interface {
		Get(ctx context.Context, id string) (classroom.Class, error)
	}

	Students interface {
		GetStudent(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo     Repository
		classes  Classes
		students Students
	}
)

func NewService(repo Repository, classes Classes, students Students) *Service {
	return &Service{repo: repo, classes: classes, students: students}
}

func (svc *Service) CreateFee(ctx context.Context, nf NewFee) (Fee, error) {
	class, err := svc.classes.Get(ctx, nf.ClassID)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return Fee{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: "unknown class"})
		}
		return Fee{}, errors.Wrap(err, "finding class")
	}
	f, err := svc.repo.CreateFee(ctx, Fee{
		ClassID:     class.ID,
		Class:       class.Ref(),
		Amount:      nf.Amount,
		DueDate:     nf.DueDate,
		Description: nf.Description,
		CreatedAt:   time.Now().UTC(),
	})
	return f, errors.Wrap(err, "creating fee")
}

func (svc *Service) QueryFees(ctx context.Context, filter FeeFilter) ([]Fee, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.QueryFees(ctx, filter)
}

// RecordPayment stores a payment of a student towards a fee. Status defaults to pending.
func (svc *Service) RecordPayment(ctx context.Context, np NewPayment) (Payment, error) {
	student, err := svc.students.GetStudent(ctx, np.StudentID)
	if err != nil {
		if core.IsNotFound(err) {
			return Payment{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: "unknown student"})
		}
		return Payment{}, errors.Wrap(err, "finding student")
	}
	if _, err = svc.repo.GetFee(ctx, np.FeeID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Payment{}, core.NewValidationError(err, core.FieldError{Field: "fee_id", Error: "unknown fee"})
		}
		return Payment{}, errors.Wrap(err, "finding fee")
	}

	p := Payment{
		StudentID:   student.ID,
		Student:     StudentRef{FullName: student.FullName, Email: student.Email},
		FeeID:       np.FeeID,
		Amount:      np.Amount,
		PaymentDate: np.PaymentDate,
		Status:      np.Status,
		CreatedAt:   time.Now().UTC(),
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = core.Today()
	}
	if p.Status == "" {
		p.Status = PaymentPending
	}
	p, err = svc.repo.CreatePayment(ctx, p)
	return p, errors.Wrap(err, "creating payment")
}

func (svc *Service) SetPaymentStatus(ctx context.Context, id string, up UpdatePayment) (Payment, error) {
	p, err := svc.repo.GetPayment(ctx, id)
	if err != nil {
		return Payment{}, err
	}
	p.Status = up.Status
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *Service) QueryPayments(ctx context.Context, filter PaymentFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

// CompletedTotal sums every completed payment.
func (svc *Service) CompletedTotal(ctx context.Context) (Amount, error) {
	return svc.repo.SumPayments(ctx, PaymentFilter{Status: PaymentCompleted})
}

// StudentStatement lists the fees of a student's class along with the student's payments.
type StudentStatement struct {
	Fees     []Fee     `json:"fees"`
	Payments []Payment `json:"payments"`
	// Pending counts the class fees without a completed payment by the student.
	Pending int `json:"pending"`
}

func (svc *Service) Statement(ctx context.Context, student user.User) (StudentStatement, error) {
	st := StudentStatement{Fees: []Fee{}, Payments: []Payment{}}
	if !student.ClassNumber.Valid {
		return st, nil
	}

	fees, err := svc.repo.QueryFees(ctx, FeeFilter{ClassNumber: student.ClassNumber})
	if err != nil {
		return st, errors.Wrap(err, "querying fees")
	}
	payments, err := svc.repo.QueryPayments(ctx, PaymentFilter{StudentID: student.ID})
	if err != nil {
		return st, errors.Wrap(err, "querying payments")
	}

	paid := make(map[string]bool, len(payments))
	for _, p := range payments {
		if p.Status == PaymentCompleted {
			paid[p.FeeID] = true
		}
	}
	for _, f := range fees {
		if !paid[f.ID] {
			st.Pending++
		}
	}
	if fees != nil {
		st.Fees = fees
	}
	if payments != nil {
		st.Payments = payments
	}
	return st, nil
}
