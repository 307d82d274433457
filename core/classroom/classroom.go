package classroom

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
)

var (
	ErrNotFound    = core.NewNotFoundError("class")
	ErrClassExists = errors.New("this class already exists")
)

type Class struct {
	ID        string    `db:"id" json:"id"`
	Number    int       `db:"number" json:"number"`
	Section   string    `db:"section" json:"section"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

func (c Class) Ref() ClassRef {
	return ClassRef{Number: c.Number, Section: c.Section}
}

// ClassRef is the part of a Class shown alongside the rows that belong to it.
type ClassRef struct {
	Number  int    `db:"number" json:"number"`
	Section string `db:"section" json:"section"`
}

func (c ClassRef) String() string {
	if c.Section == "" {
		return fmt.Sprintf("Class %d", c.Number)
	}
	return fmt.Sprintf("Class %d - %s", c.Number, c.Section)
}

type NewClass struct {
	Number  int    `json:"number" validate:"required,min=1,max=12"`
	Section string `json:"section" validate:"required,notblank,max=16"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Section = core.CleanString(nc.Section)
	return validate.Struct(nc)
}

type QueryFilter struct {
	Number null.Int
}

type (
	Repository interface {
		CreateClass(ctx context.Context, c Class) (Class, error)
		GetClass(ctx context.Context, id string) (Class, error)
		// QueryClasses returns classes ordered by number, then section.
		QueryClasses(ctx context.Context, filter QueryFilter) ([]Class, error)
		// CheckClassUniqueness returns ErrClassExists if (number, section) is taken.
		CheckClassUniqueness(ctx context.Context, number int, section string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	if err := svc.repo.CheckClassUniqueness(ctx, nc.Number, nc.Section); err != nil {
		if err == ErrClassExists {
			return Class{}, core.NewValidationError(err, core.FieldError{Field: "section", Error: err.Error()})
		}
		return Class{}, errors.Wrap(err, "checking class uniqueness")
	}
	c, err := svc.repo.CreateClass(ctx, Class{
		Number:    nc.Number,
		Section:   nc.Section,
		CreatedAt: time.Now().UTC(),
	})
	return c, errors.Wrap(err, "creating class")
}

func (svc *Service) Get(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Class, error) {
	return svc.repo.QueryClasses(ctx, filter)
}
