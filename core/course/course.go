package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/classroom"
)

var ErrNotFound = core.NewNotFoundError("course")

type Course struct {
	ID          string             `db:"id" json:"id"`
	Name        string             `db:"name" json:"name"`
	Subject     string             `db:"subject" json:"subject"`
	Description string             `db:"description" json:"description"`
	IsOptional  bool               `db:"is_optional" json:"is_optional"`
	ClassID     string             `db:"class_id" json:"class_id"`
	Class       classroom.ClassRef `db:"class" json:"class"`
	CreatedAt   time.Time          `db:"created_at" json:"created_at"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,notblank"`
	Subject     string `json:"subject" validate:"required,notblank"`
	Description string `json:"description"`
	IsOptional  bool   `json:"is_optional"`
	ClassID     string `json:"class_id" validate:"required,uuid"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Subject = core.CleanString(nc.Subject)
	nc.Description = core.CleanString(nc.Description)
	nc.ClassID = core.CleanString(nc.ClassID, true /* lower */)
	return validate.Struct(nc)
}

type QueryFilter struct {
	ClassID     string
	ClassNumber null.Int
	// Search does a case-insensitive match on Name or Subject.
	Search string
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns courses ordered by class number, then name.
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		CountCourses(ctx context.Context, filter QueryFilter) (int, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	Classes interface {
		Get(ctx context.Context, id string) (classroom.Class, error)
	}

	Service struct {
		repo    Repository
		classes Classes
	}
)

func NewService(repo Repository, classes Classes) *Service {
	return &Service{repo: repo, classes: classes}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	class, err := svc.classes.Get(ctx, nc.ClassID)
	if err != nil {
		if errors.Cause(err) == classroom.ErrNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "class_id", Error: "unknown class"})
		}
		return Course{}, errors.Wrap(err, "finding class")
	}
	c, err := svc.repo.CreateCourse(ctx, Course{
		Name:        nc.Name,
		Subject:     nc.Subject,
		Description: nc.Description,
		IsOptional:  nc.IsOptional,
		ClassID:     class.ID,
		Class:       class.Ref(),
		CreatedAt:   time.Now().UTC(),
	})
	return c, errors.Wrap(err, "creating course")
}

func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountCourses(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}
