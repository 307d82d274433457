package material

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/course"
)

var ErrNotFound = core.NewNotFoundError("material")

type CourseRef struct {
	Name    string `db:"name" json:"name"`
	Subject string `db:"subject" json:"subject"`
}

// Material is a learning resource attached to a course. Files live elsewhere; only their URL is kept.
type Material struct {
	ID          string      `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	FileURL     string      `db:"file_url" json:"file_url"`
	FileType    string      `db:"file_type" json:"file_type"`
	CourseID    string      `db:"course_id" json:"course_id"`
	Course      CourseRef   `db:"course" json:"course"`
	UploadedBy  null.String `db:"uploaded_by" json:"uploaded_by"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}

type NewMaterial struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	FileURL     string `json:"file_url" validate:"required,url"`
	FileType    string `json:"file_type" validate:"required,notblank,max=32"`
	CourseID    string `json:"course_id" validate:"required,uuid"`
}

func (nm *NewMaterial) Validate(validate *validator.Validate) error {
	nm.Title = core.CleanString(nm.Title)
	nm.Description = core.CleanString(nm.Description)
	nm.FileURL = core.CleanString(nm.FileURL)
	nm.FileType = core.CleanString(nm.FileType, true /* lower */)
	nm.CourseID = core.CleanString(nm.CourseID, true /* lower */)
	return validate.Struct(nm)
}

type QueryFilter struct {
	CourseID string
	// CourseIDs: nil means any course, an empty non-nil slice matches nothing.
	CourseIDs []string
	// Search does a case-insensitive match on Title or Description.
	Search string
}

type (
	Repository interface {
		CreateMaterial(ctx context.Context, m Material) (Material, error)
		GetMaterial(ctx context.Context, id string) (Material, error)
		// QueryMaterials returns materials newest first.
		QueryMaterials(ctx context.Context, filter QueryFilter) ([]Material, error)
		CountMaterials(ctx context.Context, filter QueryFilter) (int, error)
		DeleteMaterial(ctx context.Context, id string) error
	}

	Courses interface {
		Get(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses Courses
	}
)

func NewService(repo Repository, courses Courses) *Service {
	return &Service{repo: repo, courses: courses}
}

// Create stores a material uploaded by uploaderID (empty if unknown).
func (svc *Service) Create(ctx context.Context, nm NewMaterial, uploaderID string) (Material, error) {
	crs, err := svc.courses.Get(ctx, nm.CourseID)
	if err != nil {
		if errors.Cause(err) == course.ErrNotFound {
			return Material{}, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: "unknown course"})
		}
		return Material{}, errors.Wrap(err, "finding course")
	}
	m := Material{
		Title:       nm.Title,
		Description: nm.Description,
		FileURL:     nm.FileURL,
		FileType:    nm.FileType,
		CourseID:    crs.ID,
		Course:      CourseRef{Name: crs.Name, Subject: crs.Subject},
		CreatedAt:   time.Now().UTC(),
	}
	if uploaderID != "" {
		m.UploadedBy = null.StringFrom(uploaderID)
	}
	m, err = svc.repo.CreateMaterial(ctx, m)
	return m, errors.Wrap(err, "creating material")
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Material, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.QueryMaterials(ctx, filter)
}

func (svc *Service) Count(ctx context.Context, filter QueryFilter) (int, error) {
	return svc.repo.CountMaterials(ctx, filter)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteMaterial(ctx, id)
}
