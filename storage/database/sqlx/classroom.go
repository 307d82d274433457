package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/classroom"
)

var (
	classColumns  = []string{"id", "number", "section", "created_at"}
	classOrdering = []core.DBOrdering{{Field: "number", Ascending: true}, {Field: "section", Ascending: true}}
)

type classRepository struct {
	db *DB
}

var _ classroom.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) classroom.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(ctx context.Context, c classroom.Class) (classroom.Class, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx,
		`INSERT INTO classes (id, number, section, created_at) VALUES (:id, :number, :section, :created_at)`, c)
	if err != nil {
		if isUniqueViolation(err) {
			return classroom.Class{}, classroom.ErrClassExists
		}
		return classroom.Class{}, errors.Wrap(err, "inserting class")
	}
	return c, nil
}

func (repo *classRepository) GetClass(ctx context.Context, id string) (classroom.Class, error) {
	if _, err := uuid.Parse(id); err != nil {
		return classroom.Class{}, classroom.ErrNotFound
	}
	var c classroom.Class
	if err := repo.db.getBuilt(ctx, &c, psql.Select(classColumns...).From("classes").Where(sq.Eq{"id": id})); err != nil {
		if isNoRows(err) {
			return classroom.Class{}, classroom.ErrNotFound
		}
		return classroom.Class{}, errors.Wrap(err, "selecting class")
	}
	return c, nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, filter classroom.QueryFilter) ([]classroom.Class, error) {
	query := psql.Select(classColumns...).From("classes").OrderBy(orderBy(classOrdering...)...)
	if filter.Number.Valid {
		query = query.Where(sq.Eq{"number": filter.Number.Int})
	}
	classes := make([]classroom.Class, 0)
	if err := repo.db.selectBuilt(ctx, &classes, query); err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	return classes, nil
}

func (repo *classRepository) CheckClassUniqueness(ctx context.Context, number int, section string) error {
	query := psql.Select("COUNT(*)").From("classes").
		Where(sq.Eq{"number": number}).
		Where("lower(section) = lower(?)", section)
	var count int
	if err := repo.db.getBuilt(ctx, &count, query); err != nil {
		return errors.Wrap(err, "counting classes")
	}
	if count > 0 {
		return classroom.ErrClassExists
	}
	return nil
}
