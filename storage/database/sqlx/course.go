package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/course"
)

var courseColumns = []string{
	"co.id", "co.name", "co.subject", "co.description", "co.is_optional", "co.class_id", "co.created_at",
	`cl.number AS "class.number"`, `cl.section AS "class.section"`,
}

var courseOrdering = []core.DBOrdering{{Field: "cl.number", Ascending: true}, {Field: "co.name", Ascending: true}}

func coursesFrom(columns ...string) sq.SelectBuilder {
	return psql.Select(columns...).From("courses co").Join("classes cl ON cl.id = co.class_id")
}

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO courses (id, name, subject, description, is_optional, class_id, created_at)
		VALUES (:id, :name, :subject, :description, :is_optional, :class_id, :created_at)`,
		c,
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}
	var c course.Course
	if err := repo.db.getBuilt(ctx, &c, coursesFrom(courseColumns...).Where(sq.Eq{"co.id": id})); err != nil {
		if isNoRows(err) {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "selecting course")
	}
	return c, nil
}

func courseConds(filter course.QueryFilter) sq.And {
	var class, number sq.Sqlizer
	if filter.ClassID != "" {
		class = sq.Eq{"co.class_id::text": filter.ClassID}
	}
	if filter.ClassNumber.Valid {
		number = sq.Eq{"cl.number": filter.ClassNumber.Int}
	}
	return conds(class, number, search(filter.Search, "co.name", "co.subject"))
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	query := coursesFrom(courseColumns...).Where(courseConds(filter)).OrderBy(orderBy(courseOrdering...)...)
	courses := make([]course.Course, 0)
	if err := repo.db.selectBuilt(ctx, &courses, query); err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return courses, nil
}

func (repo *courseRepository) CountCourses(ctx context.Context, filter course.QueryFilter) (int, error) {
	var count int
	if err := repo.db.getBuilt(ctx, &count, coursesFrom("COUNT(*)").Where(courseConds(filter))); err != nil {
		return 0, errors.Wrap(err, "counting courses")
	}
	return count, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return course.ErrNotFound
	}
	res, err := repo.db.execBuilt(ctx, psql.Delete("courses").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return course.ErrNotFound
	}
	return nil
}
