package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil)

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	ref, ok := repo.db.classRef(c.ClassID)
	if !ok {
		return course.Course{}, core.NewValidationError(nil, core.FieldError{Field: "class_id", Error: "unknown class"})
	}
	c.Class = ref

	repo.db.course.mutex.Lock()
	defer repo.db.course.mutex.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	repo.db.course.table[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.course.mutex.RLock()
	c, ok := repo.db.course.table[id]
	repo.db.course.mutex.RUnlock()

	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	crs := *c
	crs.Class, _ = repo.db.classRef(crs.ClassID)
	return crs, nil
}

func (repo *courseRepository) filter(filter course.QueryFilter) []course.Course {
	repo.db.course.mutex.RLock()
	all := make([]course.Course, 0, len(repo.db.course.table))
	for _, c := range repo.db.course.table {
		all = append(all, *c)
	}
	repo.db.course.mutex.RUnlock()

	courses := make([]course.Course, 0)
	for _, c := range all {
		c.Class, _ = repo.db.classRef(c.ClassID)
		if filter.ClassID != "" && c.ClassID != filter.ClassID {
			continue
		}
		if filter.ClassNumber.Valid && c.Class.Number != filter.ClassNumber.Int {
			continue
		}
		if filter.Search != "" && !(core.ContainsFold(c.Name, filter.Search) || core.ContainsFold(c.Subject, filter.Search)) {
			continue
		}
		courses = append(courses, c)
	}
	return courses
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	courses := repo.filter(filter)
	sort.Slice(courses, func(i, j int) bool {
		ci, cj := courses[i], courses[j]
		if ci.Class.Number != cj.Class.Number {
			return ci.Class.Number < cj.Class.Number
		}
		if ci.Name != cj.Name {
			return ci.Name < cj.Name
		}
		return ci.ID < cj.ID
	})
	return courses, nil
}

func (repo *courseRepository) CountCourses(_ context.Context, filter course.QueryFilter) (int, error) {
	return len(repo.filter(filter)), nil
}

// DeleteCourse also deletes the course materials.
func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.course.mutex.Lock()
	if _, ok := repo.db.course.table[id]; !ok {
		repo.db.course.mutex.Unlock()
		return course.ErrNotFound
	}
	delete(repo.db.course.table, id)
	repo.db.course.mutex.Unlock()

	repo.db.material.mutex.Lock()
	defer repo.db.material.mutex.Unlock()
	for mid, m := range repo.db.material.table {
		if m.CourseID == id {
			delete(repo.db.material.table, mid)
		}
	}
	return nil
}
