package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core/classroom"
)

type classRepository struct {
	db *DB
}

var _ classroom.Repository = (*classRepository)(nil)

func NewClassRepository(db *DB) classroom.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CreateClass(_ context.Context, c classroom.Class) (classroom.Class, error) {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	for _, cls := range repo.db.class.table {
		if cls.Number == c.Number && strings.EqualFold(cls.Section, c.Section) {
			return classroom.Class{}, classroom.ErrClassExists
		}
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	repo.db.class.table[c.ID] = &c
	return c, nil
}

func (repo *classRepository) GetClass(_ context.Context, id string) (classroom.Class, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	if c, ok := repo.db.class.table[id]; ok {
		return *c, nil
	}
	return classroom.Class{}, classroom.ErrNotFound
}

func (repo *classRepository) QueryClasses(_ context.Context, filter classroom.QueryFilter) ([]classroom.Class, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	classes := make([]classroom.Class, 0, len(repo.db.class.table))
	for _, c := range repo.db.class.table {
		if filter.Number.Valid && c.Number != filter.Number.Int {
			continue
		}
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool {
		if classes[i].Number != classes[j].Number {
			return classes[i].Number < classes[j].Number
		}
		return classes[i].Section < classes[j].Section
	})
	return classes, nil
}

func (repo *classRepository) CheckClassUniqueness(_ context.Context, number int, section string) error {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	for _, c := range repo.db.class.table {
		if c.Number == number && strings.EqualFold(c.Section, section) {
			return classroom.ErrClassExists
		}
	}
	return nil
}

// classRef resolves the class of a joined row; the zero ClassRef if it vanished.
func (db *DB) classRef(id string) (classroom.ClassRef, bool) {
	db.class.mutex.RLock()
	defer db.class.mutex.RUnlock()

	if c, ok := db.class.table[id]; ok {
		return c.Ref(), true
	}
	return classroom.ClassRef{}, false
}
