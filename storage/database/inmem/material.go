package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/material"
)

type materialRepository struct {
	db *DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(_ context.Context, m material.Material) (material.Material, error) {
	repo.db.material.mutex.Lock()
	defer repo.db.material.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	repo.db.material.table[m.ID] = &m
	return m, nil
}

func (repo *materialRepository) GetMaterial(_ context.Context, id string) (material.Material, error) {
	repo.db.material.mutex.RLock()
	defer repo.db.material.mutex.RUnlock()

	if m, ok := repo.db.material.table[id]; ok {
		return *m, nil
	}
	return material.Material{}, material.ErrNotFound
}

func (repo *materialRepository) filter(filter material.QueryFilter) []material.Material {
	materials := make([]material.Material, 0)
	for _, m := range repo.db.material.table {
		if filter.CourseID != "" && m.CourseID != filter.CourseID {
			continue
		}
		if filter.CourseIDs != nil && !containsString(filter.CourseIDs, m.CourseID) {
			continue
		}
		if filter.Search != "" && !(core.ContainsFold(m.Title, filter.Search) || core.ContainsFold(m.Description, filter.Search)) {
			continue
		}
		materials = append(materials, *m)
	}
	return materials
}

func (repo *materialRepository) QueryMaterials(_ context.Context, filter material.QueryFilter) ([]material.Material, error) {
	repo.db.material.mutex.RLock()
	defer repo.db.material.mutex.RUnlock()

	materials := repo.filter(filter)
	sort.Slice(materials, func(i, j int) bool {
		mi, mj := materials[i], materials[j]
		if !mi.CreatedAt.Equal(mj.CreatedAt) {
			return mi.CreatedAt.After(mj.CreatedAt)
		}
		return mi.ID < mj.ID
	})
	return materials, nil
}

func (repo *materialRepository) CountMaterials(_ context.Context, filter material.QueryFilter) (int, error) {
	repo.db.material.mutex.RLock()
	defer repo.db.material.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *materialRepository) DeleteMaterial(_ context.Context, id string) error {
	repo.db.material.mutex.Lock()
	defer repo.db.material.mutex.Unlock()

	if _, ok := repo.db.material.table[id]; !ok {
		return material.ErrNotFound
	}
	delete(repo.db.material.table, id)
	return nil
}
