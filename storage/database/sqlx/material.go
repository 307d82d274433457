package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/material"
)

var (
	materialColumns = []string{
		"m.id", "m.title", "m.description", "m.file_url", "m.file_type", "m.course_id", "m.uploaded_by", "m.created_at",
		`co.name AS "course.name"`, `co.subject AS "course.subject"`,
	}
	materialOrdering = []core.DBOrdering{{Field: "m.created_at"}, {Field: "m.id", Ascending: true}}
)

type materialRepository struct {
	db *DB
}

var _ material.Repository = (*materialRepository)(nil)

func NewMaterialRepository(db *DB) material.Repository {
	return &materialRepository{db: db}
}

func (repo *materialRepository) CreateMaterial(ctx context.Context, m material.Material) (material.Material, error) {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO materials (id, title, description, file_url, file_type, course_id, uploaded_by, created_at)
		VALUES (:id, :title, :description, :file_url, :file_type, :course_id, :uploaded_by, :created_at)`,
		m,
	)
	if err != nil {
		return material.Material{}, errors.Wrap(err, "inserting material")
	}
	return repo.GetMaterial(ctx, m.ID)
}

func (repo *materialRepository) GetMaterial(ctx context.Context, id string) (material.Material, error) {
	if _, err := uuid.Parse(id); err != nil {
		return material.Material{}, material.ErrNotFound
	}
	var m material.Material
	query := psql.Select(materialColumns...).From("materials m").Join("courses co ON co.id = m.course_id").Where(sq.Eq{"m.id": id})
	if err := repo.db.getBuilt(ctx, &m, query); err != nil {
		if isNoRows(err) {
			return material.Material{}, material.ErrNotFound
		}
		return material.Material{}, errors.Wrap(err, "selecting material")
	}
	return m, nil
}

func materialConds(filter material.QueryFilter) sq.And {
	var crs sq.Sqlizer
	if filter.CourseID != "" {
		crs = sq.Eq{"m.course_id::text": filter.CourseID}
	}
	return conds(crs, inList("m.course_id::text", filter.CourseIDs), search(filter.Search, "m.title", "m.description"))
}

func (repo *materialRepository) QueryMaterials(ctx context.Context, filter material.QueryFilter) ([]material.Material, error) {
	query := psql.Select(materialColumns...).
		From("materials m").
		Join("courses co ON co.id = m.course_id").
		Where(materialConds(filter)).
		OrderBy(orderBy(materialOrdering...)...)
	materials := make([]material.Material, 0)
	if err := repo.db.selectBuilt(ctx, &materials, query); err != nil {
		return nil, errors.Wrap(err, "selecting materials")
	}
	return materials, nil
}

func (repo *materialRepository) CountMaterials(ctx context.Context, filter material.QueryFilter) (int, error) {
	var count int
	if err := repo.db.getBuilt(ctx, &count, psql.Select("COUNT(*)").From("materials m").Where(materialConds(filter))); err != nil {
		return 0, errors.Wrap(err, "counting materials")
	}
	return count, nil
}

func (repo *materialRepository) DeleteMaterial(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return material.ErrNotFound
	}
	res, err := repo.db.execBuilt(ctx, psql.Delete("materials").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting material")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return material.ErrNotFound
	}
	return nil
}
