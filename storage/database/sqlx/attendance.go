package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
)

var (
	recordColumns  = []string{"id", "student_id", "date", "status", "created_at", "updated_at"}
	recordOrdering = []core.DBOrdering{{Field: "date", Ascending: true}, {Field: "student_id", Ascending: true}}
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func recordConds(filter attendance.RecordFilter) sq.And {
	var date, from, to, status sq.Sqlizer
	if !filter.Date.IsZero() {
		date = sq.Eq{"date": filter.Date}
	}
	if !filter.From.IsZero() {
		from = sq.GtOrEq{"date": filter.From}
	}
	if !filter.To.IsZero() {
		to = sq.LtOrEq{"date": filter.To}
	}
	if filter.Status != "" {
		status = sq.Eq{"status": filter.Status}
	}
	return conds(date, from, to, inList("student_id::text", filter.StudentIDs), status)
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	query := psql.Select(recordColumns...).From("attendance").Where(recordConds(filter)).OrderBy(orderBy(recordOrdering...)...)
	records := make([]attendance.Record, 0)
	if err := repo.db.selectBuilt(ctx, &records, query); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}
	return records, nil
}

func (repo *attendanceRepository) GetRecord(ctx context.Context, studentID string, date core.Date) (attendance.Record, error) {
	query := psql.Select(recordColumns...).From("attendance").Where(sq.Eq{"student_id::text": studentID, "date": date})
	var rec attendance.Record
	if err := repo.db.getBuilt(ctx, &rec, query); err != nil {
		if isNoRows(err) {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return rec, nil
}

// upsertRecord keeps the existing row's id & created_at on a (student_id, date) conflict.
func upsertRecord(rec attendance.Record) sq.InsertBuilder {
	return psql.Insert("attendance").
		Columns(recordColumns...).
		Values(rec.ID, rec.StudentID, rec.Date, rec.Status, rec.CreatedAt, rec.UpdatedAt).
		Suffix(`ON CONFLICT (student_id, date) DO UPDATE SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at`).
		Suffix("RETURNING " + strings.Join(recordColumns, ", "))
}

func (repo *attendanceRepository) SaveRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	var saved attendance.Record
	if err := repo.db.getBuilt(ctx, &saved, upsertRecord(rec)); err != nil {
		return attendance.Record{}, errors.Wrap(err, "saving attendance record")
	}
	return saved, nil
}

func (repo *attendanceRepository) CountRecords(ctx context.Context, filter attendance.RecordFilter) (int, error) {
	var count int
	if err := repo.db.getBuilt(ctx, &count, psql.Select("COUNT(*)").From("attendance").Where(recordConds(filter))); err != nil {
		return 0, errors.Wrap(err, "counting attendance records")
	}
	return count, nil
}
