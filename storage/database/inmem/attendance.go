package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) filter(filter attendance.RecordFilter) []attendance.Record {
	records := make([]attendance.Record, 0)
	for _, rec := range repo.db.attendance.table {
		if !filter.Date.IsZero() && !rec.Date.Equal(filter.Date) {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.After(filter.To) {
			continue
		}
		if filter.StudentIDs != nil && !containsString(filter.StudentIDs, rec.StudentID) {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		records = append(records, *rec)
	}
	return records
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.RecordFilter) ([]attendance.Record, error) {
	repo.db.attendance.mutex.RLock()
	defer repo.db.attendance.mutex.RUnlock()

	records := repo.filter(filter)
	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.Before(records[j].Date)
		}
		return records[i].StudentID < records[j].StudentID
	})
	return records, nil
}

func (repo *attendanceRepository) GetRecord(_ context.Context, studentID string, date core.Date) (attendance.Record, error) {
	repo.db.attendance.mutex.RLock()
	defer repo.db.attendance.mutex.RUnlock()

	for _, rec := range repo.db.attendance.table {
		if rec.StudentID == studentID && rec.Date.Equal(date) {
			return *rec, nil
		}
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) SaveRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.attendance.mutex.Lock()
	defer repo.db.attendance.mutex.Unlock()

	for _, r := range repo.db.attendance.table {
		if r.StudentID == rec.StudentID && r.Date.Equal(rec.Date) {
			r.Status = rec.Status
			r.UpdatedAt = rec.UpdatedAt
			return *r, nil
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	repo.db.attendance.table[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) CountRecords(_ context.Context, filter attendance.RecordFilter) (int, error) {
	repo.db.attendance.mutex.RLock()
	defer repo.db.attendance.mutex.RUnlock()
	return len(repo.filter(filter)), nil
}
