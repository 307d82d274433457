package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

var ErrNotFound = core.NewNotFoundError("attendance record")

// DefaultHistoryDays is the span of a student's history when no range is given.
const DefaultHistoryDays = 30

type (
	Repository interface {
		// QueryRecords returns the matching records ordered by date, then student ID.
		QueryRecords(ctx context.Context, filter RecordFilter) ([]Record, error)
		GetRecord(ctx context.Context, studentID string, date core.Date) (Record, error)
		// SaveRecord inserts rec, or overwrites the status of the student's record on that date.
		SaveRecord(ctx context.Context, rec Record) (Record, error)
		CountRecords(ctx context.Context, filter RecordFilter) (int, error)
	}

	Roster interface {
		Roster(ctx context.Context, classNumber null.Int) ([]user.User, error)
		GetStudent(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo   Repository
		roster Roster
	}
)

func NewService(repo Repository, roster Roster) *Service {
	return &Service{repo: repo, roster: roster}
}

// View builds the reconciled attendance of date for the roster of class (all students if class is null).
func (svc *Service) View(ctx context.Context, date core.Date, class null.Int) (View, error) {
	roster, err := svc.roster.Roster(ctx, class)
	if err != nil {
		return View{}, errors.Wrap(err, "fetching roster")
	}
	if len(roster) == 0 {
		return Reconcile(date, class, nil, nil), nil
	}

	ids := make([]string, 0, len(roster))
	for _, student := range roster {
		ids = append(ids, student.ID)
	}
	records, err := svc.repo.QueryRecords(ctx, RecordFilter{Date: date, StudentIDs: ids})
	if err != nil {
		return View{}, errors.Wrap(err, "querying attendance records")
	}
	return Reconcile(date, class, roster, records), nil
}

// Mark sets the status of one student on the given date. Concurrent marks of the same
// student and date resolve to the last one saved. The view is then rebuilt from storage.
func (svc *Service) Mark(ctx context.Context, data MarkAttendance) (View, error) {
	if !data.Status.IsValid() {
		return View{}, core.NewValidationError(nil, core.FieldError{Field: "status", Error: statusText})
	}
	if data.Date.IsZero() {
		return View{}, core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}
	if _, err := svc.roster.GetStudent(ctx, data.StudentID); err != nil {
		return View{}, errors.Wrap(err, "finding student")
	}

	now := time.Now().UTC()
	rec := Record{
		StudentID: data.StudentID,
		Date:      data.Date,
		Status:    data.Status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := svc.repo.SaveRecord(ctx, rec); err != nil {
		return View{}, errors.Wrap(err, "saving attendance record")
	}

	return svc.View(ctx, data.Date, data.Class)
}

// History returns a student's persisted records between from and to (inclusive).
// A zero to means today; a zero from means DefaultHistoryDays before to.
func (svc *Service) History(ctx context.Context, studentID string, from, to core.Date) ([]Record, error) {
	if to.IsZero() {
		to = core.Today()
	}
	if from.IsZero() {
		from = to.AddDays(-DefaultHistoryDays)
	}
	if from.After(to) {
		return nil, core.NewValidationError(nil, core.FieldError{Field: "from", Error: "must not be after to"})
	}
	return svc.repo.QueryRecords(ctx, RecordFilter{From: from, To: to, StudentIDs: []string{studentID}})
}

// StatusOn returns a student's status on date, "absent" when nothing was recorded.
func (svc *Service) StatusOn(ctx context.Context, studentID string, date core.Date) (Status, error) {
	rec, err := svc.repo.GetRecord(ctx, studentID, date)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return StatusAbsent, nil
		}
		return "", errors.Wrap(err, "getting attendance record")
	}
	return rec.Status, nil
}

func (svc *Service) CountPresent(ctx context.Context, date core.Date) (int, error) {
	return svc.repo.CountRecords(ctx, RecordFilter{Date: date, Status: StatusPresent})
}
