package attendance

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate}

func (s Status) IsValid() bool {
	for _, status := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Record is one persisted attendance row; at most one exists per (student, date).
type Record struct {
	ID        string    `db:"id" json:"id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Date      core.Date `db:"date" json:"date"`
	Status    Status    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at,omitempty"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

type EntryKind int

const (
	EntryPersisted EntryKind = iota
	EntrySynthesized
)

func (k EntryKind) String() string {
	if k == EntryPersisted {
		return "persisted"
	}
	return "synthesized"
}

func (k EntryKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Entry is a roster member merged with their attendance for the view's date.
// Synthesized entries carry a default "absent" record with an empty ID that was never stored.
type Entry struct {
	Kind    EntryKind `json:"kind"`
	Student user.User `json:"student"`
	Record  Record    `json:"record"`
}

func (e Entry) Persisted() bool { return e.Kind == EntryPersisted }

// View is the reconciled attendance of a roster for one date, keyed by student ID.
type View struct {
	Date    core.Date
	Class   null.Int
	Entries map[string]Entry
}

func (v View) Len() int { return len(v.Entries) }

// List returns the entries ordered by student full name, then ID.
// A non-empty search keeps only students whose full name contains it (case-insensitive).
func (v View) List(search string) []Entry {
	search = core.CleanString(search)
	entries := make([]Entry, 0, len(v.Entries))
	for _, e := range v.Entries {
		if core.ContainsFold(e.Student.FullName, search) {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		si, sj := entries[i].Student, entries[j].Student
		if si.FullName != sj.FullName {
			return si.FullName < sj.FullName
		}
		return si.ID < sj.ID
	})
	return entries
}

// MarkAttendance is the payload of an attendance edit.
type MarkAttendance struct {
	StudentID string    `json:"student_id" validate:"required"`
	Status    Status    `json:"status" validate:"required,attendance_status"`
	Date      core.Date `json:"date" validate:"required"`
	Class     null.Int  `json:"class"`
}

func (ma *MarkAttendance) Validate(validate *validator.Validate) error {
	ma.StudentID = core.CleanString(ma.StudentID)
	ma.Status = Status(core.CleanString(string(ma.Status), true /* lower */))
	return validate.Struct(ma)
}

// RecordFilter narrows QueryRecords. Zero values mean "no constraint", except
// StudentIDs: nil means any student, an empty non-nil slice matches nothing.
type RecordFilter struct {
	Date       core.Date
	From       core.Date
	To         core.Date
	StudentIDs []string
	Status     Status
}
