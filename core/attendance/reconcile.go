package attendance

import (
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/user"
)

// Reconcile merges the sparse attendance records of date with the roster.
// The view holds exactly one entry per roster member: its record if one exists,
// otherwise a synthesized "absent" record. Records of students outside the
// roster are ignored; if several records match one student, the first wins.
func Reconcile(date core.Date, class null.Int, roster []user.User, records []Record) View {
	byStudent := make(map[string]Record, len(records))
	for _, rec := range records {
		if _, seen := byStudent[rec.StudentID]; !seen {
			byStudent[rec.StudentID] = rec
		}
	}

	view := View{Date: date, Class: class, Entries: make(map[string]Entry, len(roster))}
	for _, student := range roster {
		if rec, ok := byStudent[student.ID]; ok {
			view.Entries[student.ID] = Entry{Kind: EntryPersisted, Student: student, Record: rec}
			continue
		}
		view.Entries[student.ID] = Entry{
			Kind:    EntrySynthesized,
			Student: student,
			Record:  Record{StudentID: student.ID, Date: date, Status: StatusAbsent},
		}
	}
	return view
}
