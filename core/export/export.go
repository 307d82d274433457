// Package export renders list views as CSV downloads.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/fee"
)

const ContentType = "text/csv"

var (
	attendanceHeader = []string{"Name", "Class", "Status", "Date"}
	feesHeader       = []string{"Class", "Amount", "Due Date", "Description", "Created At"}
)

func AttendanceFilename(date core.Date) string {
	return fmt.Sprintf("attendance-%s.csv", date)
}

func FeesFilename(today core.Date) string {
	return fmt.Sprintf("fees-%s.csv", today)
}

// Attendance writes one row per entry, in the given order.
func Attendance(w io.Writer, entries []attendance.Entry) error {
	rows := make([][]string, 0, len(entries)+1)
	rows = append(rows, attendanceHeader)
	for _, e := range entries {
		class := ""
		if e.Student.ClassNumber.Valid {
			class = fmt.Sprintf("Class %d", e.Student.ClassNumber.Int)
		}
		rows = append(rows, []string{e.Student.FullName, class, string(e.Record.Status), e.Record.Date.String()})
	}
	return writeAll(w, rows)
}

func Fees(w io.Writer, fees []fee.Fee) error {
	rows := make([][]string, 0, len(fees)+1)
	rows = append(rows, feesHeader)
	for _, f := range fees {
		rows = append(rows, []string{
			f.Class.String(),
			f.Amount.String(),
			f.DueDate.String(),
			f.Description,
			core.DateOf(f.CreatedAt).String(),
		})
	}
	return writeAll(w, rows)
}

func writeAll(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return errors.Wrap(err, "writing csv")
	}
	return nil
}
