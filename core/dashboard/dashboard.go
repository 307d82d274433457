package dashboard

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

type AdminStats struct {
	Date          core.Date  `json:"date"`
	TotalStudents int        `json:"total_students"`
	TotalCourses  int        `json:"total_courses"`
	FeesCollected fee.Amount `json:"fees_collected"`
	PresentToday  int        `json:"present_today"`
}

type StudentOverview struct {
	Profile     user.User         `json:"profile"`
	Date        core.Date         `json:"date"`
	TodayStatus attendance.Status `json:"today_status"`
	Courses     int               `json:"courses"`
	Materials   int               `json:"materials"`
	PendingFees int               `json:"pending_fees"`
}

type (
	Students interface {
		CountStudents(ctx context.Context) (int, error)
	}

	Courses interface {
		Query(ctx context.Context, filter course.QueryFilter) ([]course.Course, error)
		Count(ctx context.Context, filter course.QueryFilter) (int, error)
	}

	Attendance interface {
		CountPresent(ctx context.Context, date core.Date) (int, error)
		StatusOn(ctx context.Context, studentID string, date core.Date) (attendance.Status, error)
	}

	Fees interface {
		CompletedTotal(ctx context.Context) (fee.Amount, error)
		Statement(ctx context.Context, student user.User) (fee.StudentStatement, error)
	}

	Materials interface {
		Count(ctx context.Context, filter material.QueryFilter) (int, error)
	}

	Service struct {
		students   Students
		courses    Courses
		attendance Attendance
		fees       Fees
		materials  Materials
	}
)

func NewService(students Students, courses Courses, att Attendance, fees Fees, materials Materials) *Service {
	return &Service{
		students:   students,
		courses:    courses,
		attendance: att,
		fees:       fees,
		materials:  materials,
	}
}

func (svc *Service) AdminStats(ctx context.Context, today core.Date) (AdminStats, error) {
	stats := AdminStats{Date: today}
	var err error

	if stats.TotalStudents, err = svc.students.CountStudents(ctx); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting students")
	}
	if stats.TotalCourses, err = svc.courses.Count(ctx, course.QueryFilter{}); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting courses")
	}
	if stats.FeesCollected, err = svc.fees.CompletedTotal(ctx); err != nil {
		return AdminStats{}, errors.Wrap(err, "summing completed payments")
	}
	if stats.PresentToday, err = svc.attendance.CountPresent(ctx, today); err != nil {
		return AdminStats{}, errors.Wrap(err, "counting present students")
	}
	return stats, nil
}

func (svc *Service) StudentOverview(ctx context.Context, student user.User, today core.Date) (StudentOverview, error) {
	ov := StudentOverview{Profile: student, Date: today}
	var err error

	if ov.TodayStatus, err = svc.attendance.StatusOn(ctx, student.ID, today); err != nil {
		return StudentOverview{}, errors.Wrap(err, "getting today's attendance")
	}

	if student.ClassNumber.Valid {
		courses, err := svc.courses.Query(ctx, course.QueryFilter{ClassNumber: student.ClassNumber})
		if err != nil {
			return StudentOverview{}, errors.Wrap(err, "querying courses")
		}
		ov.Courses = len(courses)

		ids := make([]string, 0, len(courses))
		for _, c := range courses {
			ids = append(ids, c.ID)
		}
		if ov.Materials, err = svc.materials.Count(ctx, material.QueryFilter{CourseIDs: ids}); err != nil {
			return StudentOverview{}, errors.Wrap(err, "counting materials")
		}
	}

	st, err := svc.fees.Statement(ctx, student)
	if err != nil {
		return StudentOverview{}, errors.Wrap(err, "getting fee statement")
	}
	ov.PendingFees = st.Pending
	return ov, nil
}
