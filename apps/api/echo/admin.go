package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/classroom"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/export"
	"github.com/trezcool/schooldesk/core/fee"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

const adminGroupPath = "/admin"

var todayFunc = core.Today // mockable

type adminApi struct {
	deps ServerDeps
}

func registerAdminAPI(g *echo.Group, deps ServerDeps) {
	api := adminApi{deps: deps}

	g.GET("/dashboard", api.dashboard)

	g.GET("/students", api.queryStudents)
	g.POST("/students", api.createStudent)
	g.DELETE("/students/:id", api.destroyStudent)

	g.GET("/classes", api.queryClasses)
	g.POST("/classes", api.createClass)

	g.GET("/courses", api.queryCourses)
	g.POST("/courses", api.createCourse)
	g.DELETE("/courses/:id", api.destroyCourse)

	g.GET("/attendance", api.attendanceView)
	g.GET("/attendance/export", api.exportAttendance)
	g.PUT("/attendance/:student_id", api.markAttendance)

	g.GET("/fees", api.queryFees)
	g.POST("/fees", api.createFee)
	g.GET("/fees/export", api.exportFees)

	g.GET("/payments", api.queryPayments)
	g.POST("/payments", api.recordPayment)
	g.PATCH("/payments/:id", api.updatePayment)

	g.GET("/materials", api.queryMaterials)
	g.POST("/materials", api.createMaterial)
	g.DELETE("/materials/:id", api.destroyMaterial)
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	stats, err := api.deps.DashboardSvc.AdminStats(ctx.Request().Context(), todayFunc())
	if err != nil {
		return errors.Wrap(err, "computing admin stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Students

func (api *adminApi) queryStudents(ctx echo.Context) error {
	class, err := classNumberParam(ctx, classParam)
	if err != nil {
		return err
	}
	students, err := api.deps.UserSvc.Query(ctx.Request().Context(), user.QueryFilter{
		Role:        user.RoleStudent,
		ClassNumber: class,
		Search:      searchQueryParam(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []user.User{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *adminApi) createStudent(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	data.Role = user.RoleStudent
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.deps.Validate, api.deps.UserSvc); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) destroyStudent(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	student, err := api.deps.UserSvc.GetStudent(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding student")
	}
	if err = api.deps.UserSvc.Delete(rctx, student.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Classes

func (api *adminApi) queryClasses(ctx echo.Context) error {
	number, err := classNumberParam(ctx, "number")
	if err != nil {
		return err
	}
	classes, err := api.deps.ClassSvc.Query(ctx.Request().Context(), classroom.QueryFilter{Number: number})
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []classroom.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *adminApi) createClass(ctx echo.Context) error {
	var data classroom.NewClass
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClass")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	class, err := api.deps.ClassSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating class")
	}
	return ctx.JSON(http.StatusCreated, class)
}

// Courses

func (api *adminApi) queryCourses(ctx echo.Context) error {
	courses, err := api.deps.CourseSvc.Query(ctx.Request().Context(), course.QueryFilter{
		ClassID: core.CleanString(ctx.QueryParam("class_id"), true /* lower */),
		Search:  searchQueryParam(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *adminApi) createCourse(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	crs, err := api.deps.CourseSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *adminApi) destroyCourse(ctx echo.Context) error {
	if err := api.deps.CourseSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Attendance

type AttendanceResponse struct {
	Date    core.Date          `json:"date"`
	Class   *int               `json:"class"`
	Total   int                `json:"total"`
	Entries []attendance.Entry `json:"entries"`
}

func newAttendanceResponse(view attendance.View, search string) AttendanceResponse {
	resp := AttendanceResponse{Date: view.Date, Total: view.Len(), Entries: view.List(search)}
	if view.Class.Valid {
		class := view.Class.Int
		resp.Class = &class
	}
	return resp
}

// attendanceQuery reads the date (default: today) & class of an attendance view.
func attendanceQuery(ctx echo.Context) (core.Date, null.Int, error) {
	date, err := dateQueryParam(ctx, dateParam, todayFunc())
	if err != nil {
		return core.Date{}, null.Int{}, err
	}
	class, err := classNumberParam(ctx, classParam)
	if err != nil {
		return core.Date{}, null.Int{}, err
	}
	return date, class, nil
}

func (api *adminApi) buildView(ctx echo.Context) (attendance.View, error) {
	date, class, err := attendanceQuery(ctx)
	if err != nil {
		return attendance.View{}, err
	}
	view, err := api.deps.AttendanceSvc.View(ctx.Request().Context(), date, class)
	if err != nil {
		return attendance.View{}, errors.Wrap(err, "building attendance view")
	}
	return view, nil
}

func (api *adminApi) attendanceView(ctx echo.Context) error {
	view, err := api.buildView(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newAttendanceResponse(view, searchQueryParam(ctx)))
}

func (api *adminApi) markAttendance(ctx echo.Context) error {
	var body struct {
		Status attendance.Status `json:"status"`
	}
	if err := ctx.Bind(&body); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	date, class, err := attendanceQuery(ctx)
	if err != nil {
		return err
	}

	data := attendance.MarkAttendance{
		StudentID: ctx.Param("student_id"),
		Status:    body.Status,
		Date:      date,
		Class:     class,
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}

	view, err := api.deps.AttendanceSvc.Mark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, newAttendanceResponse(view, searchQueryParam(ctx)))
}

func (api *adminApi) exportAttendance(ctx echo.Context) error {
	view, err := api.buildView(ctx)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err = export.Attendance(&buf, view.List(searchQueryParam(ctx))); err != nil {
		return errors.Wrap(err, "exporting attendance")
	}
	return sendCSV(ctx, export.AttendanceFilename(view.Date), buf.Bytes())
}

// Fees & payments

func (api *adminApi) feeFilter(ctx echo.Context) fee.FeeFilter {
	return fee.FeeFilter{
		ClassID: core.CleanString(ctx.QueryParam("class_id"), true /* lower */),
		Search:  searchQueryParam(ctx),
	}
}

func (api *adminApi) queryFees(ctx echo.Context) error {
	fees, err := api.deps.FeeSvc.QueryFees(ctx.Request().Context(), api.feeFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *adminApi) createFee(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	f, err := api.deps.FeeSvc.CreateFee(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating fee")
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *adminApi) exportFees(ctx echo.Context) error {
	fees, err := api.deps.FeeSvc.QueryFees(ctx.Request().Context(), api.feeFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	var buf bytes.Buffer
	if err = export.Fees(&buf, fees); err != nil {
		return errors.Wrap(err, "exporting fees")
	}
	return sendCSV(ctx, export.FeesFilename(todayFunc()), buf.Bytes())
}

func (api *adminApi) queryPayments(ctx echo.Context) error {
	payments, err := api.deps.FeeSvc.QueryPayments(ctx.Request().Context(), fee.PaymentFilter{
		StudentID: core.CleanString(ctx.QueryParam("student_id"), true /* lower */),
		FeeID:     core.CleanString(ctx.QueryParam("fee_id"), true /* lower */),
		Status:    fee.PaymentStatus(core.CleanString(ctx.QueryParam("status"), true /* lower */)),
	})
	if err != nil {
		return errors.Wrap(err, "querying payments")
	}
	if payments == nil {
		payments = []fee.Payment{}
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *adminApi) recordPayment(ctx echo.Context) error {
	var data fee.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	p, err := api.deps.FeeSvc.RecordPayment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording payment")
	}
	return ctx.JSON(http.StatusCreated, p)
}

func (api *adminApi) updatePayment(ctx echo.Context) error {
	var data fee.UpdatePayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdatePayment")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	p, err := api.deps.FeeSvc.SetPaymentStatus(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating payment status")
	}
	return ctx.JSON(http.StatusOK, p)
}

// Materials

func (api *adminApi) queryMaterials(ctx echo.Context) error {
	materials, err := api.deps.MaterialSvc.Query(ctx.Request().Context(), material.QueryFilter{
		CourseID: core.CleanString(ctx.QueryParam("course_id"), true /* lower */),
		Search:   searchQueryParam(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if materials == nil {
		materials = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *adminApi) createMaterial(ctx echo.Context) error {
	var data material.NewMaterial
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMaterial")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	m, err := api.deps.MaterialSvc.Create(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return errors.Wrap(err, "creating material")
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *adminApi) destroyMaterial(ctx echo.Context) error {
	if err := api.deps.MaterialSvc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting material")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func sendCSV(ctx echo.Context, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, export.ContentType, data)
}
