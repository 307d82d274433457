package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/schooldesk/core"
	"github.com/trezcool/schooldesk/core/attendance"
	"github.com/trezcool/schooldesk/core/course"
	"github.com/trezcool/schooldesk/core/material"
	"github.com/trezcool/schooldesk/core/user"
)

const portalGroupPath = "/student"

// portalApi serves the signed-in student's own data.
type portalApi struct {
	deps ServerDeps
}

func registerPortalAPI(g *echo.Group, deps ServerDeps) {
	api := portalApi{deps: deps}

	g.GET("/dashboard", api.dashboard)
	g.GET("/profile", api.profile)
	g.GET("/courses", api.courses)
	g.GET("/attendance", api.attendance)
	g.GET("/materials", api.materials)
	g.GET("/fees", api.fees)
}

func (api *portalApi) dashboard(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	ov, err := api.deps.DashboardSvc.StudentOverview(ctx.Request().Context(), usr, todayFunc())
	if err != nil {
		return errors.Wrap(err, "computing student overview")
	}
	return ctx.JSON(http.StatusOK, ov)
}

func (api *portalApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *portalApi) ownCourses(ctx echo.Context, usr user.User, search string) ([]course.Course, error) {
	if !usr.ClassNumber.Valid {
		return []course.Course{}, nil
	}
	courses, err := api.deps.CourseSvc.Query(ctx.Request().Context(), course.QueryFilter{
		ClassNumber: usr.ClassNumber,
		Search:      search,
	})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return courses, nil
}

func (api *portalApi) courses(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.ownCourses(ctx, usr, searchQueryParam(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *portalApi) attendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	from, err := dateQueryParam(ctx, "from", core.Date{})
	if err != nil {
		return err
	}
	to, err := dateQueryParam(ctx, "to", core.Date{})
	if err != nil {
		return err
	}

	records, err := api.deps.AttendanceSvc.History(ctx.Request().Context(), usr.ID, from, to)
	if err != nil {
		return errors.Wrap(err, "querying attendance history")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *portalApi) materials(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	courses, err := api.ownCourses(ctx, usr, "")
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	materials, err := api.deps.MaterialSvc.Query(ctx.Request().Context(), material.QueryFilter{
		CourseIDs: ids,
		Search:    searchQueryParam(ctx),
	})
	if err != nil {
		return errors.Wrap(err, "querying materials")
	}
	if materials == nil {
		materials = []material.Material{}
	}
	return ctx.JSON(http.StatusOK, materials)
}

func (api *portalApi) fees(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	st, err := api.deps.FeeSvc.Statement(ctx.Request().Context(), usr)
	if err != nil {
		return errors.Wrap(err, "getting fee statement")
	}
	return ctx.JSON(http.StatusOK, st)
}
