package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/schooldesk/core"
)

var (
	classParam  = "class"
	dateParam   = "date"
	searchParam = "search"
)

const allClasses = "all"

// classNumberParam reads an optional class number from the query string; "all" means no filter.
func classNumberParam(ctx echo.Context, name string) (null.Int, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" || strings.EqualFold(val, allClasses) {
		return null.Int{}, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return null.Int{}, core.NewValidationError(nil, core.FieldError{Field: name, Error: "must be a class number"})
	}
	return null.IntFrom(n), nil
}

// dateQueryParam reads an optional YYYY-MM-DD date from the query string, falling back to def.
func dateQueryParam(ctx echo.Context, name string, def core.Date) (core.Date, error) {
	val := core.CleanString(ctx.QueryParam(name))
	if val == "" {
		return def, nil
	}
	d, err := core.ParseDate(val)
	if err != nil {
		return core.Date{}, core.NewValidationError(nil, core.FieldError{
			Field: name, Error: "invalid date, expected format YYYY-MM-DD",
		})
	}
	return d, nil
}

func searchQueryParam(ctx echo.Context) string {
	return core.CleanString(ctx.QueryParam(searchParam))
}
