package echoapi

import (
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mustafamuse/irshad-center-sub008/core"
	"github.com/mustafamuse/irshad-center-sub008/core/profile"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		if field == "" || field == "-" {
			continue
		}
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// dateLayout is the format of date-only request fields.
const dateLayout = "2006-01-02"

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, core.NewValidationError(err, core.FieldError{Field: field, Error: "enter a date as YYYY-MM-DD"})
	}
	return d, nil
}

func parseProgram(value string) (profile.Program, error) {
	program, ok := profile.ParseProgram(value)
	if !ok {
		return "", core.NewValidationError(nil, core.FieldError{Field: "program", Error: "unknown program"})
	}
	return program, nil
}

type SuccessResponse struct {
	Success string `json:"success"`
}
