package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const MaxLimit = 500

const TotalCountHeader = "X-Total-Count"

// Params holds pagination parameters extracted from a request. A zero
// Limit means every row.
type Params struct {
	Limit  int
	Offset int
}

// FromContext reads the optional limit and offset query parameters.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// LimitArg is the value to bind to a LIMIT placeholder; NULL means no limit.
func (p Params) LimitArg() interface{} {
	if p.Limit <= 0 {
		return nil
	}
	return p.Limit
}

// SetTotal reports the unpaginated row count in a response header so list
// bodies can stay plain arrays.
func SetTotal(c echo.Context, total int) {
	c.Response().Header().Set(TotalCountHeader, strconv.Itoa(total))
}
