// Package pagination extracts the FHIR result-window parameters shared by
// every search endpoint.
package pagination

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultCount = 20
	MaxCount     = 100
)

// Params is the result window of a search request.
type Params struct {
	Count  int
	Offset int
}

// FromContext reads _count and _offset, applying the defaults and cap.
func FromContext(c echo.Context) Params {
	count, _ := strconv.Atoi(c.QueryParam("_count"))
	if count <= 0 {
		count = DefaultCount
	}
	if count > MaxCount {
		count = MaxCount
	}

	offset, _ := strconv.Atoi(c.QueryParam("_offset"))
	if offset < 0 {
		offset = 0
	}

	return Params{Count: count, Offset: offset}
}

// HasNext reports whether results remain after the current page.
func (p Params) HasNext(total int) bool {
	return p.Offset+p.Count < total
}

// HasPrevious reports whether the current page is past the first.
func (p Params) HasPrevious() bool {
	return p.Offset > 0
}
