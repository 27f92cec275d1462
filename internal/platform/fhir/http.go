package fhir

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// WriteError renders err as an OperationOutcome with the HTTP status that
// matches the sentinel wrapped inside it.
func WriteError(c echo.Context, err error, resourceType, id string) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, ErrInvalid):
		status = http.StatusBadRequest
	}
	return c.JSON(status, OutcomeForError(err, resourceType, id))
}
