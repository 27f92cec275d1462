package fhir

import (
	"strings"

	"github.com/labstack/echo/v4"
)

// MIMETypeFHIRJSON is the content type for all FHIR payloads.
const MIMETypeFHIRJSON = "application/fhir+json"

// ContentTypeMiddleware accepts application/fhir+json request bodies and
// rewrites JSON responses on the FHIR group to the FHIR media type.
//
// Echo's default binder only reads bodies tagged application/json, so the
// request header is normalized before binding and the FHIR type is restored
// on the way out.
func ContentTypeMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqHeader := c.Request().Header
			if strings.HasPrefix(reqHeader.Get(echo.HeaderContentType), MIMETypeFHIRJSON) {
				reqHeader.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			}
			c.Response().Before(func() {
				header := c.Response().Header()
				if strings.HasPrefix(header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
					header.Set(echo.HeaderContentType, MIMETypeFHIRJSON+"; charset=utf-8")
				}
			})
			return next(c)
		}
	}
}
