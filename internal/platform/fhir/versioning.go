package fhir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// FormatETag renders a weak ETag for a resource version, W/"3".
func FormatETag(version int) string {
	return fmt.Sprintf(`W/"%d"`, version)
}

// ParseETag extracts the version from an ETag value like W/"3" or "3".
func ParseETag(etag string) (int, error) {
	etag = strings.TrimSpace(etag)
	etag = strings.TrimPrefix(etag, "W/")
	etag = strings.Trim(etag, `"`)
	v, err := strconv.Atoi(etag)
	if err != nil {
		return 0, fmt.Errorf("ETag must carry a numeric version: %q", etag)
	}
	return v, nil
}

// SetVersionHeaders stamps ETag and Last-Modified on the response. Every
// read and write response derives these from the record's version counter,
// never recomputed per endpoint.
func SetVersionHeaders(c echo.Context, version int, lastModified string) {
	c.Response().Header().Set("ETag", FormatETag(version))
	if lastModified != "" {
		c.Response().Header().Set("Last-Modified", lastModified)
	}
}

// SetLocationHeader stamps the Location header after a create.
func SetLocationHeader(c echo.Context, resourceType, id string) {
	c.Response().Header().Set("Location", FormatReference(resourceType, id))
}

// ExpectedVersion reads the If-Match header. A missing header yields 0,
// meaning an unconditional update (last write wins).
func ExpectedVersion(c echo.Context) (int, error) {
	ifMatch := c.Request().Header.Get("If-Match")
	if ifMatch == "" {
		return 0, nil
	}
	v, err := ParseETag(ifMatch)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed If-Match header %q", ErrInvalid, ifMatch)
	}
	return v, nil
}
