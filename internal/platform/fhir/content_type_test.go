package fhir

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestContentTypeMiddlewareBindsFHIRJSONBody(t *testing.T) {
	e := echo.New()
	e.Use(ContentTypeMiddleware())
	e.POST("/Patient", func(c echo.Context) error {
		var payload struct {
			ResourceType string `json:"resourceType"`
		}
		if err := c.Bind(&payload); err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, payload)
	})

	req := httptest.NewRequest(http.MethodPost, "/Patient", strings.NewReader(`{"resourceType":"Patient"}`))
	req.Header.Set(echo.HeaderContentType, MIMETypeFHIRJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Patient") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestContentTypeMiddlewareRewritesResponse(t *testing.T) {
	e := echo.New()
	e.Use(ContentTypeMiddleware())
	e.GET("/Patient/1", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"resourceType": "Patient"})
	})

	req := httptest.NewRequest(http.MethodGet, "/Patient/1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	got := rec.Header().Get(echo.HeaderContentType)
	if !strings.HasPrefix(got, MIMETypeFHIRJSON) {
		t.Errorf("Content-Type = %q, want prefix %q", got, MIMETypeFHIRJSON)
	}
}
