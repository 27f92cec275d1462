package fhir

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestFormatParseETag(t *testing.T) {
	if got := FormatETag(3); got != `W/"3"` {
		t.Errorf("FormatETag(3) = %q", got)
	}
	for _, raw := range []string{`W/"3"`, `"3"`, "3", ` W/"3" `} {
		v, err := ParseETag(raw)
		if err != nil || v != 3 {
			t.Errorf("ParseETag(%q) = %d, %v", raw, v, err)
		}
	}
	if _, err := ParseETag(`W/"abc"`); err == nil {
		t.Error("non-numeric ETag must fail")
	}
}

func TestExpectedVersion(t *testing.T) {
	e := echo.New()

	t.Run("absent means unconditional", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		v, err := ExpectedVersion(c)
		if err != nil || v != 0 {
			t.Errorf("got %d, %v", v, err)
		}
	})

	t.Run("valid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		req.Header.Set("If-Match", `W/"7"`)
		c := e.NewContext(req, httptest.NewRecorder())
		v, err := ExpectedVersion(c)
		if err != nil || v != 7 {
			t.Errorf("got %d, %v", v, err)
		}
	})

	t.Run("malformed is invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/", nil)
		req.Header.Set("If-Match", "garbage")
		c := e.NewContext(req, httptest.NewRecorder())
		_, err := ExpectedVersion(c)
		if !errors.Is(err, ErrInvalid) {
			t.Errorf("err = %v, want ErrInvalid", err)
		}
	})
}

func TestSetVersionHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	SetVersionHeaders(c, 2, "Mon, 02 Jan 2006 15:04:05 GMT")

	if got := rec.Header().Get("ETag"); got != `W/"2"` {
		t.Errorf("ETag = %q", got)
	}
	if got := rec.Header().Get("Last-Modified"); got == "" {
		t.Error("Last-Modified not set")
	}
}
