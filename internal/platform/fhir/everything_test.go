package fhir

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newEverythingServer(h *EverythingHandler) *echo.Echo {
	e := echo.New()
	h.RegisterRoutes(e.Group("/fhir"))
	return e
}

func TestEverythingAggregatesRelatedResources(t *testing.T) {
	patient := func(ctx context.Context, id string) (interface{}, error) {
		if id != "p1" {
			return nil, errors.New("no such patient")
		}
		return map[string]string{"resourceType": "Patient", "id": id}, nil
	}

	h := NewEverythingHandler("http://localhost/fhir", patient)
	h.RegisterFetcher("Appointment", func(ctx context.Context, patientID string, window DateWindow) ([]interface{}, error) {
		return []interface{}{
			map[string]string{"resourceType": "Appointment", "id": "a1"},
			map[string]string{"resourceType": "Appointment", "id": "a2"},
		}, nil
	})
	h.RegisterFetcher("Observation", func(ctx context.Context, patientID string, window DateWindow) ([]interface{}, error) {
		return []interface{}{
			map[string]string{"resourceType": "Observation", "id": "o1"},
		}, nil
	})

	e := newEverythingServer(h)
	req := httptest.NewRequest(http.MethodGet, "/fhir/Patient/p1/$everything", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var b Bundle
	if err := json.Unmarshal(rec.Body.Bytes(), &b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b.Type != "searchset" {
		t.Errorf("bundle type = %q", b.Type)
	}
	if b.Total == nil || *b.Total != 4 {
		t.Fatalf("total = %v, want 4", b.Total)
	}

	first := b.Entry[0]
	if first.Search == nil || first.Search.Mode != SearchModeMatch {
		t.Errorf("patient entry mode = %+v", first.Search)
	}
	if first.FullURL != "http://localhost/fhir/Patient/p1" {
		t.Errorf("patient fullUrl = %q", first.FullURL)
	}

	wantTypes := []string{"Patient", "Appointment", "Appointment", "Observation"}
	for i, entry := range b.Entry {
		var res struct {
			ResourceType string `json:"resourceType"`
		}
		if err := json.Unmarshal(entry.Resource, &res); err != nil {
			t.Fatalf("entry %d: %v", i, err)
		}
		if res.ResourceType != wantTypes[i] {
			t.Errorf("entry %d type = %q, want %q", i, res.ResourceType, wantTypes[i])
		}
		if i > 0 && (entry.Search == nil || entry.Search.Mode != SearchModeInclude) {
			t.Errorf("entry %d mode = %+v, want include", i, entry.Search)
		}
	}
}

func TestEverythingForwardsDateWindow(t *testing.T) {
	patient := func(ctx context.Context, id string) (interface{}, error) {
		return map[string]string{"resourceType": "Patient", "id": id}, nil
	}

	var got DateWindow
	h := NewEverythingHandler("http://localhost/fhir", patient)
	h.RegisterFetcher("Condition", func(ctx context.Context, patientID string, window DateWindow) ([]interface{}, error) {
		got = window
		return nil, nil
	})

	e := newEverythingServer(h)
	req := httptest.NewRequest(http.MethodGet, "/fhir/Patient/p1/$everything?start=2024-01-01&end=2024-06-30", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if got.Start == nil || !got.Start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window start = %v", got.Start)
	}
	if got.End == nil || !got.End.Equal(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("window end = %v", got.End)
	}
}

func TestEverythingMissingPatient(t *testing.T) {
	patient := func(ctx context.Context, id string) (interface{}, error) {
		return nil, ErrNotFound
	}
	h := NewEverythingHandler("http://localhost/fhir", patient)

	e := newEverythingServer(h)
	req := httptest.NewRequest(http.MethodGet, "/fhir/Patient/nope/$everything", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	var oo OperationOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &oo); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(oo.Issue) == 0 || oo.Issue[0].Code != IssueTypeNotFound {
		t.Errorf("outcome = %+v", oo)
	}
}

func TestEverythingInvalidDates(t *testing.T) {
	patient := func(ctx context.Context, id string) (interface{}, error) {
		t.Fatal("patient fetcher must not run on invalid input")
		return nil, nil
	}
	h := NewEverythingHandler("http://localhost/fhir", patient)

	e := newEverythingServer(h)
	for _, query := range []string{"?start=not-a-date", "?end=31/12/2024"} {
		req := httptest.NewRequest(http.MethodGet, "/fhir/Patient/p1/$everything"+query, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", query, rec.Code)
		}
	}
}

func TestEverythingRelatedFetcherError(t *testing.T) {
	patient := func(ctx context.Context, id string) (interface{}, error) {
		return map[string]string{"resourceType": "Patient", "id": id}, nil
	}
	h := NewEverythingHandler("http://localhost/fhir", patient)
	h.RegisterFetcher("MedicationRequest", func(ctx context.Context, patientID string, window DateWindow) ([]interface{}, error) {
		return nil, errors.New("connection reset")
	})

	e := newEverythingServer(h)
	req := httptest.NewRequest(http.MethodGet, "/fhir/Patient/p1/$everything", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestDateWindowContains(t *testing.T) {
	at := func(s string) *time.Time {
		ts, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		return &ts
	}

	tests := []struct {
		name   string
		window DateWindow
		t      *time.Time
		want   bool
	}{
		{"unbounded matches nil", DateWindow{}, nil, true},
		{"unbounded matches any", DateWindow{}, at("2024-03-15"), true},
		{"nil misses bounded", DateWindow{Start: at("2024-01-01")}, nil, false},
		{"inside", DateWindow{Start: at("2024-01-01"), End: at("2024-12-31")}, at("2024-06-15"), true},
		{"before start", DateWindow{Start: at("2024-01-01")}, at("2023-12-31"), false},
		{"after end", DateWindow{End: at("2024-12-31")}, at("2025-01-01"), false},
		{"on boundary", DateWindow{Start: at("2024-01-01")}, at("2024-01-01"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.window.Contains(tt.t); got != tt.want {
				t.Errorf("Contains = %v, want %v", got, tt.want)
			}
		})
	}
}
