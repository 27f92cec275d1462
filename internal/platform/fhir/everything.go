package fhir

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DateWindow bounds the $everything fan-out. Nil ends are open.
type DateWindow struct {
	Start *time.Time
	End   *time.Time
}

// Contains reports whether t falls inside the window. A nil t only matches
// an unbounded window.
func (w DateWindow) Contains(t *time.Time) bool {
	if w.Start == nil && w.End == nil {
		return true
	}
	if t == nil {
		return false
	}
	if w.Start != nil && t.Before(*w.Start) {
		return false
	}
	if w.End != nil && t.After(*w.End) {
		return false
	}
	return true
}

// RelatedFetcher returns the converted resources of one type linked to a
// patient, restricted to the date window.
type RelatedFetcher func(ctx context.Context, patientID string, window DateWindow) ([]interface{}, error)

// PatientFetcher returns the converted Patient resource itself.
type PatientFetcher func(ctx context.Context, id string) (interface{}, error)

// EverythingHandler implements GET /fhir/Patient/:id/$everything: the
// Patient entry carries search.mode=match, every related resource
// (appointments, conditions, medication requests, observations) is included
// with mode=include, each converted by its own resource converter.
type EverythingHandler struct {
	patient PatientFetcher
	order   []string
	related map[string]RelatedFetcher
	baseURL string
}

func NewEverythingHandler(baseURL string, patient PatientFetcher) *EverythingHandler {
	return &EverythingHandler{
		patient: patient,
		related: make(map[string]RelatedFetcher),
		baseURL: baseURL,
	}
}

// RegisterFetcher adds a related resource type. Registration order fixes
// the order of entries in the output Bundle.
func (h *EverythingHandler) RegisterFetcher(resourceType string, fn RelatedFetcher) {
	if _, exists := h.related[resourceType]; !exists {
		h.order = append(h.order, resourceType)
	}
	h.related[resourceType] = fn
}

func (h *EverythingHandler) RegisterRoutes(fhirGroup *echo.Group) {
	fhirGroup.GET("/Patient/:id/$everything", h.Handle)
}

func (h *EverythingHandler) Handle(c echo.Context) error {
	id := c.Param("id")
	ctx := c.Request().Context()

	window, err := parseDateWindow(c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, InvalidOutcome(err.Error()))
	}

	patient, err := h.patient(ctx, id)
	if err != nil {
		return c.JSON(http.StatusNotFound, NotFoundOutcome("Patient", id))
	}

	patientRaw, _ := json.Marshal(patient)
	entries := []BundleEntry{{
		FullURL:  fmt.Sprintf("%s/Patient/%s", h.baseURL, id),
		Resource: patientRaw,
		Search:   &BundleSearch{Mode: SearchModeMatch},
	}}

	for _, resourceType := range h.order {
		resources, err := h.related[resourceType](ctx, id, window)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, ErrorOutcome(
				fmt.Sprintf("fetching %s for Patient/%s: %s", resourceType, id, err.Error())))
		}
		for _, r := range resources {
			raw, err := json.Marshal(r)
			if err != nil {
				continue
			}
			entries = append(entries, BundleEntry{
				FullURL:  fullURLFor(raw, h.baseURL),
				Resource: raw,
				Search:   &BundleSearch{Mode: SearchModeInclude},
			})
		}
	}

	now := time.Now().UTC()
	total := len(entries)
	return c.JSON(http.StatusOK, &Bundle{
		ResourceType: "Bundle",
		Type:         "searchset",
		Total:        &total,
		Timestamp:    &now,
		Entry:        entries,
	})
}

func parseDateWindow(start, end string) (DateWindow, error) {
	var window DateWindow
	if start != "" {
		t, err := ParseFlexDate(start)
		if err != nil {
			return window, fmt.Errorf("invalid start date %q", start)
		}
		window.Start = &t
	}
	if end != "" {
		t, err := ParseFlexDate(end)
		if err != nil {
			return window, fmt.Errorf("invalid end date %q", end)
		}
		window.End = &t
	}
	return window, nil
}
