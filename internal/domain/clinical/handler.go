package clinical

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/pkg/pagination"
)

// Handler serves the Observation and Condition REST endpoints.
type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/Observation", h.SearchObservations)
	g.POST("/Observation", h.CreateObservation)
	g.GET("/Observation/:id", h.GetObservation)
	g.PUT("/Observation/:id", h.UpdateObservation)
	g.DELETE("/Observation/:id", h.DeleteObservation)

	g.GET("/Condition", h.SearchConditions)
	g.POST("/Condition", h.CreateCondition)
	g.GET("/Condition/:id", h.GetCondition)
	g.PUT("/Condition/:id", h.UpdateCondition)
	g.DELETE("/Condition/:id", h.DeleteCondition)
}

func (h *Handler) CreateObservation(c echo.Context) error {
	var res ObservationResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Observation resource"))
	}
	lr := LabResultFromFHIR(&res)
	if err := h.svc.CreateLabResult(c.Request().Context(), lr); err != nil {
		return fhir.WriteError(c, err, "Observation", "")
	}
	fhir.SetLocationHeader(c, "Observation", lr.ID.String())
	fhir.SetVersionHeaders(c, lr.Version, lr.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, lr.ToFHIR())
}

func (h *Handler) GetObservation(c echo.Context) error {
	lr, err := h.svc.GetLabResult(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Observation", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, lr.Version, lr.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, lr.ToFHIR())
}

func (h *Handler) UpdateObservation(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Observation", c.Param("id"))
	}
	var res ObservationResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Observation resource"))
	}
	lr, err := h.svc.UpdateLabResult(c.Request().Context(), c.Param("id"), LabResultFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Observation", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, lr.Version, lr.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, lr.ToFHIR())
}

func (h *Handler) DeleteObservation(c echo.Context) error {
	if err := h.svc.DeleteLabResult(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Observation", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchObservations(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchLabResults(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Observation", "")
	}
	resources := make([]interface{}, len(items))
	for i, lr := range items {
		resources[i] = lr.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Observation",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}

func (h *Handler) CreateCondition(c echo.Context) error {
	var res ConditionResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Condition resource"))
	}
	d := DiagnosisFromFHIR(&res)
	if err := h.svc.CreateDiagnosis(c.Request().Context(), d); err != nil {
		return fhir.WriteError(c, err, "Condition", "")
	}
	fhir.SetLocationHeader(c, "Condition", d.ID.String())
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, d.ToFHIR())
}

func (h *Handler) GetCondition(c echo.Context) error {
	d, err := h.svc.GetDiagnosis(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Condition", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, d.ToFHIR())
}

func (h *Handler) UpdateCondition(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Condition", c.Param("id"))
	}
	var res ConditionResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Condition resource"))
	}
	d, err := h.svc.UpdateDiagnosis(c.Request().Context(), c.Param("id"), DiagnosisFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Condition", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, d.ToFHIR())
}

func (h *Handler) DeleteCondition(c echo.Context) error {
	if err := h.svc.DeleteDiagnosis(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Condition", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchConditions(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchDiagnoses(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Condition", "")
	}
	resources := make([]interface{}, len(items))
	for i, d := range items {
		resources[i] = d.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Condition",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}
