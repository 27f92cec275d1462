package medication

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/pkg/pagination"
)

// Handler serves the MedicationRequest REST endpoints.
type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/MedicationRequest", h.Search)
	g.POST("/MedicationRequest", h.Create)
	g.GET("/MedicationRequest/:id", h.Get)
	g.PUT("/MedicationRequest/:id", h.Update)
	g.DELETE("/MedicationRequest/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var res MedicationRequestResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed MedicationRequest resource"))
	}
	p := PrescriptionFromFHIR(&res)
	if err := h.svc.CreatePrescription(c.Request().Context(), p); err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", "")
	}
	fhir.SetLocationHeader(c, "MedicationRequest", p.ID.String())
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, p.ToFHIR())
}

func (h *Handler) Get(c echo.Context) error {
	p, err := h.svc.GetPrescription(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, p.ToFHIR())
}

func (h *Handler) Update(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", c.Param("id"))
	}
	var res MedicationRequestResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed MedicationRequest resource"))
	}
	p, err := h.svc.UpdatePrescription(c.Request().Context(), c.Param("id"), PrescriptionFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, p.ToFHIR())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.DeletePrescription(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchPrescriptions(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "MedicationRequest", "")
	}
	resources := make([]interface{}, len(items))
	for i, p := range items {
		resources[i] = p.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "MedicationRequest",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}
