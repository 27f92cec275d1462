package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/pkg/pagination"
)

// Handler serves the Organization REST endpoints.
type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/Organization", h.Search)
	g.POST("/Organization", h.Create)
	g.GET("/Organization/:id", h.Get)
	g.PUT("/Organization/:id", h.Update)
	g.DELETE("/Organization/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var res OrganizationResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Organization resource"))
	}
	clinic := ClinicFromFHIR(&res)
	if err := h.svc.CreateClinic(c.Request().Context(), clinic); err != nil {
		return fhir.WriteError(c, err, "Organization", "")
	}
	fhir.SetLocationHeader(c, "Organization", clinic.ID.String())
	fhir.SetVersionHeaders(c, clinic.Version, clinic.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, clinic.ToFHIR())
}

func (h *Handler) Get(c echo.Context) error {
	clinic, err := h.svc.GetClinic(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Organization", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, clinic.Version, clinic.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, clinic.ToFHIR())
}

func (h *Handler) Update(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Organization", c.Param("id"))
	}
	var res OrganizationResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Organization resource"))
	}
	clinic, err := h.svc.UpdateClinic(c.Request().Context(), c.Param("id"), ClinicFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Organization", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, clinic.Version, clinic.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, clinic.ToFHIR())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.DeleteClinic(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Organization", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchClinics(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Organization", "")
	}
	resources := make([]interface{}, len(items))
	for i, clinic := range items {
		resources[i] = clinic.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Organization",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}
