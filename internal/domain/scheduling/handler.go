package scheduling

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/pkg/pagination"
)

// Handler serves the Appointment REST endpoints.
type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/Appointment", h.Search)
	g.POST("/Appointment", h.Create)
	g.GET("/Appointment/:id", h.Get)
	g.PUT("/Appointment/:id", h.Update)
	g.DELETE("/Appointment/:id", h.Delete)
}

func (h *Handler) Create(c echo.Context) error {
	var res AppointmentResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Appointment resource"))
	}
	a := AppointmentFromFHIR(&res)
	if err := h.svc.CreateAppointment(c.Request().Context(), a); err != nil {
		return fhir.WriteError(c, err, "Appointment", "")
	}
	fhir.SetLocationHeader(c, "Appointment", a.ID.String())
	fhir.SetVersionHeaders(c, a.Version, a.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, a.ToFHIR())
}

func (h *Handler) Get(c echo.Context) error {
	a, err := h.svc.GetAppointment(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Appointment", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, a.Version, a.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, a.ToFHIR())
}

func (h *Handler) Update(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Appointment", c.Param("id"))
	}
	var res AppointmentResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Appointment resource"))
	}
	a, err := h.svc.UpdateAppointment(c.Request().Context(), c.Param("id"), AppointmentFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Appointment", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, a.Version, a.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, a.ToFHIR())
}

func (h *Handler) Delete(c echo.Context) error {
	if err := h.svc.DeleteAppointment(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Appointment", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) Search(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchAppointments(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Appointment", "")
	}
	resources := make([]interface{}, len(items))
	for i, a := range items {
		resources[i] = a.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Appointment",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}
