package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinicore/interop/internal/platform/fhir"
	"github.com/clinicore/interop/pkg/pagination"
)

// Handler serves the Patient and Practitioner REST endpoints.
type Handler struct {
	svc     *Service
	baseURL string
}

func NewHandler(svc *Service, baseURL string) *Handler {
	return &Handler{svc: svc, baseURL: baseURL}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/Patient", h.SearchPatients)
	g.POST("/Patient", h.CreatePatient)
	g.GET("/Patient/:id", h.GetPatient)
	g.PUT("/Patient/:id", h.UpdatePatient)
	g.DELETE("/Patient/:id", h.DeletePatient)

	g.GET("/Practitioner", h.SearchPractitioners)
	g.POST("/Practitioner", h.CreatePractitioner)
	g.GET("/Practitioner/:id", h.GetPractitioner)
	g.PUT("/Practitioner/:id", h.UpdatePractitioner)
	g.DELETE("/Practitioner/:id", h.DeletePractitioner)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var res PatientResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Patient resource"))
	}
	p := PatientFromFHIR(&res)
	if err := h.svc.CreatePatient(c.Request().Context(), p); err != nil {
		return fhir.WriteError(c, err, "Patient", "")
	}
	fhir.SetLocationHeader(c, "Patient", p.ID.String())
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, p.ToFHIR())
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Patient", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, p.ToFHIR())
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Patient", c.Param("id"))
	}
	var res PatientResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Patient resource"))
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), c.Param("id"), PatientFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Patient", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, p.Version, p.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, p.ToFHIR())
}

func (h *Handler) DeletePatient(c echo.Context) error {
	if err := h.svc.DeletePatient(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Patient", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchPatients(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Patient", "")
	}
	resources := make([]interface{}, len(items))
	for i, p := range items {
		resources[i] = p.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Patient",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}

func (h *Handler) CreatePractitioner(c echo.Context) error {
	var res PractitionerResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Practitioner resource"))
	}
	d := DoctorFromFHIR(&res)
	if err := h.svc.CreateDoctor(c.Request().Context(), d); err != nil {
		return fhir.WriteError(c, err, "Practitioner", "")
	}
	fhir.SetLocationHeader(c, "Practitioner", d.ID.String())
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusCreated, d.ToFHIR())
}

func (h *Handler) GetPractitioner(c echo.Context) error {
	d, err := h.svc.GetDoctor(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fhir.WriteError(c, err, "Practitioner", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, d.ToFHIR())
}

func (h *Handler) UpdatePractitioner(c echo.Context) error {
	expected, err := fhir.ExpectedVersion(c)
	if err != nil {
		return fhir.WriteError(c, err, "Practitioner", c.Param("id"))
	}
	var res PractitionerResource
	if err := c.Bind(&res); err != nil {
		return c.JSON(http.StatusBadRequest, fhir.InvalidOutcome("malformed Practitioner resource"))
	}
	d, err := h.svc.UpdateDoctor(c.Request().Context(), c.Param("id"), DoctorFromFHIR(&res), expected)
	if err != nil {
		return fhir.WriteError(c, err, "Practitioner", c.Param("id"))
	}
	fhir.SetVersionHeaders(c, d.Version, d.UpdatedAt.UTC().Format(http.TimeFormat))
	return c.JSON(http.StatusOK, d.ToFHIR())
}

func (h *Handler) DeletePractitioner(c echo.Context) error {
	if err := h.svc.DeleteDoctor(c.Request().Context(), c.Param("id")); err != nil {
		return fhir.WriteError(c, err, "Practitioner", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SearchPractitioners(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := fhir.ExtractSearchParams(c.QueryParams())
	items, total, err := h.svc.SearchDoctors(c.Request().Context(), params, c.QueryParam("_sort"), pg.Count, pg.Offset)
	if err != nil {
		return fhir.WriteError(c, err, "Practitioner", "")
	}
	resources := make([]interface{}, len(items))
	for i, d := range items {
		resources[i] = d.ToFHIR()
	}
	return c.JSON(http.StatusOK, fhir.NewSearchBundle(resources, fhir.SearchPage{
		BaseURL:      h.baseURL,
		ResourceType: "Practitioner",
		Params:       c.QueryParams(),
		Count:        pg.Count,
		Offset:       pg.Offset,
		Total:        total,
	}))
}
