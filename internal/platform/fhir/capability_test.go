package fhir

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestCapabilityBuildBasics(t *testing.T) {
	b := NewCapabilityBuilder("http://localhost:8080/fhir", "1.4.0")
	b.AddResource("Patient", DefaultInteractions(), []SearchParam{
		{Name: "name", Type: "string"},
		{Name: "identifier", Type: "token"},
	})
	b.AddResource("Appointment", []string{"read", "create", "search-type"}, nil)

	cs := b.Build()

	if cs.ResourceType != "CapabilityStatement" {
		t.Fatalf("resourceType = %q", cs.ResourceType)
	}
	if cs.FHIRVersion != "4.0.1" {
		t.Errorf("fhirVersion = %q, want 4.0.1", cs.FHIRVersion)
	}
	if cs.Kind != "instance" || cs.Status != "active" {
		t.Errorf("kind/status = %q/%q", cs.Kind, cs.Status)
	}
	if len(cs.Rest) != 1 || cs.Rest[0].Mode != "server" {
		t.Fatalf("rest = %+v", cs.Rest)
	}
	if cs.Implementation == nil || cs.Implementation.URL != "http://localhost:8080/fhir" {
		t.Errorf("implementation = %+v", cs.Implementation)
	}
	if cs.Software["version"] != "1.4.0" {
		t.Errorf("software version = %q", cs.Software["version"])
	}

	resources := cs.Rest[0].Resource
	if len(resources) != 2 {
		t.Fatalf("got %d resources, want 2", len(resources))
	}
	patient := resources[0]
	if patient.Type != "Patient" || patient.Versioning != "versioned" {
		t.Errorf("patient resource = %+v", patient)
	}
	if len(patient.Interaction) != 5 {
		t.Errorf("patient has %d interactions, want 5", len(patient.Interaction))
	}
	if len(patient.SearchParam) != 2 || patient.SearchParam[0].Name != "name" {
		t.Errorf("patient searchParam = %+v", patient.SearchParam)
	}
	appt := resources[1]
	if len(appt.Interaction) != 3 || appt.Interaction[0].Code != "read" {
		t.Errorf("appointment interactions = %+v", appt.Interaction)
	}
}

func TestCapabilitySecurityBlock(t *testing.T) {
	b := NewCapabilityBuilder("http://localhost:8080/fhir", "1.0.0")

	sec := b.Build().Rest[0].Security
	if sec == nil || !sec.CORS {
		t.Fatalf("security = %+v", sec)
	}
	if len(sec.Service) != 1 || sec.Service[0].Coding[0].Code != "SMART-on-FHIR" {
		t.Errorf("service = %+v", sec.Service)
	}
	if len(sec.Extension) != 0 {
		t.Errorf("oauth extension present without URIs: %+v", sec.Extension)
	}

	b.SetOAuthURIs("http://localhost:8080/oauth/authorize", "http://localhost:8080/oauth/token")
	sec = b.Build().Rest[0].Security
	if len(sec.Extension) != 1 {
		t.Fatalf("extension = %+v", sec.Extension)
	}
	uris := sec.Extension[0].Extension
	if len(uris) != 2 || uris[0].URL != "authorize" || uris[1].ValueURI != "http://localhost:8080/oauth/token" {
		t.Errorf("oauth uris = %+v", uris)
	}
}

func TestCapabilityHandler(t *testing.T) {
	b := NewCapabilityBuilder("http://localhost:8080/fhir", "1.0.0")
	b.AddResource("Patient", DefaultInteractions(), nil)

	e := echo.New()
	e.GET("/fhir/metadata", b.Handler())

	req := httptest.NewRequest(http.MethodGet, "/fhir/metadata", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var cs CapabilityStatement
	if err := json.Unmarshal(rec.Body.Bytes(), &cs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if cs.ResourceType != "CapabilityStatement" || cs.FHIRVersion != FHIRVersion {
		t.Errorf("got %q %q", cs.ResourceType, cs.FHIRVersion)
	}
}
