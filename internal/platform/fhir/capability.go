package fhir

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// FHIRVersion is the pinned FHIR release served by this layer.
const FHIRVersion = "4.0.1"

// SearchParam describes one supported search parameter in the
// CapabilityStatement.
type SearchParam struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type capInteraction struct {
	Code string `json:"code"`
}

type capResource struct {
	Type        string           `json:"type"`
	Interaction []capInteraction `json:"interaction"`
	Versioning  string           `json:"versioning,omitempty"`
	SearchParam []SearchParam    `json:"searchParam,omitempty"`
}

type capSecurity struct {
	CORS      bool              `json:"cors"`
	Service   []CodeableConcept `json:"service,omitempty"`
	Extension []oauthExtension  `json:"extension,omitempty"`
}

type oauthExtension struct {
	URL       string         `json:"url"`
	Extension []oauthURIPair `json:"extension,omitempty"`
}

type oauthURIPair struct {
	URL      string `json:"url"`
	ValueURI string `json:"valueUri"`
}

type capRest struct {
	Mode     string        `json:"mode"`
	Security *capSecurity  `json:"security,omitempty"`
	Resource []capResource `json:"resource"`
}

type capImplementation struct {
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// CapabilityStatement is the server conformance resource returned by
// GET /fhir/metadata.
type CapabilityStatement struct {
	ResourceType   string             `json:"resourceType"`
	Status         string             `json:"status"`
	Date           string             `json:"date"`
	Kind           string             `json:"kind"`
	Software       map[string]string  `json:"software,omitempty"`
	Implementation *capImplementation `json:"implementation,omitempty"`
	FHIRVersion    string             `json:"fhirVersion"`
	Format         []string           `json:"format"`
	Rest           []capRest          `json:"rest"`
}

// CapabilityBuilder collects the per-resource capabilities registered at
// startup and renders the CapabilityStatement on demand.
type CapabilityBuilder struct {
	baseURL      string
	version      string
	authorizeURL string
	tokenURL     string
	resources    []capResource
}

func NewCapabilityBuilder(baseURL, version string) *CapabilityBuilder {
	return &CapabilityBuilder{baseURL: baseURL, version: version}
}

// SetOAuthURIs advertises the SMART-on-FHIR OAuth2 endpoints in the
// security block.
func (b *CapabilityBuilder) SetOAuthURIs(authorizeURL, tokenURL string) {
	b.authorizeURL = authorizeURL
	b.tokenURL = tokenURL
}

// AddResource declares a resource type with its interactions and search
// parameters.
func (b *CapabilityBuilder) AddResource(resourceType string, interactions []string, searchParams []SearchParam) {
	res := capResource{
		Type:        resourceType,
		Versioning:  "versioned",
		SearchParam: searchParams,
	}
	for _, code := range interactions {
		res.Interaction = append(res.Interaction, capInteraction{Code: code})
	}
	b.resources = append(b.resources, res)
}

// DefaultInteractions is the full CRUD+search interaction set.
func DefaultInteractions() []string {
	return []string{"read", "create", "update", "delete", "search-type"}
}

// Build renders the CapabilityStatement. The xml format is declared for
// conformance with the platform contract even though rendering it is an
// external concern.
func (b *CapabilityBuilder) Build() *CapabilityStatement {
	security := &capSecurity{
		CORS: true,
		Service: []CodeableConcept{{
			Coding: []Coding{{
				System:  "http://terminology.hl7.org/CodeSystem/restful-security-service",
				Code:    "SMART-on-FHIR",
				Display: "SMART on FHIR",
			}},
			Text: "OAuth2 using SMART on FHIR profile",
		}},
	}
	if b.authorizeURL != "" {
		security.Extension = []oauthExtension{{
			URL: "http://fhir-registry.smarthealthit.org/StructureDefinition/oauth-uris",
			Extension: []oauthURIPair{
				{URL: "authorize", ValueURI: b.authorizeURL},
				{URL: "token", ValueURI: b.tokenURL},
			},
		}}
	}

	return &CapabilityStatement{
		ResourceType: "CapabilityStatement",
		Status:       "active",
		Date:         time.Now().UTC().Format("2006-01-02"),
		Kind:         "instance",
		Software: map[string]string{
			"name":    "Clinicore FHIR Server",
			"version": b.version,
		},
		Implementation: &capImplementation{
			Description: "Clinicore clinic-management FHIR R4 interoperability layer",
			URL:         b.baseURL,
		},
		FHIRVersion: FHIRVersion,
		Format:      []string{"json", "xml"},
		Rest: []capRest{{
			Mode:     "server",
			Security: security,
			Resource: b.resources,
		}},
	}
}

// Handler serves GET /fhir/metadata.
func (b *CapabilityBuilder) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, b.Build())
	}
}
