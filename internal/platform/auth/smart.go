package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// SMARTConfiguration is the discovery document served at
// /.well-known/smart-configuration.
type SMARTConfiguration struct {
	AuthorizationEndpoint         string   `json:"authorization_endpoint"`
	TokenEndpoint                 string   `json:"token_endpoint"`
	TokenEndpointAuthMethods      []string `json:"token_endpoint_auth_methods_supported"`
	GrantTypes                    []string `json:"grant_types_supported"`
	Scopes                        []string `json:"scopes_supported"`
	ResponseTypes                 []string `json:"response_types_supported"`
	Capabilities                  []string `json:"capabilities"`
	CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
}

// RegisterSMARTEndpoints wires the public SMART discovery document onto the
// FHIR group. The advertised OAuth2 endpoints belong to the external
// identity provider configured as issuer.
func RegisterSMARTEndpoints(g *echo.Group, issuer string) {
	g.GET("/.well-known/smart-configuration", smartConfigurationHandler(issuer))
}

func smartConfigurationHandler(issuer string) echo.HandlerFunc {
	return func(c echo.Context) error {
		cfg := SMARTConfiguration{
			AuthorizationEndpoint:    issuer + "/protocol/openid-connect/auth",
			TokenEndpoint:            issuer + "/protocol/openid-connect/token",
			TokenEndpointAuthMethods: []string{"client_secret_basic", "client_secret_post"},
			GrantTypes:               []string{"authorization_code", "client_credentials"},
			Scopes: []string{
				"openid", "profile", "fhirUser",
				"launch/patient",
				"patient/*.read", "patient/*.write",
				"user/*.read", "user/*.write",
			},
			ResponseTypes: []string{"code"},
			Capabilities: []string{
				"launch-standalone",
				"client-public", "client-confidential-symmetric",
				"permission-patient", "permission-user",
			},
			CodeChallengeMethodsSupported: []string{"S256"},
		}
		return c.JSON(http.StatusOK, cfg)
	}
}
