package middleware

import (
	"context"
	"errors"

	"github.com/getkin/kin-openapi/openapi3filter"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
)

// BearerSchemeName is the security scheme name used by the contract for agent endpoints.
const BearerSchemeName = "bearerAuth"

// ErrAgentRequired is reported by the request validator when a protected operation is called anonymously.
var ErrAgentRequired = errors.New("a signed-in agent is required")

// ValidateAuthenticationViaSwagger satisfies operations that declare bearerAuth in the contract.
// The JWT middleware runs first, so a protected operation passes only when it stored agent credentials.
// Operations with no security requirement never reach this function.
func ValidateAuthenticationViaSwagger(ctx context.Context, input *openapi3filter.AuthenticationInput) error {
	if input == nil || input.SecuritySchemeName != BearerSchemeName {
		return nil
	}

	r := input.RequestValidationInput.Request
	if r == nil {
		return errors.New("no request in validation input")
	}
	if _, ok := platformauth.ExtractJWTToken(r); !ok {
		return ErrAgentRequired
	}
	if creds, ok := platformauth.AgentFromContext(r.Context()); !ok || creds == nil || creds.Id == "" {
		return ErrAgentRequired
	}
	return nil
}
