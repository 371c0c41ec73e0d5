package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/stretchr/testify/require"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
)

func authInput(r *http.Request, scheme string) *openapi3filter.AuthenticationInput {
	return &openapi3filter.AuthenticationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{Request: r},
		SecuritySchemeName:     scheme,
	}
}

func TestValidateAuthenticationViaSwagger(t *testing.T) {
	t.Parallel()

	anonymous := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)

	withHeaderOnly := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	withHeaderOnly.Header.Set("Authorization", "Bearer token")

	signedIn := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	signedIn.Header.Set("Authorization", "Bearer token")
	signedIn = signedIn.WithContext(platformauth.WithAgent(signedIn.Context(), &platformauth.AgentCredentials{Id: "agent-1"}))

	ctx := context.Background()
	require.NoError(t, ValidateAuthenticationViaSwagger(ctx, nil))
	require.NoError(t, ValidateAuthenticationViaSwagger(ctx, authInput(anonymous, "other")))
	require.ErrorIs(t, ValidateAuthenticationViaSwagger(ctx, authInput(anonymous, BearerSchemeName)), ErrAgentRequired)
	require.ErrorIs(t, ValidateAuthenticationViaSwagger(ctx, authInput(withHeaderOnly, BearerSchemeName)), ErrAgentRequired)
	require.NoError(t, ValidateAuthenticationViaSwagger(ctx, authInput(signedIn, BearerSchemeName)))
}
