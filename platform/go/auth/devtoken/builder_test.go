package devtoken

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
)

func TestBuildUnsignedFirebaseToken(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	token, err := BuildUnsignedFirebaseToken(Params{
		ProjectID:     "local-crm",
		AgentID:       "agent-123",
		Email:         "agent@example.com",
		Name:          "Dev Agent",
		EmailVerified: true,
	}, now)
	require.NoError(t, err)

	header, payload := splitToken(t, token)
	require.Equal(t, "none", header["alg"])
	require.Equal(t, "https://securetoken.google.com/local-crm", payload["iss"])
	require.Equal(t, "local-crm", payload["aud"])
	require.Equal(t, "agent-123", payload["user_id"])
	require.Equal(t, "agent-123", payload["sub"])
	require.Equal(t, "agent@example.com", payload["email"])
	require.Equal(t, true, payload["email_verified"])
	require.Equal(t, "Dev Agent", payload["name"])
	require.Equal(t, float64(now.Add(time.Hour).Unix()), payload["exp"])

	firebaseClaim, ok := payload["firebase"].(map[string]interface{})
	require.True(t, ok, "firebase claim has type %T", payload["firebase"])
	require.Equal(t, "password", firebaseClaim["sign_in_provider"])
}

func TestBuildUnsignedFirebaseTokenOverrides(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0).UTC()
	token, err := BuildUnsignedFirebaseToken(Params{
		ProjectID:              "local-crm",
		AgentID:                "agent-123",
		Email:                  "agent@example.com",
		FirebaseSignInProvider: "google.com",
		ExpiresIn:              15 * time.Minute,
		Audience:               "other-aud",
		Issuer:                 "https://issuer.test",
	}, now)
	require.NoError(t, err)

	_, payload := splitToken(t, token)
	require.Equal(t, "https://issuer.test", payload["iss"])
	require.Equal(t, "other-aud", payload["aud"])
	require.Equal(t, float64(now.Add(15*time.Minute).Unix()), payload["exp"])
	require.NotContains(t, payload, "name")
	require.Equal(t, "google.com", payload["firebase"].(map[string]interface{})["sign_in_provider"])
}

func TestBuildUnsignedFirebaseTokenRequiredFields(t *testing.T) {
	t.Parallel()

	cases := map[string]Params{
		"project": {AgentID: "agent-1", Email: "agent@example.com"},
		"agent":   {ProjectID: "local-crm", Email: "agent@example.com"},
		"email":   {ProjectID: "local-crm", AgentID: "agent-1"},
	}
	for name, params := range cases {
		params := params
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := BuildUnsignedFirebaseToken(params, time.Time{})
			require.Error(t, err)
		})
	}
}

func TestUnsignedTokenFlowsThroughVerifier(t *testing.T) {
	t.Parallel()

	token, err := BuildUnsignedFirebaseToken(Params{
		ProjectID: "local-crm",
		AgentID:   "agent-777",
		Email:     "closer@example.com",
	}, time.Now())
	require.NoError(t, err)

	claims, err := platformauth.UnsignedTokenVerifier()(context.Background(), token)
	require.NoError(t, err)
	creds, err := platformauth.DefaultCredentialExtractor(claims)
	require.NoError(t, err)
	require.Equal(t, "agent-777", creds.Id)
	require.Equal(t, "closer@example.com", creds.Email)
	require.Nil(t, creds.Name)
}

func splitToken(t *testing.T, token string) (map[string]interface{}, map[string]interface{}) {
	t.Helper()
	parts := strings.Split(token, ".")
	require.GreaterOrEqual(t, len(parts), 2, "token %q", token)
	return decodeSegment(t, parts[0]), decodeSegment(t, parts[1])
}

func decodeSegment(t *testing.T, segment string) map[string]interface{} {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
