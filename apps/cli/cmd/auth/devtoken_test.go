package auth

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
)

func runDevToken(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := Command()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"devtoken"}, args...))
	err := cmd.Execute()
	return strings.TrimSpace(out.String()), err
}

func TestDevTokenPrintsVerifiableToken(t *testing.T) {
	t.Parallel()

	token, err := runDevToken(t, "--project-id", "demo-crm", "--agent-id", "agent-1", "--email", "agent@example.com")
	require.NoError(t, err)

	claims, err := platformauth.UnsignedTokenVerifier()(context.Background(), token)
	require.NoError(t, err)
	creds, err := platformauth.DefaultCredentialExtractor(claims)
	require.NoError(t, err)
	require.Equal(t, "agent-1", creds.Id)
	require.True(t, creds.EmailVerified)
}

func TestDevTokenHeader(t *testing.T) {
	t.Parallel()

	line, err := runDevToken(t, "--project-id", "demo-crm", "--agent-id", "agent-1", "--email", "agent@example.com", "--header")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "Authorization: Bearer "))
}

func TestDevTokenMissingAgent(t *testing.T) {
	t.Setenv("CRM_AGENT_ID", "")

	_, err := runDevToken(t, "--project-id", "demo-crm", "--email", "agent@example.com")
	require.ErrorContains(t, err, "agentID is required")
}
