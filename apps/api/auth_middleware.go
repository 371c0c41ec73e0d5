package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	platformauth "github.com/simple-easy-sites/simple-sales-crm/platform/go/auth"
	"github.com/simple-easy-sites/simple-sales-crm/platform/go/gcp"
)

const (
	authProviderFirebase = "firebase"
	authProviderDev      = "dev"
)

// newFirebaseAuth is swapped in tests.
var newFirebaseAuth = func(ctx context.Context, cfg gcp.FirebaseConfig) (platformauth.VerifyFunc, error) {
	client, err := gcp.NewFirebaseAuth(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return platformauth.FirebaseTokenVerifier(client), nil
}

// buildAuthMiddleware constructs the JWT middleware for the configured identity provider.
func buildAuthMiddleware(ctx context.Context, cfg config, logger *zap.Logger) (func(http.Handler) http.Handler, error) {
	var verify platformauth.VerifyFunc
	switch provider := strings.ToLower(strings.TrimSpace(cfg.AuthProvider)); provider {
	case authProviderFirebase:
		v, err := newFirebaseAuth(ctx, gcp.FirebaseConfig{
			CredentialsFile: cfg.FirebaseCredsFile,
			ProjectID:       cfg.FirebaseProjectID,
		})
		if err != nil {
			return nil, err
		}
		verify = v
	case authProviderDev:
		logger.Warn("using dev auth middleware; tokens are not verified")
		verify = platformauth.UnsignedTokenVerifier()
	default:
		return nil, fmt.Errorf("unsupported auth provider %q (want %s or %s)", cfg.AuthProvider, authProviderFirebase, authProviderDev)
	}

	return platformauth.JWT(verify, platformauth.DefaultCredentialExtractor), nil
}
