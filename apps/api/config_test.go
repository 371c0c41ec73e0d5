package main

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	var cfg config
	require.NoError(t, env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{
		"DATABASE_URL":         "postgres://crm@localhost/crm",
		"CORS_ALLOWED_ORIGINS": "https://crm.example.com,http://localhost:5173",
	}}))

	require.Equal(t, "3000", cfg.Port)
	require.Equal(t, "json", cfg.LogFormat)
	require.Equal(t, "firebase", cfg.AuthProvider)
	require.Equal(t, "UTC", cfg.TimeZone)
	require.Equal(t, "US", cfg.PhoneRegion)
	require.Equal(t, 10*time.Second, cfg.StatementTimeout)
	require.Equal(t, []string{"https://crm.example.com", "http://localhost:5173"}, cfg.CORSAllowedOrigins)
}

func TestConfigRequiresDatabaseURL(t *testing.T) {
	t.Parallel()

	var cfg config
	err := env.ParseWithOptions(&cfg, env.Options{Environment: map[string]string{}})
	require.ErrorContains(t, err, "DATABASE_URL")
}
