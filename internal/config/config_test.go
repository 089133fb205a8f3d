package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("VINCULA_JWT_SECRET", "secret")
	t.Setenv("VINCULA_DATABASE_URL", "postgres://localhost/vincula")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "postgres", cfg.DatabaseDriver)
	require.Equal(t, 5*time.Second, cfg.RequestTimeout)
	require.Equal(t, 30*time.Second, cfg.MatchCacheTTL)
	require.Equal(t, 10, cfg.MatchDefaultLimit)
	require.Equal(t, "vincula", cfg.EventsChannel)
	require.Equal(t, []string{"*"}, cfg.CORSOrigins)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadRequiresJWTSecret(t *testing.T) {
	t.Setenv("VINCULA_JWT_SECRET", "")
	t.Setenv("VINCULA_DATABASE_URL", "postgres://localhost/vincula")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("VINCULA_JWT_SECRET", "secret")
	t.Setenv("VINCULA_DATABASE_URL", "mysql://localhost/vincula")
	t.Setenv("VINCULA_DATABASE_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("VINCULA_JWT_SECRET", "secret")
	t.Setenv("VINCULA_DATABASE_DRIVER", "sqlite")
	t.Setenv("VINCULA_DATABASE_URL", "file:vincula.db")
	t.Setenv("VINCULA_REQUEST_TIMEOUT", "2s")
	t.Setenv("VINCULA_MATCHING_DEFAULT_LIMIT", "500")
	t.Setenv("VINCULA_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.Equal(t, 2*time.Second, cfg.RequestTimeout)
	require.Equal(t, 10, cfg.MatchDefaultLimit)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}
