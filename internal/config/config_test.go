package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFrom(t *testing.T, env map[string]string) (*Config, error) {
	t.Helper()

	var cfg Config
	err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(env),
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadFrom(t, map[string]string{
		"SESSION_SECRET": "test-secret-key-that-is-at-least-32-characters-long",
	})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*24*time.Hour, cfg.Session.TokenExpiry.Duration)
	assert.Equal(t, 24*time.Hour, cfg.Session.RefreshAfter.Duration)
	assert.Equal(t, 900*time.Second, cfg.OAuth.StateExpiry.Duration)
	assert.Equal(t, "hf_session", cfg.Session.CookieName)
	assert.Equal(t, "https://accounts.google.com", cfg.OAuth.IssuerURL)
	assert.Equal(t, 12, cfg.Security.BCryptCost)
	assert.False(t, cfg.IsProduction())
}

func TestDurationDaySuffix(t *testing.T) {
	var d Duration
	require.NoError(t, d.EnvDecode(context.Background(), "30d"))
	assert.Equal(t, 30*24*time.Hour, d.Duration)

	require.NoError(t, d.EnvDecode(context.Background(), "15m"))
	assert.Equal(t, 15*time.Minute, d.Duration)

	assert.Error(t, d.EnvDecode(context.Background(), "tomorrow"))
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: "5432", User: "u", Password: "p",
		DBName: "hackforge_db", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=hackforge_db sslmode=disable",
		p.DSN())
}

func TestIsProduction(t *testing.T) {
	cfg := Config{Env: "production"}
	assert.True(t, cfg.IsProduction())
}
