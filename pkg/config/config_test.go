package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Env)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.True(t, cfg.Flags.IdempotencyChecks)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.IsProduction())
}

func TestLoadExplicitValues(t *testing.T) {
	t.Setenv("TRADEFLOW_APP_ENV", "production")
	t.Setenv("TRADEFLOW_PORT", "9000")
	t.Setenv("TRADEFLOW_DB_DSN", "host=db port=5432 user=u password=p dbname=d sslmode=require")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 9000, cfg.App.Port)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=require", cfg.DB.DSN)
}

func TestEnsureDSNFromFields(t *testing.T) {
	dsn := ensureDSN(DBConfig{
		Host:    "pg.internal",
		Port:    5433,
		User:    "svc",
		Name:    "orders",
		SSLMode: "disable",
	})
	assert.Equal(t, "host=pg.internal port=5433 user=svc password= dbname=orders sslmode=disable", dsn)
}
