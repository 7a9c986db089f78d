package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StorageDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 84.0, cfg.FallbackUSDINRRate)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, int64(64), cfg.ClassifierCacheSize)
}

func TestParseFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", " Postgres ")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("ORACLE_TIMEOUT", "3s")
	t.Setenv("FALLBACK_USD_INR_RATE", "83.25")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000,https://app.example.com")

	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StorageDriver)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.OracleTimeout)
	assert.Equal(t, 83.25, cfg.FallbackUSDINRRate)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "STORAGE_DRIVER", value: "oracle"},
		{name: "zero timeout", key: "ORACLE_TIMEOUT", value: "0s"},
		{name: "negative fallback rate", key: "FALLBACK_USD_INR_RATE", value: "-1"},
		{name: "no connect attempts", key: "DB_CONNECT_ATTEMPTS", value: "0"},
		{name: "unparsable duration", key: "CLASSIFIER_CACHE_TTL", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Parse()
			assert.Error(t, err)
		})
	}
}
