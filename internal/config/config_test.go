package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "DB_HOST", "DB_NAME", "VERIFY_INTERVAL", "VERIFY_BACKOFF",
		"VERIFY_THRESHOLD_ATTEMPTS", "SCHEDULER_INTERVAL", "API_KEY_LIMIT",
		"DEFAULT_CURRENCY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, time.Minute, cfg.VerifyInterval)
	assert.Equal(t, 15*time.Minute, cfg.VerifyBackoff)
	assert.Equal(t, 5, cfg.VerifyThresholdAttempts)
	assert.Equal(t, time.Minute, cfg.SchedulerInterval)
	assert.Equal(t, 10, cfg.APIKeyLimit)
	assert.Equal(t, "NGN", cfg.DefaultCurrency)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("VERIFY_INTERVAL", "30s")
	t.Setenv("VERIFY_BACKOFF", "1h")
	t.Setenv("VERIFY_THRESHOLD_ATTEMPTS", "3")
	t.Setenv("SCHEDULER_INTERVAL", "45s")
	t.Setenv("API_KEY_LIMIT", "2")

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, 30*time.Second, cfg.VerifyInterval)
	assert.Equal(t, time.Hour, cfg.VerifyBackoff)
	assert.Equal(t, 3, cfg.VerifyThresholdAttempts)
	assert.Equal(t, 45*time.Second, cfg.SchedulerInterval)
	assert.Equal(t, 2, cfg.APIKeyLimit)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("VERIFY_INTERVAL", "soon")
	t.Setenv("API_KEY_LIMIT", "many")

	cfg := Load()
	assert.Equal(t, time.Minute, cfg.VerifyInterval)
	assert.Equal(t, 10, cfg.APIKeyLimit)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     "5433",
		DBUser:     "kolo",
		DBPassword: "secret",
		DBName:     "kolo_prod",
	}
	assert.Equal(t,
		"host=db.internal user=kolo password=secret dbname=kolo_prod port=5433 sslmode=disable",
		cfg.DSN())
}
