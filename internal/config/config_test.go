package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("CLASSIFIER_TIMEOUT_SECONDS", "")
	t.Setenv("APP_PORT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, 10*time.Second, cfg.Classifier.Timeout())
	assert.Equal(t, 100, cfg.Classifier.MaxTokens)
	assert.Equal(t, 1, cfg.Classifier.MaxRetries)
	assert.Equal(t, 5*time.Minute, cfg.Redis.DepartmentCacheTTL())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CLASSIFIER_TIMEOUT_SECONDS", "4")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.App.Port)
	assert.Equal(t, 4*time.Second, cfg.Classifier.Timeout())
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.False(t, cfg.Postgres.RunMigrations)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	assert.ErrorContains(t, err, "REDIS_DB")
}

func TestClassifierTimeout_Capped(t *testing.T) {
	assert.Equal(t, 10*time.Second, ClassifierConfig{TimeoutSeconds: 60}.Timeout())
	assert.Equal(t, 10*time.Second, ClassifierConfig{}.Timeout())
	assert.Equal(t, 2*time.Second, ClassifierConfig{TimeoutSeconds: 2}.Timeout())
}
