package config

import (
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "models", cfg.ArtifactDir)
	assert.Equal(t, "lesotho-healthcare-cost", cfg.ArtifactName)
	assert.Empty(t, cfg.ArtifactDatabaseURL)
	assert.False(t, cfg.ArtifactRequired)
	assert.Equal(t, 1000.0, cfg.MinPredictedCost)
	assert.False(t, cfg.HeuristicJitter)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Zero(t, cfg.RateLimitRPS)
	assert.Equal(t, 20, cfg.RateLimitBurst)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("ARTIFACT_DIR", "/srv/models")
	t.Setenv("ARTIFACT_REQUIRED", "true")
	t.Setenv("MIN_PREDICTED_COST", "500.5")
	t.Setenv("HEURISTIC_JITTER", "1")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "/srv/models", cfg.ArtifactDir)
	assert.True(t, cfg.ArtifactRequired)
	assert.Equal(t, 500.5, cfg.MinPredictedCost)
	assert.True(t, cfg.HeuristicJitter)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
	assert.Equal(t, 5, cfg.RateLimitBurst)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"non-numeric floor":  {"MIN_PREDICTED_COST", "cheap"},
		"zero floor":         {"MIN_PREDICTED_COST", "0"},
		"negative floor":     {"MIN_PREDICTED_COST", "-10"},
		"bad bool":           {"ARTIFACT_REQUIRED", "maybe"},
		"bad duration":       {"REQUEST_TIMEOUT", "soon"},
		"negative rate":      {"RATE_LIMIT_RPS", "-1"},
		"bad burst":          {"RATE_LIMIT_BURST", "many"},
		"unknown log format": {"LOG_FORMAT", "xml"},
		"bad port":           {"PORT", "http"},
	}

	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), kv[0])
		})
	}
}

func TestConfigureLogging(t *testing.T) {
	defer log.SetLevel(log.InfoLevel)
	defer log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	cfg := &Config{LogLevel: "debug", LogFormat: "json"}
	require.NoError(t, cfg.ConfigureLogging())
	assert.Equal(t, log.DebugLevel, log.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, log.StandardLogger().Formatter)

	cfg.LogLevel = "loud"
	assert.Error(t, cfg.ConfigureLogging())
}
