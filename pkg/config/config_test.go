package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "FESTIVAL_SOURCES", "OPENAI_API_KEY", "GROQ_API_KEY", "CORS_ORIGINS", "TIMEZONE"} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, "10000", cfg.Port)
	assert.Equal(t, []string{"file"}, cfg.Festivals.Sources)
	assert.Equal(t, 15, cfg.Festivals.InlineMax)
	assert.Empty(t, cfg.Text.APIKey)
	assert.Contains(t, cfg.HTTP.CORSOrigins, "http://localhost:5173")
	assert.Equal(t, int64(10<<20), cfg.HTTP.MaxUploadSizeBytes)
	assert.False(t, cfg.IsProduction())
	assert.True(t, cfg.Log.Requests)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	t.Setenv("OPENAI_BASE_URL", "https://api.groq.com/openai/v1")
	t.Setenv("FESTIVAL_SOURCES", "file, ics")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("LOG_REQUESTS", "false")

	cfg := FromEnv()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "gsk-test", cfg.Text.APIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Text.BaseURL)
	assert.Equal(t, []string{"file", "ics"}, cfg.Festivals.Sources)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RateLimitWindow)
	assert.Equal(t, 5*time.Second, cfg.Vision.Timeout)
	assert.False(t, cfg.Log.Requests)
}

func TestOpenAIKeyWinsOverGroq(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("GROQ_API_KEY", "gsk-test")
	assert.Equal(t, "sk-test", FromEnv().Text.APIKey)
}

func TestLocation(t *testing.T) {
	cfg := &Config{Timezone: "Asia/Kolkata"}
	require.NotNil(t, cfg.Location())
	assert.Equal(t, "Asia/Kolkata", cfg.Location().String())

	cfg.Timezone = "Not/AZone"
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoadWithoutDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load()
	require.NoError(t, err)
	assert.NotNil(t, cfg)
}

func TestValidateRateLimit(t *testing.T) {
	cfg := FromEnv()
	require.NoError(t, cfg.Validate())

	cfg.HTTP.RateLimitCapacity = 0
	assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_CAPACITY")

	cfg = FromEnv()
	cfg.HTTP.RateLimitWindow = 0
	assert.ErrorContains(t, cfg.Validate(), "RATE_LIMIT_WINDOW")
}

func TestLoadRejectsZeroWindow(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RATE_LIMIT_WINDOW", "0s")
	_, err := Load()
	assert.ErrorContains(t, err, "RATE_LIMIT_WINDOW")
}
