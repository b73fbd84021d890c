package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so values from the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LIGHTHOUSE_URLS", "LIGHTHOUSE_CATEGORIES", "LIGHTHOUSE_STRATEGY",
		"PAGESPEED_API_KEY", "PAGESPEED_API_URL", "ALERT_THRESHOLD", "ALERT_SEND_POLICY",
		"HISTORY_BACKEND", "HISTORY_PATH", "HISTORY_DSN",
		"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
		"EMAIL_FROM", "EMAIL_TO", "CACHE_ADDR", "CACHE_TTL",
		"PAGESPEED_RPS", "APP_ENV",
	} {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_DefaultsWithURLsFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com"}, cfg.URLs)
	assert.Equal(t, []string{"performance", "accessibility", "best-practices", "seo"}, cfg.Categories)
	assert.Equal(t, "mobile", cfg.Strategy)
	assert.Equal(t, 5, cfg.Threshold)
	assert.Equal(t, "on-alert", cfg.SendPolicy)
	assert.Equal(t, "file", cfg.HistoryBackend)
	assert.Equal(t, "./data/history.json", cfg.HistoryPath)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, 1.0, cfg.RequestsPerSecond)
}

func TestLoad_FromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `{
		"urls": ["https://example.com", "https://example.org"],
		"categories": ["performance", "seo"],
		"strategy": "desktop",
		"api_key": "secret-key",
		"threshold": 10,
		"send_policy": "always",
		"history_backend": "sqlite",
		"history_dsn": "./data/scores.db",
		"smtp_host": "smtp.example.com",
		"smtp_port": 465,
		"email_from": "monitor@example.com",
		"email_to": ["ops@example.com", "dev@example.com"],
		"cache_addr": "localhost:6379",
		"cache_ttl_minutes": 60,
		"pagespeed_rps": 0.5
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com", "https://example.org"}, cfg.URLs)
	assert.Equal(t, []string{"performance", "seo"}, cfg.Categories)
	assert.Equal(t, "desktop", cfg.Strategy)
	assert.Equal(t, "secret-key", cfg.APIKey)
	assert.Equal(t, 10, cfg.Threshold)
	assert.Equal(t, "always", cfg.SendPolicy)
	assert.Equal(t, "sqlite", cfg.HistoryBackend)
	assert.Equal(t, "./data/scores.db", cfg.HistoryDSN)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, 465, cfg.SMTPPort)
	assert.Equal(t, []string{"ops@example.com", "dev@example.com"}, cfg.EmailTo)
	assert.Equal(t, 60*time.Minute, cfg.CacheTTL())
	assert.Equal(t, 0.5, cfg.RequestsPerSecond)
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `{
		"urls": ["https://file.example.com"],
		"threshold": 10,
		"strategy": "desktop"
	}`)

	t.Setenv("LIGHTHOUSE_URLS", "https://env.example.com")
	t.Setenv("ALERT_THRESHOLD", "20")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://env.example.com"}, cfg.URLs)
	assert.Equal(t, 20, cfg.Threshold)
	assert.Equal(t, "desktop", cfg.Strategy, "file value survives when env is silent")
}

func TestLoad_MissingFileTolerated(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com"}, cfg.URLs)
}

func TestLoad_MalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeConfigFile(t, `{ invalid json }`)

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_NoURLs(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		clearEnv(t)

		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty list in file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"urls": []}`)

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig, "an explicit empty list is still no urls")
	})

	t.Run("separators only in env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LIGHTHOUSE_URLS", ",")

		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoad_EmptyCategories(t *testing.T) {
	t.Run("empty list in file", func(t *testing.T) {
		clearEnv(t)
		path := writeConfigFile(t, `{"urls": ["https://example.com"], "categories": []}`)

		_, err := Load(path)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("separators only in env", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
		t.Setenv("LIGHTHOUSE_CATEGORIES", ", ,")

		_, err := Load("")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestLoad_BadURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "not a url")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_MalformedThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("ALERT_THRESHOLD", "five")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "ALERT_THRESHOLD")
}

func TestLoad_NegativeThreshold(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("ALERT_THRESHOLD", "-1")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_BadSendPolicy(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("ALERT_SEND_POLICY", "sometimes")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_BadStrategy(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("LIGHTHOUSE_STRATEGY", "tablet")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_BadBackend(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("HISTORY_BACKEND", "postgres")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_SMTPHostRequiresAddresses(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", "https://example.com")
	t.Setenv("SMTP_HOST", "smtp.example.com")

	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	t.Setenv("EMAIL_FROM", "monitor@example.com")
	t.Setenv("EMAIL_TO", "ops@example.com")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", cfg.SMTPHost)
	assert.Equal(t, []string{"ops@example.com"}, cfg.EmailTo)
}

func TestLoad_CSVTrimming(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIGHTHOUSE_URLS", " https://example.com , https://example.org ,")
	t.Setenv("LIGHTHOUSE_CATEGORIES", "performance,, seo")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com", "https://example.org"}, cfg.URLs)
	assert.Equal(t, []string{"performance", "seo"}, cfg.Categories)
}

func TestNewLogger(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		logger, err := NewLogger(&Config{AppEnv: "production"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})

	t.Run("development", func(t *testing.T) {
		logger, err := NewLogger(&Config{AppEnv: "development"})
		require.NoError(t, err)
		assert.NotNil(t, logger)
	})
}
