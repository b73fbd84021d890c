package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ErrInvalidConfig marks a configuration the run must not start with:
// no URLs, malformed numbers, unknown policy or backend values.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds all configuration for the application. Values resolve in
// three layers: defaults, then an optional JSON file, then environment
// variables. Environment wins.
type Config struct {
	AppEnv string `json:"-"`

	URLs       []string `json:"urls" validate:"required,min=1,dive,url"`
	Categories []string `json:"categories" validate:"required,min=1"`
	Strategy   string   `json:"strategy" validate:"oneof=mobile desktop"`
	APIKey     string   `json:"api_key"`
	APIBaseURL string   `json:"api_url" validate:"omitempty,url"`

	Threshold  int    `json:"threshold" validate:"min=0"`
	SendPolicy string `json:"send_policy" validate:"oneof=on-alert always"`

	HistoryBackend string `json:"history_backend" validate:"oneof=file sqlite"`
	HistoryPath    string `json:"history_path" validate:"required_if=HistoryBackend file"`
	HistoryDSN     string `json:"history_dsn" validate:"required_if=HistoryBackend sqlite"`

	SMTPHost     string   `json:"smtp_host"`
	SMTPPort     int      `json:"smtp_port" validate:"min=0,max=65535"`
	SMTPUser     string   `json:"smtp_user"`
	SMTPPassword string   `json:"smtp_password"`
	EmailFrom    string   `json:"email_from" validate:"required_with=SMTPHost,omitempty,email"`
	EmailTo      []string `json:"email_to" validate:"required_with=SMTPHost,dive,email"`

	CacheAddr         string  `json:"cache_addr"`
	CacheTTLMinutes   int     `json:"cache_ttl_minutes" validate:"min=0"`
	RequestsPerSecond float64 `json:"pagespeed_rps" validate:"min=0"`
}

// Defaults returns a Config with every optional field at its default.
// URLs stay empty: there is no sensible default site to monitor.
func Defaults() *Config {
	return &Config{
		AppEnv:            "development",
		Categories:        []string{"performance", "accessibility", "best-practices", "seo"},
		Strategy:          "mobile",
		Threshold:         5,
		SendPolicy:        "on-alert",
		HistoryBackend:    "file",
		HistoryPath:       "./data/history.json",
		HistoryDSN:        "./data/history.db",
		SMTPPort:          587,
		CacheTTLMinutes:   720,
		RequestsPerSecond: 1,
	}
}

// Load resolves the full configuration: defaults, then the JSON file at
// path when it exists (a missing file is fine, the environment can carry
// everything), then environment overrides. The result is validated before
// it is returned; a bad value must stop the run before any network call.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration using the validator.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// CacheTTL returns the Redis entry lifetime as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMinutes) * time.Minute
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: read config file %s: %v", ErrInvalidConfig, path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parse config file %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LIGHTHOUSE_URLS"); v != "" {
		c.URLs = splitCSV(v)
	}
	if v := os.Getenv("LIGHTHOUSE_CATEGORIES"); v != "" {
		c.Categories = splitCSV(v)
	}
	c.Strategy = getEnv("LIGHTHOUSE_STRATEGY", c.Strategy)
	c.APIKey = getEnv("PAGESPEED_API_KEY", c.APIKey)
	c.APIBaseURL = getEnv("PAGESPEED_API_URL", c.APIBaseURL)

	if v := os.Getenv("ALERT_THRESHOLD"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: ALERT_THRESHOLD %q is not an integer", ErrInvalidConfig, v)
		}
		c.Threshold = n
	}
	c.SendPolicy = getEnv("ALERT_SEND_POLICY", c.SendPolicy)

	c.HistoryBackend = getEnv("HISTORY_BACKEND", c.HistoryBackend)
	c.HistoryPath = getEnv("HISTORY_PATH", c.HistoryPath)
	c.HistoryDSN = getEnv("HISTORY_DSN", c.HistoryDSN)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	if v := os.Getenv("SMTP_PORT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: SMTP_PORT %q is not an integer", ErrInvalidConfig, v)
		}
		c.SMTPPort = n
	}
	c.SMTPUser = getEnv("SMTP_USER", c.SMTPUser)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.EmailFrom = getEnv("EMAIL_FROM", c.EmailFrom)
	if v := os.Getenv("EMAIL_TO"); v != "" {
		c.EmailTo = splitCSV(v)
	}

	c.CacheAddr = getEnv("CACHE_ADDR", c.CacheAddr)
	if v := os.Getenv("CACHE_TTL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: CACHE_TTL %q is not an integer (minutes)", ErrInvalidConfig, v)
		}
		c.CacheTTLMinutes = n
	}
	if v := os.Getenv("PAGESPEED_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: PAGESPEED_RPS %q is not a number", ErrInvalidConfig, v)
		}
		c.RequestsPerSecond = f
	}

	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	return nil
}

// NewLogger creates a new Zap logger based on the config.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.AppEnv == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
