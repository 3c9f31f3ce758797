package enrich

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the API root used when none is configured.
const DefaultBaseURL = "https://api.fullcontact.com/v2/"

// Config holds the settings a Client is built from. Zero fields fall back to
// the values in DefaultConfig.
type Config struct {
	BaseURL     string            `yaml:"base_url"`
	Policy      Policy            `yaml:"rate_limiter_policy"`
	WorkerCount int               `yaml:"worker_count"`
	Headers     map[string]string `yaml:"headers"`
	LogLevel    string            `yaml:"log_level"`
	UsageWindow UsageWindow       `yaml:"usage_window"`

	// HTTPClient executes the HTTP exchanges. It cannot be set from a file.
	HTTPClient *http.Client `yaml:"-"`
}

// DefaultConfig returns the settings used by New without options.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Policy:      Smooth,
		WorkerCount: DefaultWorkers,
		LogLevel:    "info",
		UsageWindow: PerMinute,
	}
}

// LoadConfig reads the configuration from the environment:
//
//	ENRICH_BASE_URL            API root
//	ENRICH_RATE_LIMITER_POLICY smooth | burst | disabled
//	ENRICH_WORKER_COUNT        worker pool size
//	ENRICH_API_KEY             sent as the X-FullContact-APIKey header
//	ENRICH_USAGE_WINDOW        minute | hour | day | month
//	LOG_LEVEL                  debug | info | warn | error
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	cfg.BaseURL = getEnv("ENRICH_BASE_URL", cfg.BaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if v := os.Getenv("ENRICH_RATE_LIMITER_POLICY"); v != "" {
		p, err := ParsePolicy(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Policy = p
	}
	if v := os.Getenv("ENRICH_WORKER_COUNT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("enrich: ENRICH_WORKER_COUNT must be a positive integer, got %q", v)
		}
		cfg.WorkerCount = n
	}
	if v := os.Getenv("ENRICH_USAGE_WINDOW"); v != "" {
		if err := cfg.UsageWindow.UnmarshalText([]byte(v)); err != nil {
			return Config{}, err
		}
	}
	if v := os.Getenv("ENRICH_API_KEY"); v != "" {
		cfg.Headers = map[string]string{HeaderAPIKey: v}
	}
	return cfg, nil
}

// LoadConfigFile reads a YAML configuration file. Keys missing from the file
// keep their defaults.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("enrich: read config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("enrich: parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// HeaderAPIKey is the header the API reads the account key from.
const HeaderAPIKey = "X-FullContact-APIKey"

func (c Config) validate() error {
	if c.BaseURL == "" {
		return &UsageError{Op: "config", Reason: "base url is empty"}
	}
	if c.WorkerCount < 0 {
		return &UsageError{Op: "config", Reason: fmt.Sprintf("worker count %d is negative", c.WorkerCount)}
	}
	if c.Policy < Smooth || c.Policy > Disabled {
		return &UsageError{Op: "config", Reason: fmt.Sprintf("unknown policy %v", c.Policy)}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newLogger builds the JSON logger used when the caller does not provide one.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
