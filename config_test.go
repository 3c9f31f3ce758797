package enrich

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENRICH_BASE_URL", "https://enrich.example.com/v3/")
	t.Setenv("ENRICH_RATE_LIMITER_POLICY", "BURST")
	t.Setenv("ENRICH_WORKER_COUNT", "4")
	t.Setenv("ENRICH_API_KEY", "secret")
	t.Setenv("ENRICH_USAGE_WINDOW", "hour")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BaseURL != "https://enrich.example.com/v3/" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Policy != Burst || cfg.WorkerCount != 4 || cfg.UsageWindow != PerHour || cfg.LogLevel != "debug" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Headers[HeaderAPIKey] != "secret" {
		t.Errorf("headers = %v", cfg.Headers)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"ENRICH_BASE_URL", "ENRICH_RATE_LIMITER_POLICY", "ENRICH_WORKER_COUNT", "ENRICH_API_KEY", "ENRICH_USAGE_WINDOW", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	def := DefaultConfig()
	if cfg.BaseURL != def.BaseURL || cfg.Policy != def.Policy || cfg.WorkerCount != def.WorkerCount {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"ENRICH_RATE_LIMITER_POLICY": "reject",
		"ENRICH_WORKER_COUNT":        "-2",
		"ENRICH_USAGE_WINDOW":        "fortnight",
	}
	for k, v := range tests {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("%s=%s accepted", k, v)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enrich.yaml")
	data := []byte(`
base_url: https://enrich.example.com/v2/
rate_limiter_policy: disabled
worker_count: 3
usage_window: day
headers:
  X-FullContact-APIKey: secret
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Policy != Disabled || cfg.WorkerCount != 3 || cfg.UsageWindow != PerDay {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("log level = %q, want default", cfg.LogLevel)
	}
	if cfg.Headers[HeaderAPIKey] != "secret" {
		t.Errorf("headers = %v", cfg.Headers)
	}
}

func TestLoadConfigFileErrors(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("rate_limiter_policy: sometimes\n"), 0o600)
	if _, err := LoadConfigFile(path); err == nil {
		t.Error("unknown policy accepted")
	}

	path = filepath.Join(t.TempDir(), "empty-url.yaml")
	os.WriteFile(path, []byte("base_url: \"\"\n"), 0o600)
	if _, err := LoadConfigFile(path); !errors.Is(err, ErrUsage) {
		t.Errorf("empty base url: err = %v, want ErrUsage", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := map[string]Policy{"smooth": Smooth, "Burst": Burst, " disabled ": Disabled, "": Smooth}
	for in, want := range tests {
		got, err := ParsePolicy(in)
		if err != nil || got != want {
			t.Errorf("ParsePolicy(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParsePolicy("reject"); err == nil {
		t.Error("unknown policy accepted")
	}
}
