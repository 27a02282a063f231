package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STEAM_API_KEY", "SLEEP_BETWEEN_REQUESTS", "MAX_APPS", "SAVE_EVERY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_FileWithDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "steam_api_key: abc123\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.SteamAPIKey != "abc123" {
		t.Errorf("expected api key abc123, got %q", cfg.SteamAPIKey)
	}
	if cfg.SaveEvery != 50 {
		t.Errorf("expected default save_every 50, got %d", cfg.SaveEvery)
	}
	if cfg.MinJPReviews != 200 {
		t.Errorf("expected default min_jp_reviews 200, got %d", cfg.MinJPReviews)
	}
	if cfg.RequestDelayMS != 200 {
		t.Errorf("expected default request_delay_ms 200, got %d", cfg.RequestDelayMS)
	}
	if !cfg.IncludeDetails || !cfg.IncludePrice {
		t.Error("details and price collection should default on")
	}
	if cfg.OutputPath != "./data.json" || cfg.CheckpointPath != "./data_partial.json" {
		t.Errorf("unexpected default paths: %s, %s", cfg.OutputPath, cfg.CheckpointPath)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
steam_api_key: abc123
max_apps: 100
save_every: 10
min_jp_reviews: 500
include_details: false
request_delay_ms: 50
log_level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.MaxApps != 100 || cfg.SaveEvery != 10 || cfg.MinJPReviews != 500 {
		t.Errorf("unexpected overrides: %+v", cfg)
	}
	if cfg.IncludeDetails {
		t.Error("expected include_details false")
	}
	if cfg.RequestDelay() != 50*time.Millisecond {
		t.Errorf("unexpected request delay: %v", cfg.RequestDelay())
	}
}

func TestLoad_MissingFileEnvOnly(t *testing.T) {
	clearEnv(t)
	t.Setenv("STEAM_API_KEY", "env-key")

	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("a missing config file must not fail when env is set: %v", err)
	}
	if cfg.SteamAPIKey != "env-key" {
		t.Errorf("expected env api key, got %q", cfg.SteamAPIKey)
	}
}

func TestLoad_MissingAPIKeyFatal(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("expected error when no api key is configured")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "steam_api_key: file-key\nmax_apps: 10\n")
	t.Setenv("STEAM_API_KEY", "env-key")
	t.Setenv("MAX_APPS", "500")
	t.Setenv("SAVE_EVERY", "25")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SteamAPIKey != "env-key" {
		t.Errorf("env must override file, got %q", cfg.SteamAPIKey)
	}
	if cfg.MaxApps != 500 || cfg.SaveEvery != 25 {
		t.Errorf("unexpected env overrides: %+v", cfg)
	}
}

func TestLoad_SleepBetweenRequestsFloatSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("STEAM_API_KEY", "k")
	t.Setenv("SLEEP_BETWEEN_REQUESTS", "0.25")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.RequestDelay() != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %v", cfg.RequestDelay())
	}
}

func TestLoad_InvalidEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("STEAM_API_KEY", "k")
	t.Setenv("MAX_APPS", "lots")

	if _, err := Load(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Fatal("expected error for non-numeric MAX_APPS")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "steam_api_key: [unclosed\n")

	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero save_every", func(c *Config) { c.SaveEvery = 0 }},
		{"negative min_jp_reviews", func(c *Config) { c.MinJPReviews = -1 }},
		{"negative max_apps", func(c *Config) { c.MaxApps = -1 }},
		{"empty output path", func(c *Config) { c.OutputPath = "" }},
		{"bad run_time", func(c *Config) { c.RunTime = "25:00" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Invalid/Zone" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			cfg.SteamAPIKey = "k"
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidateTime(t *testing.T) {
	valid := []string{"00:00", "09:30", "23:59"}
	for _, v := range valid {
		if err := ValidateTime(v); err != nil {
			t.Errorf("ValidateTime(%q) = %v, want nil", v, err)
		}
	}
	invalid := []string{"24:00", "12:60", "9:30", "ab:cd", "12-30", ""}
	for _, v := range invalid {
		if err := ValidateTime(v); err == nil {
			t.Errorf("ValidateTime(%q) = nil, want error", v)
		}
	}
}
