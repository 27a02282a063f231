package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	SteamAPIKey     string `yaml:"steam_api_key"`
	RequestDelayMS  int    `yaml:"request_delay_ms"`
	MaxApps         int    `yaml:"max_apps"`
	SaveEvery       int    `yaml:"save_every"`
	MinJPReviews    int    `yaml:"min_jp_reviews"`
	IncludeDetails  bool   `yaml:"include_details"`
	IncludePrice    bool   `yaml:"include_price"`
	FetchTimeoutSec int    `yaml:"fetch_timeout_secs"`
	OutputPath      string `yaml:"output_path"`
	CheckpointPath  string `yaml:"checkpoint_path"`
	DBPath          string `yaml:"db_path"`
	RunTime         string `yaml:"run_time"`
	Timezone        string `yaml:"timezone"`
	TelegramToken   string `yaml:"telegram_token"`
	TelegramChatID  int64  `yaml:"telegram_chat_id"`
	LogLevel        string `yaml:"log_level"`
}

// Defaults returns a Config with all default values set.
func Defaults() Config {
	return Config{
		RequestDelayMS:  200,
		MaxApps:         0,
		SaveEvery:       50,
		MinJPReviews:    200,
		IncludeDetails:  true,
		IncludePrice:    true,
		FetchTimeoutSec: 30,
		OutputPath:      "./data.json",
		CheckpointPath:  "./data_partial.json",
		RunTime:         "06:00",
		Timezone:        "Asia/Tokyo",
		LogLevel:        "info",
	}
}

// Load reads a YAML config file, applies environment overrides and returns a
// validated Config. A missing file is not an error: the environment alone
// can configure a run. Recognized variables keep the names the original
// collector used: STEAM_API_KEY, SLEEP_BETWEEN_REQUESTS (float seconds),
// MAX_APPS, SAVE_EVERY.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if key := os.Getenv("STEAM_API_KEY"); key != "" {
		cfg.SteamAPIKey = key
	}
	if v := os.Getenv("SLEEP_BETWEEN_REQUESTS"); v != "" {
		secs, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SLEEP_BETWEEN_REQUESTS %q: %w", v, err)
		}
		cfg.RequestDelayMS = int(secs * 1000)
	}
	if v := os.Getenv("MAX_APPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid MAX_APPS %q: %w", v, err)
		}
		cfg.MaxApps = n
	}
	if v := os.Getenv("SAVE_EVERY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SAVE_EVERY %q: %w", v, err)
		}
		cfg.SaveEvery = n
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks that required fields are present and values are valid.
func (c *Config) Validate() error {
	if c.SteamAPIKey == "" {
		return fmt.Errorf("steam_api_key is required (config file or STEAM_API_KEY)")
	}
	if c.SaveEvery <= 0 {
		return fmt.Errorf("save_every must be positive, got %d", c.SaveEvery)
	}
	if c.MinJPReviews < 0 {
		return fmt.Errorf("min_jp_reviews must not be negative, got %d", c.MinJPReviews)
	}
	if c.MaxApps < 0 {
		return fmt.Errorf("max_apps must not be negative, got %d", c.MaxApps)
	}
	if c.OutputPath == "" || c.CheckpointPath == "" {
		return fmt.Errorf("output_path and checkpoint_path are required")
	}

	if err := ValidateTime(c.RunTime); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	return nil
}

// RequestDelay returns the inter-request delay as a duration.
func (c *Config) RequestDelay() time.Duration {
	return time.Duration(c.RequestDelayMS) * time.Millisecond
}

// FetchTimeout returns the per-attempt HTTP timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSec) * time.Second
}

// ValidateTime checks that a time string is in valid HH:MM 24-hour format.
func ValidateTime(t string) error {
	if len(t) != 5 || t[2] != ':' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	if t[0] < '0' || t[0] > '9' || t[1] < '0' || t[1] > '9' ||
		t[3] < '0' || t[3] > '9' || t[4] < '0' || t[4] > '9' {
		return fmt.Errorf("invalid time format %q: must be HH:MM", t)
	}

	hour := (int(t[0]-'0') * 10) + int(t[1]-'0')
	minute := (int(t[3]-'0') * 10) + int(t[4]-'0')

	if hour > 23 {
		return fmt.Errorf("invalid time %q: hour must be 0-23", t)
	}
	if minute > 59 {
		return fmt.Errorf("invalid time %q: minute must be 0-59", t)
	}

	return nil
}
