package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"github.com/fr4nk3nst1ner/applicantsleuth/internal/client"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/scraper"
	"github.com/fr4nk3nst1ner/applicantsleuth/internal/telemetry"
)

// CookieEnv overrides session.cookie so the secret can stay out of config files
const CookieEnv = "LINKEDIN_COOKIE"

type SessionConfig struct {
	Cookie     string `json:"cookie"`
	CookieFile string `json:"cookie_file"`
}

type APIConfig struct {
	BaseURL           string            `json:"base_url"`
	DecorationID      string            `json:"decoration_id"`
	Language          string            `json:"language"`
	Headers           map[string]string `json:"headers"`
	RequestsPerSecond float64           `json:"requests_per_second"`
	TimeoutSeconds    int               `json:"timeout_seconds"`
	Proxy             string            `json:"proxy"`
}

type WatchConfig struct {
	IntervalSeconds int    `json:"interval_seconds"`
	Output          string `json:"output"`
}

// Config represents the application configuration
type Config struct {
	Session   SessionConfig    `json:"session"`
	API       APIConfig        `json:"api"`
	Watch     WatchConfig      `json:"watch"`
	Telemetry telemetry.Config `json:"telemetry"`
}

// Default returns the configuration used for anything a config file leaves out
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:      "https://www.linkedin.com",
			DecorationID: scraper.DefaultDecorationID,
			Language:     "en_US",
			Headers: map[string]string{
				"user-agent":         client.DefaultUserAgent,
				"accept-language":    "en-US,en;q=0.9",
				"x-li-page-instance": "urn:li:page:d_flagship3_job_details",
				"sec-ch-ua-mobile":   "?0",
			},
			RequestsPerSecond: 2,
			TimeoutSeconds:    30,
		},
		Watch: WatchConfig{
			IntervalSeconds: 5,
		},
	}
}

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c WatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadConfig reads a json5 configuration file and merges <name>.local.<ext> over it.
// It returns os.ErrNotExist when neither file exists.
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		allNotFound = false
	}

	localFilepath := filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		var override T
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, fmt.Errorf("failed to parse %s: %w", localFilepath, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}

// Load reads the config at path (a missing file is not an error), fills in defaults and
// applies the cookie environment override.
func Load(path string) (Config, error) {
	cfg, err := ReadConfig[Config](path)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, err
	}
	if os.IsNotExist(err) {
		slog.Debug("no config file found, using defaults", "path", path)
	}

	if err := mergo.Merge(&cfg, Default()); err != nil {
		return Config{}, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if cookie := os.Getenv(CookieEnv); cookie != "" {
		cfg.Session.Cookie = cookie
	}
	return cfg, nil
}
