package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/nwac-weather/internal/common"
)

type AppConfig struct {
	// AppEnv is "dev" (colored text logs) or "prod" (JSON logs).
	AppEnv   string
	LogLevel slog.Level
	Port     string

	// HTTPTimeout bounds each outbound call to the NWAC pages and API.
	HTTPTimeout time.Duration

	WebBaseURL      string
	APIBaseURL      string
	ReferenceSite   string
	Source          string
	FloorResolution time.Duration

	// DefaultSpan is the window used when a request names no span.
	DefaultSpan time.Duration

	// Sites kept warm in the timeseries cache, and how often.
	WarmSites    []string
	WarmInterval time.Duration
}

// Load reads configuration from .env and the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	cfg := &AppConfig{
		Port:          getenvDefault("PORT", "8080"),
		WebBaseURL:    getenvDefault("NWAC_WEB_URL", "https://www.nwac.us/weatherdata"),
		APIBaseURL:    getenvDefault("SNOWOBS_API_URL", "https://api.snowobs.com/v1"),
		ReferenceSite: getenvDefault("NWAC_REFERENCE_SITE", "alpental"),
		Source:        getenvDefault("NWAC_SOURCE", "nwac"),
		WarmSites:     common.SplitList(os.Getenv("WARM_SITES")),
	}

	cfg.AppEnv = strings.ToLower(getenvDefault("APP_ENV", "dev"))
	if cfg.AppEnv != "dev" && cfg.AppEnv != "prod" {
		return nil, fmt.Errorf("invalid APP_ENV %q: want dev or prod", cfg.AppEnv)
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getenvDefault("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"HTTP_TIMEOUT", "20s", &cfg.HTTPTimeout},
		{"FLOOR_RESOLUTION", "1m", &cfg.FloorResolution},
		{"DEFAULT_SPAN", "120h", &cfg.DefaultSpan},
		{"WARM_INTERVAL", "15m", &cfg.WarmInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getenvDefault(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", d.key, err)
		}
		if v <= 0 {
			return nil, fmt.Errorf("invalid %s: must be positive", d.key)
		}
		*d.dst = v
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
