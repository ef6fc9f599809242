package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/i474232898/nwac-weather/internal/config"
)

func TestNewProdWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.AppConfig{AppEnv: "prod", LogLevel: slog.LevelInfo}, "nwac-weather")

	log.Debug("hidden")
	log.Info("fetching site timeseries", "site", "alpental")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line above debug level, got %q", buf.String())
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["site"] != "alpental" || entry["app"] != "nwac-weather" || entry["env"] != "prod" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewDevWritesText(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, &config.AppConfig{AppEnv: "dev", LogLevel: slog.LevelDebug}, "nwac-weather")

	log.Debug("timeseries cache hit", "site", "alpental")
	if !strings.Contains(buf.String(), "timeseries cache hit") || strings.HasPrefix(buf.String(), "{") {
		t.Fatalf("expected text output, got %q", buf.String())
	}
}
