package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: ARCHCHECK_[SECTION]_[KEY] (e.g., ARCHCHECK_HISTORY_ENABLED).
func ApplyEnvOverrides(cfg *Config) {
	// Project
	setEnvString(&cfg.Project.RootDir, "ARCHCHECK_PROJECT_ROOT_DIR")
	setEnvString(&cfg.Project.TypeScriptPath, "ARCHCHECK_PROJECT_TYPESCRIPT_PATH")

	// History
	setEnvBool(&cfg.History.Enabled, "ARCHCHECK_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "ARCHCHECK_HISTORY_PATH")

	// Observability
	setEnvString(&cfg.Observability.MetricsFile, "ARCHCHECK_OBSERVABILITY_METRICS_FILE")
	setEnvString(&cfg.Observability.OTLPEndpoint, "ARCHCHECK_OBSERVABILITY_OTLP_ENDPOINT")

	// Watch
	setEnvDuration(&cfg.Watch.Debounce, "ARCHCHECK_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.Rate, "ARCHCHECK_WATCH_RATE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
