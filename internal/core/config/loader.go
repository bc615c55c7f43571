package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"archcheck/internal/core/errors"

	"github.com/BurntSushi/toml"
)

var (
	DefaultInclude    = []string{"<rootDir>/**"}
	DefaultExclude    = []string{"**/node_modules/**"}
	DefaultExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}
)

// Load reads a TOML configuration, applies environment overrides and
// defaults, anchors relative paths at the file's directory and validates
// the result. Nothing outside the configured root is walked.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeNotFound, "config file not found"), errors.CtxPath, path)
		}
		return nil, errors.Wrap(err, errors.CodeInternal, "read config")
	}

	cfg, err := Parse(string(data))
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "resolve config path")
	}
	resolvePaths(cfg, filepath.Dir(abs))

	if err := Validate(cfg); err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	return cfg, nil
}

// Parse decodes TOML content and applies overrides and defaults without
// validating or touching the file system.
func Parse(content string) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeValidationError, "invalid TOML")
	}
	for _, key := range meta.Undecoded() {
		slog.Warn("ignoring unknown config key", "key", key.String())
	}

	ApplyEnvOverrides(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if strings.TrimSpace(cfg.Project.RootDir) == "" {
		cfg.Project.RootDir = "."
	}
	if len(cfg.Project.Include) == 0 {
		cfg.Project.Include = append([]string(nil), DefaultInclude...)
	}
	if cfg.Project.Exclude == nil {
		cfg.Project.Exclude = append([]string(nil), DefaultExclude...)
	}
	if len(cfg.Project.Extensions) == 0 {
		cfg.Project.Extensions = append([]string(nil), DefaultExtensions...)
	}

	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = filepath.Join(".archcheck", "history.db")
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Rate == 0 {
		cfg.Watch.Rate = 1
	}

	for i := range cfg.Rules {
		if strings.TrimSpace(cfg.Rules[i].Mode) == "" {
			cfg.Rules[i].Mode = ModeShould
		}
	}
}

// resolvePaths anchors the root at base and the remaining file paths at
// the root.
func resolvePaths(cfg *Config, base string) {
	cfg.Project.RootDir = ResolveRelative(base, cfg.Project.RootDir)
	if strings.TrimSpace(cfg.Project.TypeScriptPath) != "" {
		cfg.Project.TypeScriptPath = ResolveRelative(cfg.Project.RootDir, cfg.Project.TypeScriptPath)
	}
	cfg.History.Path = ResolveRelative(cfg.Project.RootDir, cfg.History.Path)
	if strings.TrimSpace(cfg.Observability.MetricsFile) != "" {
		cfg.Observability.MetricsFile = ResolveRelative(cfg.Project.RootDir, cfg.Observability.MetricsFile)
	}
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}
