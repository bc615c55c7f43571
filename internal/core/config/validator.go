package config

import (
	"fmt"
	"os"
	"strings"

	"archcheck/internal/core/errors"
	"archcheck/internal/shared/util"
)

// Validate checks the configuration before any file walk.
func Validate(cfg *Config) error {
	if err := validateVersion(cfg); err != nil {
		return err
	}
	if err := validateProject(cfg); err != nil {
		return err
	}
	if err := validateRules(cfg); err != nil {
		return err
	}
	return validateWatch(cfg)
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return errors.Newf(errors.CodeValidationError, "unsupported config version %d; supported version is 1", cfg.Version)
	}
	return nil
}

func validateProject(cfg *Config) error {
	root := strings.TrimSpace(cfg.Project.RootDir)
	if root == "" {
		return errors.New(errors.CodeValidationError, "project.root_dir must not be empty")
	}
	info, err := os.Stat(root)
	if err != nil {
		return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, "project.root_dir is not accessible"), errors.CtxPath, root)
	}
	if !info.IsDir() {
		return errors.Newf(errors.CodeValidationError, "project.root_dir %s is not a directory", root)
	}

	for field, patterns := range map[string][]string{"include": cfg.Project.Include, "exclude": cfg.Project.Exclude} {
		for i, raw := range patterns {
			if strings.TrimSpace(raw) == "" {
				return errors.Newf(errors.CodeValidationError, "project.%s[%d] must not be empty", field, i)
			}
			if _, err := util.CompilePattern(util.ResolvePattern(root, raw)); err != nil {
				return errors.AddContext(errors.Wrap(err, errors.CodeValidationError, fmt.Sprintf("project.%s[%d] is invalid", field, i)), errors.CtxPattern, raw)
			}
		}
	}

	for i, ext := range cfg.Project.Extensions {
		if strings.TrimSpace(strings.TrimPrefix(ext, ".")) == "" {
			return errors.Newf(errors.CodeValidationError, "project.extensions[%d] must not be empty", i)
		}
	}
	return nil
}

func validateRules(cfg *Config) error {
	if len(cfg.Rules) == 0 {
		return errors.New(errors.CodeValidationError, "at least one [[rules]] entry is required")
	}
	for i, r := range cfg.Rules {
		mode := strings.ToLower(strings.TrimSpace(r.Mode))
		if mode != ModeShould && mode != ModeShouldNot {
			return errors.Newf(errors.CodeValidationError, "rules[%d].mode must be one of: should, should_not", i)
		}
		if err := r.ArchitectureRule().Validate(); err != nil {
			return errors.AddContext(err, "rule_index", i)
		}
	}
	return nil
}

func validateWatch(cfg *Config) error {
	if cfg.Watch.Debounce < 0 {
		return errors.New(errors.CodeValidationError, "watch.debounce must not be negative")
	}
	if cfg.Watch.Rate < 0 {
		return errors.New(errors.CodeValidationError, "watch.rate must not be negative")
	}
	return nil
}
