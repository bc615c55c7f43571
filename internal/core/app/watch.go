package app

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"archcheck/internal/core/config"
	"archcheck/internal/core/watcher"
	"archcheck/internal/engine/project"
	"archcheck/internal/shared/util"
)

// WatchOptions configures Watch. ConfigPath, when set, is watched as well
// and reloaded before the next run whenever it changes.
type WatchOptions struct {
	ConfigPath string
	OnRun      func(Run, error)
}

// Watch checks every rule once, then again after each debounced batch of
// changes under the project root, until ctx is done. Re-runs are throttled
// by the configured watch rate.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	report := opts.OnRun
	if report == nil {
		report = func(Run, error) {}
	}

	root, err := util.ToSlashAbs(a.Config.Project.RootDir)
	if err != nil {
		return err
	}
	patterns, err := util.NewPatternSet(
		project.ResolvePatterns(root, a.Config.Project.Include),
		project.ResolvePatterns(root, a.Config.Project.Exclude),
	)
	if err != nil {
		return err
	}

	changes := make(chan []string, 1)
	w, err := watcher.NewWatcher(a.Config.Watch.Debounce, patterns, a.Config.Project.Extensions, func(paths []string) {
		select {
		case changes <- paths:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return err
	}
	defer w.Close()

	configPath := ""
	if opts.ConfigPath != "" {
		if configPath, err = filepath.Abs(opts.ConfigPath); err != nil {
			return err
		}
		w.AddTrigger(configPath)
	}

	if err := w.Watch([]string{filepath.FromSlash(root)}); err != nil {
		return err
	}
	slog.Info("watching for changes", "root", root, "debounce", a.Config.Watch.Debounce)

	report(a.Check(ctx))
	for {
		select {
		case <-ctx.Done():
			return nil
		case paths := <-changes:
			slog.Debug("changes detected", "count", len(paths))
			if configPath != "" && containsPath(paths, configPath) {
				a.reloadConfig(configPath)
			}
			if err := a.limiter.Wait(ctx); err != nil {
				return nil
			}
			report(a.Check(ctx))
		}
	}
}

// reloadConfig swaps in the configuration at path. An invalid file keeps
// the current configuration.
func (a *App) reloadConfig(path string) {
	cfg, err := config.Load(path)
	if err != nil {
		slog.Warn("config reload failed, keeping previous rules", "path", path, "error", err)
		return
	}
	a.runMu.Lock()
	a.Config = cfg
	a.runMu.Unlock()
	slog.Info("config reloaded", "path", path, "rules", len(cfg.Rules))
}

func containsPath(paths []string, target string) bool {
	target = filepath.Clean(target)
	for _, p := range paths {
		if strings.EqualFold(filepath.Clean(p), target) {
			return true
		}
	}
	return false
}
