package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	coreapp "archcheck/internal/core/app"
	"archcheck/internal/core/config"
	"archcheck/internal/shared/observability"
	"archcheck/internal/shared/version"
	"archcheck/internal/ui/report"
)

const (
	exitPassed = 0
	exitFailed = 1
	exitError  = 2
)

// Run executes the archcheck command line and returns the process exit code:
// 0 when every rule passed, 1 when a rule failed or could not be evaluated,
// 2 for usage, configuration and runtime errors.
func Run(args []string) int {
	return run(args, os.Stdout, os.Stderr)
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseOptions(args, stderr)
	if err != nil {
		return exitError
	}

	if opts.version {
		fmt.Fprintf(stdout, "archcheck %s\n", version.Version)
		return exitPassed
	}

	cleanupLogs := configureLogging(opts.ui, opts.verbose, stderr)
	defer cleanupLogs()

	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("failed to detect working directory", "error", err)
		return exitError
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return exitError
	}

	if err := applyModeOptions(&opts, cfg); err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown := setupObservability(ctx, cfg)
	defer shutdown()

	analysis, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return exitError
	}
	defer analysis.Close()

	switch {
	case opts.trace:
		return runTrace(ctx, analysis, opts, stdout, stderr)
	case opts.impact != "":
		return runImpact(ctx, analysis, opts, stdout, stderr)
	case opts.graph != "":
		return runGraph(ctx, analysis, opts, stdout, stderr)
	case opts.trend > 0 || opts.historyTSV != "" || opts.historyJSON != "":
		return runTrend(ctx, analysis, opts, stdout)
	case opts.ui:
		if err := runUI(ctx, analysis, cfgPath); err != nil {
			slog.Error("failed to run UI", "error", err)
			return exitError
		}
		return exitPassed
	case opts.watch:
		return runWatch(ctx, analysis, opts, cfgPath, stdout)
	}
	return runCheck(ctx, analysis, opts, stdout)
}

func runCheck(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout io.Writer) int {
	run, err := analysis.Check(ctx)
	if err != nil {
		slog.Error("check failed", "error", err)
		return exitError
	}
	writeMetrics(analysis.Config)
	if err := renderRun(run, opts, stdout); err != nil {
		slog.Error("failed to write report", "error", err)
		return exitError
	}
	if run.Passed() {
		return exitPassed
	}
	return exitFailed
}

func runWatch(ctx context.Context, analysis *coreapp.App, opts cliOptions, cfgPath string, stdout io.Writer) int {
	err := analysis.Watch(ctx, coreapp.WatchOptions{
		ConfigPath: cfgPath,
		OnRun: func(run coreapp.Run, err error) {
			if err != nil {
				slog.Error("check failed", "error", err)
				return
			}
			writeMetrics(analysis.Config)
			if err := renderRun(run, opts, stdout); err != nil {
				slog.Error("failed to write report", "error", err)
			}
		},
	})
	if err != nil {
		slog.Error("watch failed", "error", err)
		return exitError
	}
	return exitPassed
}

func renderRun(run coreapp.Run, opts cliOptions, stdout io.Writer) error {
	var buf bytes.Buffer
	switch opts.format {
	case "sarif":
		data, err := report.RenderSARIF(run)
		if err != nil {
			return err
		}
		buf.Write(data)
		buf.WriteByte('\n')
	default:
		if err := report.RenderText(&buf, run, report.TextOptions{Verbose: opts.verbose}); err != nil {
			return err
		}
	}
	return writeOutput(opts.output, buf.Bytes(), stdout)
}

func runTrace(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout, stderr io.Writer) int {
	chain, err := analysis.TraceImportChain(ctx, opts.args[0], opts.args[1])
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailed
	}
	if err := report.RenderChain(stdout, analysis.Config.Project.RootDir, chain); err != nil {
		return exitError
	}
	return exitPassed
}

func runImpact(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout, stderr io.Writer) int {
	impact, err := analysis.AnalyzeImpact(ctx, opts.impact)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitFailed
	}
	if err := report.RenderImpact(stdout, analysis.Config.Project.RootDir, impact); err != nil {
		return exitError
	}
	return exitPassed
}

func runGraph(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout, stderr io.Writer) int {
	g, err := analysis.DependencyGraph(ctx)
	if err != nil {
		slog.Error("failed to build dependency graph", "error", err)
		return exitError
	}
	out, err := report.RenderGraph(g, analysis.Config.Project.RootDir, opts.graph)
	if err != nil {
		fmt.Fprintln(stderr, err.Error())
		return exitError
	}
	if err := writeOutput(opts.output, []byte(out), stdout); err != nil {
		slog.Error("failed to write graph", "error", err)
		return exitError
	}
	return exitPassed
}

func runTrend(ctx context.Context, analysis *coreapp.App, opts cliOptions, stdout io.Writer) int {
	points, err := analysis.Trend(ctx, opts.trend)
	if err != nil {
		slog.Error("failed to build trend", "error", err)
		return exitError
	}

	if opts.historyTSV == "" && opts.historyJSON == "" {
		data, err := report.RenderTrendTSV(points)
		if err == nil {
			_, err = stdout.Write(data)
		}
		if err != nil {
			return exitError
		}
		return exitPassed
	}

	if opts.historyTSV != "" {
		data, err := report.RenderTrendTSV(points)
		if err == nil {
			err = writeOutput(opts.historyTSV, data, stdout)
		}
		if err != nil {
			slog.Error("failed to write trend TSV", "path", opts.historyTSV, "error", err)
			return exitError
		}
	}
	if opts.historyJSON != "" {
		data, err := report.RenderTrendJSON(points)
		if err == nil {
			err = writeOutput(opts.historyJSON, data, stdout)
		}
		if err != nil {
			slog.Error("failed to write trend JSON", "path", opts.historyJSON, "error", err)
			return exitError
		}
	}
	return exitPassed
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(path string, data []byte, stdout io.Writer) error {
	if strings.TrimSpace(path) == "" {
		_, err := stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	candidate := filepath.Join(cwd, config.DefaultFile)
	cfg, err := config.Load(candidate)
	if err != nil {
		return nil, "", err
	}
	return cfg, candidate, nil
}

func applyModeOptions(opts *cliOptions, cfg *config.Config) error {
	modeCount := 0
	for _, set := range []bool{opts.trace, opts.impact != "", opts.graph != "", opts.watch || opts.ui} {
		if set {
			modeCount++
		}
	}
	if modeCount > 1 {
		return fmt.Errorf("--trace, --impact, --graph and --watch/--ui cannot be combined")
	}

	switch opts.format {
	case "text", "sarif":
	default:
		return fmt.Errorf("--format must be text or sarif, got %q", opts.format)
	}
	switch opts.graph {
	case "", "dot", "mermaid":
	default:
		return fmt.Errorf("--graph must be dot or mermaid, got %q", opts.graph)
	}

	if opts.trace {
		if len(opts.args) != 2 {
			return fmt.Errorf("trace mode requires two file arguments: archcheck --trace <from> <to>")
		}
		return nil
	}

	if len(opts.args) > 0 {
		root, err := filepath.Abs(opts.args[0])
		if err != nil {
			return fmt.Errorf("invalid project root %q: %w", opts.args[0], err)
		}
		cfg.Project.RootDir = root
		if err := config.Validate(cfg); err != nil {
			return err
		}
	}

	if opts.trend < 0 {
		return fmt.Errorf("--trend must be >= 0, got %d", opts.trend)
	}
	wantsHistory := opts.trend > 0 || opts.historyTSV != "" || opts.historyJSON != ""
	if wantsHistory && !cfg.History.Enabled {
		return fmt.Errorf("--trend/--history-tsv/--history-json require [history] enabled = true")
	}
	return nil
}

func setupObservability(ctx context.Context, cfg *config.Config) func() {
	endpoint := strings.TrimSpace(cfg.Observability.OTLPEndpoint)
	if endpoint == "" {
		return func() {}
	}
	shutdown, err := observability.InitTracing(ctx, endpoint)
	if err != nil {
		slog.Warn("tracing disabled", "endpoint", endpoint, "error", err)
		return func() {}
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("failed to flush traces", "error", err)
		}
	}
}

func writeMetrics(cfg *config.Config) {
	path := strings.TrimSpace(cfg.Observability.MetricsFile)
	if path == "" {
		return
	}
	if err := observability.WriteTextfile(path); err != nil {
		slog.Warn("failed to write metrics", "path", path, "error", err)
	}
}

func configureLogging(uiMode, verbose bool, stderr io.Writer) func() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}

	output := stderr
	var closeFn func() = func() {}
	if uiMode {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else {
			if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
				fmt.Fprintf(stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
			} else {
				f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
				if err == nil {
					output = f
					closeFn = func() { _ = f.Close() }
				} else {
					fmt.Fprintf(stderr, "warning: failed to open log file %s: %v\n", logPath, err)
				}
			}
		}
	}

	logger := slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)
	return closeFn
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "archcheck", "archcheck.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "archcheck", "archcheck.log")
	}

	return "archcheck.log"
}
