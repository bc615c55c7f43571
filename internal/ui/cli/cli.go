package cli

import (
	"flag"
	"io"

	"archcheck/internal/core/config"
)

const defaultConfigPath = "./" + config.DefaultFile

type cliOptions struct {
	configPath  string
	watch       bool
	ui          bool
	trace       bool
	impact      string
	graph       string
	format      string
	output      string
	trend       int
	historyTSV  string
	historyJSON string
	verbose     bool
	version     bool
	args        []string
}

func parseOptions(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("archcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run the rules whenever an in-scope file changes")
	fs.BoolVar(&opts.ui, "ui", false, "Watch with an interactive terminal UI")
	fs.BoolVar(&opts.trace, "trace", false, "Trace the shortest import chain between two files")
	fs.StringVar(&opts.impact, "impact", "", "List the files that import a file directly or transitively")
	fs.StringVar(&opts.graph, "graph", "", "Print the import graph as dot or mermaid and exit")
	fs.StringVar(&opts.format, "format", "text", "Report format: text or sarif")
	fs.StringVar(&opts.output, "output", "", "Write the report to this path instead of stdout")
	fs.IntVar(&opts.trend, "trend", 0, "Print the last N recorded runs (requires history)")
	fs.StringVar(&opts.historyTSV, "history-tsv", "", "Write the run trend as TSV to this path (requires history)")
	fs.StringVar(&opts.historyJSON, "history-json", "", "Write the run trend as JSON to this path (requires history)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging and list passing rules")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
