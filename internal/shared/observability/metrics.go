package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ProjectBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archcheck_project_build_seconds",
		Help:    "Time spent walking and analysing a project.",
		Buckets: prometheus.DefBuckets,
	}, []string{"analysis"})

	FilesAnalyzedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archcheck_files_analyzed_total",
		Help: "Total number of files added to a project model.",
	}, []string{"analysis"})

	DependenciesResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archcheck_dependencies_resolved_total",
		Help: "Total number of dependencies resolved, by classification.",
	}, []string{"type"})

	ExtractionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_extraction_failures_total",
		Help: "Total number of files whose imports could not be extracted.",
	})

	RuleChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archcheck_rule_checks_total",
		Help: "Total number of rule evaluations, by rule kind and outcome.",
	}, []string{"kind", "result"})

	RuleEvaluationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "archcheck_rule_evaluation_seconds",
		Help:    "Time spent evaluating a single rule against a selection.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "archcheck_runs_total",
		Help: "Total number of full rule set runs, by outcome.",
	}, []string{"result"})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "archcheck_run_seconds",
		Help:    "Time spent checking every configured rule once.",
		Buckets: prometheus.DefBuckets,
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "archcheck_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)

// WriteTextfile dumps the default registry in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
