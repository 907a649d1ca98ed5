package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pymend_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pymend_analysis_seconds",
		Help:    "Time spent on analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	AnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymend_analyses_total",
		Help: "Total number of file analyses, by outcome.",
	}, []string{"outcome"})

	RewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pymend_rewrites_total",
		Help: "Total number of rewrite operations applied.",
	}, []string{"operation"})

	MissingNames = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pymend_missing_names",
		Help: "Missing names found in the most recent scan.",
	})

	FilesScanned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pymend_files_scanned",
		Help: "Files analyzed in the most recent scan.",
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pymend_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
