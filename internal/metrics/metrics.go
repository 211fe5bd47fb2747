package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "contests"

// Registry holds every collector exposed on /metrics.
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// Aggregation pipeline metrics
var (
	AdapterContests = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_contests_total",
			Help:      "Contests returned by platform adapters",
		},
		[]string{"platform"},
	)

	// AdapterFailures counts absorbed adapter failures.
	// reason: fetch, parse, structure, normalize, render
	AdapterFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "adapter_failures_total",
			Help:      "Platform adapter failures absorbed into empty or partial results",
		},
		[]string{"platform", "reason"},
	)

	// Upserts counts per-row upsert outcomes.
	// result: created, updated, failed
	Upserts = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upserts_total",
			Help:      "Contest upserts by outcome",
		},
		[]string{"result"},
	)

	RefreshDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of one aggregation cycle in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	StatusTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Contest status changes written by the lifecycle job",
		},
		[]string{"from", "to"},
	)
)

// Enrichment metrics
var (
	SolutionVideos = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "solution_videos_total",
			Help:      "Solution videos discovered per platform",
		},
		[]string{"platform"},
	)

	// EnrichmentFailures reason: fetch, extraction, parse, structure
	EnrichmentFailures = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Playlist enrichment failures per platform",
		},
		[]string{"platform", "reason"},
	)
)

func init() {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// Init records build information.
func Init(version, commit, buildDate string) {
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
