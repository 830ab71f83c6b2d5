package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Mutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgen_mutations_total",
			Help: "Committed document mutations by operation.",
		},
		[]string{"op"},
	)

	HistoryMoves = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgen_history_moves_total",
			Help: "Undo and redo steps taken.",
		},
		[]string{"direction"},
	)

	HistoryDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "embedgen_history_depth",
			Help: "Undo steps currently retained.",
		},
	)

	PersistWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgen_persist_writes_total",
			Help: "Writes to local storage by record and result.",
		},
		[]string{"record", "result"},
	)

	PreviewRenders = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "embedgen_preview_renders_total",
			Help: "Preview projections derived.",
		},
	)

	ParseFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgen_parse_failures_total",
			Help: "Documents rejected as structurally invalid, by source.",
		},
		[]string{"source"},
	)

	BackendRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedgen_backend_requests_total",
			Help: "Requests to the remote backend by endpoint and status class.",
		},
		[]string{"endpoint", "status"},
	)
)

func init() {
	prometheus.MustRegister(Mutations)
	prometheus.MustRegister(HistoryMoves)
	prometheus.MustRegister(HistoryDepth)
	prometheus.MustRegister(PersistWrites)
	prometheus.MustRegister(PreviewRenders)
	prometheus.MustRegister(ParseFailures)
	prometheus.MustRegister(BackendRequests)
}
