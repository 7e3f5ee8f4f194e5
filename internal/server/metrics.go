package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"logmerge/pkg/logmerge"
)

// Values of the result label on logmerge_uploads_total.
const (
	resultOK         = "ok"
	resultBadRequest = "bad_request"
	resultMalformed  = "malformed_timestamp"
	resultTooLarge   = "too_large"
	resultBinary     = "binary"
)

type metrics struct {
	uploads       *prometheus.CounterVec
	entries       *prometheus.CounterVec
	rows          *prometheus.CounterVec
	mergeDuration prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	f := promauto.With(reg)
	return &metrics{
		uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logmerge_uploads_total",
			Help: "Merge requests by result.",
		}, []string{"result"}),
		entries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logmerge_entries_parsed_total",
			Help: "Log entries parsed, by side of the merge.",
		}, []string{"side"}),
		rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "logmerge_rows_merged_total",
			Help: "Merged rows produced, by kind.",
		}, []string{"kind"}),
		mergeDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "logmerge_merge_duration_seconds",
			Help:    "Time spent merging two parsed logs.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
}

func (m *metrics) observeRows(stats logmerge.Stats) {
	m.rows.WithLabelValues("paired").Add(float64(stats.Paired))
	m.rows.WithLabelValues("left").Add(float64(stats.LeftOnly))
	m.rows.WithLabelValues("right").Add(float64(stats.RightOnly))
}
