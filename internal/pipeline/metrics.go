package pipeline

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names.
const (
	MetricRankDuration    = "venue_rank_duration_seconds"
	MetricRankFiltered    = "venue_rank_filtered_total"
	MetricRankRecommended = "venue_rank_recommended"
)

// Metrics records rank statistics in Prometheus. It implements Observer.
type Metrics struct {
	duration    *prometheus.HistogramVec
	filtered    *prometheus.CounterVec
	recommended prometheus.Histogram
}

// NewMetrics creates unregistered collectors; call Register to expose them.
func NewMetrics() *Metrics {
	return &Metrics{
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRankDuration,
				Help:    "Time spent filtering and ranking one catalog snapshot",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
			[]string{"personalized"},
		),
		filtered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankFiltered,
				Help: "Venues seen by the ranking pipeline, by whether they survived the filters",
			},
			[]string{"outcome"},
		),
		recommended: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricRankRecommended,
				Help:    "Size of the recommended set for personalized requests",
				Buckets: []float64{0, 1, 2, 3, 4, 5},
			},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.duration, m.filtered, m.recommended}
}

// ObserveRank implements Observer.
func (m *Metrics) ObserveRank(s Stats) {
	m.duration.WithLabelValues(strconv.FormatBool(s.Personalized)).Observe(s.Duration.Seconds())
	m.filtered.WithLabelValues("kept").Add(float64(s.Filtered))
	m.filtered.WithLabelValues("dropped").Add(float64(s.Catalog - s.Filtered))
	if s.Personalized {
		m.recommended.Observe(float64(s.Recommended))
	}
}
