package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the lookup counters of one batch run.
type Metrics struct {
	LookupsTotal      *prometheus.CounterVec
	LookupDuration    prometheus.Histogram
	SnapshotsWritten  prometheus.Counter
	SinkErrorsTotal   *prometheus.CounterVec
	CodesSkippedTotal prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		LookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vasptrack_lookups_total",
				Help: "Total number of tracking lookups by outcome",
			},
			[]string{"outcome"},
		),
		LookupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vasptrack_lookup_duration_seconds",
				Help:    "Duration of one tracking lookup including normalization",
				Buckets: prometheus.DefBuckets,
			},
		),
		SnapshotsWritten: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vasptrack_snapshots_written_total",
				Help: "Total number of snapshot pairs written",
			},
		),
		SinkErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vasptrack_sink_errors_total",
				Help: "Total number of failed result sink writes",
			},
			[]string{"sink"},
		),
		CodesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "vasptrack_codes_skipped_total",
				Help: "Total number of codes rejected before lookup",
			},
		),
	}
}

// Register registers all metrics on reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		m.LookupsTotal,
		m.LookupDuration,
		m.SnapshotsWritten,
		m.SinkErrorsTotal,
		m.CodesSkippedTotal,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
