package metrics

import (
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

const (
	// OutcomeSuccess labels successful analysis runs.
	OutcomeSuccess = "success"
	// OutcomeError labels failed analysis runs.
	OutcomeError = "error"
)

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "runs_total",
			Help:      "Total number of analysis runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	eventsIngested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "events_ingested_total",
			Help:      "Events accepted into analysis timelines.",
		},
	)

	rowsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "incident_rca",
			Name:      "rows_skipped_total",
			Help:      "Raw rows dropped for unparsable timestamps.",
		},
	)

	runDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "incident_rca",
			Name:      "run_seconds",
			Help:      "Analysis run latency in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
)

// Register attaches the engine collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		runsTotal,
		eventsIngested,
		rowsSkipped,
		runDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveRun records one analysis run.
func ObserveRun(duration time.Duration, outcome string, events, skipped int) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	runsTotal.WithLabelValues(label).Inc()
	if events > 0 {
		eventsIngested.Add(float64(events))
	}
	if skipped > 0 {
		rowsSkipped.Add(float64(skipped))
	}
	if duration < 0 {
		duration = 0
	}
	runDurationSeconds.Observe(duration.Seconds())
}

// WriteTextfile dumps the gathered metric families to path in the Prometheus
// text exposition format. Batch runs have no scrape endpoint; a textfile in
// the report directory lets node_exporter's textfile collector pick the
// numbers up.
func WriteTextfile(gatherer prometheus.Gatherer, path string) error {
	families, err := gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range families {
		if err := enc.Encode(family); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	return nil
}
