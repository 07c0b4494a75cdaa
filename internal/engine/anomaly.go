package engine

import (
	"sort"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/timeline"
	"github.com/incidentstack/incident-rca/internal/utils"
)

// AnomalyConfig tunes the bucket detectors.
type AnomalyConfig struct {
	Window            time.Duration
	SpikeMultiplier   float64
	SpikeMinCount     int
	ErrorClusterMin   int
	CascadeMinSources int
	MaxSamples        int
}

// DefaultAnomalyConfig returns the standard detector thresholds.
func DefaultAnomalyConfig() AnomalyConfig {
	return AnomalyConfig{
		Window:            time.Minute,
		SpikeMultiplier:   3,
		SpikeMinCount:     10,
		ErrorClusterMin:   5,
		CascadeMinSources: 3,
		MaxSamples:        10,
	}
}

// DetectAnomalies partitions the timeline into fixed buckets and flags the
// statistically abnormal ones. The baseline is the median bucket size over
// the whole window, computed once; a long window dominated by one bad hour
// can swamp it. That is a known limitation, preserved deliberately rather
// than switching to a rolling baseline.
//
// A single bucket may yield several anomaly records of different types.
func DetectAnomalies(tl timeline.Timeline, cfg AnomalyConfig) []models.AnomalyBucket {
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxSamples <= 0 {
		cfg.MaxSamples = 10
	}
	windowSec := int64(cfg.Window.Seconds())

	buckets := make(map[int64][]models.Event)
	for _, ev := range tl.Events {
		key := ev.Timestamp.Unix() / windowSec * windowSec
		buckets[key] = append(buckets[key], ev)
	}

	keys := make([]int64, 0, len(buckets))
	counts := make([]int, 0, len(buckets))
	for key, evs := range buckets {
		keys = append(keys, key)
		counts = append(counts, len(evs))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	baseline := utils.Median(counts)

	anomalies := make([]models.AnomalyBucket, 0)
	for _, key := range keys {
		evs := buckets[key]
		start := time.Unix(key, 0).UTC()
		count := len(evs)

		// Both conditions guard against flagging low-baseline noise.
		if float64(count) > baseline*cfg.SpikeMultiplier && count > cfg.SpikeMinCount {
			anomalies = append(anomalies, models.AnomalyBucket{
				Type:        models.AnomalySpike,
				WindowStart: start,
				Count:       count,
				Baseline:    baseline,
				Samples:     sampleEvents(evs, cfg.MaxSamples),
			})
		}

		errorEvents := make([]models.Event, 0)
		errorSources := make(map[string]struct{})
		for _, ev := range evs {
			if ev.Severity == models.SeverityError {
				errorEvents = append(errorEvents, ev)
				errorSources[ev.Source] = struct{}{}
			}
		}

		if len(errorEvents) > cfg.ErrorClusterMin {
			anomalies = append(anomalies, models.AnomalyBucket{
				Type:        models.AnomalyErrorCluster,
				WindowStart: start,
				Count:       len(errorEvents),
				Baseline:    baseline,
				Samples:     sampleEvents(errorEvents, cfg.MaxSamples),
			})
		}

		if len(errorSources) >= cfg.CascadeMinSources {
			anomalies = append(anomalies, models.AnomalyBucket{
				Type:        models.AnomalyCascade,
				WindowStart: start,
				Count:       len(errorEvents),
				Baseline:    baseline,
				Samples:     sampleEvents(errorEvents, cfg.MaxSamples),
			})
		}
	}

	return anomalies
}

func sampleEvents(events []models.Event, limit int) []models.Event {
	if len(events) <= limit {
		return append([]models.Event(nil), events...)
	}
	return append([]models.Event(nil), events[:limit]...)
}
