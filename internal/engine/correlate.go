package engine

import (
	"regexp"
	"sort"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/timeline"
)

// errorLikeRe is the loose heuristic for events worth correlating even when
// their severity field is benign.
var errorLikeRe = regexp.MustCompile(`(?i)error|fail|crash`)

// Correlate groups error-like events into fixed windows and emits a
// correlation whenever at least two events spanning at least two distinct
// sources land in the same window. This is a deliberately looser,
// source-diversity signal than the anomaly detectors; both outputs are kept
// without merging because each highlights a different investigative angle.
func Correlate(tl timeline.Timeline, window time.Duration) []models.Correlation {
	if window <= 0 {
		window = 30 * time.Second
	}
	windowSec := int64(window.Seconds())

	grouped := make(map[int64][]models.Event)
	for _, ev := range tl.Events {
		if ev.Severity != models.SeverityError && !errorLikeRe.MatchString(ev.Message) {
			continue
		}
		key := ev.Timestamp.Unix() / windowSec * windowSec
		grouped[key] = append(grouped[key], ev)
	}

	keys := make([]int64, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	correlations := make([]models.Correlation, 0)
	for _, key := range keys {
		evs := grouped[key]
		if len(evs) < 2 {
			continue
		}
		sourceSet := make(map[string]struct{})
		for _, ev := range evs {
			sourceSet[ev.Source] = struct{}{}
		}
		if len(sourceSet) < 2 {
			continue
		}
		sources := make([]string, 0, len(sourceSet))
		for src := range sourceSet {
			sources = append(sources, src)
		}
		sort.Strings(sources)

		correlations = append(correlations, models.Correlation{
			WindowStart: time.Unix(key, 0).UTC(),
			Events:      evs,
			Sources:     sources,
		})
	}

	return correlations
}
