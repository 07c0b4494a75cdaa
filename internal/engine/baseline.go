package engine

import (
	"math"
	"regexp"
	"sort"

	"github.com/incidentstack/incident-rca/internal/models"
)

var digitRunRe = regexp.MustCompile(`\d+`)

// NormalizeErrorPattern turns an error message into a dedup key: digit runs
// collapse to a placeholder so ids, ports and counters do not fragment the
// pattern set, and the result is truncated to a fixed prefix.
func NormalizeErrorPattern(message string, prefixLen int) string {
	normalized := digitRunRe.ReplaceAllString(message, "#")
	if prefixLen > 0 && len(normalized) > prefixLen {
		normalized = normalized[:prefixLen]
	}
	return normalized
}

// ComputeStats aggregates one event sequence: totals, severity and source
// distributions, error rate, and the normalized error-pattern set.
func ComputeStats(events []models.Event, patternPrefixLen int) models.TimelineStats {
	stats := models.TimelineStats{
		BySeverity: make(map[models.Severity]int),
		BySource:   make(map[string]int),
	}

	patternSet := make(map[string]struct{})
	for _, ev := range events {
		stats.TotalEvents++
		stats.BySeverity[ev.Severity]++
		stats.BySource[ev.Source]++
		switch {
		case ev.Severity.ErrorLike():
			stats.ErrorCount++
			patternSet[NormalizeErrorPattern(ev.Message, patternPrefixLen)] = struct{}{}
		case ev.Severity == models.SeverityWarn:
			stats.WarningCount++
		}
	}

	if stats.TotalEvents > 0 {
		stats.ErrorRate = float64(stats.ErrorCount) / float64(stats.TotalEvents) * 100
	}

	stats.ErrorPatterns = make([]string, 0, len(patternSet))
	for p := range patternSet {
		stats.ErrorPatterns = append(stats.ErrorPatterns, p)
	}
	sort.Strings(stats.ErrorPatterns)
	return stats
}

// Compare diffs a baseline period against the incident period. The result is
// a presentation-layer artifact; it never feeds the root-cause resolver.
// Per-source changes are significant only when the percentage change is
// strictly greater than sourceChangePct.
func Compare(baseline, incident models.TimelineStats, sourceChangePct float64) models.BaselineDiff {
	diff := models.BaselineDiff{
		EventDelta:     incident.TotalEvents - baseline.TotalEvents,
		ErrorDelta:     incident.ErrorCount - baseline.ErrorCount,
		ErrorRateDelta: incident.ErrorRate - baseline.ErrorRate,
	}
	if baseline.TotalEvents > 0 {
		diff.EventDeltaPct = float64(diff.EventDelta) / float64(baseline.TotalEvents) * 100
	}

	baseSet := make(map[string]struct{}, len(baseline.ErrorPatterns))
	for _, p := range baseline.ErrorPatterns {
		baseSet[p] = struct{}{}
	}
	for _, p := range incident.ErrorPatterns {
		if _, ok := baseSet[p]; !ok {
			diff.NewErrorPatterns = append(diff.NewErrorPatterns, p)
		}
	}
	sort.Strings(diff.NewErrorPatterns)

	sources := make(map[string]struct{}, len(baseline.BySource)+len(incident.BySource))
	for src := range baseline.BySource {
		sources[src] = struct{}{}
	}
	for src := range incident.BySource {
		sources[src] = struct{}{}
	}

	for src := range sources {
		baseCount := baseline.BySource[src]
		incCount := incident.BySource[src]
		var pct float64
		switch {
		case baseCount > 0:
			pct = float64(incCount-baseCount) / float64(baseCount) * 100
		case incCount > 0:
			pct = 100
		}
		if math.Abs(pct) > sourceChangePct {
			diff.PerSourceChanges = append(diff.PerSourceChanges, models.SourceChange{
				Source:        src,
				BaselineCount: baseCount,
				IncidentCount: incCount,
				DeltaPct:      pct,
			})
		}
	}
	sort.Slice(diff.PerSourceChanges, func(i, j int) bool {
		return diff.PerSourceChanges[i].Source < diff.PerSourceChanges[j].Source
	})

	return diff
}
