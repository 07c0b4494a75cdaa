package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/engine"
	"github.com/incidentstack/incident-rca/internal/utils"
)

const (
	cascadeSourcesNote = 3
	highErrorRatePct   = 10
)

// Recommendations derives follow-up advice from the run. The rules are
// deterministic so repeated runs over the same input produce identical
// reports.
func Recommendations(result *engine.Result) []string {
	recs := make([]string, 0, 4)

	maxSources := 0
	for _, in := range result.Incidents {
		if n := len(in.EffectSources()); n > maxSources {
			maxSources = n
		}
	}
	if maxSources > cascadeSourcesNote {
		recs = append(recs, fmt.Sprintf(
			"Cascading failure touched %d services. Review service dependencies and add circuit breakers between tiers.", maxSources))
	}

	if result.Stats.ErrorRate > highErrorRatePct {
		recs = append(recs, fmt.Sprintf(
			"Error rate of %.1f%% is unusually high. Consider rolling back recent changes and paging the owning team.", result.Stats.ErrorRate))
	}

	if result.Diff != nil && len(result.Diff.NewErrorPatterns) > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d error pattern(s) absent from the baseline period appeared during the incident. Triage the new patterns first.", len(result.Diff.NewErrorPatterns)))
	}

	if result.RootCause == nil && len(result.Incidents) > 0 {
		recs = append(recs, "No critical-severity pattern matched. Inspect the high-severity incidents manually.")
	}

	return recs
}

// RenderMarkdown produces the INCIDENT_REPORT.md summary for humans and
// ticketing systems.
func RenderMarkdown(result *engine.Result) string {
	var b strings.Builder
	b.WriteString("# Incident Analysis Report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", result.RunID)
	fmt.Fprintf(&b, "- Window: %s to %s (%.0f minutes)\n",
		result.Timeline.Window.Start.UTC().Format(time.RFC3339),
		result.Timeline.Window.End.UTC().Format(time.RFC3339),
		utils.DurationMinutes(result.Timeline.Window.Start, result.Timeline.Window.End))
	fmt.Fprintf(&b, "- Generated: %s\n\n", time.Now().UTC().Format(time.RFC3339))

	b.WriteString("## Root Cause\n\n")
	if rc := result.RootCause; rc != nil {
		fmt.Fprintf(&b, "**%s** at %s (confidence %.0f%%)\n\n",
			rc.Pattern, rc.Timestamp.UTC().Format(time.RFC3339), rc.Confidence*100)
		for _, ev := range rc.Evidence {
			fmt.Fprintf(&b, "- %s\n", ev)
		}
		if rc.Resolution != "" {
			b.WriteString("\nSuggested resolution:\n\n")
			for _, line := range strings.Split(rc.Resolution, "\n") {
				fmt.Fprintf(&b, "> %s\n", line)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("No definitive root cause identified.\n\n")
	}

	b.WriteString("## Summary\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Events analyzed | %d |\n", result.Stats.TotalEvents)
	fmt.Fprintf(&b, "| Errors | %d |\n", result.Stats.ErrorCount)
	fmt.Fprintf(&b, "| Warnings | %d |\n", result.Stats.WarningCount)
	fmt.Fprintf(&b, "| Error rate | %.1f%% |\n", result.Stats.ErrorRate)
	fmt.Fprintf(&b, "| Incidents | %d |\n", len(result.Incidents))
	fmt.Fprintf(&b, "| Anomalous windows | %d |\n", len(result.Anomalies))
	fmt.Fprintf(&b, "| Correlations | %d |\n", len(result.Correlations))
	fmt.Fprintf(&b, "| Sources | %d |\n", len(result.Stats.BySource))
	if delays := effectDelays(result); len(delays) > 0 {
		fmt.Fprintf(&b, "| Cascade delay p50/p95 | %.0fs / %.0fs |\n",
			utils.Percentile(delays, 50), utils.Percentile(delays, 95))
	}
	fmt.Fprintf(&b, "| Rows skipped | %d |\n\n", result.SkippedRows)

	b.WriteString("## Incidents\n\n")
	if len(result.Incidents) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		for _, in := range SortIncidents(result.Incidents) {
			fmt.Fprintf(&b, "- **%s** (%s) at %s, %d effect(s) across %d source(s)\n",
				in.Pattern.Name, in.Severity,
				in.RootEvent.Timestamp.UTC().Format(time.RFC3339),
				len(in.Effects), len(in.EffectSources()))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Top Error Patterns\n\n")
	if len(result.Stats.ErrorPatterns) == 0 {
		b.WriteString("None detected.\n\n")
	} else {
		patterns := result.Stats.ErrorPatterns
		if len(patterns) > 10 {
			patterns = patterns[:10]
		}
		for _, p := range patterns {
			fmt.Fprintf(&b, "- `%s`\n", p)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	recs := Recommendations(result)
	if len(recs) == 0 {
		b.WriteString("None.\n")
	} else {
		for i, rec := range recs {
			fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
		}
	}

	return b.String()
}

func effectDelays(result *engine.Result) []float64 {
	delays := make([]float64, 0)
	for _, in := range result.Incidents {
		for _, eff := range in.Effects {
			delays = append(delays, eff.DelaySeconds)
		}
	}
	return delays
}

func topSources(bySource map[string]int, limit int) []string {
	type entry struct {
		source string
		count  int
	}
	entries := make([]entry, 0, len(bySource))
	for src, count := range bySource {
		entries = append(entries, entry{src, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].source < entries[j].source
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, fmt.Sprintf("%s (%d)", e.source, e.count))
	}
	return out
}
