package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
)

const patternSampleLimit = 3

// RenderPatternSummary writes per-pattern occurrence statistics over the
// loaded pack. Patterns are reported in pack order so the output is
// deterministic; patterns that never fired are listed explicitly.
func RenderPatternSummary(incidents []models.Incident, patterns []*models.FailurePattern) string {
	byName := make(map[string][]models.Incident)
	for _, in := range incidents {
		byName[in.Pattern.Name] = append(byName[in.Pattern.Name], in)
	}

	var b strings.Builder
	b.WriteString("FAILURE PATTERN SUMMARY\n\n")

	if len(patterns) == 0 {
		b.WriteString("no patterns configured\n")
		return b.String()
	}
	if len(incidents) == 0 {
		b.WriteString("no known failure pattern matched any event\n\n")
	}

	for _, p := range patterns {
		hits := byName[p.Name]
		fmt.Fprintf(&b, "%s (%s)\n", p.Name, p.Severity)
		if p.Description != "" {
			fmt.Fprintf(&b, "  %s\n", p.Description)
		}
		if len(hits) == 0 {
			b.WriteString("  occurrences: 0 (not observed)\n\n")
			continue
		}

		first, last := hits[0].RootEvent.Timestamp, hits[0].RootEvent.Timestamp
		for _, in := range hits[1:] {
			ts := in.RootEvent.Timestamp
			if ts.Before(first) {
				first = ts
			}
			if ts.After(last) {
				last = ts
			}
		}

		fmt.Fprintf(&b, "  occurrences: %d\n", len(hits))
		fmt.Fprintf(&b, "  first seen:  %s\n", first.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "  last seen:   %s\n", last.UTC().Format(time.RFC3339))
		for i, in := range hits {
			if i >= patternSampleLimit {
				break
			}
			fmt.Fprintf(&b, "  sample:      %s  %s\n", in.RootEvent.Source, in.RootEvent.Message)
		}
		if p.Resolution != "" {
			b.WriteString("  check:\n")
			for _, line := range strings.Split(p.Resolution, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}
