package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
)

func severityRank(s models.PatternSeverity) int {
	switch s {
	case models.PatternCritical:
		return 0
	case models.PatternHigh:
		return 1
	case models.PatternMedium:
		return 2
	case models.PatternLow:
		return 3
	default:
		return 4
	}
}

// SortIncidents orders incidents critical-first, then by root timestamp.
func SortIncidents(incidents []models.Incident) []models.Incident {
	out := append([]models.Incident(nil), incidents...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := severityRank(out[i].Severity), severityRank(out[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return out[i].RootEvent.Timestamp.Before(out[j].RootEvent.Timestamp)
	})
	return out
}

// RenderIncidents writes the detected cascade incidents with the root-cause
// judgment, when one exists, at the top.
func RenderIncidents(incidents []models.Incident, rootCause *models.RootCause) string {
	var b strings.Builder
	b.WriteString("DETECTED INCIDENTS\n\n")

	if rootCause != nil {
		b.WriteString("ROOT CAUSE\n")
		fmt.Fprintf(&b, "  pattern:    %s\n", rootCause.Pattern)
		fmt.Fprintf(&b, "  time:       %s\n", rootCause.Timestamp.UTC().Format(time.RFC3339))
		fmt.Fprintf(&b, "  confidence: %.0f%%\n", rootCause.Confidence*100)
		for _, ev := range rootCause.Evidence {
			fmt.Fprintf(&b, "  evidence:   %s\n", ev)
		}
		if rootCause.Resolution != "" {
			b.WriteString("  suggested resolution:\n")
			for _, line := range strings.Split(rootCause.Resolution, "\n") {
				fmt.Fprintf(&b, "    %s\n", line)
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("no definitive root cause identified\n\n")
	}

	if len(incidents) == 0 {
		b.WriteString("no incidents detected\n")
		return b.String()
	}

	for i, in := range SortIncidents(incidents) {
		fmt.Fprintf(&b, "[%d] %s (%s)\n", i+1, in.Pattern.Name, in.Severity)
		fmt.Fprintf(&b, "    root:    %s  %s  %s\n",
			in.RootEvent.Timestamp.UTC().Format(timelineTimeLayout),
			in.RootEvent.Source, in.RootEvent.Message)
		fmt.Fprintf(&b, "    sources: %s\n", strings.Join(in.EffectSources(), ", "))
		if len(in.Effects) == 0 {
			b.WriteString("    effects: none observed in look-ahead window\n")
		}
		for _, eff := range in.Effects {
			fmt.Fprintf(&b, "    +%.0fs   %s  %s\n",
				eff.DelaySeconds, eff.Event.Source, eff.Event.Message)
		}
		b.WriteString("\n")
	}

	return b.String()
}
