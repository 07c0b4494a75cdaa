package report

import (
	"fmt"
	"strings"

	"github.com/incidentstack/incident-rca/internal/models"
)

// RenderComparison writes the baseline-vs-incident table. A nil diff means no
// baseline period was supplied.
func RenderComparison(baseline *models.TimelineStats, incident models.TimelineStats, diff *models.BaselineDiff) string {
	var b strings.Builder
	b.WriteString("BASELINE COMPARISON\n\n")

	if baseline == nil || diff == nil {
		b.WriteString("no baseline period supplied\n")
		return b.String()
	}

	fmt.Fprintf(&b, "%-16s %12s %12s %12s\n", "metric", "baseline", "incident", "delta")
	fmt.Fprintf(&b, "%-16s %12d %12d %+12d (%+.1f%%)\n",
		"events", baseline.TotalEvents, incident.TotalEvents, diff.EventDelta, diff.EventDeltaPct)
	fmt.Fprintf(&b, "%-16s %12d %12d %+12d\n",
		"errors", baseline.ErrorCount, incident.ErrorCount, diff.ErrorDelta)
	fmt.Fprintf(&b, "%-16s %11.1f%% %11.1f%% %+11.1fpp\n",
		"error rate", baseline.ErrorRate, incident.ErrorRate, diff.ErrorRateDelta)
	b.WriteString("\n")

	if len(diff.NewErrorPatterns) == 0 {
		b.WriteString("new error patterns: none detected\n")
	} else {
		b.WriteString("new error patterns:\n")
		for _, p := range diff.NewErrorPatterns {
			fmt.Fprintf(&b, "  + %s\n", p)
		}
	}
	b.WriteString("\n")

	if len(diff.PerSourceChanges) == 0 {
		b.WriteString("per-source changes: none above threshold\n")
		return b.String()
	}

	b.WriteString("per-source changes:\n")
	fmt.Fprintf(&b, "  %-24s %10s %10s %10s\n", "source", "baseline", "incident", "change")
	for _, c := range diff.PerSourceChanges {
		fmt.Fprintf(&b, "  %-24s %10d %10d %+9.1f%%\n",
			c.Source, c.BaselineCount, c.IncidentCount, c.DeltaPct)
	}

	return b.String()
}
