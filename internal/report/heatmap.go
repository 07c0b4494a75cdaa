package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/timeline"
)

const heatmapMaxBar = 50

// RenderHeatmap draws an ASCII bar chart of events per minute. Bars are
// scaled so the busiest minute fills the full width.
func RenderHeatmap(tl timeline.Timeline) string {
	var b strings.Builder
	b.WriteString("EVENT DENSITY (events per minute)\n\n")

	if len(tl.Events) == 0 {
		b.WriteString("no events in window\n")
		return b.String()
	}

	perMinute := make(map[int64]int)
	for _, ev := range tl.Events {
		perMinute[ev.Timestamp.Unix()/60*60]++
	}

	keys := make([]int64, 0, len(perMinute))
	max := 0
	for key, count := range perMinute {
		keys = append(keys, key)
		if count > max {
			max = count
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, key := range keys {
		count := perMinute[key]
		width := count * heatmapMaxBar / max
		if width == 0 {
			width = 1
		}
		fmt.Fprintf(&b, "%s  %-*s %d\n",
			time.Unix(key, 0).UTC().Format("15:04"),
			heatmapMaxBar, strings.Repeat("#", width), count)
	}

	return b.String()
}
