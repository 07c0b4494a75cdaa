package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/timeline"
)

const (
	timelineTimeLayout = "2006-01-02 15:04:05.000"
	anomalyBannerMark  = "!!"
)

// RenderTimeline writes every event as one line, with anomaly-window banner
// lines interleaved ahead of the first event inside the flagged window.
func RenderTimeline(tl timeline.Timeline, anomalies []models.AnomalyBucket) string {
	var b strings.Builder
	b.WriteString("UNIFIED INCIDENT TIMELINE\n")
	fmt.Fprintf(&b, "window: %s .. %s\n\n",
		tl.Window.Start.UTC().Format(time.RFC3339),
		tl.Window.End.UTC().Format(time.RFC3339))

	if len(tl.Events) == 0 {
		b.WriteString("no events in window\n")
		return b.String()
	}

	banners := bannersByWindow(anomalies)
	emitted := make(map[int64]bool)

	for _, ev := range tl.Events {
		for _, key := range bannerKeysUpTo(banners, emitted, ev.Timestamp) {
			for _, banner := range banners[key] {
				b.WriteString(banner)
				b.WriteByte('\n')
			}
			emitted[key] = true
		}
		fmt.Fprintf(&b, "%s  %-5s  %s  %s\n",
			ev.Timestamp.UTC().Format(timelineTimeLayout),
			ev.Severity, ev.Source, ev.Message)
	}

	return b.String()
}

func bannersByWindow(anomalies []models.AnomalyBucket) map[int64][]string {
	out := make(map[int64][]string, len(anomalies))
	for _, a := range anomalies {
		key := a.WindowStart.Unix()
		out[key] = append(out[key], fmt.Sprintf("%s ANOMALY %s window=%s count=%d baseline=%.1f",
			anomalyBannerMark, a.Type, a.WindowStart.UTC().Format(timelineTimeLayout), a.Count, a.Baseline))
	}
	return out
}

func bannerKeysUpTo(banners map[int64][]string, emitted map[int64]bool, ts time.Time) []int64 {
	due := make([]int64, 0)
	for key := range banners {
		if !emitted[key] && key <= ts.Unix() {
			due = append(due, key)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })
	return due
}

// ParseTimelineReport reads a rendered timeline back into ordered events.
// Banner and header lines are ignored. Only the fields the line format
// carries survive the round trip; origin files do not.
func ParseTimelineReport(r io.Reader) ([]models.Event, error) {
	s := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 4*1024*1024)

	events := make([]models.Event, 0)
	for s.Scan() {
		line := s.Text()
		if len(line) < len(timelineTimeLayout) {
			continue
		}
		ts, err := time.Parse(timelineTimeLayout, line[:len(timelineTimeLayout)])
		if err != nil {
			continue
		}

		rest := strings.TrimLeft(line[len(timelineTimeLayout):], " ")
		sev, rest := nextField(rest)
		// The source may contain single spaces (Windows provider names);
		// only the two-space column gap ends it.
		source, message := splitColumn(rest)
		events = append(events, models.Event{
			Timestamp: ts.UTC(),
			Source:    source,
			Severity:  models.ParseSeverity(sev),
			Message:   message,
		})
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read timeline report: %w", err)
	}
	return events, nil
}

// nextField cuts one space-free token, used for the severity column.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " ")
	if idx := strings.IndexByte(s, ' '); idx >= 0 {
		return s[:idx], strings.TrimLeft(s[idx:], " ")
	}
	return s, ""
}

// splitColumn cuts at the first two-space column separator.
func splitColumn(s string) (field, rest string) {
	if idx := strings.Index(s, "  "); idx >= 0 {
		return s[:idx], strings.TrimLeft(s[idx:], " ")
	}
	return s, ""
}
