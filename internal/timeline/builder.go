package timeline

import (
	"sort"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"github.com/incidentstack/incident-rca/internal/models"
)

// Row is one raw record handed over by the collector layer, before timestamp
// parsing and window filtering.
type Row struct {
	Timestamp  string
	Source     string
	Severity   string
	Message    string
	OriginFile string
}

// Timeline is the ordered, immutable event sequence every detector consumes.
type Timeline struct {
	Events []models.Event
	Window models.TimeRange
}

// BuildResult carries the timeline plus per-build counters. Counters live
// here instead of on shared state so concurrent builds never interfere.
type BuildResult struct {
	Timeline    Timeline
	SkippedRows int
	OutOfWindow int
}

// timestampLayouts are tried in order before the dateparser fallback.
// Layouts without a zone are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006/01/02 15:04:05",
}

// syslogLayout has no year; the year is taken from the window start.
const syslogLayout = "Jan _2 15:04:05"

var fallbackParser = dps.Parser{}

// ParseTimestamp attempts each known format in order, then falls back to the
// heuristic date parser. ref anchors year-less and relative formats.
func ParseTimestamp(value string, ref time.Time) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	if t, err := time.Parse(syslogLayout, value); err == nil {
		year := ref.Year()
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		return time.Date(year, t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC), true
	}

	cfg := &dps.Configuration{CurrentTime: ref, PreferredDateSource: dps.CurrentPeriod}
	if d, err := fallbackParser.Parse(cfg, value); err == nil && !d.IsZero() {
		return d.Time, true
	}

	return time.Time{}, false
}

// Build normalizes raw rows into a chronologically ordered timeline.
// Rows with unparsable timestamps are skipped and counted, never fatal; rows
// outside the window are excluded. Ordering is ascending by timestamp with
// ties broken by source name, then original insertion order (stable sort).
func Build(rows []Row, window models.TimeRange) BuildResult {
	result := BuildResult{Timeline: Timeline{Window: window}}
	events := make([]models.Event, 0, len(rows))

	for _, row := range rows {
		ts, ok := ParseTimestamp(row.Timestamp, window.Start)
		if !ok {
			result.SkippedRows++
			continue
		}
		if !window.Contains(ts) {
			result.OutOfWindow++
			continue
		}

		message := row.Message
		if len(message) > models.MaxMessageLen {
			message = message[:models.MaxMessageLen]
		}

		events = append(events, models.Event{
			Timestamp:  ts,
			Source:     row.Source,
			Severity:   models.ParseSeverity(row.Severity),
			Message:    message,
			OriginFile: row.OriginFile,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Timestamp.Equal(events[j].Timestamp) {
			return events[i].Timestamp.Before(events[j].Timestamp)
		}
		return events[i].Source < events[j].Source
	})

	result.Timeline.Events = events
	return result
}
