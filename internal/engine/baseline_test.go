package engine

import (
	"strings"
	"testing"

	"github.com/incidentstack/incident-rca/internal/models"
)

func TestNormalizeErrorPattern(t *testing.T) {
	got := NormalizeErrorPattern("timeout after 1500ms on port 8080", 100)
	want := "timeout after #ms on port #"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	long := strings.Repeat("x", 150)
	if got := NormalizeErrorPattern(long, 100); len(got) != 100 {
		t.Fatalf("expected 100-char prefix, got %d chars", len(got))
	}
}

func TestComputeStats(t *testing.T) {
	events := []models.Event{
		event(0, "db", models.SeverityError, "query 42 failed"),
		event(0, "db", models.SeverityAlert, "query 99 failed"),
		event(0, "api", models.SeverityWarn, "slow response"),
		event(0, "api", models.SeverityInfo, "request served"),
	}
	stats := ComputeStats(events, 100)

	if stats.TotalEvents != 4 || stats.ErrorCount != 2 || stats.WarningCount != 1 {
		t.Fatalf("unexpected counts: %+v", stats)
	}
	if stats.ErrorRate != 50 {
		t.Fatalf("expected error rate 50, got %v", stats.ErrorRate)
	}
	// Both errors normalize to the same signature.
	if len(stats.ErrorPatterns) != 1 || stats.ErrorPatterns[0] != "query # failed" {
		t.Fatalf("unexpected error patterns: %v", stats.ErrorPatterns)
	}
	if stats.BySource["db"] != 2 || stats.BySource["api"] != 2 {
		t.Fatalf("unexpected source distribution: %v", stats.BySource)
	}
}

func TestCompareEventDeltaPct(t *testing.T) {
	baseline := models.TimelineStats{TotalEvents: 100}
	incident := models.TimelineStats{TotalEvents: 150}
	diff := Compare(baseline, incident, 10)
	if diff.EventDelta != 50 {
		t.Fatalf("expected delta 50, got %d", diff.EventDelta)
	}
	if diff.EventDeltaPct != 50.0 {
		t.Fatalf("expected 50.0%%, got %v", diff.EventDeltaPct)
	}
}

func TestCompareZeroBaselineSkipsPct(t *testing.T) {
	diff := Compare(models.TimelineStats{}, models.TimelineStats{TotalEvents: 10}, 10)
	if diff.EventDeltaPct != 0 {
		t.Fatalf("zero baseline must not divide, got pct %v", diff.EventDeltaPct)
	}
}

func TestCompareSourceChangeThresholdIsStrict(t *testing.T) {
	baseline := models.TimelineStats{BySource: map[string]int{"db": 100, "api": 100}}
	incident := models.TimelineStats{BySource: map[string]int{"db": 110, "api": 111}}
	diff := Compare(baseline, incident, 10)

	if len(diff.PerSourceChanges) != 1 {
		t.Fatalf("exactly-10%% change must be excluded, got %+v", diff.PerSourceChanges)
	}
	if diff.PerSourceChanges[0].Source != "api" {
		t.Fatalf("expected api above threshold, got %q", diff.PerSourceChanges[0].Source)
	}
}

func TestCompareNewSourceCountsAsFullChange(t *testing.T) {
	baseline := models.TimelineStats{BySource: map[string]int{}}
	incident := models.TimelineStats{BySource: map[string]int{"cache": 7}}
	diff := Compare(baseline, incident, 10)
	if len(diff.PerSourceChanges) != 1 || diff.PerSourceChanges[0].DeltaPct != 100 {
		t.Fatalf("a brand-new source should report 100%%, got %+v", diff.PerSourceChanges)
	}
}

func TestCompareNewErrorPatterns(t *testing.T) {
	baseline := models.TimelineStats{ErrorPatterns: []string{"timeout after #ms"}}
	incident := models.TimelineStats{ErrorPatterns: []string{"timeout after #ms", "deadlock on table orders"}}
	diff := Compare(baseline, incident, 10)
	if len(diff.NewErrorPatterns) != 1 || diff.NewErrorPatterns[0] != "deadlock on table orders" {
		t.Fatalf("unexpected new patterns: %v", diff.NewErrorPatterns)
	}
}
