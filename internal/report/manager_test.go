package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/incidentstack/incident-rca/internal/config"
	"github.com/incidentstack/incident-rca/internal/engine"
	"github.com/incidentstack/incident-rca/internal/models"
)

func sampleResult() *engine.Result {
	pattern := &models.FailurePattern{
		Name:       "pool exhaustion",
		Trigger:    "pool exhausted",
		Severity:   models.PatternCritical,
		Resolution: "1. Increase pool size",
	}
	root := reportEvent(0, "db", models.SeverityError, "connection pool exhausted")

	return &engine.Result{
		RunID:    "test-run",
		Timeline: reportTimeline(root),
		Incidents: []models.Incident{{
			Pattern:   pattern,
			RootEvent: root,
			Severity:  models.PatternCritical,
			Effects: []models.EffectMatch{
				{Event: reportEvent(10*time.Second, "api", models.SeverityError, "timeout"), DelaySeconds: 10},
				{Event: reportEvent(12*time.Second, "cache", models.SeverityError, "timeout"), DelaySeconds: 12},
				{Event: reportEvent(14*time.Second, "queue", models.SeverityError, "timeout"), DelaySeconds: 14},
			},
		}},
		RootCause: &models.RootCause{
			Pattern: "pool exhaustion", Confidence: 0.6,
			Timestamp: root.Timestamp, Resolution: "1. Increase pool size",
		},
		Stats: models.TimelineStats{
			TotalEvents: 4, ErrorCount: 4, ErrorRate: 100,
			BySource:      map[string]int{"db": 1, "api": 1, "cache": 1, "queue": 1},
			ErrorPatterns: []string{"connection pool exhausted"},
		},
		FilesRead: 1,
		Duration:  120 * time.Millisecond,
	}
}

func TestWriteAllProducesEveryArtifact(t *testing.T) {
	dir := t.TempDir()
	manager := NewManager(nil, config.ReportConfig{Subdir: "reports", Markdown: true}, nil)

	written, err := manager.WriteAll(sampleResult(), dir)
	if err != nil {
		t.Fatalf("write all: %v", err)
	}

	want := []string{FileTimeline, FileIncidents, FilePatterns, FileHeatmap, FileComparison, FileMarkdown}
	if len(written) != len(want) {
		t.Fatalf("expected %d artifacts, got %d: %v", len(want), len(written), written)
	}
	for _, name := range want {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("artifact %s missing: %v", name, err)
		}
	}
}

func TestWriteAllEmptyRunStillWritesEverything(t *testing.T) {
	dir := t.TempDir()
	manager := NewManager(nil, config.ReportConfig{Markdown: true}, nil)

	empty := &engine.Result{RunID: "empty", Timeline: reportTimeline()}
	if _, err := manager.WriteAll(empty, dir); err != nil {
		t.Fatalf("write all: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileIncidents))
	if err != nil {
		t.Fatalf("read incidents: %v", err)
	}
	if !strings.Contains(string(data), "no incidents detected") {
		t.Fatalf("empty incident report needs explicit text:\n%s", data)
	}
}

func TestRecommendations(t *testing.T) {
	result := sampleResult()
	recs := Recommendations(result)

	var cascading, errorRate bool
	for _, rec := range recs {
		if strings.Contains(rec, "Cascading failure") {
			cascading = true
		}
		if strings.Contains(rec, "Error rate") {
			errorRate = true
		}
	}
	if !cascading {
		t.Fatalf("4 affected sources should trigger the cascading note, got %v", recs)
	}
	if !errorRate {
		t.Fatalf("100%% error rate should trigger the high-rate note, got %v", recs)
	}
}

func TestRecommendationsQuietRun(t *testing.T) {
	quiet := &engine.Result{Timeline: reportTimeline()}
	if recs := Recommendations(quiet); len(recs) != 0 {
		t.Fatalf("a quiet run should have no recommendations, got %v", recs)
	}
}

func TestRenderMarkdownSections(t *testing.T) {
	rendered := RenderMarkdown(sampleResult())
	for _, section := range []string{"# Incident Analysis Report", "## Root Cause", "## Summary", "## Incidents", "## Recommendations"} {
		if !strings.Contains(rendered, section) {
			t.Fatalf("markdown missing section %q:\n%s", section, rendered)
		}
	}
	if !strings.Contains(rendered, "pool exhaustion") {
		t.Fatalf("markdown should name the root cause:\n%s", rendered)
	}
}
