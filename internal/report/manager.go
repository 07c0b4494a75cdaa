package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/incidentstack/incident-rca/internal/config"
	"github.com/incidentstack/incident-rca/internal/engine"
	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/utils"
)

const timeRounding = time.Millisecond

// Artifact file names written into the output directory.
const (
	FileTimeline   = "timeline.txt"
	FileIncidents  = "incidents.txt"
	FilePatterns   = "patterns.txt"
	FileHeatmap    = "heatmap.txt"
	FileComparison = "comparison.txt"
	FileMarkdown   = "INCIDENT_REPORT.md"
)

// Manager renders and writes all report artifacts for a run.
type Manager struct {
	logger   *slog.Logger
	cfg      config.ReportConfig
	patterns []*models.FailurePattern
}

// NewManager creates a report manager. patterns is the loaded pack, used for
// the per-pattern summary. A nil logger falls back to slog.Default().
func NewManager(logger *slog.Logger, cfg config.ReportConfig, patterns []*models.FailurePattern) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger, cfg: cfg, patterns: patterns}
}

// WriteAll renders every artifact into outputDir and returns the written
// paths. Every artifact is produced even when its section is empty so
// downstream tooling can rely on the file set. The first write failure aborts
// the batch; a partial report set on a broken disk is worse than none.
func (m *Manager) WriteAll(result *engine.Result, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, utils.NewAppError("report.WriteAll", "create output directory", err)
	}

	artifacts := []struct {
		name    string
		content string
	}{
		{FileTimeline, RenderTimeline(result.Timeline, result.Anomalies)},
		{FileIncidents, RenderIncidents(result.Incidents, result.RootCause)},
		{FilePatterns, RenderPatternSummary(result.Incidents, m.patterns)},
		{FileHeatmap, RenderHeatmap(result.Timeline)},
		{FileComparison, RenderComparison(result.BaselineStats, result.Stats, result.Diff)},
	}

	written := make([]string, 0, len(artifacts)+1)
	for _, artifact := range artifacts {
		path := filepath.Join(outputDir, artifact.name)
		if err := os.WriteFile(path, []byte(artifact.content), 0o644); err != nil {
			return written, utils.NewAppError("report.WriteAll", "write "+artifact.name, err)
		}
		written = append(written, path)
	}

	if m.cfg.Markdown {
		path := filepath.Join(outputDir, FileMarkdown)
		if err := os.WriteFile(path, []byte(RenderMarkdown(result)), 0o644); err != nil {
			return written, utils.NewAppError("report.WriteAll", "write "+FileMarkdown, err)
		}
		written = append(written, path)
	}

	m.logger.Info("reports written",
		slog.String("dir", outputDir),
		slog.Int("artifacts", len(written)))
	return written, nil
}

// Summary prints the short human-readable run summary, typically to stdout.
func (m *Manager) Summary(w io.Writer, result *engine.Result) {
	fmt.Fprintf(w, "Analyzed %d events from %d file(s) in %s\n",
		result.Stats.TotalEvents, result.FilesRead, result.Duration.Round(timeRounding))
	fmt.Fprintf(w, "  incidents: %d   anomalies: %d   correlations: %d\n",
		len(result.Incidents), len(result.Anomalies), len(result.Correlations))
	fmt.Fprintf(w, "  errors: %d (%.1f%%)   warnings: %d   rows skipped: %d\n",
		result.Stats.ErrorCount, result.Stats.ErrorRate, result.Stats.WarningCount, result.SkippedRows)

	if top := topSources(result.Stats.BySource, 3); len(top) > 0 {
		fmt.Fprintf(w, "  busiest sources: %s\n", strings.Join(top, ", "))
	}

	if rc := result.RootCause; rc != nil {
		fmt.Fprintf(w, "  root cause: %s (confidence %.0f%%)\n", rc.Pattern, rc.Confidence*100)
	} else {
		fmt.Fprintln(w, "  root cause: no definitive root cause identified")
	}

	for _, rec := range Recommendations(result) {
		fmt.Fprintf(w, "  recommendation: %s\n", rec)
	}
}
