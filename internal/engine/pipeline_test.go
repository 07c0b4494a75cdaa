package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/incidentstack/incident-rca/internal/cache"
	"github.com/incidentstack/incident-rca/internal/config"
	"github.com/incidentstack/incident-rca/internal/models"
)

type fakeCache struct {
	store map[string][]byte
	hits  int
	sets  int
}

func newFakeCache() *fakeCache { return &fakeCache{store: make(map[string][]byte)} }

func (f *fakeCache) Get(_ context.Context, key string) ([]byte, error) {
	if data, ok := f.store[key]; ok {
		f.hits++
		return data, nil
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakeCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.sets++
	f.store[key] = value
	return nil
}

func (f *fakeCache) Del(_ context.Context, key string) error {
	delete(f.store, key)
	return nil
}

func (f *fakeCache) Close() error { return nil }

// wrappedMissCache returns its misses wrapped, the way a provider that
// decorates errors would.
type wrappedMissCache struct {
	fakeCache
}

func (w *wrappedMissCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := w.fakeCache.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", key, err)
	}
	return data, nil
}

func writeEventFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func analysisDefaults() config.AnalysisConfig {
	return config.AnalysisConfig{
		AnomalyWindow:      time.Minute,
		CorrelationWindow:  30 * time.Second,
		SpikeMultiplier:    3,
		SpikeMinCount:      10,
		ErrorClusterMin:    5,
		CascadeMinSources:  3,
		MaxAnomalySamples:  10,
		SourceChangePct:    10,
		ErrorPatternPrefix: 100,
		DefaultLookAhead:   5 * time.Minute,
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeEventFile(t, dir, "db.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:00Z\tERROR\tconnection pool exhausted\n"+
			"2025-03-14T10:00:20Z\tERROR\tquery failed: pool timeout\n"+
			"not-a-timestamp\tERROR\tgarbage row\n")
	writeEventFile(t, dir, "api.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:25Z\tERROR\tupstream request timeout\n")

	pattern := compiledPattern(t, models.FailurePattern{
		Name:             "pool exhaustion",
		Trigger:          `pool exhausted`,
		LookAheadSeconds: 300,
		Severity:         models.PatternCritical,
		Effects: []models.ExpectedEffect{
			{Pattern: `timeout`, Delay: models.DelayRange{Min: 0, Max: 60}},
		},
		Resolution: "1. Increase pool size",
	})

	analyzer := NewAnalyzer(nil, analysisDefaults(), []*models.FailurePattern{pattern}, nil, 0)
	result, err := analyzer.Analyze(context.Background(), Request{
		InputDir: dir,
		Window:   models.TimeRange{Start: testStart, End: testStart.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}

	if result.RunID == "" {
		t.Fatal("expected a run id")
	}
	if len(result.Timeline.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(result.Timeline.Events))
	}
	if result.SkippedRows != 1 {
		t.Fatalf("expected 1 skipped row, got %d", result.SkippedRows)
	}
	if result.FilesRead != 2 {
		t.Fatalf("expected 2 files read, got %d", result.FilesRead)
	}
	if len(result.Incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(result.Incidents))
	}
	if got := len(result.Incidents[0].Effects); got != 2 {
		t.Fatalf("expected 2 cascade effects, got %d", got)
	}
	if result.RootCause == nil || result.RootCause.Pattern != "pool exhaustion" {
		t.Fatalf("expected a pool exhaustion root cause, got %+v", result.RootCause)
	}
	if result.Diff != nil {
		t.Fatal("no baseline dir supplied, diff must be nil")
	}
}

func TestAnalyzeBaselineUsesCache(t *testing.T) {
	input := t.TempDir()
	writeEventFile(t, input, "app.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:00Z\tERROR\tdisk full on /data\n")

	baseline := t.TempDir()
	writeEventFile(t, baseline, "app.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-13T10:00:00Z\tINFO\tnightly checkpoint ok\n")

	fc := newFakeCache()
	analyzer := NewAnalyzer(nil, analysisDefaults(), nil, fc, time.Minute)
	req := Request{
		InputDir:       input,
		BaselineDir:    baseline,
		Window:         models.TimeRange{Start: testStart, End: testStart.Add(time.Hour)},
		BaselineWindow: models.TimeRange{Start: testStart.Add(-48 * time.Hour), End: testStart},
	}

	first, err := analyzer.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if first.Diff == nil || first.BaselineStats == nil {
		t.Fatal("expected a baseline comparison")
	}
	if fc.sets != 1 || fc.hits != 0 {
		t.Fatalf("first run should populate the cache, sets=%d hits=%d", fc.sets, fc.hits)
	}

	second, err := analyzer.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("second analyze: %v", err)
	}
	if fc.hits != 1 {
		t.Fatalf("second run should hit the cache, hits=%d", fc.hits)
	}
	if second.BaselineStats.TotalEvents != first.BaselineStats.TotalEvents {
		t.Fatal("cached baseline stats must match the recomputed ones")
	}
}

func TestAnalyzeBaselineWrappedMissStillComputes(t *testing.T) {
	input := t.TempDir()
	writeEventFile(t, input, "app.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:00Z\tERROR\tdisk full on /data\n")

	baseline := t.TempDir()
	writeEventFile(t, baseline, "app.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-13T10:00:00Z\tINFO\tnightly checkpoint ok\n")

	wc := &wrappedMissCache{fakeCache: fakeCache{store: make(map[string][]byte)}}
	analyzer := NewAnalyzer(nil, analysisDefaults(), nil, wc, time.Minute)
	result, err := analyzer.Analyze(context.Background(), Request{
		InputDir:       input,
		BaselineDir:    baseline,
		Window:         models.TimeRange{Start: testStart, End: testStart.Add(time.Hour)},
		BaselineWindow: models.TimeRange{Start: testStart.Add(-48 * time.Hour), End: testStart},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if result.Diff == nil || result.BaselineStats == nil {
		t.Fatal("a wrapped cache miss must fall through to recomputation")
	}
	if wc.sets != 1 {
		t.Fatalf("recomputed baseline should be stored, sets=%d", wc.sets)
	}
}

func TestAnalyzeSkipsReservedSubdir(t *testing.T) {
	dir := t.TempDir()
	writeEventFile(t, dir, "app.log",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:00Z\tINFO\tstartup complete\n")

	reports := filepath.Join(dir, "reports")
	if err := os.MkdirAll(reports, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	writeEventFile(t, reports, "timeline.txt",
		"timestamp\tseverity\tmessage\n"+
			"2025-03-14T10:00:01Z\tERROR\tmust never be ingested\n")

	analyzer := NewAnalyzer(nil, analysisDefaults(), nil, nil, 0)
	result, err := analyzer.Analyze(context.Background(), Request{
		InputDir:       dir,
		ReservedSubdir: "reports",
		Window:         models.TimeRange{Start: testStart, End: testStart.Add(time.Hour)},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(result.Timeline.Events) != 1 {
		t.Fatalf("report output must be excluded from ingestion, got %d events", len(result.Timeline.Events))
	}
}
