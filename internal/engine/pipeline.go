package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/incidentstack/incident-rca/internal/cache"
	"github.com/incidentstack/incident-rca/internal/config"
	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/timeline"
)

// Request describes one analysis run.
type Request struct {
	// InputDir is the directory tree of event sources for the incident
	// period.
	InputDir string

	// BaselineDir optionally points at a healthy-period directory tree. When
	// empty, baseline comparison is skipped.
	BaselineDir string

	// ReservedSubdir names the report output directory to skip during
	// ingestion.
	ReservedSubdir string

	Window         models.TimeRange
	BaselineWindow models.TimeRange
}

// Result carries everything one run produced. All state lives here; the
// analyzer itself holds only configuration and can serve concurrent runs.
type Result struct {
	RunID        string
	Timeline     timeline.Timeline
	Incidents    []models.Incident
	Anomalies    []models.AnomalyBucket
	Correlations []models.Correlation
	RootCause    *models.RootCause
	Stats        models.TimelineStats

	BaselineStats *models.TimelineStats
	Diff          *models.BaselineDiff

	FilesRead    int
	FilesSkipped int
	SkippedRows  int
	OutOfWindow  int
	Duration     time.Duration
}

// Analyzer runs the full detection pipeline over a directory of event
// sources.
type Analyzer struct {
	logger      *slog.Logger
	cfg         config.AnalysisConfig
	patterns    []*models.FailurePattern
	cache       cache.Provider
	baselineTTL time.Duration
}

// NewAnalyzer wires an analyzer from its collaborators. A nil cache disables
// baseline-stats caching; a nil logger falls back to slog.Default().
func NewAnalyzer(logger *slog.Logger, cfg config.AnalysisConfig, patterns []*models.FailurePattern, cacheProvider cache.Provider, baselineTTL time.Duration) *Analyzer {
	if logger == nil {
		logger = slog.Default()
	}
	if cacheProvider == nil {
		cacheProvider = cache.NoopProvider{}
	}
	return &Analyzer{
		logger:      logger,
		cfg:         cfg,
		patterns:    patterns,
		cache:       cacheProvider,
		baselineTTL: baselineTTL,
	}
}

// Analyze executes the pipeline: load, build timeline, run every detector,
// then optionally diff against a baseline period. Unreadable files and
// unparsable rows degrade the result, they never fail the run; only an
// unwalkable input directory is an error.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()
	result := &Result{RunID: uuid.NewString()}
	logger := a.logger.With(slog.String("run_id", result.RunID))

	loaded, err := timeline.LoadDirectory(req.InputDir, req.ReservedSubdir, logger)
	if err != nil {
		return nil, fmt.Errorf("load input: %w", err)
	}
	result.FilesRead = loaded.FilesRead
	result.FilesSkipped = loaded.FilesSkipped

	built := timeline.Build(loaded.Rows, req.Window)
	result.Timeline = built.Timeline
	result.SkippedRows = built.SkippedRows
	result.OutOfWindow = built.OutOfWindow

	logger.Info("timeline built",
		slog.Int("events", len(built.Timeline.Events)),
		slog.Int("files_read", loaded.FilesRead),
		slog.Int("files_skipped", loaded.FilesSkipped),
		slog.Int("rows_skipped", built.SkippedRows),
		slog.Int("rows_out_of_window", built.OutOfWindow),
	)

	result.Incidents = DetectIncidents(built.Timeline, a.patterns)
	result.Anomalies = DetectAnomalies(built.Timeline, a.anomalyConfig())
	result.Correlations = Correlate(built.Timeline, a.cfg.CorrelationWindow)
	result.RootCause = ResolveRootCause(result.Incidents, result.Anomalies)
	result.Stats = ComputeStats(built.Timeline.Events, a.cfg.ErrorPatternPrefix)

	logger.Info("detectors finished",
		slog.Int("incidents", len(result.Incidents)),
		slog.Int("anomalies", len(result.Anomalies)),
		slog.Int("correlations", len(result.Correlations)),
		slog.Bool("root_cause", result.RootCause != nil),
	)

	if req.BaselineDir != "" {
		baseStats, err := a.baselineStats(ctx, logger, req)
		if err != nil {
			// Baseline comparison is supplementary; a broken baseline tree
			// must not sink the incident analysis.
			logger.Warn("baseline analysis failed, continuing without comparison", slog.Any("error", err))
		} else {
			diff := Compare(*baseStats, result.Stats, a.cfg.SourceChangePct)
			result.BaselineStats = baseStats
			result.Diff = &diff
		}
	}

	result.Duration = time.Since(started)
	return result, nil
}

func (a *Analyzer) anomalyConfig() AnomalyConfig {
	cfg := DefaultAnomalyConfig()
	if a.cfg.AnomalyWindow > 0 {
		cfg.Window = a.cfg.AnomalyWindow
	}
	if a.cfg.SpikeMultiplier > 0 {
		cfg.SpikeMultiplier = a.cfg.SpikeMultiplier
	}
	if a.cfg.SpikeMinCount > 0 {
		cfg.SpikeMinCount = a.cfg.SpikeMinCount
	}
	if a.cfg.ErrorClusterMin > 0 {
		cfg.ErrorClusterMin = a.cfg.ErrorClusterMin
	}
	if a.cfg.CascadeMinSources > 0 {
		cfg.CascadeMinSources = a.cfg.CascadeMinSources
	}
	if a.cfg.MaxAnomalySamples > 0 {
		cfg.MaxSamples = a.cfg.MaxAnomalySamples
	}
	return cfg
}

// baselineStats loads the healthy-period statistics, consulting the cache
// first. Cache failures are logged and ignored; the analysis recomputes.
func (a *Analyzer) baselineStats(ctx context.Context, logger *slog.Logger, req Request) (*models.TimelineStats, error) {
	key := baselineCacheKey(req.BaselineDir, req.BaselineWindow)

	if data, err := a.cache.Get(ctx, key); err == nil {
		var stats models.TimelineStats
		if err := json.Unmarshal(data, &stats); err == nil {
			logger.Debug("baseline stats served from cache", slog.String("key", key))
			return &stats, nil
		}
		logger.Warn("discarding corrupt cached baseline stats", slog.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn("baseline cache lookup failed", slog.Any("error", err))
	}

	loaded, err := timeline.LoadDirectory(req.BaselineDir, req.ReservedSubdir, logger)
	if err != nil {
		return nil, fmt.Errorf("load baseline: %w", err)
	}
	built := timeline.Build(loaded.Rows, req.BaselineWindow)
	stats := ComputeStats(built.Timeline.Events, a.cfg.ErrorPatternPrefix)

	if data, err := json.Marshal(stats); err == nil {
		if err := a.cache.Set(ctx, key, data, a.baselineTTL); err != nil {
			logger.Warn("baseline cache store failed", slog.Any("error", err))
		}
	}
	return &stats, nil
}

func baselineCacheKey(dir string, window models.TimeRange) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%d|%d", dir, window.Start.UnixNano(), window.End.UnixNano())))
	return "rca:baseline:" + hex.EncodeToString(sum[:16])
}
