package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/incidentstack/incident-rca/internal/cache"
	"github.com/incidentstack/incident-rca/internal/config"
	"github.com/incidentstack/incident-rca/internal/engine"
	"github.com/incidentstack/incident-rca/internal/metrics"
	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/patterns"
	"github.com/incidentstack/incident-rca/internal/report"
	"github.com/incidentstack/incident-rca/internal/utils"
)

// Populated via -ldflags at release time.
var (
	version = "dev"
	commit  = "none"
)

type analyzeFlags struct {
	configPath    string
	inputDir      string
	outputDir     string
	baselineDir   string
	since         string
	until         string
	baselineSince string
	baselineUntil string
	patternsPath  string
}

func main() {
	root := &cobra.Command{
		Use:           "rca-engine",
		Short:         "Offline root-cause analysis over collected log files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newAnalyzeCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rca-engine:", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rca-engine %s (%s)\n", version, commit)
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a directory of collected event files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.configPath, "config", "", "path to YAML config (or RCA_CONFIG)")
	cmd.Flags().StringVar(&flags.inputDir, "input", "", "directory of event files to analyze")
	cmd.Flags().StringVar(&flags.outputDir, "output", "", "report output directory (default <input>/<report subdir>)")
	cmd.Flags().StringVar(&flags.baselineDir, "baseline", "", "optional directory of healthy-period event files")
	cmd.Flags().StringVar(&flags.since, "since", "", "analysis window start, RFC3339 (default 24h before --until)")
	cmd.Flags().StringVar(&flags.until, "until", "", "analysis window end, RFC3339 (default now)")
	cmd.Flags().StringVar(&flags.baselineSince, "baseline-since", "", "baseline window start, RFC3339 (default unbounded)")
	cmd.Flags().StringVar(&flags.baselineUntil, "baseline-until", "", "baseline window end, RFC3339 (default now)")
	cmd.Flags().StringVar(&flags.patternsPath, "patterns", "", "failure pattern pack path (default built-in pack)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func runAnalyze(cmd *cobra.Command, flags analyzeFlags) error {
	started := time.Now()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	logger := utils.NewLogger(cfg.Logging.Level, cfg.Logging.JSON)

	window, err := resolveWindow(flags.since, flags.until, 24*time.Hour)
	if err != nil {
		return fmt.Errorf("analysis window: %w", err)
	}
	baselineWindow, err := resolveBaselineWindow(flags.baselineSince, flags.baselineUntil)
	if err != nil {
		return fmt.Errorf("baseline window: %w", err)
	}

	patternsPath := flags.patternsPath
	if patternsPath == "" {
		patternsPath = cfg.Patterns.Path
	}
	pack, err := patterns.Load(patternsPath, cfg.Analysis.DefaultLookAhead, logger)
	if err != nil {
		return err
	}

	provider := newCacheProvider(cfg, logger)
	defer provider.Close()

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	analyzer := engine.NewAnalyzer(logger, cfg.Analysis, pack, provider, cfg.Cache.BaselineTTL)
	result, err := analyzer.Analyze(cmd.Context(), engine.Request{
		InputDir:       flags.inputDir,
		BaselineDir:    flags.baselineDir,
		ReservedSubdir: cfg.Report.Subdir,
		Window:         window,
		BaselineWindow: baselineWindow,
	})
	if err != nil {
		metrics.ObserveRun(time.Since(started), metrics.OutcomeError, 0, 0)
		return err
	}
	if len(result.Timeline.Events) == 0 && result.FilesRead == 0 {
		metrics.ObserveRun(time.Since(started), metrics.OutcomeError, 0, result.SkippedRows)
		return errors.New("no readable event files under " + flags.inputDir)
	}

	outputDir := flags.outputDir
	if outputDir == "" {
		outputDir = filepath.Join(flags.inputDir, cfg.Report.Subdir)
	}

	manager := report.NewManager(logger, cfg.Report, pack)
	if _, err := manager.WriteAll(result, outputDir); err != nil {
		metrics.ObserveRun(time.Since(started), metrics.OutcomeError, result.Stats.TotalEvents, result.SkippedRows)
		return err
	}

	metrics.ObserveRun(time.Since(started), metrics.OutcomeSuccess, result.Stats.TotalEvents, result.SkippedRows)
	if cfg.Report.Metrics {
		path := filepath.Join(outputDir, "metrics.prom")
		if err := metrics.WriteTextfile(prometheus.DefaultGatherer, path); err != nil {
			logger.Warn("metrics textfile not written", slog.String("path", path), slog.Any("error", err))
		}
	}

	manager.Summary(cmd.OutOrStdout(), result)
	return nil
}

// resolveWindow parses the window bounds, defaulting to the span ending now.
func resolveWindow(since, until string, span time.Duration) (models.TimeRange, error) {
	end := time.Now().UTC()
	if until != "" {
		t, err := utils.ParseRFC3339(until)
		if err != nil {
			return models.TimeRange{}, err
		}
		end = t
	}

	start := end.Add(-span)
	if since != "" {
		t, err := utils.ParseRFC3339(since)
		if err != nil {
			return models.TimeRange{}, err
		}
		start = t
	}

	if !start.Before(end) {
		return models.TimeRange{}, fmt.Errorf("start %s is not before end %s", start, end)
	}
	return models.TimeRange{Start: start, End: end}, nil
}

// resolveBaselineWindow defaults to an open-ended range so a healthy-period
// directory is ingested whole unless bounds are given.
func resolveBaselineWindow(since, until string) (models.TimeRange, error) {
	window := models.TimeRange{End: time.Now().UTC()}
	if since != "" {
		t, err := utils.ParseRFC3339(since)
		if err != nil {
			return models.TimeRange{}, err
		}
		window.Start = t
	}
	if until != "" {
		t, err := utils.ParseRFC3339(until)
		if err != nil {
			return models.TimeRange{}, err
		}
		window.End = t
	}
	return window, nil
}

func newCacheProvider(cfg *config.Config, logger *slog.Logger) cache.Provider {
	if !cfg.Cache.Enabled {
		return cache.NoopProvider{}
	}
	provider, err := cache.NewRedisProvider(cache.RedisConfig{
		Addr:         cfg.Cache.Addr,
		Username:     cfg.Cache.Username,
		Password:     cfg.Cache.Password,
		DB:           cfg.Cache.DB,
		DialTimeout:  cfg.Cache.DialTimeout,
		ReadTimeout:  cfg.Cache.ReadTimeout,
		WriteTimeout: cfg.Cache.WriteTimeout,
	})
	if err != nil {
		logger.Warn("baseline cache unavailable, continuing without it", slog.Any("error", err))
		return cache.NoopProvider{}
	}
	return provider
}
