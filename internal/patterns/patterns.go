package patterns

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/incidentstack/incident-rca/internal/models"
)

// PackFile is the YAML root structure of a failure-pattern pack.
type PackFile struct {
	Patterns []models.FailurePattern `yaml:"patterns"`
}

// Load reads failure patterns from the provided YAML path. An empty or
// missing path falls back to the built-in default pack. Patterns that omit
// a look-ahead inherit defaultLookAhead.
func Load(path string, defaultLookAhead time.Duration, logger *slog.Logger) ([]*models.FailurePattern, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		return Defaults()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn("pattern pack not found, using defaults", slog.String("path", path))
			return Defaults()
		}
		return nil, fmt.Errorf("read pattern pack: %w", err)
	}

	var pack PackFile
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parse pattern pack: %w", err)
	}
	if len(pack.Patterns) == 0 {
		logger.Warn("pattern pack is empty, using defaults", slog.String("path", path))
		return Defaults()
	}

	out := make([]*models.FailurePattern, 0, len(pack.Patterns))
	for i := range pack.Patterns {
		p := pack.Patterns[i]
		if p.LookAheadSeconds <= 0 && defaultLookAhead > 0 {
			p.LookAheadSeconds = defaultLookAhead.Seconds()
		}
		if err := p.Compile(); err != nil {
			return nil, fmt.Errorf("compile pattern pack: %w", err)
		}
		out = append(out, &p)
	}
	logger.Info("pattern pack loaded", slog.String("path", path), slog.Int("patterns", len(out)))
	return out, nil
}

// Defaults returns the built-in failure-pattern pack covering the common
// infrastructure failure chains.
func Defaults() ([]*models.FailurePattern, error) {
	defs := []models.FailurePattern{
		{
			Name:             "Database Connection Pool Exhaustion",
			Trigger:          `connection pool|too many connections|pool exhausted`,
			LookAheadSeconds: 300,
			Effects: []models.ExpectedEffect{
				{Pattern: `timed? ?out|timeout`, Delay: models.DelayRange{Min: 0, Max: 120}},
				{Pattern: `query failed|sql error|database unavailable`, Delay: models.DelayRange{Min: 0, Max: 180}},
			},
			Severity:    models.PatternCritical,
			Description: "Database connection pool is full",
			Resolution:  "1. Increase pool size\n2. Check for connection leaks\n3. Review recent deployments",
		},
		{
			Name:             "Out of Memory",
			Trigger:          `out of memory|oom[ -]?kill|heap space|memory exhausted`,
			LookAheadSeconds: 300,
			Effects: []models.ExpectedEffect{
				{Pattern: `killed process|restarting|restarted`, Delay: models.DelayRange{Min: 0, Max: 60}},
				{Pattern: `unavailable|connection refused`, Delay: models.DelayRange{Min: 0, Max: 120}},
			},
			Severity:    models.PatternCritical,
			Description: "Application or system running out of memory",
			Resolution:  "1. Check memory usage trends\n2. Look for memory leaks\n3. Increase available memory",
		},
		{
			Name:             "Disk Space Exhausted",
			Trigger:          `disk full|no space left|disk quota exceeded`,
			LookAheadSeconds: 600,
			Effects: []models.ExpectedEffect{
				{Pattern: `write failed|cannot write|i/o error`, Delay: models.DelayRange{Min: 0, Max: 120}},
				{Pattern: `service stopped|shutting down`, Delay: models.DelayRange{Min: 0, Max: 300}},
			},
			Severity:    models.PatternCritical,
			Description: "Disk space has been exhausted",
			Resolution:  "1. Clean up old logs\n2. Increase disk capacity\n3. Enable log rotation",
		},
		{
			Name:             "Network Timeout",
			Trigger:          `timed? ?out|connection refused|network unreachable`,
			LookAheadSeconds: 180,
			Effects: []models.ExpectedEffect{
				{Pattern: `retry|retries exhausted|circuit breaker`, Delay: models.DelayRange{Min: 0, Max: 90}},
			},
			Severity:    models.PatternHigh,
			Description: "Network connectivity issues detected",
			Resolution:  "1. Check network connectivity\n2. Review firewall rules\n3. Check DNS resolution",
		},
		{
			Name:             "Authentication Failure",
			Trigger:          `authentication failed|unauthorized|access denied|invalid credentials`,
			LookAheadSeconds: 300,
			Effects: []models.ExpectedEffect{
				{Pattern: `account locked|lockout|too many attempts`, Delay: models.DelayRange{Min: 0, Max: 300}},
			},
			Severity:    models.PatternHigh,
			Description: "Authentication or authorization failures",
			Resolution:  "1. Verify credentials\n2. Check certificate expiry\n3. Review IAM policies",
		},
		{
			Name:             "Deadlock Detected",
			Trigger:          `deadlock|lock timeout|waiting for lock`,
			LookAheadSeconds: 120,
			Effects: []models.ExpectedEffect{
				{Pattern: `transaction aborted|rolled back|rollback`, Delay: models.DelayRange{Min: 0, Max: 60}},
			},
			Severity:    models.PatternHigh,
			Description: "Database deadlock condition",
			Resolution:  "1. Review transaction isolation\n2. Optimize query patterns\n3. Check for long-running transactions",
		},
	}

	out := make([]*models.FailurePattern, 0, len(defs))
	for i := range defs {
		p := defs[i]
		if err := p.Compile(); err != nil {
			return nil, fmt.Errorf("compile default pack: %w", err)
		}
		out = append(out, &p)
	}
	return out, nil
}
