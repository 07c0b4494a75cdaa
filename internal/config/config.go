package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to run an analysis.
type Config struct {
	Analysis AnalysisConfig `yaml:"analysis"`
	Patterns PatternsConfig `yaml:"patterns"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
	Cache    CacheConfig    `yaml:"cache"`
}

// AnalysisConfig controls detector windows and thresholds.
type AnalysisConfig struct {
	AnomalyWindow       time.Duration `yaml:"anomalyWindow"`
	CorrelationWindow   time.Duration `yaml:"correlationWindow"`
	SpikeMultiplier     float64       `yaml:"spikeMultiplier"`
	SpikeMinCount       int           `yaml:"spikeMinCount"`
	ErrorClusterMin     int           `yaml:"errorClusterMin"`
	CascadeMinSources   int           `yaml:"cascadeMinSources"`
	MaxAnomalySamples   int           `yaml:"maxAnomalySamples"`
	SourceChangePct     float64       `yaml:"sourceChangePct"`
	ErrorPatternPrefix  int           `yaml:"errorPatternPrefix"`
	DefaultLookAhead    time.Duration `yaml:"defaultLookAhead"`
}

// PatternsConfig controls failure-pattern pack loading.
type PatternsConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig controls rendered artifacts.
type ReportConfig struct {
	// Subdir is the reserved output directory name under the input tree.
	// Files below it are never ingested as event sources.
	Subdir   string `yaml:"subdir"`
	Markdown bool   `yaml:"markdown"`
	Metrics  bool   `yaml:"metrics"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls the optional Redis-backed baseline-stats cache.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	BaselineTTL  time.Duration `yaml:"baselineTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("RCA_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Analysis: AnalysisConfig{
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
		},
		Report:  ReportConfig{Subdir: "reports", Markdown: true, Metrics: true},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			BaselineTTL:  30 * time.Minute,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RCA_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RCA_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("RCA_PATTERNS_PATH"); v != "" {
		cfg.Patterns.Path = v
	}
	if v := os.Getenv("RCA_REPORT_SUBDIR"); v != "" {
		cfg.Report.Subdir = v
	}
	if v := os.Getenv("RCA_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("RCA_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("RCA_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("RCA_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("RCA_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("RCA_CACHE_BASELINE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.BaselineTTL = d
		}
	}
	if v := os.Getenv("RCA_ANOMALY_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.AnomalyWindow = d
		}
	}
	if v := os.Getenv("RCA_CORRELATION_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Analysis.CorrelationWindow = d
		}
	}
}
