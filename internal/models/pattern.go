package models

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternSeverity ranks failure patterns for root-cause selection.
type PatternSeverity string

const (
	PatternCritical PatternSeverity = "critical"
	PatternHigh     PatternSeverity = "high"
	PatternMedium   PatternSeverity = "medium"
	PatternLow      PatternSeverity = "low"
)

// DelayRange bounds the acceptable trigger-to-effect delay in seconds,
// inclusive on both ends.
type DelayRange struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// ExpectedEffect describes one downstream consequence a failure pattern is
// expected to cascade into.
type ExpectedEffect struct {
	Pattern string     `yaml:"pattern"`
	Delay   DelayRange `yaml:"delay"`

	re *regexp.Regexp
}

// Matches reports whether the effect pattern matches the message.
func (e *ExpectedEffect) Matches(message string) bool {
	return e.re != nil && e.re.MatchString(message)
}

// FailurePattern is a static, data-driven description of a known
// trigger->effect failure chain. Patterns are configuration, not runtime
// state; they are loaded once and iterated uniformly.
type FailurePattern struct {
	Name             string           `yaml:"name"`
	Trigger          string           `yaml:"trigger"`
	SourceFilter     string           `yaml:"source_filter"`
	LookAheadSeconds float64          `yaml:"look_ahead_seconds"`
	Effects          []ExpectedEffect `yaml:"effects"`
	Severity         PatternSeverity  `yaml:"severity"`
	Description      string           `yaml:"description"`
	Resolution       string           `yaml:"resolution"`

	triggerRe *regexp.Regexp
}

// Compile validates and compiles the trigger and effect expressions. All
// matching is case-insensitive.
func (p *FailurePattern) Compile() error {
	if p.Name == "" {
		return fmt.Errorf("pattern without a name")
	}
	if p.Trigger == "" {
		return fmt.Errorf("pattern %q: empty trigger", p.Name)
	}
	re, err := regexp.Compile("(?i)" + p.Trigger)
	if err != nil {
		return fmt.Errorf("pattern %q: trigger: %w", p.Name, err)
	}
	p.triggerRe = re

	for i := range p.Effects {
		eff := &p.Effects[i]
		if eff.Pattern == "" {
			return fmt.Errorf("pattern %q: effect %d: empty pattern", p.Name, i)
		}
		ere, err := regexp.Compile("(?i)" + eff.Pattern)
		if err != nil {
			return fmt.Errorf("pattern %q: effect %d: %w", p.Name, i, err)
		}
		eff.re = ere
		if eff.Delay.Max < eff.Delay.Min {
			return fmt.Errorf("pattern %q: effect %d: delay max below min", p.Name, i)
		}
	}
	if p.LookAheadSeconds <= 0 {
		p.LookAheadSeconds = 300
	}
	return nil
}

// MatchesTrigger reports whether the event is a candidate root for this
// pattern: the message matches the trigger and, when a source filter is set,
// the event source equals it.
func (p *FailurePattern) MatchesTrigger(ev Event) bool {
	if p.triggerRe == nil || !p.triggerRe.MatchString(ev.Message) {
		return false
	}
	if p.SourceFilter != "" && !strings.EqualFold(p.SourceFilter, ev.Source) {
		return false
	}
	return true
}
