package models

import (
	"strings"
	"time"
)

// MaxMessageLen caps stored event messages so derived reports stay bounded.
const MaxMessageLen = 2048

// Event is one normalized log record inside the analysis window. Events are
// immutable once built; every derived structure references them without
// mutation.
type Event struct {
	Timestamp  time.Time
	Source     string
	Severity   Severity
	Message    string
	OriginFile string
}

// TimeRange bounds an analysis or baseline window.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range (start inclusive, end exclusive).
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Duration returns the span of the range.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Severity captures event impact levels.
type Severity string

const (
	SeverityError Severity = "ERROR"
	SeverityWarn  Severity = "WARN"
	SeverityInfo  Severity = "INFO"
	SeverityDebug Severity = "DEBUG"
	SeverityAlert Severity = "ALERT"
)

// ErrorLike reports whether the severity counts toward error statistics.
// ALERT absorbs the CRITICAL/FATAL aliases seen in raw rows.
func (s Severity) ErrorLike() bool {
	return s == SeverityError || s == SeverityAlert
}

// ParseSeverity maps raw severity labels onto the canonical enum. Unknown or
// empty labels default to INFO.
func ParseSeverity(raw string) Severity {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "ERROR", "ERR":
		return SeverityError
	case "WARN", "WARNING":
		return SeverityWarn
	case "DEBUG", "TRACE", "VERBOSE":
		return SeverityDebug
	case "ALERT", "CRITICAL", "FATAL", "EMERGENCY":
		return SeverityAlert
	case "INFO", "INFORMATION", "NOTICE", "":
		return SeverityInfo
	default:
		return SeverityInfo
	}
}
