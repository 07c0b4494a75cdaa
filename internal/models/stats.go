package models

// TimelineStats aggregates one timeline for summary reporting and baseline
// comparison. The struct is JSON-serializable so baseline stats can be
// cached between runs.
type TimelineStats struct {
	TotalEvents  int              `json:"totalEvents"`
	ErrorCount   int              `json:"errorCount"`
	WarningCount int              `json:"warningCount"`
	ErrorRate    float64          `json:"errorRate"`
	BySeverity   map[Severity]int `json:"bySeverity"`
	BySource     map[string]int   `json:"bySource"`

	// ErrorPatterns holds normalized error-message signatures (digit runs
	// collapsed, fixed prefix), sorted, deduplicated.
	ErrorPatterns []string `json:"errorPatterns"`
}

// SourceChange is one per-source count difference that crossed the
// significance threshold.
type SourceChange struct {
	Source        string
	BaselineCount int
	IncidentCount int
	DeltaPct      float64
}

// BaselineDiff is the structured comparison of a baseline period against the
// incident period. It feeds the report renderer only, never the resolver.
type BaselineDiff struct {
	EventDelta       int
	EventDeltaPct    float64
	ErrorDelta       int
	ErrorRateDelta   float64
	NewErrorPatterns []string
	PerSourceChanges []SourceChange
}
