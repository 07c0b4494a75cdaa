package models

import "time"

// EffectMatch records one downstream event tied to an incident root.
type EffectMatch struct {
	Event          Event
	DelaySeconds   float64
	MatchedPattern string
}

// Incident is one trigger match of a failure pattern, together with every
// cascade effect observed inside the look-ahead window. An incident with no
// effects is still meaningful: a root cause with no observed cascade.
type Incident struct {
	Pattern   *FailurePattern
	RootEvent Event
	Effects   []EffectMatch
	Severity  PatternSeverity
}

// EffectSources returns the distinct sources touched by the incident,
// counting the root event's source.
func (in Incident) EffectSources() []string {
	seen := map[string]struct{}{in.RootEvent.Source: {}}
	out := []string{in.RootEvent.Source}
	for _, eff := range in.Effects {
		if _, ok := seen[eff.Event.Source]; ok {
			continue
		}
		seen[eff.Event.Source] = struct{}{}
		out = append(out, eff.Event.Source)
	}
	return out
}

// AnomalyType enumerates the bucket-level anomaly signals.
type AnomalyType string

const (
	AnomalySpike        AnomalyType = "Spike"
	AnomalyErrorCluster AnomalyType = "ErrorCluster"
	AnomalyCascade      AnomalyType = "Cascade"
)

// AnomalyBucket flags one statistically abnormal time bucket. A single
// bucket may yield several records of different types.
type AnomalyBucket struct {
	Type        AnomalyType
	WindowStart time.Time
	Count       int
	Baseline    float64
	Samples     []Event
}

// Correlation groups simultaneous error-like events from at least two
// distinct sources within one short window.
type Correlation struct {
	WindowStart time.Time
	Events      []Event
	Sources     []string
}

// RootCause is the single summary judgment of an analysis run. Confidence is
// a bounded heuristic, never certainty.
type RootCause struct {
	Pattern    string
	Confidence float64
	Timestamp  time.Time
	Evidence   []string
	Resolution string
}
