package engine

import (
	"fmt"
	"math"

	"github.com/incidentstack/incident-rca/internal/models"
)

// Confidence scoring constants. The score is a bounded heuristic, not a
// probability; it never reaches certainty.
const (
	confidenceBase        = 0.5
	confidenceCap         = 0.95
	manyEffectsThreshold  = 10
	heavyEffectsThreshold = 50
	wideSpreadSources     = 2
)

// ResolveRootCause picks the critical incident with the earliest root
// timestamp and scores how well-supported that judgment is. With no critical
// incident it returns nil, which callers must report explicitly as "no
// definitive root cause" rather than silence.
func ResolveRootCause(incidents []models.Incident, anomalies []models.AnomalyBucket) *models.RootCause {
	var best *models.Incident
	for i := range incidents {
		if incidents[i].Severity != models.PatternCritical {
			continue
		}
		if best == nil || incidents[i].RootEvent.Timestamp.Before(best.RootEvent.Timestamp) {
			best = &incidents[i]
		}
	}
	if best == nil {
		return nil
	}

	confidence := confidenceBase
	evidence := []string{
		fmt.Sprintf("%d cascade effect(s) observed for pattern %q", len(best.Effects), best.Pattern.Name),
	}

	if len(best.Effects) > manyEffectsThreshold {
		confidence += 0.2
	}
	if len(best.Effects) > heavyEffectsThreshold {
		confidence += 0.1
	}

	if len(anomalies) > 0 {
		confidence += 0.1
		evidence = append(evidence, fmt.Sprintf("%d anomalous time window(s) detected", len(anomalies)))
	}

	if sources := best.EffectSources(); len(sources) > wideSpreadSources {
		confidence += 0.1
		evidence = append(evidence, fmt.Sprintf("%d sources affected by the cascade", len(sources)))
	}

	return &models.RootCause{
		Pattern:    best.Pattern.Name,
		Confidence: math.Min(confidence, confidenceCap),
		Timestamp:  best.RootEvent.Timestamp,
		Evidence:   evidence,
		Resolution: best.Pattern.Resolution,
	}
}
