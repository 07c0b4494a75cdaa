package engine

import (
	"github.com/incidentstack/incident-rca/internal/models"
	"github.com/incidentstack/incident-rca/internal/timeline"
)

// DetectIncidents walks the timeline in chronological order and matches every
// configured failure pattern against every event. Each trigger match becomes
// one incident per (root event, pattern) pair; the forward scan collects
// cascade effects whose delay falls inside the effect's range. Incidents are
// deliberately not deduplicated across patterns: the same root event may
// anchor several distinct failure chains, and each is independently
// actionable.
//
// Cost is O(events x patterns x look-ahead window), acceptable for
// incident-scale windows held fully in memory.
func DetectIncidents(tl timeline.Timeline, patterns []*models.FailurePattern) []models.Incident {
	events := tl.Events
	incidents := make([]models.Incident, 0)

	for i, ev := range events {
		for _, pattern := range patterns {
			if !pattern.MatchesTrigger(ev) {
				continue
			}

			incident := models.Incident{
				Pattern:   pattern,
				RootEvent: ev,
				Severity:  pattern.Severity,
			}

			for j := i + 1; j < len(events); j++ {
				delay := events[j].Timestamp.Sub(ev.Timestamp).Seconds()
				if delay > pattern.LookAheadSeconds {
					break
				}
				for k := range pattern.Effects {
					eff := &pattern.Effects[k]
					if delay < eff.Delay.Min || delay > eff.Delay.Max {
						continue
					}
					if !eff.Matches(events[j].Message) {
						continue
					}
					incident.Effects = append(incident.Effects, models.EffectMatch{
						Event:          events[j],
						DelaySeconds:   delay,
						MatchedPattern: eff.Pattern,
					})
				}
			}

			// Zero effects is still a finding: a root cause with no
			// observed cascade.
			incidents = append(incidents, incident)
		}
	}

	return incidents
}
