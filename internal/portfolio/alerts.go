package portfolio

import (
	"time"

	"coinpulse/internal/models"
)

// EvaluateAlerts applies one quote snapshot to the alert set. Armed alerts
// whose asset has a known price fire when the threshold is crossed:
// direction above fires at price >= target, below at price <= target.
// Triggered is a latch: an alert fires at most once and never rearms.
// Alerts for assets with no known price are left untouched.
//
// The input slice is not modified; fired holds the newly-triggered alerts,
// one entry per firing, for notification fan-out.
func EvaluateAlerts(alerts []models.Alert, quotes map[string]models.Quote, now time.Time) (updated, fired []models.Alert) {
	updated = make([]models.Alert, len(alerts))
	copy(updated, alerts)

	for i, a := range updated {
		if a.Triggered {
			continue
		}
		q, ok := quotes[a.AssetID]
		if !ok {
			continue
		}

		crossed := (a.Direction == models.AlertAbove && q.Price >= a.TargetPrice) ||
			(a.Direction == models.AlertBelow && q.Price <= a.TargetPrice)
		if !crossed {
			continue
		}

		ts := now
		updated[i].Triggered = true
		updated[i].TriggeredAt = &ts
		fired = append(fired, updated[i])
	}
	return updated, fired
}
