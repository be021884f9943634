// Package unlocks computes a decay-weighted measure of upcoming
// token-supply unlocks, used as a dilution-risk proxy.
package unlocks

import (
	"math"
	"time"

	"gemscan/internal/domain"
)

// DecayDays is the e-folding horizon: an unlock DecayDays away carries
// ~37% of the weight of one unlocking today.
const DecayDays = 30.0

// Pressure sums per-event supply shares weighted by exponential time
// decay, clamped to [0,1]. Past events are ignored; an unlock happening
// now carries its full share.
func Pressure(events []domain.UnlockEvent, now time.Time) float64 {
	var pressure float64
	for _, e := range events {
		days := e.Date.Sub(now).Hours() / 24
		if days < 0 {
			continue
		}
		share := math.Min(math.Max(e.Share, 0), 1)
		pressure += share * math.Exp(-days/DecayDays)
	}
	return math.Min(pressure, 1)
}
