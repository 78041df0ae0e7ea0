// Package resources tracks the planet's resource stocks and feedstock
// stockpiles, and the extraction that refills the stockpiles from reserves.
package resources

import (
	"github.com/talgya/halfearth/internal/kinds"
)

// Ledger holds the quantities production may draw on this year.
// Land and water are renewable: they return to their base level each year,
// with land reduced by the protected share. Fuel and electricity are
// replenished only by production. Feedstocks grow only through extraction.
// No quantity is ever negative.
type Ledger struct {
	Base       kinds.ResourceMap  `json:"base"`
	Available  kinds.ResourceMap  `json:"available"`
	Feedstocks kinds.FeedstockMap `json:"feedstocks"`
}

// NewLedger starts a ledger with every resource at its base level.
func NewLedger(base kinds.ResourceMap, feedstocks kinds.FeedstockMap) *Ledger {
	return &Ledger{
		Base:       base,
		Available:  base,
		Feedstocks: feedstocks,
	}
}

// Regenerate restores the renewable resources. protected is the fraction
// of land withheld from production.
func (l *Ledger) Regenerate(protected float64) {
	protected = clamp(protected, 0, 1)
	l.Available[kinds.ResourceLand] = l.Base[kinds.ResourceLand] * (1 - protected)
	l.Available[kinds.ResourceWater] = l.Base[kinds.ResourceWater]
}

// Consume draws down resources, stopping at zero.
func (l *Ledger) Consume(used kinds.ResourceMap) {
	for i, v := range used {
		l.Available[i] = floor(l.Available[i] - v)
	}
}

// ConsumeFeedstocks draws down the stockpile, stopping at zero.
func (l *Ledger) ConsumeFeedstocks(used kinds.FeedstockMap) {
	for i, v := range used {
		if kinds.Feedstock(i).Exempt() {
			continue
		}
		l.Feedstocks[i] = floor(l.Feedstocks[i] - v)
	}
}

// Replenish adds produced fuel or electricity.
func (l *Ledger) Replenish(r kinds.Resource, amount float64) {
	l.Available[r] = floor(l.Available[r] + amount)
}

// AddFeedstocks stocks extracted feedstocks.
func (l *Ledger) AddFeedstocks(extracted kinds.FeedstockMap) {
	for i, v := range extracted {
		l.Feedstocks[i] = floor(l.Feedstocks[i] + v)
	}
}

// Adjust applies a permanent change to a resource. Renewable resources
// change their base so the change survives regeneration.
func (l *Ledger) Adjust(r kinds.Resource, amount float64) {
	if r == kinds.ResourceLand || r == kinds.ResourceWater {
		l.Base[r] = floor(l.Base[r] + amount)
	}
	l.Available[r] = floor(l.Available[r] + amount)
}

func floor(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
