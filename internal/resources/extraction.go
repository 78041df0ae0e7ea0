package resources

import (
	"math"

	"github.com/talgya/halfearth/internal/kinds"
)

// ExpansionRate bounds how far an extraction rate may move toward demand in
// one year, as a fraction of the current rate. A rate of zero never grows.
const ExpansionRate = 0.02

// ExtractionManager moves feedstocks from reserves into the stockpile at
// rates that follow demand with a lag.
type ExtractionManager struct {
	Rates    kinds.FeedstockMap `json:"rates"`
	Reserves kinds.FeedstockMap `json:"reserves"`
}

func NewExtractionManager(rates, reserves kinds.FeedstockMap) *ExtractionManager {
	return &ExtractionManager{Rates: rates, Reserves: reserves}
}

// Extract removes up to one year's rate of each feedstock from reserves.
func (m *ExtractionManager) Extract() kinds.FeedstockMap {
	var extracted kinds.FeedstockMap
	for i, rate := range m.Rates {
		amount := math.Max(0, math.Min(rate, m.Reserves[i]))
		m.Reserves[i] -= amount
		extracted[i] = amount
	}
	return extracted
}

// Adjust moves each rate toward demand by at most ExpansionRate of itself.
func (m *ExtractionManager) Adjust(demand kinds.FeedstockMap) {
	for i, want := range demand {
		rate := m.Rates[i]
		gap := want - rate
		step := rate * ExpansionRate
		var change float64
		if gap > 0 {
			change = math.Min(gap, step)
		} else {
			change = math.Max(gap, -step)
		}
		m.Rates[i] = rate + change
	}
}

// YearsLeft estimates how long reserves of f last at the given annual use.
// Zero use reports math.MaxFloat64.
func (m *ExtractionManager) YearsLeft(f kinds.Feedstock, annual float64) float64 {
	if annual <= 0 {
		return math.MaxFloat64
	}
	return m.Reserves[f] / annual
}
