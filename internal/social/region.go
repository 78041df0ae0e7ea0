// Package social provides the planet's regions and the political factions
// the player bargains with.
package social

import (
	"fmt"
	"math"
	"slices"

	"github.com/talgya/halfearth/internal/kinds"
)

// Income is a region's development tier.
type Income int

const (
	IncomeLow Income = iota
	IncomeLowerMiddle
	IncomeUpperMiddle
	IncomeHigh
)

// NumIncomes is the number of income tiers.
const NumIncomes = 4

var incomeNames = [NumIncomes]string{"low", "lower_middle", "upper_middle", "high"}

func (i Income) String() string {
	if i < 0 || int(i) >= NumIncomes {
		return fmt.Sprintf("income(%d)", int(i))
	}
	return incomeNames[i]
}

func (i Income) MarshalText() ([]byte, error) { return []byte(i.String()), nil }

func (i *Income) UnmarshalText(text []byte) error {
	idx := slices.Index(incomeNames[:], string(text))
	if idx < 0 {
		return fmt.Errorf("unknown income %q", text)
	}
	*i = Income(idx)
	return nil
}

// Next is the tier above, or High.
func (i Income) Next() Income { return min(i+1, IncomeHigh) }

// Prev is the tier below, or Low.
func (i Income) Prev() Income { return max(i-1, IncomeLow) }

type Latitude string

const (
	LatitudeTropic    Latitude = "tropic"
	LatitudeSubtropic Latitude = "subtropic"
	LatitudeTemperate Latitude = "temperate"
	LatitudeFrigid    Latitude = "frigid"
)

const (
	// DevelopSpeed is the share of an income tier a region climbs per year.
	DevelopSpeed = 1.0 / 40

	// MaxOutlook bounds regional outlook from above.
	MaxOutlook = 10.0

	// Habitability falls with the square of heat above this temperature.
	heatThreshold = 35.0
	heatPenalty   = 10.0
)

// Region is a populated part of the planet.
type Region struct {
	ID          kinds.Id `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Population  float64  `json:"population" yaml:"population"`
	Seceded     bool     `json:"seceded" yaml:"seceded"`
	Income      Income   `json:"income" yaml:"income"`
	Development float64  `json:"development" yaml:"development"` // progress toward the next tier, 0–1
	Flags       []string `json:"flags,omitempty" yaml:"flags,omitempty"`
	Outlook     float64  `json:"outlook" yaml:"outlook"`

	BaseHabitability float64  `json:"base_habitability" yaml:"base_habitability"`
	TempLo           float64  `json:"temp_lo" yaml:"temp_lo"`
	TempHi           float64  `json:"temp_hi" yaml:"temp_hi"`
	PrecipLo         float64  `json:"precip_lo" yaml:"precip_lo"`
	PrecipHi         float64  `json:"precip_hi" yaml:"precip_hi"`
	Latitude         Latitude `json:"latitude" yaml:"latitude"`
}

func (r *Region) Key() kinds.Id { return r.ID }

// Habitability is the base habitability less a penalty for extreme heat.
func (r *Region) Habitability() float64 {
	over := math.Max(0, r.TempHi-heatThreshold)
	return r.BaseHabitability - over*over*heatPenalty
}

// AdjustedIncome is the income tier plus progress toward the next.
func (r *Region) AdjustedIncome() float64 {
	return float64(r.Income) + r.Development
}

func (r *Region) HasFlag(flag string) bool {
	return slices.Contains(r.Flags, flag)
}

// Demand is the region's total demand, interpolating per-capita demand
// between its tier and the next by development.
func (r *Region) Demand(perCapita [NumIncomes]kinds.OutputMap) kinds.OutputMap {
	lo := perCapita[r.Income]
	if r.Income == IncomeHigh {
		return lo.Scale(r.Population)
	}
	hi := perCapita[r.Income+1]
	var out kinds.OutputMap
	for i := range out {
		out[i] = ((hi[i]-lo[i])*r.Development + lo[i]) * r.Population
	}
	return out
}

// Develop moves the region toward the next tier. stop halts development;
// degrow pulls high-income regions down and holds upper-middle ones.
// It returns the tiers before and after.
func (r *Region) Develop(speed float64, stop, degrow bool) (Income, Income) {
	start := r.Income
	switch {
	case degrow && r.Income == IncomeHigh:
		r.developBy(-1)
	case stop || r.Income == IncomeHigh:
	case degrow && r.Income == IncomeUpperMiddle:
	default:
		r.developBy(speed)
	}
	return start, r.Income
}

func (r *Region) developBy(modifier float64) {
	r.Development += DevelopSpeed * modifier
	switch {
	case r.Development >= 1:
		r.Development = 0
		r.Income = r.Income.Next()
	case r.Development < 0:
		r.Development += 1
		r.Income = r.Income.Prev()
	}
}

// UpdatePopulation grows the population by the rate for its income tier.
func (r *Region) UpdatePopulation(growth [NumIncomes]float64, modifier float64) {
	r.Population = math.Max(0, r.Population*(1+growth[r.Income]*modifier))
}

// UpdateOutlook lets outlook recover a little each year.
func (r *Region) UpdateOutlook(rebound float64) {
	r.Outlook = math.Min(MaxOutlook, r.Outlook+rebound)
}
