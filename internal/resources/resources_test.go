package resources

import (
	"math"
	"testing"

	"github.com/talgya/halfearth/internal/kinds"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract(t *testing.T) {
	var rates, reserves kinds.FeedstockMap
	rates[kinds.FeedstockOil] = 10
	rates[kinds.FeedstockCoal] = 20
	reserves[kinds.FeedstockOil] = 20
	reserves[kinds.FeedstockCoal] = 10

	m := NewExtractionManager(rates, reserves)
	got := m.Extract()

	if got[kinds.FeedstockOil] != 10 || got[kinds.FeedstockCoal] != 10 {
		t.Fatalf("extracted = %v, want oil 10 coal 10", got)
	}
	if m.Reserves[kinds.FeedstockOil] != 10 || m.Reserves[kinds.FeedstockCoal] != 0 {
		t.Fatalf("reserves = %v, want oil 10 coal 0", m.Reserves)
	}

	// Exhausted reserves yield nothing more.
	got = m.Extract()
	if got[kinds.FeedstockCoal] != 0 {
		t.Fatalf("extracted coal from empty reserves: %v", got[kinds.FeedstockCoal])
	}
}

func TestExtractNeverExceedsRateOrReserves(t *testing.T) {
	var rates, reserves kinds.FeedstockMap
	for i := range rates {
		rates[i] = float64(i) * 3
		reserves[i] = float64(kinds.NumFeedstocks-i) * 2
	}
	m := NewExtractionManager(rates, reserves)
	before := m.Reserves
	got := m.Extract()
	for i := range got {
		if got[i] > math.Min(rates[i], before[i]) {
			t.Errorf("feedstock %v: extracted %v > min(%v, %v)", kinds.Feedstock(i), got[i], rates[i], before[i])
		}
		if !approx(m.Reserves[i], before[i]-got[i]) {
			t.Errorf("feedstock %v: reserves %v, want %v", kinds.Feedstock(i), m.Reserves[i], before[i]-got[i])
		}
	}
}

func TestAdjust(t *testing.T) {
	tests := []struct {
		name   string
		rate   float64
		demand float64
		want   float64
	}{
		{"expand", 1.0, 5.0, 1.02},
		{"contract", 2.0, 1.0, 1.96},
		{"small gap closes exactly", 1.0, 1.01, 1.01},
		{"zero stays zero", 0, 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rates, demand kinds.FeedstockMap
			rates[kinds.FeedstockOil] = tt.rate
			demand[kinds.FeedstockOil] = tt.demand
			m := NewExtractionManager(rates, kinds.FeedstockMap{})
			m.Adjust(demand)
			if got := m.Rates[kinds.FeedstockOil]; !approx(got, tt.want) {
				t.Fatalf("rate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLedgerNeverNegative(t *testing.T) {
	var base kinds.ResourceMap
	base[kinds.ResourceLand] = 100
	base[kinds.ResourceWater] = 50
	base[kinds.ResourceFuel] = 10
	var stock kinds.FeedstockMap
	stock[kinds.FeedstockOil] = 5

	l := NewLedger(base, stock)
	var used kinds.ResourceMap
	used[kinds.ResourceFuel] = 25
	used[kinds.ResourceLand] = 30
	l.Consume(used)

	var usedFs kinds.FeedstockMap
	usedFs[kinds.FeedstockOil] = 8
	usedFs[kinds.FeedstockSoil] = 1000
	l.ConsumeFeedstocks(usedFs)

	if l.Available[kinds.ResourceFuel] != 0 {
		t.Fatalf("fuel = %v, want 0", l.Available[kinds.ResourceFuel])
	}
	if l.Available[kinds.ResourceLand] != 70 {
		t.Fatalf("land = %v, want 70", l.Available[kinds.ResourceLand])
	}
	if l.Feedstocks[kinds.FeedstockOil] != 0 || l.Feedstocks[kinds.FeedstockSoil] != 0 {
		t.Fatalf("feedstocks = %v", l.Feedstocks)
	}

	l.Regenerate(0.1)
	if !approx(l.Available[kinds.ResourceLand], 90) || l.Available[kinds.ResourceWater] != 50 {
		t.Fatalf("after regenerate land %v water %v", l.Available[kinds.ResourceLand], l.Available[kinds.ResourceWater])
	}
	if l.Available[kinds.ResourceFuel] != 0 {
		t.Fatalf("fuel must not regenerate")
	}
}

func TestYearsLeft(t *testing.T) {
	var reserves kinds.FeedstockMap
	reserves[kinds.FeedstockCoal] = 100
	m := NewExtractionManager(kinds.FeedstockMap{}, reserves)
	if got := m.YearsLeft(kinds.FeedstockCoal, 20); got != 5 {
		t.Fatalf("YearsLeft = %v, want 5", got)
	}
	if got := m.YearsLeft(kinds.FeedstockCoal, 0); got != math.MaxFloat64 {
		t.Fatalf("YearsLeft with no use = %v", got)
	}
}
