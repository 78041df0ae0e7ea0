package production

import (
	"math"
	"testing"

	"github.com/talgya/halfearth/internal/kinds"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func limit(v float64) *float64 { return &v }

func newProcess(name string, out kinds.Output, share int) *Process {
	return &Process{ID: kinds.IdFor(name), Name: name, Output: out, MixShare: share}
}

func TestOrder(t *testing.T) {
	var demand kinds.OutputMap
	demand[kinds.OutputElectricity] = 1000

	p := newProcess("grid", kinds.OutputElectricity, MixUnits)
	if got := p.Order(demand).Amount; got != 1000 {
		t.Fatalf("full share order = %v, want 1000", got)
	}

	p.Limit = limit(100)
	if got := p.Order(demand).Amount; got != 100 {
		t.Fatalf("limited order = %v, want 100", got)
	}

	p.Limit = nil
	p.MixShare = 5
	if got := p.Order(demand).Amount; !approx(got, 250) {
		t.Fatalf("quarter share order = %v, want 250", got)
	}
}

func TestProduceFillsOrdersWhenSupplied(t *testing.T) {
	a := newProcess("a", kinds.OutputPlantCalories, 10)
	a.Resources[kinds.ResourceLand] = 1
	a.Byproducts[kinds.ByproductCO2] = 2
	b := newProcess("b", kinds.OutputPlantCalories, 10)
	b.Resources[kinds.ResourceWater] = 3

	var demand kinds.OutputMap
	demand[kinds.OutputPlantCalories] = 100
	var avail kinds.ResourceMap
	avail[kinds.ResourceLand] = 1000
	avail[kinds.ResourceWater] = 1000

	res := Produce(Orders([]*Process{a, b}, demand), avail, kinds.FeedstockMap{})
	if !approx(res.ByProcess[a.ID], 50) || !approx(res.ByProcess[b.ID], 50) {
		t.Fatalf("by process = %v", res.ByProcess)
	}
	if !approx(res.ByOutput[kinds.OutputPlantCalories], 100) {
		t.Fatalf("by output = %v", res.ByOutput)
	}
	if !approx(res.Resources[kinds.ResourceLand], 50) || !approx(res.Resources[kinds.ResourceWater], 150) {
		t.Fatalf("resources = %v", res.Resources)
	}
	if !approx(res.Byproducts[kinds.ByproductCO2], 100) {
		t.Fatalf("byproducts = %v", res.Byproducts)
	}
}

func TestProduceScalesOversubscribedInput(t *testing.T) {
	a := newProcess("a", kinds.OutputFuel, 10)
	a.Resources[kinds.ResourceLand] = 1
	b := newProcess("b", kinds.OutputFuel, 10)
	b.Resources[kinds.ResourceLand] = 1
	b.Resources[kinds.ResourceWater] = 1
	c := newProcess("c", kinds.OutputFuel, 0)

	var demand kinds.OutputMap
	demand[kinds.OutputFuel] = 200
	var avail kinds.ResourceMap
	avail[kinds.ResourceLand] = 100 // half of the 200 required
	avail[kinds.ResourceWater] = 25 // a quarter of the 100 required

	res := Produce(Orders([]*Process{a, b, c}, demand), avail, kinds.FeedstockMap{})
	if !approx(res.ByProcess[a.ID], 50) {
		t.Fatalf("a = %v, want 50", res.ByProcess[a.ID])
	}
	// b is held to the scarcer of its two inputs.
	if !approx(res.ByProcess[b.ID], 25) {
		t.Fatalf("b = %v, want 25", res.ByProcess[b.ID])
	}
	for i := range avail {
		if res.Resources[i] > avail[i]+1e-9 {
			t.Errorf("consumed %v of %v, only %v available", res.Resources[i], kinds.Resource(i), avail[i])
		}
	}
}

func TestProduceWithNothingAvailable(t *testing.T) {
	p := newProcess("thirsty", kinds.OutputAnimalCalories, MixUnits)
	p.Resources[kinds.ResourceWater] = 1
	free := newProcess("free", kinds.OutputElectricity, MixUnits)

	var demand kinds.OutputMap
	demand[kinds.OutputAnimalCalories] = 10
	demand[kinds.OutputElectricity] = 10

	res := Produce(Orders([]*Process{p, free}, demand), kinds.ResourceMap{}, kinds.FeedstockMap{})
	if res.ByProcess[p.ID] != 0 {
		t.Fatalf("produced %v without water", res.ByProcess[p.ID])
	}
	if res.ByProcess[free.ID] != 10 {
		t.Fatalf("process with no inputs produced %v, want 10", res.ByProcess[free.ID])
	}
}

func TestProduceFeedstocks(t *testing.T) {
	coal := newProcess("coal", kinds.OutputElectricity, MixUnits)
	coal.Feedstock = FeedstockUse{Kind: kinds.FeedstockCoal, Amount: 2}
	farm := newProcess("farm", kinds.OutputPlantCalories, MixUnits)
	farm.Feedstock = FeedstockUse{Kind: kinds.FeedstockSoil, Amount: 5}

	var demand kinds.OutputMap
	demand[kinds.OutputElectricity] = 10
	demand[kinds.OutputPlantCalories] = 10
	var stock kinds.FeedstockMap
	stock[kinds.FeedstockCoal] = 5

	res := Produce(Orders([]*Process{coal, farm}, demand), kinds.ResourceMap{}, stock)
	if !approx(res.ByProcess[coal.ID], 2.5) || !approx(res.Feedstocks[kinds.FeedstockCoal], 5) {
		t.Fatalf("coal produced %v using %v", res.ByProcess[coal.ID], res.Feedstocks[kinds.FeedstockCoal])
	}
	// Soil is never drawn down and never limits production.
	if res.ByProcess[farm.ID] != 10 || res.Feedstocks[kinds.FeedstockSoil] != 0 {
		t.Fatalf("farm produced %v using soil %v", res.ByProcess[farm.ID], res.Feedstocks[kinds.FeedstockSoil])
	}
}

func TestCalculateRequired(t *testing.T) {
	oil := newProcess("oil", kinds.OutputFuel, 10)
	oil.Resources[kinds.ResourceWater] = 1
	oil.Feedstock = FeedstockUse{Kind: kinds.FeedstockOil, Amount: 1}
	coal := newProcess("coal", kinds.OutputFuel, 10)
	coal.Resources[kinds.ResourceWater] = 1
	coal.Feedstock = FeedstockUse{Kind: kinds.FeedstockCoal, Amount: 1}

	var demand kinds.OutputMap
	demand[kinds.OutputFuel] = 200

	res, fs := CalculateRequired(Orders([]*Process{oil, coal}, demand))
	if !approx(res[kinds.ResourceWater], 200) {
		t.Fatalf("water = %v, want 200", res[kinds.ResourceWater])
	}
	if !approx(fs[kinds.FeedstockOil], 100) || !approx(fs[kinds.FeedstockCoal], 100) {
		t.Fatalf("feedstocks = %v, want oil 100 coal 100", fs)
	}
}

func TestOutputModifierLowersIntensity(t *testing.T) {
	p := newProcess("efficient", kinds.OutputFuel, MixUnits)
	p.Resources[kinds.ResourceLand] = 2
	p.Byproducts[kinds.ByproductCO2] = 4
	p.Feedstock = FeedstockUse{Kind: kinds.FeedstockOil, Amount: 3}
	p.OutputModifier = 1
	p.ByproductModifiers[kinds.ByproductCO2] = -0.5

	if got := p.AdjResources()[kinds.ResourceLand]; !approx(got, 1) {
		t.Fatalf("adj land = %v, want 1", got)
	}
	if got := p.AdjByproducts()[kinds.ByproductCO2]; !approx(got, 1) {
		t.Fatalf("adj co2 = %v, want 1", got)
	}
	if got := p.AdjFeedstock(); !approx(got, 1.5) {
		t.Fatalf("adj feedstock = %v, want 1.5", got)
	}
}

func TestMaxShare(t *testing.T) {
	var demand kinds.OutputMap
	demand[kinds.OutputElectricity] = 100

	p := newProcess("nuclear", kinds.OutputElectricity, 5)
	if got := p.MaxShare(demand, kinds.FeedstockMap{}); got != MixUnits {
		t.Fatalf("unconstrained max share = %d", got)
	}
	p.Limit = limit(42)
	if got := p.MaxShare(demand, kinds.FeedstockMap{}); got != 8 {
		t.Fatalf("limited max share = %d, want 8", got)
	}
	p.Feedstock = FeedstockUse{Kind: kinds.FeedstockUranium, Amount: 1}
	var stock kinds.FeedstockMap
	stock[kinds.FeedstockUranium] = 20
	if got := p.MaxShare(demand, stock); got != 4 {
		t.Fatalf("feedstock-limited max share = %d, want 4", got)
	}
}

func TestChangeMixShareRelationships(t *testing.T) {
	fan, critic := kinds.IdFor("fan"), kinds.IdFor("critic")
	p := newProcess("solar", kinds.OutputElectricity, 4)
	p.Supporters = []kinds.Id{fan}
	p.Opposers = []kinds.Id{critic}

	changes := p.ChangeMixShare(1)
	if p.MixShare != 5 || !p.IsPromoted() {
		t.Fatalf("share = %d promoted = %v", p.MixShare, p.IsPromoted())
	}
	want := []kinds.RelationshipChange{{NPC: fan, Delta: 1}, {NPC: critic, Delta: -1}}
	if len(changes) != 2 || changes[0] != want[0] || changes[1] != want[1] {
		t.Fatalf("promote changes = %v, want %v", changes, want)
	}

	if changes := p.ChangeMixShare(1); changes != nil {
		t.Fatalf("no threshold crossed but got %v", changes)
	}

	changes = p.ChangeMixShare(-10)
	if p.MixShare != 0 || !p.IsBanned() {
		t.Fatalf("share = %d, want banned", p.MixShare)
	}
	if len(changes) != 2 || changes[0].Delta != -1 || changes[1].Delta != 1 {
		t.Fatalf("ban changes = %v", changes)
	}

	changes = p.ChangeMixShare(1)
	if len(changes) != 2 || changes[0].Delta != 1 || changes[1].Delta != -1 {
		t.Fatalf("unban changes = %v", changes)
	}
}

func TestScarcityWeight(t *testing.T) {
	tests := []struct {
		required, available, want float64
	}{
		{0, 0, 0},
		{10, 0, MaxScarcity},
		{10, 20, 0.5},
		{30, 10, 3},
	}
	for _, tt := range tests {
		if got := ScarcityWeight(tt.required, tt.available); got != tt.want {
			t.Errorf("ScarcityWeight(%v, %v) = %v, want %v", tt.required, tt.available, got, tt.want)
		}
	}
}

func mixFixture() (*Process, *Process, kinds.OutputMap) {
	landy := newProcess("landy", kinds.OutputElectricity, 10)
	landy.Resources[kinds.ResourceLand] = 1
	watery := newProcess("watery", kinds.OutputElectricity, 10)
	watery.Resources[kinds.ResourceWater] = 1
	var demand kinds.OutputMap
	demand[kinds.OutputElectricity] = 100
	return landy, watery, demand
}

func TestUpdateMixesWithoutScarcityIsNoop(t *testing.T) {
	landy, watery, demand := mixFixture()
	var rw kinds.ResourceMap
	for i := range rw {
		rw[i] = 1
	}
	for rep := 0; rep < 3; rep++ {
		if shifts := UpdateMixes([]*Process{landy, watery}, demand, rw, kinds.FeedstockMap{}); len(shifts) != 0 {
			t.Fatalf("unexpected shifts %v", shifts)
		}
	}
	if landy.MixShare != 10 || watery.MixShare != 10 {
		t.Fatalf("shares moved: %d %d", landy.MixShare, watery.MixShare)
	}
}

func TestUpdateMixesShiftsAwayFromScarcity(t *testing.T) {
	landy, watery, demand := mixFixture()
	var rw kinds.ResourceMap
	rw[kinds.ResourceLand] = 3
	rw[kinds.ResourceWater] = 0.5

	shifts := UpdateMixes([]*Process{landy, watery}, demand, rw, kinds.FeedstockMap{})
	if len(shifts) != 1 || shifts[0].From != landy.ID || shifts[0].To != watery.ID {
		t.Fatalf("shifts = %v", shifts)
	}
	if landy.MixShare != 9 || watery.MixShare != 11 {
		t.Fatalf("shares = %d %d, want 9 11", landy.MixShare, watery.MixShare)
	}
}

func TestUpdateMixesRespectsLocksAndLimits(t *testing.T) {
	landy, watery, demand := mixFixture()
	var rw kinds.ResourceMap
	rw[kinds.ResourceLand] = 3

	landy.Locked = true
	if shifts := UpdateMixes([]*Process{landy, watery}, demand, rw, kinds.FeedstockMap{}); len(shifts) != 0 {
		t.Fatalf("locked donor shifted: %v", shifts)
	}

	landy.Locked = false
	watery.Limit = limit(50) // already at 10 of 20 units
	if shifts := UpdateMixes([]*Process{landy, watery}, demand, rw, kinds.FeedstockMap{}); len(shifts) != 0 {
		t.Fatalf("recipient at its limit received: %v", shifts)
	}
	if landy.MixShare+watery.MixShare != 20 {
		t.Fatalf("total share changed to %d", landy.MixShare+watery.MixShare)
	}
}

func TestUpdateMixesScarceFeedstock(t *testing.T) {
	gas := newProcess("gas", kinds.OutputFuel, 15)
	gas.Feedstock = FeedstockUse{Kind: kinds.FeedstockNaturalGas, Amount: 1}
	bio := newProcess("bio", kinds.OutputFuel, 5)
	var demand kinds.OutputMap
	demand[kinds.OutputFuel] = 100

	var req, avail kinds.FeedstockMap
	req[kinds.FeedstockNaturalGas] = 75
	fw := FeedstockWeights(req, avail)
	if fw[kinds.FeedstockNaturalGas] != MaxScarcity {
		t.Fatalf("weight of absent feedstock = %v", fw[kinds.FeedstockNaturalGas])
	}

	UpdateMixes([]*Process{gas, bio}, demand, kinds.ResourceMap{}, fw)
	if gas.MixShare != 14 || bio.MixShare != 6 {
		t.Fatalf("shares = %d %d, want 14 6", gas.MixShare, bio.MixShare)
	}
}
