package social

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/talgya/halfearth/internal/kinds"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestHabitabilityHeatPenalty(t *testing.T) {
	r := &Region{BaseHabitability: 10, TempHi: 30}
	if got := r.Habitability(); got != 10 {
		t.Fatalf("habitability = %v, want 10", got)
	}
	r.TempHi = 37
	if got := r.Habitability(); got != 10-40 {
		t.Fatalf("habitability = %v, want -30", got)
	}
}

func TestRegionDemandInterpolates(t *testing.T) {
	var perCapita [NumIncomes]kinds.OutputMap
	for i := range perCapita {
		perCapita[i][kinds.OutputFuel] = float64(i+1) * 10
	}
	r := &Region{Population: 100, Income: IncomeLowerMiddle, Development: 0.5}
	if got := r.Demand(perCapita)[kinds.OutputFuel]; !approx(got, 2500) {
		t.Fatalf("demand = %v, want 2500", got)
	}
	r.Income = IncomeHigh
	if got := r.Demand(perCapita)[kinds.OutputFuel]; !approx(got, 4000) {
		t.Fatalf("high income demand = %v, want 4000", got)
	}
}

func TestDevelop(t *testing.T) {
	r := &Region{Income: IncomeLow, Development: 0.99}
	before, after := r.Develop(1, false, false)
	if before != IncomeLow || after != IncomeLowerMiddle || r.Development != 0 {
		t.Fatalf("develop: %v -> %v at %v", before, after, r.Development)
	}

	r.Develop(1, true, false)
	if r.Development != 0 {
		t.Fatalf("stopped region developed")
	}

	r = &Region{Income: IncomeHigh, Development: 0}
	r.Develop(1, false, true)
	if r.Income != IncomeUpperMiddle || !approx(r.Development, 1-DevelopSpeed) {
		t.Fatalf("degrowth: %v at %v", r.Income, r.Development)
	}
	r.Develop(1, false, true)
	if r.Income != IncomeUpperMiddle || !approx(r.Development, 1-DevelopSpeed) {
		t.Fatalf("degrowth should hold upper-middle regions: %v at %v", r.Income, r.Development)
	}
}

func TestOutlookRebounds(t *testing.T) {
	r := &Region{Outlook: 9.95}
	r.UpdateOutlook(0.1)
	if r.Outlook != MaxOutlook {
		t.Fatalf("outlook = %v, want capped at %v", r.Outlook, MaxOutlook)
	}
}

func TestIncomeText(t *testing.T) {
	var r Region
	if err := json.Unmarshal([]byte(`{"income":"upper_middle"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Income != IncomeUpperMiddle {
		t.Fatalf("income = %v", r.Income)
	}
	if err := json.Unmarshal([]byte(`{"income":"rich"}`), &r); err == nil {
		t.Fatalf("expected error for unknown income")
	}
}

func TestNPCRelation(t *testing.T) {
	tests := []struct {
		rel  float64
		want Relation
	}{
		{0, RelationNemesis},
		{1, RelationNemesis},
		{3, RelationNeutral},
		{5, RelationAlly},
	}
	for _, tt := range tests {
		n := &NPC{Relationship: tt.rel}
		if got := n.Relation(); got != tt.want {
			t.Errorf("Relation(%v) = %s, want %s", tt.rel, got, tt.want)
		}
	}

	n := &NPC{Relationship: 5.5}
	n.Adjust(3)
	if n.Relationship != MaxRelationship {
		t.Fatalf("relationship = %v, want %v", n.Relationship, MaxRelationship)
	}
}
