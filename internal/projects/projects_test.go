package projects

import (
	"math"
	"testing"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
)

// holds passes empty condition lists and otherwise answers with its value.
type holds bool

func (h holds) Holds(conds []events.Condition, _ *kinds.Id) bool {
	return len(conds) == 0 || bool(h)
}

type fixedRNG float64

func (r fixedRNG) Float64() float64         { return float64(r) }
func (r fixedRNG) Shuffle(int, func(i, j int)) {}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func newProject(kind Kind, cost float64) *Project {
	return &Project{
		ID:       kinds.IdFor("test project"),
		Name:     "test project",
		Kind:     kind,
		BaseCost: Fixed(cost),
		Cost:     cost,
		Points:   1,
		Status:   StatusInactive,
	}
}

func TestBuildProject(t *testing.T) {
	p := newProject(KindResearch, 1)
	p.Status = StatusBuilding
	for rep := 0; rep < 12; rep++ {
		p.Build(2030)
	}
	if p.Status != StatusFinished {
		t.Fatalf("status = %s, want finished", p.Status)
	}

	p.Ongoing = true
	p.Status = StatusBuilding
	p.Progress = 0
	for rep := 0; rep < 12; rep++ {
		p.Build(2031)
	}
	if p.Status != StatusActive || p.CompletedAt != 2031 {
		t.Fatalf("status = %s completed at %d, want active in 2031", p.Status, p.CompletedAt)
	}
}

func TestProjectEstimate(t *testing.T) {
	p := newProject(KindResearch, 10)
	p.SetPoints(1)
	if p.Estimate != 10 {
		t.Fatalf("estimate = %d, want 10", p.Estimate)
	}
	prev := p.Estimate
	p.SetPoints(10)
	if p.Estimate >= prev {
		t.Fatalf("more points did not shorten the estimate: %d >= %d", p.Estimate, prev)
	}
	if got := YearsForPoints(100, 1); got != 1 {
		t.Fatalf("YearsForPoints floor = %v, want 1", got)
	}
}

func TestCompletionEffectsFireOnce(t *testing.T) {
	p := newProject(KindInitiative, 2)
	p.Effects = []events.Effect{events.AddFlag(events.FlagDegrowth)}
	p.Start()

	if c := p.Build(2030); c.Completed || len(c.Add) != 0 {
		t.Fatalf("first year: %+v", c)
	}
	c := p.Build(2031)
	if !c.Completed || len(c.Add) != 1 {
		t.Fatalf("second year: %+v", c)
	}
	if c := p.Build(2032); c.Completed || len(c.Add) != 0 {
		t.Fatalf("finished project built again: %+v", c)
	}
}

func TestGradualProjectPhasesIn(t *testing.T) {
	p := newProject(KindInitiative, 4)
	p.Gradual = true
	p.Effects = []events.Effect{
		events.DemandChange(kinds.OutputFuel, -0.4),
		events.AddFlag(events.FlagElectrified),
	}
	p.Start()

	c := p.Build(2030)
	if len(c.Remove) != 0 || len(c.Add) != 1 || !approx(c.Add[0].Value, -0.1) {
		t.Fatalf("year 1: %+v", c)
	}
	c = p.Build(2031)
	if len(c.Remove) != 1 || !approx(c.Remove[0].Value, -0.1) || !approx(c.Add[0].Value, -0.2) {
		t.Fatalf("year 2: %+v", c)
	}
	p.Build(2032)
	c = p.Build(2033)
	if !c.Completed || len(c.Add) != 2 || !approx(c.Add[0].Value, -0.4) {
		t.Fatalf("completion: %+v", c)
	}
}

// netFuelDemand sums the fuel demand change a set of transitions has put
// into play.
func netFuelDemand(changes ...Changes) float64 {
	var net float64
	for _, c := range changes {
		for _, e := range c.Add {
			if e.Kind == events.EffDemand && e.Output == kinds.OutputFuel {
				net += e.Value
			}
		}
		for _, e := range c.Remove {
			if e.Kind == events.EffDemand && e.Output == kinds.OutputFuel {
				net -= e.Value
			}
		}
	}
	return net
}

func TestGradualProjectHaltAndResume(t *testing.T) {
	p := newProject(KindInitiative, 4)
	p.Gradual = true
	p.Effects = []events.Effect{
		events.DemandChange(kinds.OutputFuel, 1),
		events.AddFlag(events.FlagElectrified),
	}

	steps := []struct {
		name     string
		do       func() Changes
		status   Status
		progress float64
		net      float64
	}{
		{"start", p.Start, StatusBuilding, 0, 0},
		{"build", func() Changes { return p.Build(2030) }, StatusBuilding, 0.25, 0.25},
		{"build", func() Changes { return p.Build(2031) }, StatusBuilding, 0.5, 0.5},
		{"halt", p.Stop, StatusHalted, 0.5, 0},
		{"resume", p.Start, StatusBuilding, 0.5, 0.5},
		{"build", func() Changes { return p.Build(2032) }, StatusBuilding, 0.75, 0.75},
		{"halt again", p.Stop, StatusHalted, 0.75, 0},
		{"resume again", p.Start, StatusBuilding, 0.75, 0.75},
		{"complete", func() Changes { return p.Build(2033) }, StatusFinished, 1, 1},
	}

	var history []Changes
	for i, st := range steps {
		history = append(history, st.do())
		if p.Status != st.status || !approx(p.Progress, st.progress) {
			t.Fatalf("step %d (%s): status %s progress %v, want %s %v",
				i, st.name, p.Status, p.Progress, st.status, st.progress)
		}
		if net := netFuelDemand(history...); !approx(net, st.net) {
			t.Fatalf("step %d (%s): net fuel demand change %v, want %v", i, st.name, net, st.net)
		}
	}

	last := history[len(history)-1]
	var flags int
	for _, e := range last.Add {
		if e.Kind == events.EffAddFlag {
			flags++
		}
	}
	if flags != 1 {
		t.Fatalf("completion added the flag %d times, want once", flags)
	}
}

func TestPolicyStartStop(t *testing.T) {
	fan, critic := kinds.IdFor("fan"), kinds.IdFor("critic")
	p := newProject(KindPolicy, 30)
	p.Supporters = []kinds.Id{fan}
	p.Opposers = []kinds.Id{critic}
	p.Effects = []events.Effect{events.ProtectLand(10)}

	c := p.Start()
	if p.Status != StatusActive || len(c.Add) != 1 {
		t.Fatalf("start: status %s changes %+v", p.Status, c)
	}
	if len(c.Relationships) != 2 || c.Relationships[0].Delta != 1 || c.Relationships[1].Delta != -1 {
		t.Fatalf("start relationships = %v", c.Relationships)
	}

	outcome := 0
	p.Outcomes = []Outcome{{Effects: []events.Effect{events.DemandChange(kinds.OutputFuel, 0.1)}}}
	p.ActiveOutcome = &outcome

	c = p.Stop()
	if p.Status != StatusInactive || p.ActiveOutcome != nil {
		t.Fatalf("stop: status %s outcome %v", p.Status, p.ActiveOutcome)
	}
	if len(c.Remove) != 2 {
		t.Fatalf("stop removed %d effects, want policy and outcome effects", len(c.Remove))
	}
	if c.Relationships[0].Delta != -1 || c.Relationships[1].Delta != 1 {
		t.Fatalf("stop relationships = %v", c.Relationships)
	}
}

func TestStopKeepsProgress(t *testing.T) {
	p := newProject(KindResearch, 4)
	p.Start()
	p.Build(2030)
	p.Stop()
	if p.Status != StatusHalted || !approx(p.Progress, 0.25) {
		t.Fatalf("status %s progress %v, want halted at 0.25", p.Status, p.Progress)
	}
	p.Start()
	if p.Status != StatusBuilding || !approx(p.Progress, 0.25) {
		t.Fatalf("restart lost progress: %s %v", p.Status, p.Progress)
	}
}

func TestUpgradeSwapsEffects(t *testing.T) {
	p := newProject(KindPolicy, 10)
	base := events.DemandChange(kinds.OutputElectricity, -0.05)
	better := events.DemandChange(kinds.OutputElectricity, -0.1)
	p.Effects = []events.Effect{base}
	p.Upgrades = []Upgrade{{Cost: 20, Effects: []events.Effect{better}}}
	p.Start()

	c, ok := p.Upgrade()
	if !ok || p.Level != 1 {
		t.Fatalf("upgrade failed")
	}
	if len(c.Remove) != 1 || c.Remove[0] != base || len(c.Add) != 1 || c.Add[0] != better {
		t.Fatalf("upgrade changes = %+v", c)
	}
	if _, ok := p.Upgrade(); ok {
		t.Fatalf("upgraded past the last level")
	}

	c, ok = p.Downgrade()
	if !ok || p.Level != 0 || c.Add[0] != base {
		t.Fatalf("downgrade changes = %+v", c)
	}
	if _, ok := p.Downgrade(); ok {
		t.Fatalf("downgraded below level 0")
	}
}

func TestUpdateCost(t *testing.T) {
	tests := []struct {
		name     string
		cost     Cost
		modifier float64
		want     float64
	}{
		{"fixed", Fixed(12), 1, 12},
		{"fixed with modifier", Fixed(12), 0.5, 6},
		{"time", Dynamic(2, Factor{Kind: FactorTime}), 1, 40},
		{"income", Dynamic(10, Factor{Kind: FactorIncome}), 1, 20},
		{"output", Dynamic(0.5, Factor{Kind: FactorOutput, Output: kinds.OutputFuel}), 1, 50},
	}
	var demand kinds.OutputMap
	demand[kinds.OutputFuel] = 100
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProject(KindResearch, 0)
			p.BaseCost = tt.cost
			p.UpdateCost(2000, 1, demand, tt.modifier)
			if p.Cost != tt.want {
				t.Fatalf("cost = %v, want %v", p.Cost, tt.want)
			}
		})
	}

	p := newProject(KindResearch, 0)
	p.BaseCost = Fixed(10)
	p.CostModifier = 0.5
	p.UpdateCost(2000, 0, demand, 1)
	if p.Cost != 15 {
		t.Fatalf("cost with project modifier = %v, want 15", p.Cost)
	}
}

func TestRollOutcome(t *testing.T) {
	p := newProject(KindResearch, 1)
	p.Outcomes = []Outcome{
		{Probability: events.Probability{
			Likelihood: events.LikelihoodGuaranteed,
			Conditions: []events.Condition{events.HasFlag(events.FlagVegan)},
		}},
		{Probability: events.Probability{Likelihood: events.LikelihoodGuaranteed}},
	}
	if i, ok := p.RollOutcome(holds(false), fixedRNG(0.5)); !ok || i != 1 {
		t.Fatalf("outcome = %d %v, want 1", i, ok)
	}
	if i, ok := p.RollOutcome(holds(true), fixedRNG(0.5)); !ok || i != 0 {
		t.Fatalf("outcome = %d %v, want 0", i, ok)
	}

	p.Outcomes = []Outcome{{Probability: events.Probability{Likelihood: events.LikelihoodImpossible}}}
	if _, ok := p.RollOutcome(holds(true), fixedRNG(0)); ok {
		t.Fatalf("impossible outcome matched")
	}
}
