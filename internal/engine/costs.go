package engine

import (
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/projects"
)

// metalsShortageFactor raises every build cost while metals are short and
// deep-sea mining is not making up for it.
const metalsShortageFactor = 1.2

// allyDiscount is what an allied faction knocks off the projects it cares
// about.
type allyDiscount struct {
	npc    kinds.Id
	groups []projects.Group
	factor float64
}

var allyDiscounts = []allyDiscount{
	{kinds.IdFor("Green Coalition"), []projects.Group{projects.GroupProtection, projects.GroupRestoration}, 0.75},
	{kinds.IdFor("Technocrats"), []projects.Group{projects.GroupNuclear, projects.GroupSpace}, 0.5},
	{kinds.IdFor("Agrarian League"), []projects.Group{projects.GroupAgriculture, projects.GroupFood}, 0.75},
	{kinds.IdFor("Labor Federation"), []projects.Group{projects.GroupElectrification}, 0.9},
	{kinds.IdFor("Industry Council"), []projects.Group{projects.GroupEnergy}, 0.75},
}

// updateProjectCosts refreshes every project's cost and the majority it
// needs to pass.
func (s *State) updateProjectCosts() {
	base := 1.0
	if s.HasFlag(events.FlagMetalsShortage) && !s.HasFlag(events.FlagDeepSeaMining) {
		base *= metalsShortageFactor
	}
	if s.HasFlag(events.FlagLaborResistance) {
		base *= 1.05
	}

	income := s.MeanIncome()
	for _, p := range s.Projects.All() {
		mod := 1.0
		if p.Kind != projects.KindPolicy {
			mod = s.groupModifier(p.Group) * base
		}
		p.UpdateCost(s.Year, income, s.OutputDemand, mod)
		p.RequiredMajority = s.requiredMajority(p)
	}
}

func (s *State) groupModifier(g projects.Group) float64 {
	mod := 1.0
	if g == projects.GroupRestoration && s.HasFlag(events.FlagEcosystemModeling) {
		mod *= 0.9
	}
	for _, d := range allyDiscounts {
		if !slices.Contains(d.groups, g) {
			continue
		}
		if n, ok := s.NPCs.TryGet(d.npc); ok && !n.Locked && n.IsAlly() {
			mod *= d.factor
		}
	}
	return mod
}
