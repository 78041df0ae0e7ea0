package engine

import (
	"fmt"
	"math"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
)

// Holds reports whether every condition holds. An empty list holds.
// Regional conditions are false without a region.
func (s *State) Holds(conds []events.Condition, region *kinds.Id) bool {
	for _, c := range conds {
		if !s.holds(c, region) {
			return false
		}
	}
	return true
}

func (s *State) holds(c events.Condition, region *kinds.Id) bool {
	switch c.Kind {
	case events.CondAll:
		return s.Holds(c.Conditions, region)
	case events.CondAny:
		for _, sub := range c.Conditions {
			if s.holds(sub, region) {
				return true
			}
		}
		return false

	case events.CondLocalVariable:
		if region == nil {
			return false
		}
		r := s.Regions.Get(*region)
		var v float64
		switch events.LocalVariable(c.Variable) {
		case events.LocalPopulation:
			v = r.Population
		case events.LocalOutlook:
			v = r.Outlook
		case events.LocalHabitability:
			v = r.Habitability()
		default:
			panic(fmt.Sprintf("engine: unknown local variable %q", c.Variable))
		}
		return c.Comparator.Eval(v, c.Value)
	case events.CondRegionFlag:
		if region == nil {
			return false
		}
		return s.Regions.Get(*region).HasFlag(c.Flag)

	case events.CondWorldVariable:
		return c.Comparator.Eval(s.worldVariable(events.WorldVariable(c.Variable)), c.Value)
	case events.CondPlayerVariable:
		var v float64
		switch events.PlayerVariable(c.Variable) {
		case events.PlayerPoliticalCapital:
			v = s.PoliticalCapital
		case events.PlayerResearchPoints:
			v = float64(s.ResearchPoints)
		case events.PlayerYearsToDeath:
			v = float64(s.DeathYear - s.Year)
		default:
			panic(fmt.Sprintf("engine: unknown player variable %q", c.Variable))
		}
		return c.Comparator.Eval(v, c.Value)

	case events.CondProcessOutput:
		s.Processes.Get(c.Process) // unknown processes panic
		return c.Comparator.Eval(s.ProducedByProcess[c.Process], c.Value)
	case events.CondProcessMixShare:
		return c.Comparator.Eval(s.Processes.Get(c.Process).MixPercent(), c.Value)
	case events.CondProcessMixShareFeature:
		var share float64
		for _, p := range s.Processes.All() {
			if p.HasFeature(c.Feature) {
				share += p.MixPercent()
			}
		}
		return c.Comparator.Eval(share, c.Value)

	case events.CondResourcePressure:
		v := production.ScarcityWeight(s.RequiredResources[c.Resource], s.Ledger.Available[c.Resource])
		return c.Comparator.Eval(v, c.Value)
	case events.CondResourceDemandGap:
		avail, want := s.Ledger.Available[c.Resource], s.RequiredResources[c.Resource]
		return c.Comparator.Eval(ratio(avail-want, want), c.Value)
	case events.CondOutputDemandGap:
		var gap float64
		if d := s.OutputDemand[c.Output]; d > 0 {
			gap = 1 - math.Min(s.Produced[c.Output]/d, 1)
		}
		return c.Comparator.Eval(gap, c.Value)
	case events.CondDemand:
		return c.Comparator.Eval(s.OutputDemand[c.Output], c.Value)
	case events.CondFeedstockYears:
		years := s.Extraction.YearsLeft(c.Feedstock, s.ConsumedFeedstocks[c.Feedstock])
		return c.Comparator.Eval(years, c.Value)

	case events.CondProjectStatus:
		p := s.Projects.Get(c.Project)
		switch want := projects.Status(c.Status); want {
		case projects.StatusActive, projects.StatusFinished:
			return p.InEffect()
		default:
			return p.Status == want
		}
	case events.CondActiveProjectUpgrades:
		return c.Comparator.Eval(float64(s.Projects.Get(c.Project).Level), c.Value)
	case events.CondHeavyProjects:
		var n int
		for _, p := range s.Projects.All() {
			if p.Status == projects.StatusFinished && p.IsHeavy() {
				n++
			}
		}
		return c.Comparator.Eval(float64(n), c.Value)
	case events.CondProtectLand:
		return c.Comparator.Eval(s.ProtectedLand, c.Value)

	case events.CondRunsPlayed:
		return c.Comparator.Eval(float64(s.Runs), c.Value)
	case events.CondNPCRelationship:
		return string(s.NPCs.Get(c.NPC).Relation()) == c.Relation
	case events.CondHasFlag:
		return s.HasFlag(events.Flag(c.Flag))
	case events.CondWithoutFlag:
		return !s.HasFlag(events.Flag(c.Flag))
	}
	panic(fmt.Sprintf("engine: unknown condition kind %q", c.Kind))
}

func (s *State) worldVariable(v events.WorldVariable) float64 {
	switch v {
	case events.WorldYear:
		return float64(s.Year)
	case events.WorldPopulation:
		return s.Population()
	case events.WorldPopulationGrowth:
		return s.GrowthModifier
	case events.WorldEmissions:
		return s.Emissions.CO2eq()
	case events.WorldExtinctionRate:
		return s.ExtinctionRate
	case events.WorldOutlook:
		return s.Outlook()
	case events.WorldTemperature:
		return s.GlobalTemperature()
	case events.WorldWaterStress:
		return s.WaterStress
	case events.WorldSeaLevelRise:
		return s.SeaLevelRise
	case events.WorldPrecipitation:
		return s.Precipitation
	}
	panic(fmt.Sprintf("engine: unknown world variable %q", string(v)))
}

// ratio is a/b, or zero when b is zero.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
