package engine

import (
	"fmt"
	"math"
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/social"
)

const (
	// MigrationShare of a region's population leaves in a migration wave.
	MigrationShare = 0.1
	// Closed borders halve a migration wave.
	closedBordersFactor = 0.5
)

// ApplyEffects applies effects in order. region is the region a regional
// event fired for, or nil.
func (s *State) ApplyEffects(effects []events.Effect, region *kinds.Id) {
	for _, e := range effects {
		s.Apply(e, region)
	}
}

// Apply puts one effect into play. Effects that need a region do nothing
// without one. Unknown ids panic.
func (s *State) Apply(e events.Effect, region *kinds.Id) {
	switch e.Kind {
	case events.EffGameOver:
		s.GameOver = true
	case events.EffBailOut:
		s.PoliticalCapital = math.Max(0, s.PoliticalCapital) + e.Value
		s.addFlag(events.FlagBailedOut)

	case events.EffWorldVariable:
		s.changeWorld(events.WorldVariable(e.Variable), e.Value)
	case events.EffPlayerVariable:
		s.changePlayer(events.PlayerVariable(e.Variable), e.Value)
	case events.EffRegionHabitability:
		s.changeHabitability(e.Latitude, e.Value)

	case events.EffResource:
		s.Ledger.Adjust(e.Resource, e.Value)
	case events.EffDemand:
		s.DemandModifier[e.Output] += e.Value
	case events.EffDemandAmount:
		s.DemandExtras[e.Output] += e.Value
	case events.EffOutput:
		s.OutputModifier[e.Output] += e.Value
	case events.EffOutputForFeature, events.EffCO2ForFeature, events.EffBiodiversityPressureForFeature:
		s.changeFeature(e, e.Value)
	case events.EffOutputForProcess:
		s.Processes.Get(e.Process).OutputModifier += e.Value
	case events.EffProcessLimit:
		s.changeLimit(e.Process, e.Value)
	case events.EffModifyProcessByproducts:
		s.Processes.Get(e.Process).ByproductModifiers[e.Byproduct] += e.Value
	case events.EffFeedstock:
		s.Ledger.Feedstocks[e.Feedstock] = math.Max(0, s.Ledger.Feedstocks[e.Feedstock]*(1+e.Value))

	case events.EffAddEvent:
		s.Events.Events.Get(e.Event).Locked = false
	case events.EffTriggerEvent:
		s.Events.Queue(e.Event, region, e.Years)
	case events.EffModifyEventProbability:
		s.Events.Events.Get(e.Event).ProbModifier += e.Value

	case events.EffLocksProject:
		s.Projects.Get(e.Project).Locked = true
	case events.EffUnlocksProject:
		s.Projects.Get(e.Project).Locked = false
	case events.EffUnlocksProcess:
		s.Processes.Get(e.Process).Locked = false
	case events.EffUnlocksNPC:
		s.NPCs.Get(e.NPC).Locked = false
	case events.EffProjectCostModifier:
		s.Projects.Get(e.Project).CostModifier += e.Value

	case events.EffProjectRequest:
		p := s.Projects.Get(e.Project)
		s.Requests = append(s.Requests, Request{Kind: RequestProject, ID: p.ID, Active: e.Active, Bounty: e.Bounty})
	case events.EffProcessRequest:
		p := s.Processes.Get(e.Process)
		s.Requests = append(s.Requests, Request{Kind: RequestProcess, ID: p.ID, Active: e.Active, Bounty: e.Bounty})

	case events.EffMigration:
		if region != nil {
			s.migrate(*region)
		}
	case events.EffRegionLeave:
		if region != nil {
			r := s.Regions.Get(*region)
			r.Seceded = true
			s.emit(LogEntry{Description: r.Name + " seceded", Category: "region"})
		}
	case events.EffAddRegionFlag:
		if region != nil {
			r := s.Regions.Get(*region)
			if !r.HasFlag(e.Flag) {
				r.Flags = append(r.Flags, e.Flag)
			}
		}
	case events.EffAddFlag:
		s.addFlag(events.Flag(e.Flag))
	case events.EffNPCRelationship:
		s.NPCs.Get(e.NPC).Adjust(e.Value)
	case events.EffProtectLand:
		s.ProtectedLand += e.Value / 100

	default:
		panic(fmt.Sprintf("engine: unknown effect kind %q", e.Kind))
	}
}

// Unapply takes back a reversible effect, for policies that stop and
// projects that downgrade. Irreversible effects are left in place.
func (s *State) Unapply(e events.Effect, region *kinds.Id) {
	if !e.Reversible() {
		return
	}
	switch e.Kind {
	case events.EffFeedstock:
		if f := 1 + e.Value; f != 0 {
			s.Ledger.Feedstocks[e.Feedstock] /= f
		}
	case events.EffAddFlag:
		if i := slices.Index(s.Flags, events.Flag(e.Flag)); i >= 0 {
			s.Flags = slices.Delete(s.Flags, i, i+1)
		}
	case events.EffLocksProject:
		s.Projects.Get(e.Project).Locked = false
	case events.EffUnlocksProject:
		s.Projects.Get(e.Project).Locked = true
	case events.EffUnlocksProcess:
		s.Processes.Get(e.Process).Locked = true
	case events.EffUnlocksNPC:
		s.NPCs.Get(e.NPC).Locked = true
	default:
		// Every other reversible effect is additive in Value.
		s.Apply(e.Scale(-1), region)
	}
}

// addFlag sets a flag. Flags stack, so each removal undoes one setting.
func (s *State) addFlag(f events.Flag) {
	s.Flags = append(s.Flags, f)
}

func (s *State) changeWorld(v events.WorldVariable, change float64) {
	switch v {
	case events.WorldYear:
		s.Year += int(change)
	case events.WorldPopulation:
		s.changePopulation(change)
	case events.WorldPopulationGrowth:
		s.GrowthModifier += change / 100
	case events.WorldEmissions:
		// Takes effect on this year's figure at once.
		s.ByproductModifier[kinds.ByproductCO2] += change
		s.Byproducts[kinds.ByproductCO2] += change
		s.Emissions.Annual[kinds.ByproductCO2] += change
	case events.WorldExtinctionRate:
		s.ByproductModifier[kinds.ByproductBiodiversity] += change
	case events.WorldOutlook:
		s.BaseOutlook += change
		s.checkGameOver()
	case events.WorldTemperature:
		s.TemperatureOffset += change
	case events.WorldWaterStress:
		s.WaterStress += change
	case events.WorldSeaLevelRise:
		s.SeaLevelRise += change
	case events.WorldPrecipitation:
		s.Precipitation += change
	default:
		panic(fmt.Sprintf("engine: unknown world variable %q", string(v)))
	}
}

func (s *State) changePlayer(v events.PlayerVariable, change float64) {
	switch v {
	case events.PlayerPoliticalCapital:
		s.PoliticalCapital += change
	case events.PlayerResearchPoints:
		s.ResearchPoints = max(0, s.ResearchPoints+int(change))
	case events.PlayerYearsToDeath:
		s.DeathYear += int(change)
	default:
		panic(fmt.Sprintf("engine: unknown player variable %q", string(v)))
	}
}

func (s *State) changeHabitability(latitude string, change float64) {
	for _, r := range s.Regions.All() {
		if string(r.Latitude) == latitude {
			r.BaseHabitability += change
		}
	}
}

// changePopulation spreads an absolute change, in millions, evenly over
// the regions that have not seceded.
func (s *State) changePopulation(change float64) {
	regions := s.activeRegions()
	if len(regions) == 0 {
		return
	}
	per := change / float64(len(regions))
	for _, r := range regions {
		r.Population = math.Max(0, r.Population+per)
	}
}

func (s *State) changeFeature(e events.Effect, change float64) {
	for _, p := range s.Processes.All() {
		if !p.HasFeature(e.Feature) {
			continue
		}
		switch e.Kind {
		case events.EffOutputForFeature:
			p.OutputModifier += change
		case events.EffCO2ForFeature:
			p.ByproductModifiers[kinds.ByproductCO2] += change
		case events.EffBiodiversityPressureForFeature:
			p.ByproductModifiers[kinds.ByproductBiodiversity] += change
		}
	}
}

// changeLimit moves a process's limit. A process without a limit has none
// to move.
func (s *State) changeLimit(id kinds.Id, change float64) {
	p := s.Processes.Get(id)
	if p.Limit == nil {
		return
	}
	limit := *p.Limit + change
	p.Limit = &limit
}

// migrate moves a share of the region's population to the regions more
// habitable than average.
func (s *State) migrate(id kinds.Id) {
	from := s.Regions.Get(id)
	share := MigrationShare
	if s.HasFlag(events.FlagClosedBorders) {
		share *= closedBordersFactor
	}

	mean := s.MeanHabitability()
	var targets []*social.Region
	for _, r := range s.activeRegions() {
		if r.ID != id && r.Habitability() > mean {
			targets = append(targets, r)
		}
	}
	if len(targets) == 0 {
		return
	}

	leaving := from.Population * share
	from.Population -= leaving
	per := leaving / float64(len(targets))
	for _, r := range targets {
		r.Population += per
	}
	s.emit(LogEntry{
		Description: fmt.Sprintf("%.0f million people left %s", leaving, from.Name),
		Category:    "region",
		Meta:        map[string]any{"region": id.String(), "migrants": leaving},
	})
}
