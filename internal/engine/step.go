package engine

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
)

const (
	// Share of animal calorie demand moved to plants by diet flags.
	vegetarianShift = 0.75
	veganShift      = 0.9

	// Share of fuel demand moved to electricity when electrified.
	electrifiedShift = 0.5

	// ShortagePenalty is the outlook lost when no demand at all is met.
	ShortagePenalty = 10.0

	// Warming per Gt CO2eq emitted in a year, less what sinks absorb.
	climateSensitivity = 0.0006
	carbonSink         = 0.008

	seaLevelPerDegree   = 0.004
	extinctionPerDegree = 5.0
	heatOutlookPenalty  = 5.0
	outlookRebound      = 0.1
	fastDevelopment     = 2.0
)

// Report is the outcome of one Step.
type Report struct {
	Year        int                `json:"year"`
	Completed   []kinds.Id         `json:"completed"`
	Outcomes    []kinds.Id         `json:"outcomes"`
	Events      []events.Fired     `json:"events"`
	Shifts      []production.Shift `json:"shifts"`
	RegionsUp   []kinds.Id         `json:"regions_up"`
	RegionsDown []kinds.Id         `json:"regions_down"`
	Fulfilled   []Request          `json:"fulfilled"`

	Demand         kinds.OutputMap `json:"demand"`
	Produced       kinds.OutputMap `json:"produced"`
	Emissions      float64         `json:"emissions"` // Gt CO2eq
	Temperature    float64         `json:"temperature"`
	ExtinctionRate float64         `json:"extinction_rate"`
	Outlook        float64         `json:"outlook"`
	Population     float64         `json:"population"`
	GameOver       bool            `json:"game_over"`
}

// change is one collected effect, applied at the end of the cycle.
type change struct {
	effect events.Effect
	region *kinds.Id
	remove bool
}

// Step simulates one year. Production, extraction and mix reallocation
// happen first; project progress, project outcomes and events only
// collect their effects, which are applied together at the end so none
// of them observes another's result within the cycle.
func (s *State) Step(rng events.RNG) Report {
	year := s.Year
	s.updateProjectCosts()

	// Demand, production and emissions.
	s.updateDemand()
	s.Ledger.Regenerate(s.ProtectedLand)
	available, stock := s.Ledger.Available, s.Ledger.Feedstocks
	s.produce()
	s.Emissions.Cumulative = s.Emissions.Cumulative.Add(s.Emissions.Annual)

	// Draw down the ledger, then refill feedstocks from reserves.
	s.consume()

	// Shift mixes away from scarce inputs.
	rw := production.ResourceWeights(s.RequiredResources, available)
	fw := production.FeedstockWeights(s.RequiredFeedstocks, stock)
	shifts := production.UpdateMixes(s.Processes.All(), s.OutputDemand, rw, fw)
	for _, sh := range shifts {
		slog.Debug("mix shift",
			"year", year,
			"output", sh.Output,
			"from", s.Processes.Get(sh.From).Name,
			"to", s.Processes.Get(sh.To).Name)
	}

	var batch []change
	completed := s.buildProjects(&batch)
	outcomes := s.rollOutcomes(rng, &batch)

	fired := s.Events.Roll(s, s.regionIDs(), rng)
	for _, f := range fired {
		ev := s.Events.Events.Get(f.Event)
		for _, e := range ev.Effects {
			batch = append(batch, change{effect: e, region: f.Region})
		}
		if len(ev.Choices) > 0 {
			s.addPending(f)
		}
		slog.Debug("event fired", "year", year, "event", ev.Name, "queued", f.Queued)
		s.emit(LogEntry{
			Description: ev.Name,
			Category:    "event",
			Meta:        map[string]any{"event": f.Event.String(), "regional": f.Region != nil},
		})
	}

	s.applyBatch(batch)

	up, down := s.stepWorld()
	fulfilled := s.CheckRequests()
	s.Year++
	if s.Year >= s.DeathYear {
		s.GameOver = true
	}

	r := Report{
		Year:           year,
		Completed:      completed,
		Outcomes:       outcomes,
		Events:         fired,
		Shifts:         shifts,
		RegionsUp:      up,
		RegionsDown:    down,
		Fulfilled:      fulfilled,
		Demand:         s.OutputDemand,
		Produced:       s.Produced,
		Emissions:      s.Emissions.CO2eq(),
		Temperature:    s.GlobalTemperature(),
		ExtinctionRate: s.ExtinctionRate,
		Outlook:        s.Outlook(),
		Population:     s.Population(),
		GameOver:       s.GameOver,
	}
	slog.Info("yearly report",
		"year", year,
		"population", math.Round(r.Population),
		"emissions", fmt.Sprintf("%.1f", r.Emissions),
		"temperature", fmt.Sprintf("%.2f", r.Temperature),
		"extinction", fmt.Sprintf("%.1f", r.ExtinctionRate),
		"outlook", fmt.Sprintf("%.2f", r.Outlook),
		"events", len(fired),
		"completed", len(completed),
	)
	return r
}

// GlobalTemperature is warming above preindustrial, including any offset
// from geoengineering.
func (s *State) GlobalTemperature() float64 {
	return s.Temperature + s.TemperatureOffset
}

// updateDemand aggregates regional demand, applies diet and electrification
// flags and the demand modifiers, then adds the fuel and electricity the
// processes themselves need to meet it.
func (s *State) updateDemand() {
	var demand kinds.OutputMap
	for _, r := range s.activeRegions() {
		demand = demand.Add(r.Demand(s.PerCapitaDemand))
	}

	if s.HasFlag(events.FlagElectrified) {
		moved := demand[kinds.OutputFuel] * electrifiedShift
		demand[kinds.OutputFuel] -= moved
		demand[kinds.OutputElectricity] += moved
	}
	var diet float64
	switch {
	case s.HasFlag(events.FlagVegan):
		diet = veganShift
	case s.HasFlag(events.FlagVegetarian):
		diet = vegetarianShift
	}
	moved := demand[kinds.OutputAnimalCalories] * diet
	demand[kinds.OutputAnimalCalories] -= moved
	demand[kinds.OutputPlantCalories] += moved

	for i := range demand {
		demand[i] = math.Max(0, (demand[i]+s.DemandExtras[i])*(1+s.DemandModifier[i]))
	}
	s.OutputDemand = demand

	required, _ := production.CalculateRequired(s.orders())
	s.OutputDemand[kinds.OutputFuel] += required[kinds.ResourceFuel]
	s.OutputDemand[kinds.OutputElectricity] += required[kinds.ResourceElectricity]
}

func (s *State) orders() []production.Order {
	return production.Orders(s.Processes.All(), s.OutputDemand)
}

// produce runs the planner against the ledger without drawing it down.
func (s *State) produce() {
	orders := s.orders()
	res := production.Produce(orders, s.Ledger.Available, s.Ledger.Feedstocks)
	s.RequiredResources, s.RequiredFeedstocks = production.CalculateRequired(orders)

	s.ProducedByProcess = res.ByProcess
	for i, v := range res.ByOutput {
		s.Produced[i] = math.Max(0, v*(1+s.OutputModifier[i]))
	}
	s.ConsumedResources = res.Resources
	s.ConsumedFeedstocks = res.Feedstocks

	s.Byproducts = res.Byproducts.Add(s.ByproductModifier)
	s.Emissions.Annual = s.Byproducts
	s.Emissions.Annual[kinds.ByproductBiodiversity] = 0

	var met float64
	for i, d := range s.OutputDemand {
		if d <= 0 {
			met++
			continue
		}
		met += math.Min(1, s.Produced[i]/d)
	}
	met /= kinds.NumOutputs
	s.ShortageOutlook = math.Max(0, ShortagePenalty*(1-met))
}

// consume draws this year's use from the ledger. The part of fuel and
// electricity production that served the processes themselves flows back
// as next year's supply. Extraction then follows the feedstock requirement.
func (s *State) consume() {
	s.Ledger.Consume(s.ConsumedResources)
	s.Ledger.ConsumeFeedstocks(s.ConsumedFeedstocks)

	for _, pair := range []struct {
		r kinds.Resource
		o kinds.Output
	}{
		{kinds.ResourceFuel, kinds.OutputFuel},
		{kinds.ResourceElectricity, kinds.OutputElectricity},
	} {
		r, o := pair.r, pair.o
		if d := s.OutputDemand[o]; d > 0 {
			share := math.Min(1, s.RequiredResources[r]/d)
			s.Ledger.Replenish(r, s.Produced[o]*share)
		}
	}

	s.Extraction.Adjust(s.RequiredFeedstocks)
	s.Ledger.AddFeedstocks(s.Extraction.Extract())
}

// buildProjects advances every building project and collects the changes.
// It returns the projects that completed.
func (s *State) buildProjects(batch *[]change) []kinds.Id {
	var completed []kinds.Id
	for _, p := range s.Projects.All() {
		if p.Status != projects.StatusBuilding {
			continue
		}
		c := p.Build(s.Year)
		s.collect(batch, c)
		if c.Completed {
			completed = append(completed, p.ID)
			s.emit(LogEntry{
				Description: p.Name + " completed",
				Category:    "project",
				Meta:        map[string]any{"project": p.ID.String()},
			})
		}
	}
	return completed
}

// rollOutcomes rolls outcomes for every project in effect that has not
// matched one yet, including those completed this cycle. A project keeps
// the first outcome it matches.
func (s *State) rollOutcomes(rng events.RNG, batch *[]change) []kinds.Id {
	var matched []kinds.Id
	for _, p := range s.Projects.All() {
		if len(p.Outcomes) == 0 || p.ActiveOutcome != nil || !p.InEffect() {
			continue
		}
		i, ok := p.RollOutcome(s, rng)
		if !ok {
			continue
		}
		p.ActiveOutcome = &i
		for _, e := range p.Outcomes[i].Effects {
			*batch = append(*batch, change{effect: e})
		}
		matched = append(matched, p.ID)
	}
	return matched
}

func (s *State) collect(batch *[]change, c projects.Changes) {
	for _, e := range c.Remove {
		*batch = append(*batch, change{effect: e, remove: true})
	}
	for _, e := range c.Add {
		*batch = append(*batch, change{effect: e})
	}
	for _, rc := range c.Relationships {
		*batch = append(*batch, change{effect: events.NPCChange(rc.NPC, rc.Delta)})
	}
}

func (s *State) applyBatch(batch []change) {
	for _, c := range batch {
		if c.remove {
			s.Unapply(c.effect, c.region)
		} else {
			s.Apply(c.effect, c.region)
		}
	}
}

// stepWorld grows and develops the regions and moves the climate and
// biosphere on by a year. It returns the regions that changed income tier.
func (s *State) stepWorld() (up, down []kinds.Id) {
	stop := s.HasFlag(events.FlagStopDevelopment)
	degrow := s.HasFlag(events.FlagDegrowth)
	speed := 1.0
	if s.HasFlag(events.FlagFastDevelopment) {
		speed = fastDevelopment
	}

	warming := s.Emissions.CO2eq()*climateSensitivity - carbonSink
	s.Temperature += warming
	temp := s.GlobalTemperature()

	for _, r := range s.activeRegions() {
		r.UpdatePopulation(s.PopulationGrowth, 1+s.GrowthModifier)
		before, after := r.Develop(speed, stop, degrow)
		switch {
		case after > before:
			up = append(up, r.ID)
			s.emit(LogEntry{Description: r.Name + " developed to " + after.String(), Category: "region"})
		case after < before:
			down = append(down, r.ID)
			s.emit(LogEntry{Description: r.Name + " fell to " + after.String(), Category: "region"})
		}
		r.TempHi += warming
		r.TempLo += warming
		r.UpdateOutlook(outlookRebound)
		r.Outlook -= math.Max(0, warming) * heatOutlookPenalty
	}

	s.SeaLevelRise += math.Max(0, temp-1) * seaLevelPerDegree
	pressure := s.Byproducts[kinds.ByproductBiodiversity] * (1.1 - s.ProtectedLand)
	s.ExtinctionRate = math.Max(0, pressure+math.Max(0, temp-1)*extinctionPerDegree)
	if base := s.Ledger.Base[kinds.ResourceWater]; base > 0 {
		s.WaterStress = s.RequiredResources[kinds.ResourceWater] / base
	}
	s.checkGameOver()
	return up, down
}

func (s *State) checkGameOver() {
	if s.Outlook() < 0 {
		s.GameOver = true
	}
}
