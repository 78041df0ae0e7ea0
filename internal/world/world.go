// Package world holds the starting configuration of a simulation: the
// regions, processes, projects, events and factions, plus the read-only
// reference tables the stepper consults each year.
package world

import (
	"encoding/json"
	"fmt"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/social"
)

// World is everything a new State is built from.
type World struct {
	Year      int `json:"year" yaml:"year"`
	DeathYear int `json:"death_year" yaml:"death_year"`

	Regions   []*social.Region      `json:"regions" yaml:"regions"`
	Processes []*production.Process `json:"processes" yaml:"processes"`
	Projects  []*projects.Project   `json:"projects" yaml:"projects"`
	Events    []*events.Event       `json:"events" yaml:"events"`
	NPCs      []*social.NPC         `json:"npcs" yaml:"npcs"`

	// Land and water regenerate to these levels each year.
	BaseResources kinds.ResourceMap `json:"base_resources" yaml:"base_resources"`
	// Feedstocks on hand, and still in the ground.
	FeedstockStock    kinds.FeedstockMap `json:"feedstock_stock" yaml:"feedstock_stock"`
	FeedstockReserves kinds.FeedstockMap `json:"feedstock_reserves" yaml:"feedstock_reserves"`
	// Starting extraction rates. A zero rate is seeded from the first
	// year's requirement.
	ExtractionRates kinds.FeedstockMap `json:"extraction_rates" yaml:"extraction_rates"`

	// Demand per million people at each income tier.
	PerCapitaDemand [social.NumIncomes]kinds.OutputMap `json:"per_capita_demand" yaml:"per_capita_demand"`
	// Annual population growth at each income tier.
	PopulationGrowth [social.NumIncomes]float64 `json:"population_growth" yaml:"population_growth"`

	Temperature      float64 `json:"temperature" yaml:"temperature"` // °C above preindustrial
	SeaLevelRise     float64 `json:"sea_level_rise" yaml:"sea_level_rise"`
	Precipitation    float64 `json:"precipitation" yaml:"precipitation"`
	WaterStress      float64 `json:"water_stress" yaml:"water_stress"`
	ExtinctionRate   float64 `json:"extinction_rate" yaml:"extinction_rate"`
	BaseOutlook      float64 `json:"base_outlook" yaml:"base_outlook"`
	ProtectedLand    float64 `json:"protected_land" yaml:"protected_land"` // fraction
	PoliticalCapital float64 `json:"political_capital" yaml:"political_capital"`
	ResearchPoints   int     `json:"research_points" yaml:"research_points"`
}

// Population is the sum over regions that have not seceded.
func (w *World) Population() float64 {
	var total float64
	for _, r := range w.Regions {
		if !r.Seceded {
			total += r.Population
		}
	}
	return total
}

// Clone returns a deep copy, so one World can seed many States.
func (w *World) Clone() *World {
	b, err := json.Marshal(w)
	if err != nil {
		panic(fmt.Sprintf("world: clone: %v", err))
	}
	var out World
	if err := json.Unmarshal(b, &out); err != nil {
		panic(fmt.Sprintf("world: clone: %v", err))
	}
	return &out
}
