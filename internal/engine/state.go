// Package engine steps the simulation one year at a time. State is the
// aggregate root: it owns the regions, processes, projects, factions and
// event pool, evaluates conditions against itself and applies effects.
package engine

import (
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/resources"
	"github.com/talgya/halfearth/internal/social"
	"github.com/talgya/halfearth/internal/world"
)

// MaxLogEntries bounds the in-memory log of notable occurrences.
const MaxLogEntries = 200

// LogEntry is a notable occurrence kept for readers and persistence.
type LogEntry struct {
	Year        int            `json:"year"`
	Description string         `json:"description"`
	Category    string         `json:"category"` // "event", "project", "region", "request", "player"
	Meta        map[string]any `json:"meta,omitempty"`
}

// Emissions holds this year's greenhouse gases and the running totals, in Gt.
type Emissions struct {
	Annual     kinds.ByproductMap `json:"annual"`
	Cumulative kinds.ByproductMap `json:"cumulative"`
}

// CO2eq is this year's emissions in Gt CO2-equivalent.
func (e Emissions) CO2eq() float64 {
	return e.Annual.CO2eq()
}

// State is everything the stepper reads and writes.
type State struct {
	Year      int  `json:"year"`
	DeathYear int  `json:"death_year"`
	Runs      int  `json:"runs"`
	GameOver  bool `json:"game_over"`

	Regions   kinds.Collection[*social.Region]      `json:"regions"`
	Processes kinds.Collection[*production.Process] `json:"processes"`
	Projects  kinds.Collection[*projects.Project]   `json:"projects"`
	NPCs      kinds.Collection[*social.NPC]         `json:"npcs"`
	Events    *events.Pool                          `json:"events"`
	Flags     []events.Flag                         `json:"flags"`
	Requests  []Request                             `json:"requests"`
	// Pending are fired events whose choices await the player.
	Pending []events.Fired `json:"pending,omitempty"`
	Log     []LogEntry     `json:"log,omitempty"`

	// Reference tables, read-only after construction.
	PerCapitaDemand  [social.NumIncomes]kinds.OutputMap `json:"per_capita_demand"`
	PopulationGrowth [social.NumIncomes]float64         `json:"population_growth"`

	Ledger     *resources.Ledger            `json:"ledger"`
	Extraction *resources.ExtractionManager `json:"extraction"`

	// Modifiers set by effects. Fractional modifiers apply as 1+x.
	DemandModifier    kinds.OutputMap    `json:"demand_modifier"`
	DemandExtras      kinds.OutputMap    `json:"demand_extras"`
	OutputModifier    kinds.OutputMap    `json:"output_modifier"`
	ByproductModifier kinds.ByproductMap `json:"byproduct_modifier"` // absolute, Gt
	GrowthModifier    float64            `json:"growth_modifier"`
	TemperatureOffset float64            `json:"temperature_offset"`

	// Per-cycle results.
	OutputDemand       kinds.OutputMap      `json:"output_demand"`
	Produced           kinds.OutputMap      `json:"produced"`
	ProducedByProcess  map[kinds.Id]float64 `json:"produced_by_process"`
	RequiredResources  kinds.ResourceMap    `json:"required_resources"`
	RequiredFeedstocks kinds.FeedstockMap   `json:"required_feedstocks"`
	ConsumedResources  kinds.ResourceMap    `json:"consumed_resources"`
	ConsumedFeedstocks kinds.FeedstockMap   `json:"consumed_feedstocks"`
	Byproducts         kinds.ByproductMap   `json:"byproducts"`
	Emissions          Emissions            `json:"emissions"`
	ShortageOutlook    float64              `json:"shortage_outlook"`

	Temperature    float64 `json:"temperature"`
	SeaLevelRise   float64 `json:"sea_level_rise"`
	Precipitation  float64 `json:"precipitation"`
	WaterStress    float64 `json:"water_stress"`
	ExtinctionRate float64 `json:"extinction_rate"`
	BaseOutlook    float64 `json:"base_outlook"`
	ProtectedLand  float64 `json:"protected_land"`

	PoliticalCapital float64 `json:"political_capital"`
	ResearchPoints   int     `json:"research_points"`
}

// NewState builds a state from a world. The world is cloned, so one World
// can seed any number of runs. Demand and production are computed once so
// readers see a populated state, and extraction is seeded so that the
// first year's feedstock requirement can be met.
func NewState(w *world.World) *State {
	w = w.Clone()
	s := &State{
		Year:             w.Year,
		DeathYear:        w.DeathYear,
		Regions:          kinds.NewCollection(w.Regions...),
		Processes:        kinds.NewCollection(w.Processes...),
		Projects:         kinds.NewCollection(w.Projects...),
		NPCs:             kinds.NewCollection(w.NPCs...),
		Events:           events.NewPool(w.Events...),
		PerCapitaDemand:  w.PerCapitaDemand,
		PopulationGrowth: w.PopulationGrowth,
		Ledger:           resources.NewLedger(w.BaseResources, w.FeedstockStock),
		Extraction:       resources.NewExtractionManager(w.ExtractionRates, w.FeedstockReserves),
		Temperature:      w.Temperature,
		SeaLevelRise:     w.SeaLevelRise,
		Precipitation:    w.Precipitation,
		WaterStress:      w.WaterStress,
		ExtinctionRate:   w.ExtinctionRate,
		BaseOutlook:      w.BaseOutlook,
		ProtectedLand:    w.ProtectedLand,
		PoliticalCapital: w.PoliticalCapital,
		ResearchPoints:   w.ResearchPoints,
	}

	s.updateDemand()
	_, required := production.CalculateRequired(s.orders())
	for i, want := range required {
		f := kinds.Feedstock(i)
		if f.Exempt() || want <= 0 {
			continue
		}
		if s.Extraction.Rates[i] == 0 {
			s.Extraction.Rates[i] = want
		}
		if s.Ledger.Feedstocks[i] < want {
			take := min(want-s.Ledger.Feedstocks[i], s.Extraction.Reserves[i])
			s.Extraction.Reserves[i] -= take
			s.Ledger.Feedstocks[i] += take
		}
	}
	s.Ledger.Regenerate(s.ProtectedLand)
	s.produce()
	s.updateProjectCosts()
	return s
}

// DefaultState builds a state from the default generated world.
func DefaultState() *State {
	return NewState(world.Generate(world.DefaultGenConfig()))
}

// HasFlag reports whether a planet-wide flag is set.
func (s *State) HasFlag(f events.Flag) bool {
	return slices.Contains(s.Flags, f)
}

// Population is the population of regions that have not seceded, in millions.
func (s *State) Population() float64 {
	var total float64
	for _, r := range s.activeRegions() {
		total += r.Population
	}
	return total
}

// Outlook is the planet-wide mood: base outlook plus the mean regional
// outlook, less any penalty for unmet demand.
func (s *State) Outlook() float64 {
	regions := s.activeRegions()
	if len(regions) == 0 {
		return s.BaseOutlook - s.ShortageOutlook
	}
	var sum float64
	for _, r := range regions {
		sum += r.Outlook
	}
	return s.BaseOutlook + sum/float64(len(regions)) - s.ShortageOutlook
}

// MeanHabitability averages habitability over regions that have not seceded.
func (s *State) MeanHabitability() float64 {
	regions := s.activeRegions()
	if len(regions) == 0 {
		return 0
	}
	var sum float64
	for _, r := range regions {
		sum += r.Habitability()
	}
	return sum / float64(len(regions))
}

// MeanIncome averages adjusted income over regions that have not seceded.
func (s *State) MeanIncome() float64 {
	regions := s.activeRegions()
	if len(regions) == 0 {
		return 0
	}
	var sum float64
	for _, r := range regions {
		sum += r.AdjustedIncome()
	}
	return sum / float64(len(regions))
}

// IsPlanningYear reports whether the player gets a planning session.
func (s *State) IsPlanningYear() bool {
	return s.Year%PlanningInterval == 0
}

func (s *State) activeRegions() []*social.Region {
	var out []*social.Region
	for _, r := range s.Regions.All() {
		if !r.Seceded {
			out = append(out, r)
		}
	}
	return out
}

func (s *State) regionIDs() []kinds.Id {
	regions := s.activeRegions()
	ids := make([]kinds.Id, 0, len(regions))
	for _, r := range regions {
		ids = append(ids, r.ID)
	}
	return ids
}

func (s *State) emit(e LogEntry) {
	e.Year = s.Year
	s.Log = append(s.Log, e)
	if n := len(s.Log) - MaxLogEntries; n > 0 {
		s.Log = slices.Delete(s.Log, 0, n)
	}
}
