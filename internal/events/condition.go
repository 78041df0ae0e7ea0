// Package events defines the narrative event pool and the data vocabulary
// events and projects share: conditions over simulation state, likelihood
// tiers, and effects. Conditions and effects are plain tagged structs so
// they load from content files and evaluate without closures; the engine
// package interprets them against the live state.
package events

import (
	"fmt"

	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
)

// Comparator compares a state value (left) against a threshold (right).
type Comparator string

const (
	Less         Comparator = "<"
	LessEqual    Comparator = "<="
	Equal        Comparator = "=="
	NotEqual     Comparator = "!="
	GreaterEqual Comparator = ">="
	Greater      Comparator = ">"
)

// Eval applies the comparator. An unknown comparator is a content bug and panics.
func (c Comparator) Eval(a, b float64) bool {
	switch c {
	case Less:
		return a < b
	case LessEqual:
		return a <= b
	case Equal:
		return a == b
	case NotEqual:
		return a != b
	case GreaterEqual:
		return a >= b
	case Greater:
		return a > b
	}
	panic(fmt.Sprintf("events: unknown comparator %q", string(c)))
}

// WorldVariable names a planet-wide quantity.
type WorldVariable string

const (
	WorldYear             WorldVariable = "year"
	WorldPopulation       WorldVariable = "population"
	WorldPopulationGrowth WorldVariable = "population_growth"
	WorldEmissions        WorldVariable = "emissions"
	WorldExtinctionRate   WorldVariable = "extinction_rate"
	WorldOutlook          WorldVariable = "outlook"
	WorldTemperature      WorldVariable = "temperature"
	WorldWaterStress      WorldVariable = "water_stress"
	WorldSeaLevelRise     WorldVariable = "sea_level_rise"
	WorldPrecipitation    WorldVariable = "precipitation"
)

// LocalVariable names a per-region quantity.
type LocalVariable string

const (
	LocalPopulation   LocalVariable = "population"
	LocalOutlook      LocalVariable = "outlook"
	LocalHabitability LocalVariable = "habitability"
)

// PlayerVariable names a quantity owned by the player.
type PlayerVariable string

const (
	PlayerPoliticalCapital PlayerVariable = "political_capital"
	PlayerResearchPoints   PlayerVariable = "research_points"
	PlayerYearsToDeath     PlayerVariable = "years_to_death"
)

type ConditionKind string

const (
	CondWorldVariable          ConditionKind = "world_variable"
	CondLocalVariable          ConditionKind = "local_variable"
	CondPlayerVariable         ConditionKind = "player_variable"
	CondProcessOutput          ConditionKind = "process_output"
	CondProcessMixShare        ConditionKind = "process_mix_share"
	CondProcessMixShareFeature ConditionKind = "process_mix_share_feature"
	CondResourcePressure       ConditionKind = "resource_pressure"
	CondResourceDemandGap      ConditionKind = "resource_demand_gap"
	CondOutputDemandGap        ConditionKind = "output_demand_gap"
	CondDemand                 ConditionKind = "demand"
	CondFeedstockYears         ConditionKind = "feedstock_years"
	CondProjectStatus          ConditionKind = "project_status"
	CondActiveProjectUpgrades  ConditionKind = "active_project_upgrades"
	CondRunsPlayed             ConditionKind = "runs_played"
	CondRegionFlag             ConditionKind = "region_flag"
	CondNPCRelationship        ConditionKind = "npc_relationship"
	CondHasFlag                ConditionKind = "has_flag"
	CondWithoutFlag            ConditionKind = "without_flag"
	CondHeavyProjects          ConditionKind = "heavy_projects"
	CondProtectLand            ConditionKind = "protect_land"
	CondAll                    ConditionKind = "all"
	CondAny                    ConditionKind = "any"
)

// Condition is a predicate over simulation state. Kind selects which of
// the other fields are meaningful; All and Any compose nested conditions.
type Condition struct {
	Kind       ConditionKind `json:"kind" yaml:"kind"`
	Variable   string        `json:"variable,omitempty" yaml:"variable,omitempty"`
	Comparator Comparator    `json:"comparator,omitempty" yaml:"comparator,omitempty"`
	Value      float64       `json:"value,omitempty" yaml:"value,omitempty"`

	Process   kinds.Id           `json:"process,omitzero" yaml:"process,omitempty"`
	Project   kinds.Id           `json:"project,omitzero" yaml:"project,omitempty"`
	NPC       kinds.Id           `json:"npc,omitzero" yaml:"npc,omitempty"`
	Feature   production.Feature `json:"feature,omitempty" yaml:"feature,omitempty"`
	Resource  kinds.Resource     `json:"resource,omitempty" yaml:"resource,omitempty"`
	Output    kinds.Output       `json:"output,omitempty" yaml:"output,omitempty"`
	Feedstock kinds.Feedstock    `json:"feedstock,omitempty" yaml:"feedstock,omitempty"`

	// Status is a project status name for CondProjectStatus.
	Status string `json:"status,omitempty" yaml:"status,omitempty"`
	// Relation is "ally", "neutral" or "nemesis" for CondNPCRelationship.
	Relation string `json:"relation,omitempty" yaml:"relation,omitempty"`
	Flag     string `json:"flag,omitempty" yaml:"flag,omitempty"`

	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// IsRegional reports whether the condition reads region-local state and so
// must be evaluated per region.
func (c Condition) IsRegional() bool {
	switch c.Kind {
	case CondLocalVariable, CondRegionFlag:
		return true
	case CondAll, CondAny:
		for _, sub := range c.Conditions {
			if sub.IsRegional() {
				return true
			}
		}
	}
	return false
}

func WorldVar(v WorldVariable, cmp Comparator, value float64) Condition {
	return Condition{Kind: CondWorldVariable, Variable: string(v), Comparator: cmp, Value: value}
}

func LocalVar(v LocalVariable, cmp Comparator, value float64) Condition {
	return Condition{Kind: CondLocalVariable, Variable: string(v), Comparator: cmp, Value: value}
}

func PlayerVar(v PlayerVariable, cmp Comparator, value float64) Condition {
	return Condition{Kind: CondPlayerVariable, Variable: string(v), Comparator: cmp, Value: value}
}

func MixShare(process kinds.Id, cmp Comparator, percent float64) Condition {
	return Condition{Kind: CondProcessMixShare, Process: process, Comparator: cmp, Value: percent}
}

func FeatureMixShare(f production.Feature, cmp Comparator, percent float64) Condition {
	return Condition{Kind: CondProcessMixShareFeature, Feature: f, Comparator: cmp, Value: percent}
}

func ProjectIs(project kinds.Id, status string) Condition {
	return Condition{Kind: CondProjectStatus, Project: project, Status: status}
}

func HasFlag(f Flag) Condition     { return Condition{Kind: CondHasFlag, Flag: string(f)} }
func WithoutFlag(f Flag) Condition { return Condition{Kind: CondWithoutFlag, Flag: string(f)} }
func RegionFlag(flag string) Condition {
	return Condition{Kind: CondRegionFlag, Flag: flag}
}

func RunsPlayed(cmp Comparator, runs float64) Condition {
	return Condition{Kind: CondRunsPlayed, Comparator: cmp, Value: runs}
}

func All(conds ...Condition) Condition { return Condition{Kind: CondAll, Conditions: conds} }
func Any(conds ...Condition) Condition { return Condition{Kind: CondAny, Conditions: conds} }
