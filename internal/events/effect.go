package events

import (
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
)

// Flag is a planet-wide switch set by effects and read by conditions and
// by the stepper.
type Flag string

const (
	FlagElectrified         Flag = "electrified"
	FlagVegetarian          Flag = "vegetarian"
	FlagVegan               Flag = "vegan"
	FlagClosedBorders       Flag = "closed_borders"
	FlagHyperResearch       Flag = "hyper_research"
	FlagStopDevelopment     Flag = "stop_development"
	FlagFastDevelopment     Flag = "fast_development"
	FlagDegrowth            Flag = "degrowth"
	FlagMetalsShortage      Flag = "metals_shortage"
	FlagDeepSeaMining       Flag = "deep_sea_mining"
	FlagParliamentSuspended Flag = "parliament_suspended"
	FlagEcosystemModeling   Flag = "ecosystem_modeling"
	FlagLaborResistance     Flag = "labor_resistance"
	FlagBailedOut           Flag = "bailed_out"
)

type EffectKind string

const (
	EffWorldVariable                  EffectKind = "world_variable"
	EffPlayerVariable                 EffectKind = "player_variable"
	EffRegionHabitability             EffectKind = "region_habitability"
	EffResource                       EffectKind = "resource"
	EffDemand                         EffectKind = "demand"
	EffDemandAmount                   EffectKind = "demand_amount"
	EffOutput                         EffectKind = "output"
	EffOutputForFeature               EffectKind = "output_for_feature"
	EffOutputForProcess               EffectKind = "output_for_process"
	EffCO2ForFeature                  EffectKind = "co2_for_feature"
	EffBiodiversityPressureForFeature EffectKind = "biodiversity_pressure_for_feature"
	EffProcessLimit                   EffectKind = "process_limit"
	EffFeedstock                      EffectKind = "feedstock"
	EffAddEvent                       EffectKind = "add_event"
	EffTriggerEvent                   EffectKind = "trigger_event"
	EffLocksProject                   EffectKind = "locks_project"
	EffUnlocksProject                 EffectKind = "unlocks_project"
	EffUnlocksProcess                 EffectKind = "unlocks_process"
	EffUnlocksNPC                     EffectKind = "unlocks_npc"
	EffProjectRequest                 EffectKind = "project_request"
	EffProcessRequest                 EffectKind = "process_request"
	EffMigration                      EffectKind = "migration"
	EffRegionLeave                    EffectKind = "region_leave"
	EffAddRegionFlag                  EffectKind = "add_region_flag"
	EffAddFlag                        EffectKind = "add_flag"
	EffNPCRelationship                EffectKind = "npc_relationship"
	EffModifyProcessByproducts        EffectKind = "modify_process_byproducts"
	EffModifyEventProbability         EffectKind = "modify_event_probability"
	EffProjectCostModifier            EffectKind = "project_cost_modifier"
	EffProtectLand                    EffectKind = "protect_land"
	EffBailOut                        EffectKind = "bail_out"
	EffGameOver                       EffectKind = "game_over"
)

// Effect is a change to simulation state. Kind selects which of the other
// fields are meaningful. Value carries the amount or fractional change.
type Effect struct {
	Kind     EffectKind `json:"kind" yaml:"kind"`
	Variable string     `json:"variable,omitempty" yaml:"variable,omitempty"`
	Value    float64    `json:"value,omitempty" yaml:"value,omitempty"`

	Output    kinds.Output       `json:"output,omitempty" yaml:"output,omitempty"`
	Resource  kinds.Resource     `json:"resource,omitempty" yaml:"resource,omitempty"`
	Feedstock kinds.Feedstock    `json:"feedstock,omitempty" yaml:"feedstock,omitempty"`
	Byproduct kinds.Byproduct    `json:"byproduct,omitempty" yaml:"byproduct,omitempty"`
	Feature   production.Feature `json:"feature,omitempty" yaml:"feature,omitempty"`

	Process kinds.Id `json:"process,omitzero" yaml:"process,omitempty"`
	Project kinds.Id `json:"project,omitzero" yaml:"project,omitempty"`
	Event   kinds.Id `json:"event,omitzero" yaml:"event,omitempty"`
	NPC     kinds.Id `json:"npc,omitzero" yaml:"npc,omitempty"`

	Latitude string `json:"latitude,omitempty" yaml:"latitude,omitempty"`
	Flag     string `json:"flag,omitempty" yaml:"flag,omitempty"`

	// Years is the delay before a triggered event fires.
	Years int `json:"years,omitempty" yaml:"years,omitempty"`
	// Active is the state a request asks for; Bounty is its reward.
	Active bool    `json:"active,omitempty" yaml:"active,omitempty"`
	Bounty float64 `json:"bounty,omitempty" yaml:"bounty,omitempty"`
}

var scalable = map[EffectKind]bool{
	EffWorldVariable:                  true,
	EffPlayerVariable:                 true,
	EffRegionHabitability:             true,
	EffResource:                       true,
	EffDemand:                         true,
	EffDemandAmount:                   true,
	EffOutput:                         true,
	EffOutputForFeature:               true,
	EffOutputForProcess:               true,
	EffCO2ForFeature:                  true,
	EffBiodiversityPressureForFeature: true,
	EffProcessLimit:                   true,
	EffFeedstock:                      true,
	EffNPCRelationship:                true,
	EffModifyProcessByproducts:        true,
	EffModifyEventProbability:         true,
	EffProjectCostModifier:            true,
	EffProtectLand:                    true,
}

// Scalable reports whether the effect has a magnitude Scale can change.
func (e Effect) Scalable() bool { return scalable[e.Kind] }

// Scale multiplies the effect's magnitude, for projects that phase in
// gradually. Effects without a magnitude are returned unchanged.
func (e Effect) Scale(f float64) Effect {
	if scalable[e.Kind] {
		e.Value *= f
	}
	return e
}

// Reversible reports whether the effect can be taken back when the
// project that caused it stops or is downgraded.
func (e Effect) Reversible() bool {
	switch e.Kind {
	case EffAddFlag, EffLocksProject, EffUnlocksProject, EffUnlocksProcess, EffUnlocksNPC:
		return true
	}
	return scalable[e.Kind]
}

func WorldChange(v WorldVariable, change float64) Effect {
	return Effect{Kind: EffWorldVariable, Variable: string(v), Value: change}
}

func PlayerChange(v PlayerVariable, change float64) Effect {
	return Effect{Kind: EffPlayerVariable, Variable: string(v), Value: change}
}

func DemandChange(o kinds.Output, pct float64) Effect {
	return Effect{Kind: EffDemand, Output: o, Value: pct}
}

func OutputChange(o kinds.Output, pct float64) Effect {
	return Effect{Kind: EffOutput, Output: o, Value: pct}
}

func FeatureOutputChange(f production.Feature, pct float64) Effect {
	return Effect{Kind: EffOutputForFeature, Feature: f, Value: pct}
}

func FeatureCO2Change(f production.Feature, pct float64) Effect {
	return Effect{Kind: EffCO2ForFeature, Feature: f, Value: pct}
}

func TriggerEvent(event kinds.Id, years int) Effect {
	return Effect{Kind: EffTriggerEvent, Event: event, Years: years}
}

func UnlockProject(project kinds.Id) Effect {
	return Effect{Kind: EffUnlocksProject, Project: project}
}

func UnlockProcess(process kinds.Id) Effect {
	return Effect{Kind: EffUnlocksProcess, Process: process}
}

func AddFlag(f Flag) Effect { return Effect{Kind: EffAddFlag, Flag: string(f)} }

func NPCChange(npc kinds.Id, change float64) Effect {
	return Effect{Kind: EffNPCRelationship, NPC: npc, Value: change}
}

func ProtectLand(percent float64) Effect {
	return Effect{Kind: EffProtectLand, Value: percent}
}
