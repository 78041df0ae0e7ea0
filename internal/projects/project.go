// Package projects models policies, research and initiatives: what they
// cost, how long they take to build, and which effects they put into play.
// Lifecycle methods return the effects to add or remove; the caller applies
// them against the simulation state.
package projects

import (
	"math"
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
)

type Status string

const (
	StatusInactive Status = "inactive"
	StatusBuilding Status = "building"
	StatusActive   Status = "active"
	StatusHalted   Status = "halted"
	StatusFinished Status = "finished"
)

type Kind string

const (
	KindPolicy     Kind = "policy"
	KindResearch   Kind = "research"
	KindInitiative Kind = "initiative"
)

// Group clusters related projects for cost modifiers and conditions.
type Group string

const (
	GroupOther           Group = "other"
	GroupSpace           Group = "space"
	GroupNuclear         Group = "nuclear"
	GroupRestoration     Group = "restoration"
	GroupAgriculture     Group = "agriculture"
	GroupFood            Group = "food"
	GroupGeoengineering  Group = "geoengineering"
	GroupPopulation      Group = "population"
	GroupControl         Group = "control"
	GroupProtection      Group = "protection"
	GroupElectrification Group = "electrification"
	GroupBehavior        Group = "behavior"
	GroupLimits          Group = "limits"
	GroupEnergy          Group = "energy"
)

var heavyGroups = []Group{GroupSpace, GroupNuclear, GroupGeoengineering, GroupElectrification}

// BaseYear anchors time-scaled dynamic costs.
const BaseYear = 1980

type FactorKind string

const (
	FactorTime   FactorKind = "time"
	FactorIncome FactorKind = "income"
	FactorOutput FactorKind = "output"
)

// Factor is what a dynamic cost scales with.
type Factor struct {
	Kind   FactorKind   `json:"kind" yaml:"kind"`
	Output kinds.Output `json:"output,omitempty" yaml:"output,omitempty"`
}

type CostKind string

const (
	CostFixed   CostKind = "fixed"
	CostDynamic CostKind = "dynamic"
)

// Cost is either a fixed amount or a multiplier on a scaling factor.
type Cost struct {
	Kind       CostKind `json:"kind" yaml:"kind"`
	Amount     float64  `json:"amount,omitempty" yaml:"amount,omitempty"`
	Multiplier float64  `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
	Factor     Factor   `json:"factor,omitzero" yaml:"factor,omitempty"`
}

func Fixed(amount float64) Cost { return Cost{Kind: CostFixed, Amount: amount} }

func Dynamic(multiplier float64, f Factor) Cost {
	return Cost{Kind: CostDynamic, Multiplier: multiplier, Factor: f}
}

// Eval computes the cost for the given year, mean income level and demand.
func (c Cost) Eval(year int, income float64, demand kinds.OutputMap) float64 {
	if c.Kind != CostDynamic {
		return c.Amount
	}
	var v float64
	switch c.Factor.Kind {
	case FactorTime:
		v = c.Multiplier * float64(year-BaseYear)
	case FactorIncome:
		v = c.Multiplier * (1 + income)
	case FactorOutput:
		v = c.Multiplier * demand[c.Factor.Output]
	}
	return math.Round(v)
}

// Outcome is a probability-gated bundle of effects rolled when a project
// comes into effect.
type Outcome struct {
	Effects     []events.Effect    `json:"effects" yaml:"effects"`
	Probability events.Probability `json:"probability" yaml:"probability"`
}

// Upgrade is a further level of a project with its own effects.
type Upgrade struct {
	Cost    float64         `json:"cost" yaml:"cost"`
	Effects []events.Effect `json:"effects" yaml:"effects"`
}

type Project struct {
	ID      kinds.Id `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Kind    Kind     `json:"kind" yaml:"kind"`
	Group   Group    `json:"group" yaml:"group"`
	Ongoing bool     `json:"ongoing" yaml:"ongoing"`
	Gradual bool     `json:"gradual" yaml:"gradual"`
	Locked  bool     `json:"locked" yaml:"locked"`

	// Cost is political capital for policies and base years to completion
	// for everything else.
	BaseCost     Cost    `json:"base_cost" yaml:"base_cost"`
	CostModifier float64 `json:"cost_modifier" yaml:"cost_modifier"`
	Cost         float64 `json:"cost" yaml:"cost"`

	Progress    float64 `json:"progress" yaml:"progress"`
	Points      int     `json:"points" yaml:"points"`
	Estimate    int     `json:"estimate" yaml:"estimate"`
	Status      Status  `json:"status" yaml:"status"`
	Level       int     `json:"level" yaml:"level"`
	CompletedAt int     `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	RequiredMajority float64 `json:"required_majority" yaml:"required_majority"`

	Effects       []events.Effect `json:"effects,omitempty" yaml:"effects,omitempty"`
	Outcomes      []Outcome       `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
	Upgrades      []Upgrade       `json:"upgrades,omitempty" yaml:"upgrades,omitempty"`
	ActiveOutcome *int            `json:"active_outcome,omitempty" yaml:"active_outcome,omitempty"`

	Supporters []kinds.Id `json:"supporters,omitempty" yaml:"supporters,omitempty"`
	Opposers   []kinds.Id `json:"opposers,omitempty" yaml:"opposers,omitempty"`
}

func (p *Project) Key() kinds.Id { return p.ID }

// InEffect reports whether the project's effects currently apply.
func (p *Project) InEffect() bool {
	return p.Status == StatusActive || p.Status == StatusFinished
}

// IsHeavy reports whether the project belongs to a heavy-industry group.
func (p *Project) IsHeavy() bool {
	return slices.Contains(heavyGroups, p.Group)
}

// YearsForPoints is how long a project of the given cost takes with the
// given points assigned. Never less than one year.
func YearsForPoints(points int, cost float64) float64 {
	pts := float64(max(points, 1))
	return math.Max(1, math.Round(cost/math.Pow(pts, 1/2.75)))
}

// SetPoints assigns points and refreshes the estimate.
func (p *Project) SetPoints(points int) {
	p.Points = max(points, 0)
	p.Estimate = int(YearsForPoints(p.Points, p.Cost))
}

// UpdateCost recomputes the current cost. modifier is the world-level
// multiplier for this project's group.
func (p *Project) UpdateCost(year int, income float64, demand kinds.OutputMap, modifier float64) {
	base := p.BaseCost.Eval(year, income, demand)
	p.Cost = math.Round(base * (1 + p.CostModifier) * modifier)
	p.Estimate = int(YearsForPoints(p.Points, p.Cost))
}

// ActiveEffects are the effects of the current upgrade level.
func (p *Project) ActiveEffects() []events.Effect {
	if p.Level == 0 || p.Level > len(p.Upgrades) {
		return p.Effects
	}
	return p.Upgrades[p.Level-1].Effects
}

// OutcomeEffects are the effects of the matched outcome, if any.
func (p *Project) OutcomeEffects() []events.Effect {
	if p.ActiveOutcome == nil || *p.ActiveOutcome >= len(p.Outcomes) {
		return nil
	}
	return p.Outcomes[*p.ActiveOutcome].Effects
}

// NextUpgrade returns the upgrade the project would move to.
func (p *Project) NextUpgrade() (Upgrade, bool) {
	if p.Level >= len(p.Upgrades) {
		return Upgrade{}, false
	}
	return p.Upgrades[p.Level], true
}

// RollOutcome returns the index of the first outcome whose conditions hold
// and whose draw succeeds. No outcome may match.
func (p *Project) RollOutcome(ev events.Evaluator, rng events.RNG) (int, bool) {
	for i, o := range p.Outcomes {
		l, ok := events.Evaluate([]events.Probability{o.Probability}, ev, nil)
		if !ok {
			continue
		}
		if events.Hit(l.P(), rng) {
			return i, true
		}
	}
	return 0, false
}
