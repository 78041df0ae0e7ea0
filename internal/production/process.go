// Package production turns output demand into production orders, runs them
// against the available resources and feedstocks, and rebalances process
// mixes toward inputs that are not scarce.
package production

import (
	"math"
	"slices"

	"github.com/talgya/halfearth/internal/kinds"
)

// Feature tags a process for effects and conditions that target groups of
// processes.
type Feature string

const (
	FeatureUsesPesticides    Feature = "uses_pesticides"
	FeatureUsesSynFertilizer Feature = "uses_syn_fertilizer"
	FeatureUsesLivestock     Feature = "uses_livestock"
	FeatureUsesOil           Feature = "uses_oil"
	FeatureIsIntermittent    Feature = "is_intermittent"
	FeatureCanMeltdown       Feature = "can_meltdown"
	FeatureMakesNuclearWaste Feature = "makes_nuclear_waste"
	FeatureIsSolar           Feature = "is_solar"
	FeatureIsCCS             Feature = "is_ccs"
	FeatureIsCombustion      Feature = "is_combustion"
	FeatureIsFossil          Feature = "is_fossil"
	FeatureIsLaborIntensive  Feature = "is_labor_intensive"
)

const (
	// MixUnits is the number of share units that cover all of an output's demand.
	MixUnits = 20

	// PromotedShare is the share at which a process counts as promoted.
	PromotedShare = 5

	minEfficiency = 0.01

	// RelationshipStep is how far a ban or promotion moves each NPC.
	RelationshipStep = 1.0
)

// FeedstockUse is the feedstock a process burns per unit of output.
type FeedstockUse struct {
	Kind   kinds.Feedstock `json:"kind" yaml:"kind"`
	Amount float64         `json:"amount" yaml:"amount"`
}

// Process is one way of producing an output.
type Process struct {
	ID       kinds.Id     `json:"id" yaml:"id"`
	Name     string       `json:"name" yaml:"name"`
	Output   kinds.Output `json:"output" yaml:"output"`
	MixShare int          `json:"mix_share" yaml:"mix_share"`
	Limit    *float64     `json:"limit,omitempty" yaml:"limit,omitempty"`

	// Per unit of output.
	Resources  kinds.ResourceMap  `json:"resources" yaml:"resources"`
	Byproducts kinds.ByproductMap `json:"byproducts" yaml:"byproducts"`
	Feedstock  FeedstockUse       `json:"feedstock" yaml:"feedstock"`

	Features []Feature `json:"features,omitempty" yaml:"features,omitempty"`
	Locked   bool      `json:"locked" yaml:"locked"`

	// Fractional changes applied by effects.
	OutputModifier     float64            `json:"output_modifier" yaml:"output_modifier"`
	ByproductModifiers kinds.ByproductMap `json:"byproduct_modifiers" yaml:"byproduct_modifiers"`

	Supporters []kinds.Id `json:"supporters,omitempty" yaml:"supporters,omitempty"`
	Opposers   []kinds.Id `json:"opposers,omitempty" yaml:"opposers,omitempty"`
}

func (p *Process) Key() kinds.Id { return p.ID }

func (p *Process) MixPercent() float64 {
	return float64(p.MixShare) / MixUnits
}

func (p *Process) IsPromoted() bool { return p.MixShare >= PromotedShare }
func (p *Process) IsBanned() bool   { return p.MixShare == 0 }

func (p *Process) HasFeature(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// UsesFeedstock reports whether production draws on a finite feedstock.
func (p *Process) UsesFeedstock() bool {
	return !p.Feedstock.Kind.Exempt() && p.Feedstock.Amount > 0
}

func (p *Process) efficiency() float64 {
	return math.Max(1+p.OutputModifier, minEfficiency)
}

// AdjResources is the resource intensity after the output modifier.
func (p *Process) AdjResources() kinds.ResourceMap {
	return p.Resources.Scale(1 / p.efficiency())
}

// AdjByproducts is the byproduct intensity after byproduct and output modifiers.
func (p *Process) AdjByproducts() kinds.ByproductMap {
	var out kinds.ByproductMap
	for i, v := range p.Byproducts {
		out[i] = v * (1 + p.ByproductModifiers[i]) / p.efficiency()
	}
	return out
}

// AdjFeedstock is the feedstock intensity after the output modifier.
func (p *Process) AdjFeedstock() float64 {
	return p.Feedstock.Amount / p.efficiency()
}

// limitShare is the largest mix share the hard limit allows.
func (p *Process) limitShare(demand kinds.OutputMap) int {
	d := demand[p.Output]
	if p.Limit == nil || d <= 0 {
		return MixUnits
	}
	return shareUnits(*p.Limit / d)
}

// MaxShare is the largest mix share the limit and feedstock supply can serve.
func (p *Process) MaxShare(demand kinds.OutputMap, feedstocks kinds.FeedstockMap) int {
	d := demand[p.Output]
	if d <= 0 {
		return MixUnits
	}
	share := 1.0
	if p.Limit != nil {
		share = math.Min(*p.Limit/d, 1)
	}
	if p.UsesFeedstock() {
		supply := feedstocks[p.Feedstock.Kind] / p.AdjFeedstock()
		share = math.Min(share, supply/d)
	}
	return shareUnits(share)
}

func shareUnits(fraction float64) int {
	units := int(math.Floor(fraction * MixUnits))
	return max(0, min(units, MixUnits))
}

// ChangeMixShare shifts the share by change units, never below zero.
// Crossing the banned or promoted threshold moves the supporters and
// opposers; the returned changes are for the caller to apply.
func (p *Process) ChangeMixShare(change int) []kinds.RelationshipChange {
	wasBanned, wasPromoted := p.IsBanned(), p.IsPromoted()
	p.MixShare = max(0, p.MixShare+change)

	var support float64
	switch {
	case !wasBanned && p.IsBanned():
		support = -1
	case wasBanned && !p.IsBanned():
		support = 1
	case wasPromoted && !p.IsPromoted():
		support = -1
	case !wasPromoted && p.IsPromoted():
		support = 1
	}
	if support == 0 {
		return nil
	}

	changes := make([]kinds.RelationshipChange, 0, len(p.Supporters)+len(p.Opposers))
	for _, id := range p.Supporters {
		changes = append(changes, kinds.RelationshipChange{NPC: id, Delta: support * RelationshipStep})
	}
	for _, id := range p.Opposers {
		changes = append(changes, kinds.RelationshipChange{NPC: id, Delta: -support * RelationshipStep})
	}
	return changes
}
