package social

import (
	"math"

	"github.com/talgya/halfearth/internal/kinds"
)

// Relation is how an NPC regards the player.
type Relation string

const (
	RelationAlly    Relation = "ally"
	RelationNeutral Relation = "neutral"
	RelationNemesis Relation = "nemesis"
)

const (
	AllyThreshold    = 5.0
	NemesisThreshold = 1.0
	MaxRelationship  = 6.0
)

// NPC is a political faction with a standing toward the player.
type NPC struct {
	ID           kinds.Id `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Relationship float64  `json:"relationship" yaml:"relationship"` // 0–6
	Locked       bool     `json:"locked" yaml:"locked"`
	Seats        float64  `json:"seats" yaml:"seats"` // share of parliament
}

func (n *NPC) Key() kinds.Id { return n.ID }

func (n *NPC) Relation() Relation {
	switch {
	case n.Relationship >= AllyThreshold:
		return RelationAlly
	case n.Relationship <= NemesisThreshold:
		return RelationNemesis
	}
	return RelationNeutral
}

func (n *NPC) IsAlly() bool { return n.Relation() == RelationAlly }

// Adjust shifts the relationship, kept within [0, MaxRelationship].
func (n *NPC) Adjust(delta float64) {
	n.Relationship = math.Max(0, math.Min(MaxRelationship, n.Relationship+delta))
}

// SeedNPCs creates the starting factions.
func SeedNPCs() []*NPC {
	seed := func(name string, seats float64, locked bool) *NPC {
		return &NPC{ID: kinds.IdFor(name), Name: name, Relationship: 3, Seats: seats, Locked: locked}
	}
	return []*NPC{
		seed("Green Coalition", 0.2, false),
		seed("Industry Council", 0.25, false),
		seed("Labor Federation", 0.25, false),
		seed("Technocrats", 0.15, false),
		seed("Agrarian League", 0.15, true),
	}
}
