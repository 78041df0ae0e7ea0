package events

import (
	"math"

	"github.com/talgya/halfearth/internal/kinds"
)

// Choice is a player response to an event.
type Choice struct {
	Label      string      `json:"label" yaml:"label"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Effects    []Effect    `json:"effects,omitempty" yaml:"effects,omitempty"`
}

// Event is a narrative occurrence rolled from the pool each year.
type Event struct {
	ID      kinds.Id `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Repeats bool     `json:"repeats" yaml:"repeats"`
	Arc     string   `json:"arc,omitempty" yaml:"arc,omitempty"`
	Locked  bool     `json:"locked" yaml:"locked"`

	// Clauses are tried in order; the first that holds sets the likelihood.
	Probabilities []Probability `json:"probabilities" yaml:"probabilities"`
	Choices       []Choice      `json:"choices,omitempty" yaml:"choices,omitempty"`
	Effects       []Effect      `json:"effects,omitempty" yaml:"effects,omitempty"`

	// ProbModifier is a fractional change to every clause's probability.
	ProbModifier float64 `json:"prob_modifier" yaml:"prob_modifier"`
}

func (e *Event) Key() kinds.Id { return e.ID }

// IsRegional reports whether any clause reads region-local state.
func (e *Event) IsRegional() bool {
	for _, p := range e.Probabilities {
		for _, c := range p.Conditions {
			if c.IsRegional() {
				return true
			}
		}
	}
	return false
}

// Chance is the probability of firing under the given tier, after the
// event's modifier, bounded to [0, 1].
func (e *Event) Chance(l Likelihood) float64 {
	p := l.P() * math.Max(0, 1+e.ProbModifier)
	return math.Min(p, 1)
}

// Roll evaluates the clauses for region (nil for planet-wide) and draws
// once if one holds.
func (e *Event) Roll(ev Evaluator, region *kinds.Id, rng RNG) bool {
	l, ok := Evaluate(e.Probabilities, ev, region)
	if !ok {
		return false
	}
	return Hit(e.Chance(l), rng)
}
