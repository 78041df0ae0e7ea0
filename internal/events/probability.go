package events

import (
	"fmt"

	"github.com/talgya/halfearth/internal/kinds"
)

// Likelihood is a named probability tier.
type Likelihood string

const (
	LikelihoodImpossible Likelihood = "impossible"
	LikelihoodImprobable Likelihood = "improbable"
	LikelihoodRare       Likelihood = "rare"
	LikelihoodUnlikely   Likelihood = "unlikely"
	LikelihoodRandom     Likelihood = "random"
	LikelihoodLikely     Likelihood = "likely"
	LikelihoodGuaranteed Likelihood = "guaranteed"
)

var likelihoods = map[Likelihood]float64{
	LikelihoodImpossible: 0,
	LikelihoodImprobable: 0.0005,
	LikelihoodRare:       0.005,
	LikelihoodUnlikely:   0.05,
	LikelihoodRandom:     0.25,
	LikelihoodLikely:     0.5,
	LikelihoodGuaranteed: 1,
}

// P returns the tier's probability. An unknown tier panics.
func (l Likelihood) P() float64 {
	p, ok := likelihoods[l]
	if !ok {
		panic(fmt.Sprintf("events: unknown likelihood %q", string(l)))
	}
	return p
}

// Valid reports whether l is a known tier.
func (l Likelihood) Valid() bool {
	_, ok := likelihoods[l]
	return ok
}

// Probability is one clause of an event's or outcome's likelihood: the
// tier applies when every condition holds.
type Probability struct {
	Likelihood Likelihood  `json:"likelihood" yaml:"likelihood"`
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// Evaluator decides conditions against the current state. region is nil
// for planet-wide evaluation.
type Evaluator interface {
	Holds(conds []Condition, region *kinds.Id) bool
}

// RNG is the randomness the kernel draws on. *math/rand.Rand satisfies it.
type RNG interface {
	Float64() float64
	Shuffle(n int, swap func(i, j int))
}

// Evaluate returns the likelihood of the first clause whose conditions
// hold, if any.
func Evaluate(probs []Probability, ev Evaluator, region *kinds.Id) (Likelihood, bool) {
	for _, p := range probs {
		if ev.Holds(p.Conditions, region) {
			return p.Likelihood, true
		}
	}
	return "", false
}

// Hit draws once against p. A probability of zero never hits.
func Hit(p float64, rng RNG) bool {
	if p < 0 || p > 1 {
		panic(fmt.Sprintf("events: probability %v out of range", p))
	}
	if p == 0 {
		return false
	}
	return rng.Float64() <= p
}
