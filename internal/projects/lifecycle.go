package projects

import (
	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
)

// RelationshipStep is how far starting or stopping a project moves each
// supporter and opposer.
const RelationshipStep = 1.0

// Changes are the consequences of a lifecycle transition, for the caller
// to apply.
type Changes struct {
	Add           []events.Effect
	Remove        []events.Effect
	Relationships []kinds.RelationshipChange
	Completed     bool
}

// Build advances a building project by one year. Gradual projects phase
// their scalable effects in with progress; the rest take effect on
// completion.
func (p *Project) Build(year int) Changes {
	var c Changes
	if p.Status != StatusBuilding {
		return c
	}

	prev := p.Progress
	p.Progress += 1 / YearsForPoints(p.Points, p.Cost)
	if p.Progress >= 1 {
		p.Progress = 1
		p.CompletedAt = year
		c.Completed = true
		if p.Ongoing {
			p.Status = StatusActive
		} else {
			p.Status = StatusFinished
		}
	}

	for _, e := range p.ActiveEffects() {
		switch {
		case p.Gradual && e.Scalable():
			if prev > 0 {
				c.Remove = append(c.Remove, e.Scale(prev))
			}
			c.Add = append(c.Add, e.Scale(p.Progress))
		case c.Completed:
			c.Add = append(c.Add, e)
		}
	}
	return c
}

// Start begins building the project. A policy takes effect at once. A
// halted gradual project puts back the share of its effects it had
// phased in, which Stop took away.
func (p *Project) Start() Changes {
	c := Changes{Relationships: p.relationships(1)}
	if p.Kind == KindPolicy {
		p.Status = StatusActive
		p.Progress = 1
		c.Add = append(c.Add, p.ActiveEffects()...)
		return c
	}
	if p.Status == StatusHalted && p.Gradual && p.Progress > 0 {
		for _, e := range p.ActiveEffects() {
			if e.Scalable() {
				c.Add = append(c.Add, e.Scale(p.Progress))
			}
		}
	}
	p.Status = StatusBuilding
	return c
}

// Stop withdraws the project. Effects already in play are removed; a
// partly built project keeps its progress and is halted.
func (p *Project) Stop() Changes {
	c := Changes{Relationships: p.relationships(-1)}
	switch {
	case p.InEffect():
		c.Remove = append(c.Remove, p.ActiveEffects()...)
		c.Remove = append(c.Remove, p.OutcomeEffects()...)
	case p.Status == StatusBuilding && p.Gradual:
		for _, e := range p.ActiveEffects() {
			if e.Scalable() && p.Progress > 0 {
				c.Remove = append(c.Remove, e.Scale(p.Progress))
			}
		}
	}
	p.ActiveOutcome = nil

	if p.Kind == KindPolicy || p.Progress <= 0 {
		p.Status = StatusInactive
		p.Progress = 0
	} else {
		p.Status = StatusHalted
	}
	return c
}

// Upgrade moves the project up a level, swapping effect sets if it is in
// effect. It reports false when there is no further level.
func (p *Project) Upgrade() (Changes, bool) {
	if p.Level >= len(p.Upgrades) {
		return Changes{}, false
	}
	return p.changeLevel(1), true
}

// Downgrade moves the project down a level. It reports false at level 0.
func (p *Project) Downgrade() (Changes, bool) {
	if p.Level == 0 {
		return Changes{}, false
	}
	return p.changeLevel(-1), true
}

func (p *Project) changeLevel(delta int) Changes {
	var c Changes
	if p.InEffect() {
		c.Remove = append(c.Remove, p.ActiveEffects()...)
	}
	p.Level += delta
	if p.InEffect() {
		c.Add = append(c.Add, p.ActiveEffects()...)
	}
	return c
}

func (p *Project) relationships(sign float64) []kinds.RelationshipChange {
	var out []kinds.RelationshipChange
	for _, id := range p.Supporters {
		out = append(out, kinds.RelationshipChange{NPC: id, Delta: sign * RelationshipStep})
	}
	for _, id := range p.Opposers {
		out = append(out, kinds.RelationshipChange{NPC: id, Delta: -sign * RelationshipStep})
	}
	return out
}
