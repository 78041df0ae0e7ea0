package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/social"
)

var (
	ErrProjectLocked       = errors.New("project is locked")
	ErrProjectState        = errors.New("project cannot make that change in its current status")
	ErrNoUpgrade           = errors.New("project has no further level")
	ErrInsufficientCapital = errors.New("not enough political capital")
	ErrInsufficientPoints  = errors.New("not enough research points")
	ErrNoMajority          = errors.New("project lacks the required majority")
	ErrProcessLocked       = errors.New("process is locked")
	ErrMixFull             = errors.New("mix share cannot grow further")
	ErrNotPending          = errors.New("event is not awaiting a choice")
	ErrNoSuchChoice        = errors.New("no such choice")
	ErrChoiceUnavailable   = errors.New("choice conditions do not hold")
)

// InitiativePointCost is the political capital one point on an
// initiative costs. Research is paid for with research points.
const InitiativePointCost = 5.0

// StartProject starts building a project, or enacts a policy at once for
// its cost in political capital.
func (s *State) StartProject(id kinds.Id) error {
	p := s.Projects.Get(id)
	if p.Locked {
		return fmt.Errorf("start %s: %w", p.Name, ErrProjectLocked)
	}
	if p.Status == projects.StatusBuilding || p.InEffect() {
		return fmt.Errorf("start %s (%s): %w", p.Name, p.Status, ErrProjectState)
	}
	var cost float64
	if p.Kind == projects.KindPolicy {
		cost = p.Cost
		if s.PoliticalCapital < cost {
			return fmt.Errorf("start %s: %w", p.Name, ErrInsufficientCapital)
		}
	}
	if !s.hasMajority(p) {
		return fmt.Errorf("start %s: %w", p.Name, ErrNoMajority)
	}

	s.PoliticalCapital -= cost
	s.applyChanges(p.Start())
	slog.Info("project started", "project", p.Name, "status", p.Status, "cost", cost)
	s.emit(LogEntry{Description: p.Name + " started", Category: "player"})
	return nil
}

// StopProject halts a project or repeals a policy. Completed one-off
// projects cannot be stopped.
func (s *State) StopProject(id kinds.Id) error {
	p := s.Projects.Get(id)
	switch {
	case p.Status == projects.StatusBuilding:
	case p.Status == projects.StatusActive:
	default:
		return fmt.Errorf("stop %s (%s): %w", p.Name, p.Status, ErrProjectState)
	}
	s.applyChanges(p.Stop())
	slog.Info("project stopped", "project", p.Name, "status", p.Status)
	s.emit(LogEntry{Description: p.Name + " stopped", Category: "player"})
	return nil
}

// UpgradeProject moves a project in effect to its next level for the
// upgrade's cost in political capital.
func (s *State) UpgradeProject(id kinds.Id) error {
	p := s.Projects.Get(id)
	if !p.InEffect() {
		return fmt.Errorf("upgrade %s (%s): %w", p.Name, p.Status, ErrProjectState)
	}
	next, ok := p.NextUpgrade()
	if !ok {
		return fmt.Errorf("upgrade %s: %w", p.Name, ErrNoUpgrade)
	}
	if s.PoliticalCapital < next.Cost {
		return fmt.Errorf("upgrade %s: %w", p.Name, ErrInsufficientCapital)
	}
	c, _ := p.Upgrade()
	s.PoliticalCapital -= next.Cost
	s.applyChanges(c)
	slog.Info("project upgraded", "project", p.Name, "level", p.Level)
	return nil
}

// DowngradeProject moves a project back a level. Nothing is refunded.
func (s *State) DowngradeProject(id kinds.Id) error {
	p := s.Projects.Get(id)
	c, ok := p.Downgrade()
	if !ok {
		return fmt.Errorf("downgrade %s: %w", p.Name, ErrNoUpgrade)
	}
	s.applyChanges(c)
	slog.Info("project downgraded", "project", p.Name, "level", p.Level)
	return nil
}

// SetProjectPoints assigns points to a research or initiative project.
// Research draws on research points and initiatives on political capital;
// lowering the points refunds the difference.
func (s *State) SetProjectPoints(id kinds.Id, points int) error {
	p := s.Projects.Get(id)
	if p.Kind == projects.KindPolicy {
		return fmt.Errorf("set points on %s: %w", p.Name, ErrProjectState)
	}
	points = max(points, 0)
	delta := points - p.Points
	switch p.Kind {
	case projects.KindResearch:
		if delta > s.ResearchPoints {
			return fmt.Errorf("set points on %s: %w", p.Name, ErrInsufficientPoints)
		}
		s.ResearchPoints -= delta
	default:
		cost := float64(delta) * InitiativePointCost
		if cost > s.PoliticalCapital {
			return fmt.Errorf("set points on %s: %w", p.Name, ErrInsufficientCapital)
		}
		s.PoliticalCapital -= cost
	}
	p.SetPoints(points)
	return nil
}

// ChangeMixShare moves a process's share by change units. Growth is
// bounded by the output's free share and by what the process's limit and
// feedstock supply can serve.
func (s *State) ChangeMixShare(id kinds.Id, change int) error {
	p := s.Processes.Get(id)
	if p.Locked {
		return fmt.Errorf("change mix of %s: %w", p.Name, ErrProcessLocked)
	}
	if change > 0 {
		var total int
		for _, other := range s.Processes.All() {
			if other.Output == p.Output {
				total += other.MixShare
			}
		}
		if total+change > production.MixUnits {
			return fmt.Errorf("change mix of %s: %w", p.Name, ErrMixFull)
		}
		if p.MixShare+change > p.MaxShare(s.OutputDemand, s.Ledger.Feedstocks) {
			return fmt.Errorf("change mix of %s: %w", p.Name, ErrMixFull)
		}
	}
	for _, rc := range p.ChangeMixShare(change) {
		s.NPCs.Get(rc.NPC).Adjust(rc.Delta)
	}
	s.updateDemand()
	slog.Info("mix share changed", "process", p.Name, "share", p.MixShare)
	return nil
}

// ApplyEvent applies an event's effects at once, outside the yearly roll.
func (s *State) ApplyEvent(id kinds.Id, region *kinds.Id) {
	ev := s.Events.Events.Get(id)
	s.ApplyEffects(ev.Effects, region)
	s.emit(LogEntry{Description: ev.Name, Category: "event"})
}

// ApplyEventChoice resolves a pending event with the player's choice.
func (s *State) ApplyEventChoice(id kinds.Id, region *kinds.Id, choice int) error {
	i := -1
	for j, f := range s.Pending {
		if f.Event == id && sameRegion(f.Region, region) {
			i = j
			break
		}
	}
	if i < 0 {
		return ErrNotPending
	}
	ev := s.Events.Events.Get(id)
	if choice < 0 || choice >= len(ev.Choices) {
		return fmt.Errorf("%s choice %d: %w", ev.Name, choice, ErrNoSuchChoice)
	}
	c := ev.Choices[choice]
	if !s.Holds(c.Conditions, region) {
		return fmt.Errorf("%s choice %q: %w", ev.Name, c.Label, ErrChoiceUnavailable)
	}
	s.ApplyEffects(c.Effects, region)
	s.Pending = append(s.Pending[:i], s.Pending[i+1:]...)
	s.updateDemand()
	slog.Info("event choice", "event", ev.Name, "choice", c.Label)
	return nil
}

// addPending queues a fired event for the player. An unanswered earlier
// firing of the same event in the same region is replaced.
func (s *State) addPending(f events.Fired) {
	s.Pending = slices.DeleteFunc(s.Pending, func(p events.Fired) bool {
		return p.Event == f.Event && sameRegion(p.Region, f.Region)
	})
	s.Pending = append(s.Pending, f)
}

// hasMajority reports whether the parliament passes the project. Allied
// factions vote for it; a suspended parliament always passes.
func (s *State) hasMajority(p *projects.Project) bool {
	if p.RequiredMajority <= 0 || s.HasFlag(events.FlagParliamentSuspended) {
		return true
	}
	var seats float64
	for _, n := range s.NPCs.All() {
		if !n.Locked && n.IsAlly() {
			seats += n.Seats
		}
	}
	return seats >= p.RequiredMajority
}

// requiredMajority is half the parliament when the project's unlocked
// opposers outnumber its unlocked supporters. Allied opposers do not count.
func (s *State) requiredMajority(p *projects.Project) float64 {
	var opposers, supporters int
	for _, id := range p.Opposers {
		if n := s.NPCs.Get(id); !n.Locked && n.Relation() != social.RelationAlly {
			opposers++
		}
	}
	for _, id := range p.Supporters {
		if !s.NPCs.Get(id).Locked {
			supporters++
		}
	}
	if opposers > supporters {
		return 0.5
	}
	return 0
}

func (s *State) applyChanges(c projects.Changes) {
	for _, e := range c.Remove {
		s.Unapply(e, nil)
	}
	for _, e := range c.Add {
		s.Apply(e, nil)
	}
	for _, rc := range c.Relationships {
		s.NPCs.Get(rc.NPC).Adjust(rc.Delta)
	}
	s.updateDemand()
}

func sameRegion(a, b *kinds.Id) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
