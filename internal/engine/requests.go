package engine

import (
	"log/slog"

	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/projects"
)

type RequestKind string

const (
	RequestProject RequestKind = "project"
	RequestProcess RequestKind = "process"
)

// Request is an NPC asking the player to bring a project into effect or
// out of it, or to promote or ban a process, for a political-capital bounty.
type Request struct {
	Kind   RequestKind `json:"kind"`
	ID     kinds.Id    `json:"id"`
	Active bool        `json:"active"`
	Bounty float64     `json:"bounty"`
}

// CheckRequests pays out and removes every request the current state
// satisfies, returning them in the order they were made.
func (s *State) CheckRequests() []Request {
	var fulfilled []Request
	kept := s.Requests[:0]
	for _, r := range s.Requests {
		if !s.satisfies(r) {
			kept = append(kept, r)
			continue
		}
		fulfilled = append(fulfilled, r)
		s.PoliticalCapital += r.Bounty
		slog.Info("request fulfilled", "kind", r.Kind, "id", r.ID, "bounty", r.Bounty)
		s.emit(LogEntry{
			Description: "request fulfilled",
			Category:    "request",
			Meta:        map[string]any{"kind": string(r.Kind), "id": r.ID.String(), "bounty": r.Bounty},
		})
	}
	s.Requests = kept
	return fulfilled
}

func (s *State) satisfies(r Request) bool {
	switch r.Kind {
	case RequestProject:
		p := s.Projects.Get(r.ID)
		if r.Active {
			return p.InEffect()
		}
		return p.Status == projects.StatusInactive || p.Status == projects.StatusHalted
	case RequestProcess:
		p := s.Processes.Get(r.ID)
		if r.Active {
			return p.IsPromoted()
		}
		return p.IsBanned()
	}
	return false
}
