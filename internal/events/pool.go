package events

import (
	"github.com/talgya/halfearth/internal/kinds"
)

// MaxEventsPerTurn caps how many events may fire at random in one roll.
// Queued events do not count toward it.
const MaxEventsPerTurn = 5

type Status string

const (
	StatusRandom    Status = "random"
	StatusQueued    Status = "queued"
	StatusTriggered Status = "triggered"
)

// Entry tracks one event's place in the pool. Region is set for entries
// queued against a specific region.
type Entry struct {
	Event     kinds.Id  `json:"event"`
	Region    *kinds.Id `json:"region,omitempty"`
	Status    Status    `json:"status"`
	Countdown int       `json:"countdown,omitempty"`
}

// Fired is an event that occurred this roll.
type Fired struct {
	Event  kinds.Id  `json:"event"`
	Region *kinds.Id `json:"region,omitempty"`
	Queued bool      `json:"queued,omitempty"`
}

// Pool holds every event and the status of each.
type Pool struct {
	Events  kinds.Collection[*Event] `json:"events"`
	Entries []Entry                  `json:"entries"`
}

// NewPool tracks each event as Random.
func NewPool(evs ...*Event) *Pool {
	p := &Pool{Events: kinds.NewCollection(evs...)}
	for _, e := range p.Events.All() {
		p.Entries = append(p.Entries, Entry{Event: e.ID, Status: StatusRandom})
	}
	return p
}

// Queue schedules an event to fire after the given number of rolls,
// at least one. An existing entry for the same event and region is
// rescheduled rather than duplicated.
func (p *Pool) Queue(id kinds.Id, region *kinds.Id, years int) {
	p.Events.Get(id) // unknown events panic
	years = max(years, 1)
	for i := range p.Entries {
		e := &p.Entries[i]
		if e.Event == id && sameRegion(e.Region, region) {
			e.Status, e.Countdown = StatusQueued, years
			return
		}
	}
	p.Entries = append(p.Entries, Entry{
		Event:     id,
		Region:    copyRegion(region),
		Status:    StatusQueued,
		Countdown: years,
	})
}

// Entry returns the first entry for an event, if it is still tracked.
func (p *Pool) Entry(id kinds.Id) (Entry, bool) {
	for _, e := range p.Entries {
		if e.Event == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Roll advances every entry by one year and returns the events that fire.
// Regional events are rolled once for each of regions.
func (p *Pool) Roll(ev Evaluator, regions []kinds.Id, rng RNG) []Fired {
	kept := p.Entries[:0]
	for _, e := range p.Entries {
		if e.Status == StatusQueued && e.Countdown <= 0 {
			continue
		}
		if e.Status == StatusTriggered && !p.Events.Get(e.Event).Repeats {
			continue
		}
		kept = append(kept, e)
	}
	p.Entries = kept

	rng.Shuffle(len(p.Entries), func(i, j int) {
		p.Entries[i], p.Entries[j] = p.Entries[j], p.Entries[i]
	})

	var fired []Fired
	random := 0
	for i := range p.Entries {
		e := &p.Entries[i]
		event := p.Events.Get(e.Event)

		if e.Status == StatusQueued {
			e.Countdown--
			if e.Countdown <= 0 {
				e.Status = StatusTriggered
				fired = append(fired, Fired{Event: e.Event, Region: copyRegion(e.Region), Queued: true})
			}
			continue
		}

		e.Status = StatusRandom
		if event.Locked || random >= MaxEventsPerTurn {
			continue
		}

		if event.IsRegional() {
			for _, r := range regions {
				if random >= MaxEventsPerTurn {
					break
				}
				region := r
				if event.Roll(ev, &region, rng) {
					e.Status = StatusTriggered
					fired = append(fired, Fired{Event: e.Event, Region: &region})
					random++
					if !event.Repeats {
						break
					}
				}
			}
			continue
		}

		if event.Roll(ev, nil, rng) {
			e.Status = StatusTriggered
			fired = append(fired, Fired{Event: e.Event})
			random++
		}
	}
	return fired
}

func sameRegion(a, b *kinds.Id) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func copyRegion(r *kinds.Id) *kinds.Id {
	if r == nil {
		return nil
	}
	id := *r
	return &id
}
