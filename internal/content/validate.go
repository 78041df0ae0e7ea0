package content

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/world"
)

// deathYears is the length of a run when a world file names no end.
const deathYears = 80

// Normalize fills ids from names, scales each output's mix shares to
// production.MixUnits and sets a death year when none is given.
func Normalize(w *world.World) {
	for _, p := range w.Processes {
		withId(p, p.Name, &p.ID)
	}
	for _, p := range w.Projects {
		withId(p, p.Name, &p.ID)
	}
	for _, e := range w.Events {
		withId(e, e.Name, &e.ID)
	}
	for _, n := range w.NPCs {
		withId(n, n.Name, &n.ID)
	}
	for _, r := range w.Regions {
		withId(r, "region:"+r.Name, &r.ID)
	}

	for o := 0; o < kinds.NumOutputs; o++ {
		rescaleShares(w.Processes, kinds.Output(o))
	}
	if w.DeathYear <= w.Year {
		w.DeathYear = w.Year + deathYears
	}
}

// rescaleShares scales the output's shares to sum to MixUnits, handing
// rounding remainders to the largest fractions first.
func rescaleShares(procs []*production.Process, o kinds.Output) {
	var idx []int
	var total int
	for i, p := range procs {
		if p.Output == o {
			idx = append(idx, i)
			total += p.MixShare
		}
	}
	if total == 0 || total == production.MixUnits {
		return
	}

	f := float64(production.MixUnits) / float64(total)
	rem := make([]float64, len(idx))
	assigned := 0
	for j, i := range idx {
		exact := float64(procs[i].MixShare) * f
		procs[i].MixShare = int(math.Floor(exact))
		rem[j] = exact - math.Floor(exact)
		assigned += procs[i].MixShare
	}
	order := make([]int, len(idx))
	for j := range order {
		order[j] = j
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case rem[a] > rem[b]:
			return -1
		case rem[a] < rem[b]:
			return 1
		}
		return 0
	})
	for k := 0; assigned < production.MixUnits; k++ {
		procs[idx[order[k%len(order)]]].MixShare++
		assigned++
	}
}

// Validate reports every problem with a world at once.
func Validate(w *world.World) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(w.Regions) == 0 {
		add("world has no regions")
	}
	for _, r := range w.Regions {
		if r.Population < 0 {
			add("region %s: negative population %v", r.Name, r.Population)
		}
	}

	ids := map[kinds.Id]string{}
	check := func(kind, name string, id kinds.Id) {
		if prev, ok := ids[id]; ok {
			add("%s %s: id %s already used by %s", kind, name, id, prev)
			return
		}
		ids[id] = kind + " " + name
	}
	procs := map[kinds.Id]bool{}
	for _, p := range w.Processes {
		check("process", p.Name, p.ID)
		procs[p.ID] = true
	}
	projs := map[kinds.Id]bool{}
	for _, p := range w.Projects {
		check("project", p.Name, p.ID)
		projs[p.ID] = true
	}
	evs := map[kinds.Id]bool{}
	for _, e := range w.Events {
		check("event", e.Name, e.ID)
		evs[e.ID] = true
	}
	npcs := map[kinds.Id]bool{}
	for _, n := range w.NPCs {
		check("npc", n.Name, n.ID)
		npcs[n.ID] = true
	}
	for _, r := range w.Regions {
		check("region", r.Name, r.ID)
	}

	var shares kinds.OutputMap
	for _, p := range w.Processes {
		shares[p.Output] += float64(p.MixShare)
		for _, id := range append(slices.Clone(p.Supporters), p.Opposers...) {
			if !npcs[id] {
				add("process %s: unknown npc %s", p.Name, id)
			}
		}
	}
	for o, total := range shares {
		if total != production.MixUnits {
			add("output %s: mix shares sum to %v, want %d", kinds.Output(o), total, production.MixUnits)
		}
	}

	ref := refChecker{procs: procs, projs: projs, evs: evs, npcs: npcs, add: add}
	for _, p := range w.Projects {
		where := "project " + p.Name
		ref.effects(where, p.Effects)
		for _, o := range p.Outcomes {
			ref.probability(where, o.Probability)
			ref.effects(where, o.Effects)
		}
		for _, u := range p.Upgrades {
			ref.effects(where, u.Effects)
		}
		for _, id := range append(slices.Clone(p.Supporters), p.Opposers...) {
			if !npcs[id] {
				add("%s: unknown npc %s", where, id)
			}
		}
	}
	for _, e := range w.Events {
		where := "event " + e.Name
		for _, p := range e.Probabilities {
			ref.probability(where, p)
		}
		ref.effects(where, e.Effects)
		for _, c := range e.Choices {
			ref.conditions(where, c.Conditions)
			ref.effects(where, c.Effects)
		}
	}
	return errors.Join(errs...)
}

// refChecker reports references to entities the world does not define.
type refChecker struct {
	procs, projs, evs, npcs map[kinds.Id]bool
	add                     func(format string, args ...any)
}

func (r refChecker) probability(where string, p events.Probability) {
	if !p.Likelihood.Valid() {
		r.add("%s: unknown likelihood %q", where, p.Likelihood)
	}
	r.conditions(where, p.Conditions)
}

func (r refChecker) conditions(where string, conds []events.Condition) {
	for _, c := range conds {
		r.ref(where, "process", r.procs, c.Process)
		r.ref(where, "project", r.projs, c.Project)
		r.ref(where, "npc", r.npcs, c.NPC)
		r.conditions(where, c.Conditions)
	}
}

func (r refChecker) effects(where string, effects []events.Effect) {
	for _, e := range effects {
		r.ref(where, "process", r.procs, e.Process)
		r.ref(where, "project", r.projs, e.Project)
		r.ref(where, "event", r.evs, e.Event)
		r.ref(where, "npc", r.npcs, e.NPC)
	}
}

func (r refChecker) ref(where, kind string, known map[kinds.Id]bool, id kinds.Id) {
	if !id.IsZero() && !known[id] {
		r.add("%s: unknown %s %s", where, kind, id)
	}
}
