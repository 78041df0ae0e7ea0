package production

import (
	"math"

	"github.com/talgya/halfearth/internal/kinds"
)

// MaxScarcity caps the weight of an input that is required but absent.
const MaxScarcity = 1e6

// ScarcityWeight is required over available. Above 1 the input is
// oversubscribed.
func ScarcityWeight(required, available float64) float64 {
	switch {
	case required <= 0:
		return 0
	case available <= 0:
		return MaxScarcity
	}
	return math.Min(required/available, MaxScarcity)
}

func ResourceWeights(required, available kinds.ResourceMap) kinds.ResourceMap {
	var w kinds.ResourceMap
	for i := range w {
		w[i] = ScarcityWeight(required[i], available[i])
	}
	return w
}

func FeedstockWeights(required, available kinds.FeedstockMap) kinds.FeedstockMap {
	var w kinds.FeedstockMap
	for i := range w {
		if kinds.Feedstock(i).Exempt() {
			continue
		}
		w[i] = ScarcityWeight(required[i], available[i])
	}
	return w
}

// Shift records one mix unit moved between processes of an output.
type Shift struct {
	Output kinds.Output `json:"output"`
	From   kinds.Id     `json:"from"`
	To     kinds.Id     `json:"to"`
}

// burden is the heaviest scarcity weight among the inputs p uses.
func (p *Process) burden(rw kinds.ResourceMap, fw kinds.FeedstockMap) float64 {
	var b float64
	for i, v := range p.Resources {
		if v > 0 && rw[i] > b {
			b = rw[i]
		}
	}
	if p.UsesFeedstock() && fw[p.Feedstock.Kind] > b {
		b = fw[p.Feedstock.Kind]
	}
	return b
}

// UpdateMixes moves at most one share unit per output, from the unlocked
// process leaning hardest on an oversubscribed input to the unlocked
// process with the lightest burden and room under its limit. When no input
// is oversubscribed the mixes are left alone. Shares for each output keep
// their total.
func UpdateMixes(processes []*Process, demand kinds.OutputMap, rw kinds.ResourceMap, fw kinds.FeedstockMap) []Shift {
	var shifts []Shift
	for o := 0; o < kinds.NumOutputs; o++ {
		output := kinds.Output(o)

		var donor *Process
		donorBurden := 1.0
		for _, p := range processes {
			if p.Output != output || p.Locked || p.MixShare <= 0 {
				continue
			}
			if b := p.burden(rw, fw); b > donorBurden {
				donor, donorBurden = p, b
			}
		}
		if donor == nil {
			continue
		}

		var recipient *Process
		best := donorBurden
		for _, p := range processes {
			if p == donor || p.Output != output || p.Locked {
				continue
			}
			if p.MixShare >= p.limitShare(demand) {
				continue
			}
			if b := p.burden(rw, fw); b < best {
				recipient, best = p, b
			}
		}
		if recipient == nil {
			continue
		}

		donor.MixShare--
		recipient.MixShare++
		shifts = append(shifts, Shift{Output: output, From: donor.ID, To: recipient.ID})
	}
	return shifts
}
