package production

import (
	"math"

	"github.com/talgya/halfearth/internal/kinds"
)

// Order asks a process for an amount of its output.
type Order struct {
	Process *Process
	Amount  float64
}

// Order sizes this process's share of demand, capped by its limit.
func (p *Process) Order(demand kinds.OutputMap) Order {
	amount := math.Max(0, demand[p.Output]*p.MixPercent())
	if p.Limit != nil {
		amount = math.Min(amount, math.Max(0, *p.Limit))
	}
	return Order{Process: p, Amount: amount}
}

// Orders builds one order per process, in process order.
func Orders(processes []*Process, demand kinds.OutputMap) []Order {
	orders := make([]Order, 0, len(processes))
	for _, p := range processes {
		orders = append(orders, p.Order(demand))
	}
	return orders
}

// Result is what one production run made and used.
type Result struct {
	ByProcess  map[kinds.Id]float64 `json:"by_process"`
	ByOutput   kinds.OutputMap      `json:"by_output"`
	Resources  kinds.ResourceMap    `json:"resources"`
	Feedstocks kinds.FeedstockMap   `json:"feedstocks"`
	Byproducts kinds.ByproductMap   `json:"byproducts"`
}

// CalculateRequired totals what the orders would need if filled in full.
func CalculateRequired(orders []Order) (kinds.ResourceMap, kinds.FeedstockMap) {
	var resources kinds.ResourceMap
	var feedstocks kinds.FeedstockMap
	for _, o := range orders {
		p := o.Process
		resources = resources.Add(p.AdjResources().Scale(o.Amount))
		if p.UsesFeedstock() {
			feedstocks[p.Feedstock.Kind] += p.AdjFeedstock() * o.Amount
		}
	}
	return resources, feedstocks
}

// Produce fills the orders as far as the inputs allow. Where an input is
// oversubscribed every order drawing on it is scaled by the same factor,
// and an order that uses several short inputs is held to the scarcest.
// Inputs are read, not modified.
func Produce(orders []Order, resources kinds.ResourceMap, feedstocks kinds.FeedstockMap) Result {
	reqR, reqF := CalculateRequired(orders)
	var ratioR kinds.ResourceMap
	for i := range ratioR {
		ratioR[i] = feasibility(reqR[i], resources[i])
	}
	var ratioF kinds.FeedstockMap
	for i := range ratioF {
		ratioF[i] = feasibility(reqF[i], feedstocks[i])
	}

	res := Result{ByProcess: make(map[kinds.Id]float64, len(orders))}
	for _, o := range orders {
		p := o.Process
		adj := p.AdjResources()

		factor := 1.0
		for i, v := range adj {
			if v > 0 {
				factor = math.Min(factor, ratioR[i])
			}
		}
		if p.UsesFeedstock() {
			factor = math.Min(factor, ratioF[p.Feedstock.Kind])
		}

		amount := o.Amount * factor
		res.ByProcess[p.ID] += amount
		res.ByOutput[p.Output] += amount
		res.Resources = res.Resources.Add(adj.Scale(amount))
		if p.UsesFeedstock() {
			res.Feedstocks[p.Feedstock.Kind] += p.AdjFeedstock() * amount
		}
		res.Byproducts = res.Byproducts.Add(p.AdjByproducts().Scale(amount))
	}
	return res
}

func feasibility(required, available float64) float64 {
	switch {
	case required <= 0:
		return 1
	case available <= 0:
		return 0
	}
	return math.Min(1, available/required)
}
