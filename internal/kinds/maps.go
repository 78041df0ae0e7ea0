package kinds

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ResourceMap holds one quantity per Resource.
type ResourceMap [NumResources]float64

// OutputMap holds one quantity per Output.
type OutputMap [NumOutputs]float64

// FeedstockMap holds one quantity per Feedstock.
type FeedstockMap [NumFeedstocks]float64

// ByproductMap holds one quantity per Byproduct.
type ByproductMap [NumByproducts]float64

func (m ResourceMap) Add(o ResourceMap) ResourceMap {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m ResourceMap) Sub(o ResourceMap) ResourceMap {
	for i := range m {
		m[i] -= o[i]
	}
	return m
}

func (m ResourceMap) Scale(f float64) ResourceMap {
	for i := range m {
		m[i] *= f
	}
	return m
}

func (m OutputMap) Add(o OutputMap) OutputMap {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m OutputMap) Scale(f float64) OutputMap {
	for i := range m {
		m[i] *= f
	}
	return m
}

// Mul multiplies elementwise.
func (m OutputMap) Mul(o OutputMap) OutputMap {
	for i := range m {
		m[i] *= o[i]
	}
	return m
}

func (m OutputMap) Sum() float64 {
	var total float64
	for _, v := range m {
		total += v
	}
	return total
}

func (m FeedstockMap) Add(o FeedstockMap) FeedstockMap {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m FeedstockMap) Sub(o FeedstockMap) FeedstockMap {
	for i := range m {
		m[i] -= o[i]
	}
	return m
}

func (m ByproductMap) Add(o ByproductMap) ByproductMap {
	for i := range m {
		m[i] += o[i]
	}
	return m
}

func (m ByproductMap) Scale(f float64) ByproductMap {
	for i := range m {
		m[i] *= f
	}
	return m
}

// CO2eq weighs the greenhouse gases by their 100-year warming potential.
func (m ByproductMap) CO2eq() float64 {
	return m[ByproductCO2] + 36*m[ByproductCH4] + 298*m[ByproductN2O]
}

// The maps serialize as objects keyed by enum name so content files stay
// readable and independent of enum ordering.

func (m ResourceMap) MarshalJSON() ([]byte, error)   { return json.Marshal(named(m[:], resourceNames[:])) }
func (m OutputMap) MarshalJSON() ([]byte, error)     { return json.Marshal(named(m[:], outputNames[:])) }
func (m FeedstockMap) MarshalJSON() ([]byte, error)  { return json.Marshal(named(m[:], feedstockNames[:])) }
func (m ByproductMap) MarshalJSON() ([]byte, error)  { return json.Marshal(named(m[:], byproductNames[:])) }
func (m ResourceMap) MarshalYAML() (any, error)      { return named(m[:], resourceNames[:]), nil }
func (m OutputMap) MarshalYAML() (any, error)        { return named(m[:], outputNames[:]), nil }
func (m FeedstockMap) MarshalYAML() (any, error)     { return named(m[:], feedstockNames[:]), nil }
func (m ByproductMap) MarshalYAML() (any, error)     { return named(m[:], byproductNames[:]), nil }
func (m *ResourceMap) UnmarshalJSON(b []byte) error  { return fillJSON(m[:], resourceNames[:], "resource", b) }
func (m *OutputMap) UnmarshalJSON(b []byte) error    { return fillJSON(m[:], outputNames[:], "output", b) }
func (m *FeedstockMap) UnmarshalJSON(b []byte) error { return fillJSON(m[:], feedstockNames[:], "feedstock", b) }
func (m *ByproductMap) UnmarshalJSON(b []byte) error { return fillJSON(m[:], byproductNames[:], "byproduct", b) }

func (m *ResourceMap) UnmarshalYAML(n *yaml.Node) error {
	return fillYAML(m[:], resourceNames[:], "resource", n)
}

func (m *OutputMap) UnmarshalYAML(n *yaml.Node) error {
	return fillYAML(m[:], outputNames[:], "output", n)
}

func (m *FeedstockMap) UnmarshalYAML(n *yaml.Node) error {
	return fillYAML(m[:], feedstockNames[:], "feedstock", n)
}

func (m *ByproductMap) UnmarshalYAML(n *yaml.Node) error {
	return fillYAML(m[:], byproductNames[:], "byproduct", n)
}

func named(vals []float64, names []string) map[string]float64 {
	out := make(map[string]float64, len(vals))
	for i, v := range vals {
		out[names[i]] = v
	}
	return out
}

func fill(dst []float64, names []string, kind string, raw map[string]float64) error {
	for i := range dst {
		dst[i] = 0
	}
	for k, v := range raw {
		i, err := parseEnum(names, kind, []byte(k))
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

func fillJSON(dst []float64, names []string, kind string, b []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("decode %s map: %w", kind, err)
	}
	return fill(dst, names, kind, raw)
}

func fillYAML(dst []float64, names []string, kind string, n *yaml.Node) error {
	var raw map[string]float64
	if err := n.Decode(&raw); err != nil {
		return fmt.Errorf("decode %s map: %w", kind, err)
	}
	return fill(dst, names, kind, raw)
}
