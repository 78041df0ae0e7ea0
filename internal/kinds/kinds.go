// Package kinds holds the closed enumerations, enum-indexed quantity maps
// and entity ids shared by every simulation component.
package kinds

import (
	"fmt"
	"strings"
)

// Resource is a stock drawn on by production processes.
type Resource int

const (
	ResourceLand Resource = iota
	ResourceWater
	ResourceElectricity
	ResourceFuel
)

// NumResources is the number of Resource values.
const NumResources = 4

// Output is a good produced by processes to meet demand.
type Output int

const (
	OutputFuel Output = iota
	OutputElectricity
	OutputPlantCalories
	OutputAnimalCalories
)

// NumOutputs is the number of Output values.
const NumOutputs = 4

// Feedstock is a finite raw input consumed in proportion to production.
// Soil and Other are never drawn down.
type Feedstock int

const (
	FeedstockSoil Feedstock = iota
	FeedstockOil
	FeedstockCoal
	FeedstockUranium
	FeedstockLithium
	FeedstockThorium
	FeedstockNaturalGas
	FeedstockOther
)

// NumFeedstocks is the number of Feedstock values.
const NumFeedstocks = 8

// Byproduct is an emission or pressure generated in proportion to production.
type Byproduct int

const (
	ByproductCO2 Byproduct = iota
	ByproductCH4
	ByproductN2O
	ByproductBiodiversity
)

// NumByproducts is the number of Byproduct values.
const NumByproducts = 4

var (
	resourceNames  = [NumResources]string{"land", "water", "electricity", "fuel"}
	outputNames    = [NumOutputs]string{"fuel", "electricity", "plant_calories", "animal_calories"}
	feedstockNames = [NumFeedstocks]string{"soil", "oil", "coal", "uranium", "lithium", "thorium", "natural_gas", "other"}
	byproductNames = [NumByproducts]string{"co2", "ch4", "n2o", "biodiversity"}
)

func (r Resource) String() string  { return enumName(resourceNames[:], int(r)) }
func (o Output) String() string    { return enumName(outputNames[:], int(o)) }
func (f Feedstock) String() string { return enumName(feedstockNames[:], int(f)) }
func (b Byproduct) String() string { return enumName(byproductNames[:], int(b)) }

// Exempt reports whether the feedstock is never consumed or extracted.
func (f Feedstock) Exempt() bool {
	return f == FeedstockSoil || f == FeedstockOther
}

func (r Resource) MarshalText() ([]byte, error)  { return []byte(r.String()), nil }
func (o Output) MarshalText() ([]byte, error)    { return []byte(o.String()), nil }
func (f Feedstock) MarshalText() ([]byte, error) { return []byte(f.String()), nil }
func (b Byproduct) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (r *Resource) UnmarshalText(text []byte) error {
	i, err := parseEnum(resourceNames[:], "resource", text)
	*r = Resource(i)
	return err
}

func (o *Output) UnmarshalText(text []byte) error {
	i, err := parseEnum(outputNames[:], "output", text)
	*o = Output(i)
	return err
}

func (f *Feedstock) UnmarshalText(text []byte) error {
	i, err := parseEnum(feedstockNames[:], "feedstock", text)
	*f = Feedstock(i)
	return err
}

func (b *Byproduct) UnmarshalText(text []byte) error {
	i, err := parseEnum(byproductNames[:], "byproduct", text)
	*b = Byproduct(i)
	return err
}

func enumName(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return fmt.Sprintf("unknown(%d)", i)
	}
	return names[i]
}

func parseEnum(names []string, kind string, text []byte) (int, error) {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, text)
}

// RelationshipChange shifts one NPC's relationship with the player.
type RelationshipChange struct {
	NPC   Id      `json:"npc"`
	Delta float64 `json:"delta"`
}
