package kinds

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestMapsEncodeAsNamedObjects(t *testing.T) {
	m := FeedstockMap{}
	m[FeedstockOil] = 10
	m[FeedstockNaturalGas] = 2.5

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"oil":10`) || !strings.Contains(string(b), `"natural_gas":2.5`) {
		t.Fatalf("unexpected encoding %s", b)
	}

	var got FeedstockMap
	if err := json.Unmarshal([]byte(`{"coal": 3, "uranium": 1}`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got[FeedstockCoal] != 3 || got[FeedstockUranium] != 1 || got[FeedstockOil] != 0 {
		t.Fatalf("got %v", got)
	}
}

func TestMapRejectsUnknownKey(t *testing.T) {
	var m ResourceMap
	err := json.Unmarshal([]byte(`{"sunlight": 1}`), &m)
	if err == nil || !strings.Contains(err.Error(), "unknown resource") {
		t.Fatalf("expected unknown resource error, got %v", err)
	}
}

func TestMapsDecodeFromYAML(t *testing.T) {
	var doc struct {
		Demand OutputMap `yaml:"demand"`
		Kind   Output    `yaml:"kind"`
	}
	src := "demand:\n  plant_calories: 4\n  electricity: 2\nkind: animal_calories\n"
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	if doc.Demand[OutputPlantCalories] != 4 || doc.Demand[OutputElectricity] != 2 {
		t.Fatalf("demand = %v", doc.Demand)
	}
	if doc.Kind != OutputAnimalCalories {
		t.Fatalf("kind = %v, want animal_calories", doc.Kind)
	}
}

func TestCO2eq(t *testing.T) {
	b := ByproductMap{}
	b[ByproductCO2] = 1
	b[ByproductCH4] = 1
	b[ByproductN2O] = 1
	if got := b.CO2eq(); got != 1+36+298 {
		t.Fatalf("CO2eq = %v, want %v", got, 1+36+298)
	}
}

func TestParseIdAcceptsNames(t *testing.T) {
	a := ParseId("Coal Power")
	if a != IdFor("Coal Power") {
		t.Fatalf("name did not resolve to IdFor")
	}
	b := ParseId(a.String())
	if a != b {
		t.Fatalf("uuid round trip: %s != %s", a, b)
	}
	if !ParseId("").IsZero() {
		t.Fatalf("empty string should parse to the zero id")
	}
}

type thing struct {
	ID   Id     `json:"id"`
	Name string `json:"name"`
}

func (t *thing) Key() Id { return t.ID }

func TestCollection(t *testing.T) {
	a := &thing{ID: IdFor("a"), Name: "a"}
	b := &thing{ID: IdFor("b"), Name: "b"}
	c := NewCollection(a, b)

	if c.Len() != 2 || c.Get(b.ID).Name != "b" {
		t.Fatalf("unexpected collection contents")
	}
	if _, ok := c.TryGet(IdFor("missing")); ok {
		t.Fatalf("TryGet found a missing id")
	}

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Collection[*thing]
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.All()[0].Name != "a" || back.Get(a.ID).Name != "a" {
		t.Fatalf("order or index lost in round trip")
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("Get on a missing id should panic")
		}
	}()
	c.Get(IdFor("missing"))
}
