// Package content loads world definitions from YAML world files and JSON
// content exports, and checks them before a simulation is built on them.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/talgya/halfearth/internal/events"
	"github.com/talgya/halfearth/internal/kinds"
	"github.com/talgya/halfearth/internal/production"
	"github.com/talgya/halfearth/internal/projects"
	"github.com/talgya/halfearth/internal/social"
	"github.com/talgya/halfearth/internal/world"
)

// LoadFile reads a world file over base, choosing the format by extension.
// The result is normalized and validated.
func LoadFile(path string, base *world.World) (*world.World, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read world file: %w", err)
	}
	var w *world.World
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		w, err = ParseYAML(data, base)
	case ".json":
		w, err = ParseJSON(data, base)
	default:
		return nil, fmt.Errorf("world file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("world file %s: %w", path, err)
	}
	slog.Info("world loaded",
		"path", path,
		"regions", len(w.Regions),
		"processes", len(w.Processes),
		"projects", len(w.Projects),
		"events", len(w.Events))
	return w, nil
}

// ParseYAML decodes a YAML world over a copy of base. Keys present in the
// document replace the base's; a list replaces the whole list.
func ParseYAML(data []byte, base *world.World) (*world.World, error) {
	w := base.Clone()
	if err := yaml.Unmarshal(data, w); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	Normalize(w)
	if err := Validate(w); err != nil {
		return nil, err
	}
	return w, nil
}

// ParseJSON applies a JSON content export to a copy of base. An export is
// either an object with entity sections ("processes", "projects",
// "events", "npcs", "regions") and scalar settings, or an array of
// records tagged with "kind". Entities are merged by id, so an export
// can patch a single process without restating the rest.
func ParseJSON(data []byte, base *world.World) (*world.World, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("decode json: invalid document")
	}
	w := base.Clone()
	root := gjson.ParseBytes(data)

	var err error
	switch {
	case root.IsArray():
		root.ForEach(func(_, rec gjson.Result) bool {
			err = mergeRecord(w, rec.Get("kind").String(), rec)
			return err == nil
		})
	case root.IsObject():
		for _, sec := range sections {
			root.Get(sec.path).ForEach(func(_, rec gjson.Result) bool {
				err = mergeRecord(w, sec.kind, rec)
				return err == nil
			})
			if err != nil {
				break
			}
		}
		if err == nil {
			err = applySettings(w, root)
		}
	default:
		err = fmt.Errorf("decode json: want an object or array, got %s", root.Type)
	}
	if err != nil {
		return nil, err
	}

	Normalize(w)
	if err := Validate(w); err != nil {
		return nil, err
	}
	return w, nil
}

var sections = []struct{ path, kind string }{
	{"npcs", "npc"},
	{"regions", "region"},
	{"processes", "process"},
	{"projects", "project"},
	{"events", "event"},
}

func mergeRecord(w *world.World, kind string, rec gjson.Result) error {
	switch kind {
	case "process":
		p, err := decode[production.Process](rec)
		if err != nil {
			return err
		}
		w.Processes = upsert(w.Processes, withId(p, p.Name, &p.ID))
	case "project":
		p, err := decode[projects.Project](rec)
		if err != nil {
			return err
		}
		w.Projects = upsert(w.Projects, withId(p, p.Name, &p.ID))
	case "event":
		e, err := decode[events.Event](rec)
		if err != nil {
			return err
		}
		w.Events = upsert(w.Events, withId(e, e.Name, &e.ID))
	case "npc":
		n, err := decode[social.NPC](rec)
		if err != nil {
			return err
		}
		w.NPCs = upsert(w.NPCs, withId(n, n.Name, &n.ID))
	case "region":
		r, err := decode[social.Region](rec)
		if err != nil {
			return err
		}
		w.Regions = upsert(w.Regions, withId(r, "region:"+r.Name, &r.ID))
	default:
		return fmt.Errorf("record %s: unknown kind %q", rec.Get("name").String(), kind)
	}
	return nil
}

func decode[T any](rec gjson.Result) (*T, error) {
	v := new(T)
	if err := json.Unmarshal([]byte(rec.Raw), v); err != nil {
		return nil, fmt.Errorf("decode %T %q: %w", v, rec.Get("name").String(), err)
	}
	return v, nil
}

// withId fills a missing id from the entity's name.
func withId[T any](v *T, name string, id *kinds.Id) *T {
	if id.IsZero() {
		*id = kinds.IdFor(name)
	}
	return v
}

// upsert replaces the item with the same key or appends it.
func upsert[T kinds.Keyed](items []T, item T) []T {
	for i, existing := range items {
		if existing.Key() == item.Key() {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// applySettings copies the scalar settings present in an export.
func applySettings(w *world.World, root gjson.Result) error {
	ints := map[string]*int{
		"year":            &w.Year,
		"death_year":      &w.DeathYear,
		"research_points": &w.ResearchPoints,
	}
	for path, dst := range ints {
		if v := root.Get(path); v.Exists() {
			*dst = int(v.Int())
		}
	}
	floats := map[string]*float64{
		"temperature":       &w.Temperature,
		"sea_level_rise":    &w.SeaLevelRise,
		"precipitation":     &w.Precipitation,
		"water_stress":      &w.WaterStress,
		"extinction_rate":   &w.ExtinctionRate,
		"base_outlook":      &w.BaseOutlook,
		"protected_land":    &w.ProtectedLand,
		"political_capital": &w.PoliticalCapital,
	}
	for path, dst := range floats {
		if v := root.Get(path); v.Exists() {
			*dst = v.Float()
		}
	}
	maps := map[string]json.Unmarshaler{
		"base_resources":     &w.BaseResources,
		"feedstock_stock":    &w.FeedstockStock,
		"feedstock_reserves": &w.FeedstockReserves,
		"extraction_rates":   &w.ExtractionRates,
	}
	for path, dst := range maps {
		if v := root.Get(path); v.Exists() {
			if err := dst.UnmarshalJSON([]byte(v.Raw)); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
	}
	return nil
}
