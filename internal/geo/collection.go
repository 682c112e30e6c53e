// Package geo loads municipality boundaries, annotates them with layer
// values and resolves map clicks back to a municipality.
package geo

import (
	"fmt"
	"os"
	"sort"

	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Municipality is one named boundary of the collection.
type Municipality struct {
	Name     string
	Display  string
	Geometry orb.Geometry
	Bound    orb.Bound

	feature *geojson.Feature
}

// Collection holds the municipality boundaries in file order.
type Collection struct {
	NameProperty   string
	Municipalities []Municipality

	index map[string]int
}

// Load reads a GeoJSON FeatureCollection from path.
func Load(path, nameProperty string) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read geometry %s: %w", path, err)
	}
	c, err := Read(data, nameProperty)
	if err != nil {
		return nil, fmt.Errorf("failed to parse geometry %s: %w", path, err)
	}
	return c, nil
}

// Read parses a GeoJSON FeatureCollection.
func Read(data []byte, nameProperty string) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}
	return NewCollection(fc, nameProperty)
}

// NewCollection indexes the features of fc by normalized name. Every feature
// needs a Polygon or MultiPolygon geometry and a string name property.
func NewCollection(fc *geojson.FeatureCollection, nameProperty string) (*Collection, error) {
	c := &Collection{
		NameProperty:   nameProperty,
		Municipalities: make([]Municipality, 0, len(fc.Features)),
		index:          make(map[string]int, len(fc.Features)),
	}

	for i, f := range fc.Features {
		display, _ := f.Properties[nameProperty].(string)
		name := dataset.NormalizeName(display)
		if name == "" {
			return nil, fmt.Errorf("feature %d has no %s property", i, nameProperty)
		}

		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("feature %d (%s) has unsupported geometry %T", i, name, f.Geometry)
		}

		if _, dup := c.index[name]; !dup {
			c.index[name] = len(c.Municipalities)
		}
		c.Municipalities = append(c.Municipalities, Municipality{
			Name:     name,
			Display:  display,
			Geometry: f.Geometry,
			Bound:    f.Geometry.Bound(),
			feature:  f,
		})
	}

	return c, nil
}

// Lookup finds a municipality by name, ignoring case and surrounding space.
func (c *Collection) Lookup(name string) (Municipality, bool) {
	i, ok := c.index[dataset.NormalizeName(name)]
	if !ok {
		return Municipality{}, false
	}
	return c.Municipalities[i], true
}

// Names returns the normalized names, sorted.
func (c *Collection) Names() []string {
	names := make([]string, 0, len(c.index))
	for name := range c.index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of features.
func (c *Collection) Len() int {
	return len(c.Municipalities)
}
