package geo

import (
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// Method tells how a click was resolved.
type Method string

const (
	// MethodProperties means the click carried the municipality name.
	MethodProperties Method = "properties"
	// MethodPoint means the coordinates were tested against the boundaries.
	MethodPoint Method = "point"
)

// ClickEvent is the payload the map sends for a click: the clicked feature's
// properties when the map returns them, and the coordinates otherwise.
type ClickEvent struct {
	Properties map[string]any
	Lat        *float64
	Lng        *float64
}

// ParseClick reads a raw click payload. Properties are taken from the
// "properties" member when present, from the payload itself otherwise.
func ParseClick(raw map[string]any) ClickEvent {
	var event ClickEvent
	if raw == nil {
		return event
	}
	if props, ok := raw["properties"].(map[string]any); ok {
		event.Properties = props
	} else {
		event.Properties = raw
	}
	if lat, ok := toFloat(raw["lat"]); ok {
		event.Lat = &lat
	}
	if lng, ok := toFloat(raw["lng"]); ok {
		event.Lng = &lng
	}
	return event
}

// Resolution is a resolved click.
type Resolution struct {
	Name   string
	Method Method
	Value  *float64
}

// Resolver turns clicks into municipality names.
type Resolver struct {
	Collection *Collection
	// Tolerance in degrees around the clicked point, for clicks on borders.
	Tolerance float64
}

// NewResolver returns a resolver over c. A negative tolerance uses the default.
func NewResolver(c *Collection, tolerance float64) *Resolver {
	if tolerance < 0 {
		tolerance = constants.DefaultResolverTolerance
	}
	return &Resolver{Collection: c, Tolerance: tolerance}
}

// Resolve identifies the clicked municipality. The name property of the
// payload wins; otherwise the coordinates are located. ok is false when
// neither yields a name.
func (r *Resolver) Resolve(event ClickEvent) (Resolution, bool) {
	if raw, ok := event.Properties[r.Collection.NameProperty].(string); ok {
		if name := dataset.NormalizeName(raw); name != "" {
			res := Resolution{Name: name, Method: MethodProperties}
			if v, ok := toFloat(event.Properties[constants.ValueProperty]); ok {
				res.Value = &v
			}
			return res, true
		}
	}

	if event.Lat == nil || event.Lng == nil {
		return Resolution{}, false
	}
	m, ok := r.Locate(orb.Point{*event.Lng, *event.Lat})
	if !ok {
		return Resolution{}, false
	}
	return Resolution{Name: m.Name, Method: MethodPoint}, true
}

// Locate returns the first municipality, in collection order, whose boundary
// intersects the tolerance buffer around pt.
func (r *Resolver) Locate(pt orb.Point) (Municipality, bool) {
	for _, m := range r.Collection.Municipalities {
		if !m.Bound.Pad(r.Tolerance).Contains(pt) {
			continue
		}
		if contains(m.Geometry, pt) || boundaryDistance(m.Geometry, pt) <= r.Tolerance {
			return m, true
		}
	}
	return Municipality{}, false
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	}
	return false
}

// boundaryDistance is the planar distance from pt to the nearest ring edge.
func boundaryDistance(g orb.Geometry, pt orb.Point) float64 {
	var polygons []orb.Polygon
	switch geom := g.(type) {
	case orb.Polygon:
		polygons = []orb.Polygon{geom}
	case orb.MultiPolygon:
		polygons = geom
	}

	nearest := math.Inf(1)
	for _, polygon := range polygons {
		for _, ring := range polygon {
			if len(ring) == 0 {
				continue
			}
			if d := planar.DistanceFrom(orb.LineString(ring), pt); d < nearest {
				nearest = d
			}
		}
	}
	return nearest
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, !math.IsNaN(x)
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}
