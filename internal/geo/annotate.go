package geo

import (
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/paulmach/orb/geojson"
)

// Styler supplies the value and fill color of a municipality for the
// selected layer.
type Styler interface {
	Value(name string) float64
	Fill(name string) string
}

// Annotate returns a new FeatureCollection in which every feature carries
// the layer value and fill color. Properties are copied so the loaded
// collection is left untouched; geometries are shared read-only.
func Annotate(c *Collection, styler Styler) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	for _, m := range c.Municipalities {
		f := geojson.NewFeature(m.Geometry)
		f.ID = m.feature.ID
		f.Properties = m.feature.Properties.Clone()
		f.Properties[constants.ValueProperty] = styler.Value(m.Name)
		f.Properties[constants.FillProperty] = styler.Fill(m.Name)
		out.Append(f)
	}
	return out
}
