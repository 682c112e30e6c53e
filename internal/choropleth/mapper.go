package choropleth

import (
	"fmt"

	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
)

// Mapper colors municipalities for one layer. Municipalities without data
// always take the absent color, whatever the scale would give 0.0.
type Mapper struct {
	Layer  metric.Layer
	Scale  Scale
	Values metric.Values
	Absent string
}

// NewMapper builds the scale of layer for values. policies supplies the
// quantitative layers' breakpoints; the binary layer ignores it.
func NewMapper(layer metric.Layer, values metric.Values, policies map[metric.Layer]Policy) (*Mapper, error) {
	m := &Mapper{Layer: layer, Values: values, Absent: constants.AbsentColor}
	if layer.Binary() {
		m.Scale = NewBinaryScale(layer.Name())
		return m, nil
	}

	policy, ok := policies[layer]
	if !ok {
		return nil, fmt.Errorf("no color policy for layer %q", layer)
	}
	if policy.Caption == "" {
		policy.Caption = layer.Name()
	}
	scale, err := policy.Scale(values.Max())
	if err != nil {
		return nil, fmt.Errorf("layer %q: %w", layer, err)
	}
	m.Scale = scale
	return m, nil
}

// Value returns the municipality's value, 0.0 when absent.
func (m *Mapper) Value(name string) float64 {
	return m.Values.Get(name)
}

// Fill returns the municipality's fill color.
func (m *Mapper) Fill(name string) string {
	if !m.Values.Has(name) {
		return m.Absent
	}
	return m.Scale.Color(m.Values.Get(name))
}

// Legend returns the legend of the scale.
func (m *Mapper) Legend() Legend {
	return m.Scale.Legend()
}
