// Package metric aggregates course records per municipality for each of the
// selectable map layers.
package metric

import (
	"fmt"
	"strings"

	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
)

// Layer is one of the four map aggregation modes.
type Layer string

const (
	// Qualified flags municipalities with at least one course.
	Qualified Layer = "qualificacao"
	// Courses counts records per municipality.
	Courses Layer = "cursos"
	// Completions sums completions per municipality.
	Completions Layer = "concludentes"
	// Classes sums classes per municipality.
	Classes Layer = "turmas"
)

var displayNames = map[Layer]string{
	Qualified:   "Municípios com Qualificação",
	Courses:     "Cursos por Município",
	Completions: "Concludentes por Município",
	Classes:     "Turmas por Município",
}

// Layers lists every layer in menu order.
func Layers() []Layer {
	return []Layer{Qualified, Courses, Completions, Classes}
}

// Name returns the display name of the layer.
func (l Layer) Name() string {
	return displayNames[l]
}

// Binary reports whether the layer is a presence flag rather than a quantity.
func (l Layer) Binary() bool {
	return l == Qualified
}

// Valid reports whether l is a known layer.
func (l Layer) Valid() bool {
	_, ok := displayNames[l]
	return ok
}

// ParseLayer accepts a layer id or display name, ignoring case and
// surrounding space.
func ParseLayer(raw string) (Layer, error) {
	value := strings.TrimSpace(raw)
	for _, layer := range Layers() {
		if strings.EqualFold(value, string(layer)) || strings.EqualFold(value, layer.Name()) {
			return layer, nil
		}
	}
	return "", fmt.Errorf("unknown layer %q", raw)
}

// Values maps normalized municipality names to the aggregated value of a layer.
type Values map[string]float64

// Get returns the value of a municipality, 0.0 when it has no data.
func (v Values) Get(name string) float64 {
	return v[dataset.NormalizeName(name)]
}

// Has reports whether the municipality appears in the data.
func (v Values) Has(name string) bool {
	_, ok := v[dataset.NormalizeName(name)]
	return ok
}

// Max returns the largest value, 0 when there is no data.
func (v Values) Max() float64 {
	var highest float64
	for _, value := range v {
		if value > highest {
			highest = value
		}
	}
	return highest
}
