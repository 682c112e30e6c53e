package choropleth

import (
	"fmt"

	"github.com/iwvelando/qualificacao-dashboard/internal/metric"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/iwvelando/qualificacao-dashboard/pkg/mathutil"
)

// Policy is the presentation policy of a quantitative layer. The scale's
// last breakpoint is the greater of Floor and the observed maximum.
type Policy struct {
	Caption     string    `mapstructure:"caption" yaml:"caption"`
	Breakpoints []float64 `mapstructure:"breakpoints" yaml:"breakpoints" validate:"required,min=1"`
	Floor       float64   `mapstructure:"floor" yaml:"floor" validate:"gte=0"`
	Palette     string    `mapstructure:"palette" yaml:"palette" validate:"required"`
}

// DefaultPolicies returns the stock breakpoints of each quantitative layer.
func DefaultPolicies() map[metric.Layer]Policy {
	return map[metric.Layer]Policy{
		metric.Courses: {
			Caption:     metric.Courses.Name(),
			Breakpoints: []float64{1, 2, 5, 10, 20},
			Floor:       20,
			Palette:     "Greens_05",
		},
		metric.Completions: {
			Caption:     metric.Completions.Name(),
			Breakpoints: []float64{0, 100, 150, 200, 500, 1000},
			Floor:       1000,
			Palette:     "Greens_06",
		},
		metric.Classes: {
			Caption:     metric.Classes.Name(),
			Breakpoints: []float64{1, 5, 10, 20},
			Floor:       20,
			Palette:     "Greens_05",
		},
	}
}

// Top returns the upper edge for the observed maximum.
func (p Policy) Top(observedMax float64) float64 {
	return mathutil.Max(p.Floor, mathutil.Finite(observedMax))
}

// Scale builds the step scale for data whose largest value is observedMax.
func (p Policy) Scale(observedMax float64) (StepScale, error) {
	palette, err := LookupPalette(p.Palette)
	if err != nil {
		return StepScale{}, err
	}
	breakpoints := append(append([]float64(nil), p.Breakpoints...), p.Top(observedMax))
	return NewStepScale(p.Caption, breakpoints, palette, constants.AbsentColor)
}

// Validate checks the policy can produce a scale.
func (p Policy) Validate() error {
	if len(p.Breakpoints) == 0 {
		return fmt.Errorf("policy %q has no breakpoints", p.Caption)
	}
	if !mathutil.Ascending(p.Breakpoints) {
		return fmt.Errorf("policy %q breakpoints must be ascending: %v", p.Caption, p.Breakpoints)
	}
	if p.Floor < p.Breakpoints[len(p.Breakpoints)-1] {
		return fmt.Errorf("policy %q floor %v is below its last breakpoint", p.Caption, p.Floor)
	}
	if _, err := LookupPalette(p.Palette); err != nil {
		return fmt.Errorf("policy %q: %w", p.Caption, err)
	}
	return nil
}
