// Package choropleth maps aggregated layer values to fill colors, either by
// a presence rule or by a step scale with fixed breakpoints.
package choropleth

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"github.com/iwvelando/qualificacao-dashboard/pkg/format"
	"github.com/iwvelando/qualificacao-dashboard/pkg/mathutil"
)

// Scale assigns a fill color to a value.
type Scale interface {
	Color(value float64) string
	Legend() Legend
}

// Legend describes a scale for the map key.
type Legend struct {
	Caption string        `json:"caption"`
	Binary  bool          `json:"binary"`
	Entries []LegendEntry `json:"entries"`
}

// LegendEntry is one swatch of the legend. From/To are omitted for
// categorical entries.
type LegendEntry struct {
	Label string   `json:"label"`
	Color string   `json:"color"`
	From  *float64 `json:"from,omitempty"`
	To    *float64 `json:"to,omitempty"`
}

// BinaryScale colors values of at least 1 with On and everything else with Off.
type BinaryScale struct {
	Caption  string
	On       string
	Off      string
	OnLabel  string
	OffLabel string
}

// NewBinaryScale returns the presence scale with the dashboard colors.
func NewBinaryScale(caption string) BinaryScale {
	return BinaryScale{
		Caption:  caption,
		On:       constants.PresentColor,
		Off:      constants.AbsentColor,
		OnLabel:  "Com qualificação",
		OffLabel: "Sem qualificação",
	}
}

// Color implements Scale.
func (s BinaryScale) Color(value float64) string {
	if value >= 1.0 {
		return s.On
	}
	return s.Off
}

// Legend implements Scale.
func (s BinaryScale) Legend() Legend {
	return Legend{
		Caption: s.Caption,
		Binary:  true,
		Entries: []LegendEntry{
			{Label: s.OnLabel, Color: s.On},
			{Label: s.OffLabel, Color: s.Off},
		},
	}
}

// StepScale splits values into bins [b[i], b[i+1]). Values below the first
// breakpoint take the Absent color; values at or above the last breakpoint
// fall into the last bin.
type StepScale struct {
	Caption     string
	Breakpoints []float64
	Colors      []string
	Absent      string
}

// NewStepScale builds a step scale with one palette color per bin.
func NewStepScale(caption string, breakpoints []float64, palette Palette, absent string) (StepScale, error) {
	if len(breakpoints) < 2 {
		return StepScale{}, errors.New("step scale needs at least two breakpoints")
	}
	if !mathutil.Ascending(breakpoints) {
		return StepScale{}, fmt.Errorf("breakpoints must be ascending: %v", breakpoints)
	}
	if len(palette) == 0 {
		return StepScale{}, errors.New("step scale needs a palette")
	}
	return StepScale{
		Caption:     caption,
		Breakpoints: append([]float64(nil), breakpoints...),
		Colors:      palette.Sample(len(breakpoints) - 1),
		Absent:      absent,
	}, nil
}

// Bin returns the index of the bin holding value, or -1 below the first
// breakpoint. A value equal to a breakpoint belongs to the bin starting there.
func (s StepScale) Bin(value float64) int {
	if len(s.Breakpoints) < 2 || math.IsNaN(value) || value < s.Breakpoints[0] {
		return -1
	}
	i := sort.Search(len(s.Breakpoints), func(i int) bool { return s.Breakpoints[i] > value }) - 1
	if last := len(s.Breakpoints) - 2; i > last {
		i = last
	}
	return i
}

// Color implements Scale.
func (s StepScale) Color(value float64) string {
	bin := s.Bin(value)
	if bin < 0 || bin >= len(s.Colors) {
		return s.Absent
	}
	return s.Colors[bin]
}

// Max returns the upper edge of the scale.
func (s StepScale) Max() float64 {
	if len(s.Breakpoints) == 0 {
		return 0
	}
	return s.Breakpoints[len(s.Breakpoints)-1]
}

// Legend implements Scale.
func (s StepScale) Legend() Legend {
	legend := Legend{Caption: s.Caption}
	for i, color := range s.Colors {
		from, to := s.Breakpoints[i], s.Breakpoints[i+1]
		legend.Entries = append(legend.Entries, LegendEntry{
			Label: fmt.Sprintf("%s – %s", format.Value(from), format.Value(to)),
			Color: color,
			From:  &from,
			To:    &to,
		})
	}
	legend.Entries = append(legend.Entries, LegendEntry{Label: "Sem dados", Color: s.Absent})
	return legend
}
