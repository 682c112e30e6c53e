package choropleth

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iwvelando/qualificacao-dashboard/pkg/mathutil"
)

// Palette is an ordered list of hex colors from light to dark.
type Palette []string

// ColorBrewer sequential greens.
var (
	Greens5 = Palette{"#edf8e9", "#bae4b3", "#74c476", "#31a354", "#006d2c"}
	Greens6 = Palette{"#edf8e9", "#c7e9c0", "#a1d99b", "#74c476", "#31a354", "#006d2c"}
)

var palettes = map[string]Palette{
	"Greens_05": Greens5,
	"Greens_06": Greens6,
}

// LookupPalette returns the named palette.
func LookupPalette(name string) (Palette, error) {
	p, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("unknown palette %q", name)
	}
	return p, nil
}

// Sample returns n colors spread evenly from the first to the last color of
// the palette, interpolating in RGB between neighbours.
func (p Palette) Sample(n int) []string {
	if n <= 0 || len(p) == 0 {
		return nil
	}
	if n == len(p) {
		return append([]string(nil), p...)
	}
	if n == 1 {
		return []string{p[0]}
	}
	colors := make([]string, n)
	for i := 0; i < n; i++ {
		colors[i] = p.At(float64(i) / float64(n-1))
	}
	return colors
}

// At returns the color at position t in [0, 1] along the palette.
func (p Palette) At(t float64) string {
	if len(p) == 0 {
		return ""
	}
	pos := mathutil.Clamp(t, 0, 1) * float64(len(p)-1)
	i := int(math.Floor(pos))
	if i >= len(p)-1 {
		return p[len(p)-1]
	}
	return mix(p[i], p[i+1], pos-float64(i))
}

func mix(from, to string, t float64) string {
	a, errA := parseHex(from)
	b, errB := parseHex(to)
	if errA != nil || errB != nil {
		return from
	}
	var out [3]uint8
	for c := range out {
		out[c] = uint8(math.Round(mathutil.Lerp(float64(a[c]), float64(b[c]), t)))
	}
	return fmt.Sprintf("#%02x%02x%02x", out[0], out[1], out[2])
}

func parseHex(color string) ([3]uint8, error) {
	var rgb [3]uint8
	hex := strings.TrimPrefix(color, "#")
	if len(hex) != 6 {
		return rgb, fmt.Errorf("invalid color %q", color)
	}
	for c := range rgb {
		v, err := strconv.ParseUint(hex[c*2:c*2+2], 16, 8)
		if err != nil {
			return rgb, fmt.Errorf("invalid color %q: %w", color, err)
		}
		rgb[c] = uint8(v)
	}
	return rgb, nil
}
