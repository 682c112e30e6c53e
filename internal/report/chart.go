package report

import (
	"fmt"
	"image/color"
	"io"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ChartKind selects the per-course measure drawn by Chart.
type ChartKind string

const (
	ChartCompletions ChartKind = "completions"
	ChartClasses     ChartKind = "classes"
)

var barColor = color.RGBA{R: 0x31, G: 0xa3, B: 0x54, A: 0xff}

// ParseChartKind accepts "completions" or "classes".
func ParseChartKind(value string) (ChartKind, error) {
	switch kind := ChartKind(strings.ToLower(strings.TrimSpace(value))); kind {
	case ChartCompletions, ChartClasses:
		return kind, nil
	}
	return "", fmt.Errorf("unknown chart %q", value)
}

// Chart renders a horizontal bar chart of kind per course as PNG. The
// largest bar is drawn at the top. A municipality without courses gets
// empty axes.
func Chart(w io.Writer, d Detail, kind ChartKind) error {
	var title, axis string
	measure := func(c CourseTotal) int { return c.Completions }
	switch kind {
	case ChartCompletions:
		title, axis = "Concludentes por curso", "Concludentes"
	case ChartClasses:
		title, axis = "Turmas por curso", "Turmas"
		measure = func(c CourseTotal) int { return c.Classes }
	default:
		return fmt.Errorf("unknown chart %q", kind)
	}

	courses := make([]CourseTotal, len(d.ByCourse))
	copy(courses, d.ByCourse)
	sort.SliceStable(courses, func(i, j int) bool {
		return measure(courses[i]) < measure(courses[j])
	})

	values := make(plotter.Values, len(courses))
	labels := make([]string, len(courses))
	for i, c := range courses {
		values[i] = float64(measure(c))
		labels[i] = c.Course
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s - %s", title, d.Municipality)
	p.X.Label.Text = axis
	p.Y.Label.Text = "Curso"
	p.X.Min = 0

	if len(courses) == 0 {
		p.Title.Text += " (sem cursos)"
		p.X.Max = 1
		p.Y.Min, p.Y.Max = 0, 1
		p.Y.Tick.Marker = plot.ConstantTicks(nil)
	} else {
		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return fmt.Errorf("failed to build chart: %w", err)
		}
		bars.Horizontal = true
		bars.Color = barColor
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars, plotter.NewGrid())
		p.NominalY(labels...)
	}

	height := vg.Length(len(courses))*vg.Points(22) + 2*vg.Inch
	wt, err := p.WriterTo(8*vg.Inch, height, "png")
	if err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
