// Package output provides utilities for formatting and displaying layer values.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/iwvelando/qualificacao-dashboard/internal/dashboard"
	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Row is one municipality of a rendered layer.
type Row struct {
	Municipality string
	Value        float64
	Fill         string
	HasData      bool
}

// Rows lists every municipality of view, those with data first by value
// descending, then the rest by name.
func Rows(view dashboard.LayerView) []Row {
	rows := make([]Row, 0, len(view.Features.Features))
	for _, f := range view.Features.Features {
		name := dataset.NormalizeName(f.Properties.MustString(view.NameProperty, ""))
		rows = append(rows, Row{
			Municipality: name,
			Value:        view.Values.Get(name),
			Fill:         f.Properties.MustString(constants.FillProperty, constants.AbsentColor),
			HasData:      view.Values.Has(name),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.HasData != b.HasData {
			return a.HasData
		}
		if a.Value != b.Value {
			return a.Value > b.Value
		}
		return a.Municipality < b.Municipality
	})
	return rows
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, view dashboard.LayerView) {
	p := message.NewPrinter(language.BrazilianPortuguese)
	title := view.Legend.Caption
	if view.Course != "" {
		title = fmt.Sprintf("%s (%s)", title, view.Course)
	}
	_, _ = fmt.Fprintf(w, "--- %s ---\n", title)
	_, _ = fmt.Fprintf(w, "%-32s | %12s | %s\n", "Município", "Valor", "Cor")
	_, _ = fmt.Fprintf(w, "%-32s | %12s | %s\n", "_________", "_____", "___")
	for _, row := range Rows(view) {
		value := "-"
		if row.HasData {
			value = p.Sprintf("%v", row.Value)
		}
		_, _ = fmt.Fprintf(w, "%-32s | %12s | %s\n", row.Municipality, value, row.Fill)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, view dashboard.LayerView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"municipio", "valor", "cor"}); err != nil {
		return err
	}
	for _, row := range Rows(view) {
		value := ""
		if row.HasData {
			value = strconv.FormatFloat(row.Value, 'f', -1, 64)
		}
		if err := cw.Write([]string{row.Municipality, value, row.Fill}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// GeoJSONFormat outputs the annotated feature collection.
func GeoJSONFormat(w io.Writer, view dashboard.LayerView) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(view.Features)
}
