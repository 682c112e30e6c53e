// Package report builds the municipality detail view and its extracts:
// CSV and XLSX tables and per-course bar charts.
package report

import (
	"sort"

	"github.com/iwvelando/qualificacao-dashboard/internal/dataset"
)

// CourseTotal aggregates the rows of one course within a municipality.
type CourseTotal struct {
	Course      string `json:"course"`
	Classes     int    `json:"classes"`
	Completions int    `json:"completions"`
	Enrolled    int    `json:"enrolled"`
	Vacancies   int    `json:"vacancies"`
}

// Detail is everything shown for a clicked municipality.
type Detail struct {
	Municipality    string           `json:"municipality"`
	DistinctCourses int              `json:"distinctCourses"`
	Classes         int              `json:"classes"`
	Completions     int              `json:"completions"`
	ByCourse        []CourseTotal    `json:"byCourse"`
	Columns         []string         `json:"columns"`
	Rows            []dataset.Record `json:"rows"`
}

// NewDetail collects the rows of municipality from ds. Per-course totals are
// ordered by completions, highest first, then by course name.
func NewDetail(ds *dataset.Dataset, municipality string) Detail {
	rows := ds.ForMunicipality(municipality)
	if rows == nil {
		rows = []dataset.Record{}
	}
	d := Detail{
		Municipality: dataset.NormalizeName(municipality),
		Columns:      ds.Columns(),
		Rows:         rows,
		ByCourse:     []CourseTotal{},
	}

	index := make(map[string]int)
	for _, r := range rows {
		d.Classes += r.Classes
		d.Completions += r.Completions

		i, ok := index[r.Course]
		if !ok {
			i = len(d.ByCourse)
			index[r.Course] = i
			d.ByCourse = append(d.ByCourse, CourseTotal{Course: r.Course})
		}
		d.ByCourse[i].Classes += r.Classes
		d.ByCourse[i].Completions += r.Completions
		d.ByCourse[i].Enrolled += r.Enrolled
		d.ByCourse[i].Vacancies += r.Vacancies
	}
	d.DistinctCourses = len(d.ByCourse)

	sort.SliceStable(d.ByCourse, func(i, j int) bool {
		a, b := d.ByCourse[i], d.ByCourse[j]
		if a.Completions != b.Completions {
			return a.Completions > b.Completions
		}
		return a.Course < b.Course
	})
	return d
}

// Empty reports whether the municipality has no rows.
func (d Detail) Empty() bool {
	return len(d.Rows) == 0
}

// FileName is the download name of an extract with the given extension,
// e.g. "SOBRAL_detalhamento.csv".
func FileName(municipality, ext string) string {
	return dataset.NormalizeName(municipality) + "_detalhamento." + ext
}
