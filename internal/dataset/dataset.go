// Package dataset loads the course completion table and exposes the rows
// keyed by normalized municipality name.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/iwvelando/qualificacao-dashboard/pkg/constants"
	"golang.org/x/text/unicode/norm"
)

// ExportColumns is the column order of municipality extracts. Only the
// columns present in the source file are exported.
var ExportColumns = []string{
	constants.ColumnLot,
	constants.ColumnMunicipality,
	constants.ColumnCourse,
	constants.ColumnClasses,
	constants.ColumnEnrolled,
	constants.ColumnVacancies,
	constants.ColumnCompletions,
}

// Record is one (municipality, course) row of the source table.
type Record struct {
	Lot          string `json:"lot,omitempty"`
	Municipality string `json:"municipality"`
	Course       string `json:"course"`
	Classes      int    `json:"classes"`
	Enrolled     int    `json:"enrolled"`
	Vacancies    int    `json:"vacancies"`
	Completions  int    `json:"completions"`
}

// Field returns the value of one of the ExportColumns, as a string for the
// text columns and as an int for the counts. Unknown columns yield nil.
func (r Record) Field(column string) any {
	switch column {
	case constants.ColumnLot:
		return r.Lot
	case constants.ColumnMunicipality:
		return r.Municipality
	case constants.ColumnCourse:
		return r.Course
	case constants.ColumnClasses:
		return r.Classes
	case constants.ColumnEnrolled:
		return r.Enrolled
	case constants.ColumnVacancies:
		return r.Vacancies
	case constants.ColumnCompletions:
		return r.Completions
	}
	return nil
}

// Dataset holds every record of the source table and remembers which of
// the known columns the file carried.
type Dataset struct {
	Records []Record
	columns map[string]bool
}

// New builds a dataset from records already in memory. Every known column
// is considered present.
func New(records []Record) *Dataset {
	columns := make(map[string]bool, len(ExportColumns))
	for _, column := range ExportColumns {
		columns[column] = true
	}
	normalized := make([]Record, len(records))
	for i, record := range records {
		record.Municipality = NormalizeName(record.Municipality)
		normalized[i] = record
	}
	return &Dataset{Records: normalized, columns: columns}
}

// Load reads the CSV file at path.
func Load(path string) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	ds, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return ds, nil
}

// Read parses a comma separated table with a header row. Malformed numeric
// cells become zero and missing columns leave their fields empty.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty dataset: missing header row")
		}
		return nil, err
	}

	offset := 0
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
		if isIndexColumn(header[0]) {
			offset = 1
		}
	}

	index := make(map[string]int, len(header))
	for i := offset; i < len(header); i++ {
		index[strings.TrimSpace(header[i])] = i
	}

	columns := make(map[string]bool, len(ExportColumns))
	for _, column := range ExportColumns {
		_, columns[column] = index[column]
	}

	var records []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if blankRow(row) {
			continue
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}

		records = append(records, Record{
			Lot:          strings.TrimSpace(field(constants.ColumnLot)),
			Municipality: NormalizeName(field(constants.ColumnMunicipality)),
			Course:       strings.TrimSpace(field(constants.ColumnCourse)),
			Classes:      ParseCount(field(constants.ColumnClasses)),
			Enrolled:     ParseCount(field(constants.ColumnEnrolled)),
			Vacancies:    ParseCount(field(constants.ColumnVacancies)),
			Completions:  ParseCount(field(constants.ColumnCompletions)),
		})
	}

	return &Dataset{Records: records, columns: columns}, nil
}

// HasColumn reports whether the source file carried the named column.
func (d *Dataset) HasColumn(name string) bool {
	return d.columns[name]
}

// Columns returns the export columns present in the source, in export order.
func (d *Dataset) Columns() []string {
	var present []string
	for _, column := range ExportColumns {
		if d.columns[column] {
			present = append(present, column)
		}
	}
	return present
}

// Filter returns the records of the given course. An empty course keeps
// every record.
func (d *Dataset) Filter(course string) []Record {
	course = strings.TrimSpace(course)
	if course == "" {
		return d.Records
	}
	var filtered []Record
	for _, record := range d.Records {
		if strings.EqualFold(record.Course, course) {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

// ForMunicipality returns the records of one municipality.
func (d *Dataset) ForMunicipality(name string) []Record {
	key := NormalizeName(name)
	var matched []Record
	for _, record := range d.Records {
		if record.Municipality == key {
			matched = append(matched, record)
		}
	}
	return matched
}

// Courses returns the distinct course names, sorted.
func (d *Dataset) Courses() []string {
	return distinct(d.Records, func(r Record) string { return r.Course })
}

// Municipalities returns the distinct normalized municipality names, sorted.
func (d *Dataset) Municipalities() []string {
	return distinct(d.Records, func(r Record) string { return r.Municipality })
}

// Lots returns the distinct lot numbers, sorted.
func (d *Dataset) Lots() []string {
	return distinct(d.Records, func(r Record) string { return r.Lot })
}

// NormalizeName turns a municipality name into its join key: NFC form,
// trimmed and upper-cased.
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(norm.NFC.String(name)))
}

// ParseCount converts a numeric cell to an integer. Decimal values are
// truncated; anything unparsable, negative or above math.MaxInt32 is zero.
func ParseCount(value string) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0
	}
	return int(f)
}

func isIndexColumn(name string) bool {
	trimmed := strings.TrimSpace(name)
	return trimmed == "" || strings.HasPrefix(trimmed, "Unnamed") || strings.HasPrefix(trimmed, ",")
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func distinct(records []Record, key func(Record) string) []string {
	seen := make(map[string]struct{})
	values := make([]string, 0)
	for _, record := range records {
		value := key(record)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		values = append(values, value)
	}
	sort.Strings(values)
	return values
}
