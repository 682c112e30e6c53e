package metric

import "github.com/iwvelando/qualificacao-dashboard/internal/dataset"

// Aggregate groups records by municipality according to the layer. Records
// without a municipality name are skipped; an unknown layer yields no values.
func Aggregate(records []dataset.Record, layer Layer) Values {
	values := make(Values)
	for _, record := range records {
		name := dataset.NormalizeName(record.Municipality)
		if name == "" {
			continue
		}
		switch layer {
		case Qualified:
			values[name] = 1.0
		case Courses:
			values[name]++
		case Completions:
			values[name] += float64(record.Completions)
		case Classes:
			values[name] += float64(record.Classes)
		}
	}
	return values
}
