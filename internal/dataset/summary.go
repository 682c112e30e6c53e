package dataset

import "sort"

// Summary holds the headline numbers of a set of records.
type Summary struct {
	Municipalities   int      `json:"municipalities"`
	Lots             int      `json:"lots"`
	Courses          int      `json:"courses"`
	DistinctCourses  int      `json:"distinctCourses"`
	Classes          int      `json:"classes"`
	Completions      int      `json:"completions"`
	Enrolled         int      `json:"enrolled"`
	Vacancies        int      `json:"vacancies"`
	TopByClasses     []Ranked `json:"topByClasses"`
	TopByCompletions []Ranked `json:"topByCompletions"`
}

// Ranked is one municipality in a ranking.
type Ranked struct {
	Municipality string `json:"municipality"`
	Value        int    `json:"value"`
}

// Summarize computes the summary of records, ranking at most top
// municipalities by classes and by completions.
func Summarize(records []Record, top int) Summary {
	var s Summary
	municipalities := make(map[string]struct{})
	lots := make(map[string]struct{})
	courses := make(map[string]struct{})
	classes := make(map[string]int)
	completions := make(map[string]int)

	for _, record := range records {
		s.Courses++
		s.Classes += record.Classes
		s.Completions += record.Completions
		s.Enrolled += record.Enrolled
		s.Vacancies += record.Vacancies
		if record.Lot != "" {
			lots[record.Lot] = struct{}{}
		}
		if record.Course != "" {
			courses[record.Course] = struct{}{}
		}
		if record.Municipality == "" {
			continue
		}
		municipalities[record.Municipality] = struct{}{}
		classes[record.Municipality] += record.Classes
		completions[record.Municipality] += record.Completions
	}

	s.Municipalities = len(municipalities)
	s.Lots = len(lots)
	s.DistinctCourses = len(courses)
	s.TopByClasses = rank(classes, top)
	s.TopByCompletions = rank(completions, top)
	return s
}

// rank orders totals descending, ties by name, and keeps the first top entries.
func rank(totals map[string]int, top int) []Ranked {
	ranked := make([]Ranked, 0, len(totals))
	for name, value := range totals {
		ranked = append(ranked, Ranked{Municipality: name, Value: value})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Value != ranked[j].Value {
			return ranked[i].Value > ranked[j].Value
		}
		return ranked[i].Municipality < ranked[j].Municipality
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}
