package table

import (
	"sort"
	"strings"
)

// AllOption is the sentinel option meaning "no restriction".
const AllOption = "All"

// Selection is the set of chosen values for a categorical column.
//
// Single-select and multi-select widgets both produce a Selection; a
// single-select widget just never holds more than one value. An empty
// Selection and any Selection containing AllOption mean "no restriction".
type Selection []string

// Select builds a Selection from values, dropping blanks.
func Select(values ...string) Selection {
	var s Selection
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s = append(s, v)
		}
	}
	return s
}

// Unrestricted reports whether the selection filters nothing.
func (s Selection) Unrestricted() bool {
	return len(s) == 0 || s.Contains(AllOption)
}

// Contains reports whether v is one of the selected values.
func (s Selection) Contains(v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Within keeps only the values present in options. A selection that loses
// every value becomes empty, which is unrestricted.
func (s Selection) Within(options []string) Selection {
	if s.Unrestricted() {
		return s
	}
	offered := make(map[string]struct{}, len(options))
	for _, o := range options {
		offered[o] = struct{}{}
	}
	var kept Selection
	for _, v := range s {
		if _, ok := offered[v]; ok {
			kept = append(kept, v)
		}
	}
	return kept
}

// Values returns the selected values, or nil when unrestricted.
func (s Selection) Values() []string {
	if s.Unrestricted() {
		return nil
	}
	return append([]string(nil), s...)
}

// Label renders the selection for headings: "All" or a comma-joined list.
func (s Selection) Label() string {
	if s.Unrestricted() {
		return AllOption
	}
	return strings.Join(s, ", ")
}

// Options returns the distinct non-empty values of column, sorted
// lexicographically, with AllOption prepended.
func Options(s *Sheet, column string) []string {
	opts := []string{AllOption}
	idx := s.ColumnIndex(column)
	if idx < 0 {
		return opts
	}

	seen := make(map[string]struct{})
	var values []string
	for _, row := range s.Rows {
		v := row[idx]
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Strings(values)

	return append(opts, values...)
}

// CampaignOptions returns the campaign choices for a normalized sheet.
func CampaignOptions(s *Sheet) []string {
	return Options(s, ColumnCampaign)
}

// ProcessOptions returns the process choices for an already campaign-filtered
// sheet, so the offered processes always follow the campaign filter.
func ProcessOptions(filtered *Sheet) []string {
	return Options(filtered, ColumnProcess)
}

// FilterBy keeps the rows whose value in column is a member of sel. An
// unrestricted selection returns every row. When the column is absent no row
// can match.
func FilterBy(s *Sheet, column string, sel Selection) *Sheet {
	if sel.Unrestricted() {
		return s.where(func([]string) bool { return true })
	}
	idx := s.ColumnIndex(column)
	if idx < 0 {
		return s.where(func([]string) bool { return false })
	}
	return s.where(func(row []string) bool {
		return sel.Contains(row[idx])
	})
}

// FilterByCampaign applies the campaign selection.
func FilterByCampaign(s *Sheet, sel Selection) *Sheet {
	return FilterBy(s, ColumnCampaign, sel)
}

// FilterByProcess applies the process selection. It runs after campaign
// filtering.
func FilterByProcess(s *Sheet, sel Selection) *Sheet {
	return FilterBy(s, ColumnProcess, sel)
}
