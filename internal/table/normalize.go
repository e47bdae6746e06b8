package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrMissingColumns is returned when a sheet lacks CAMPAIGN or PROCESS after
// header normalization. It is a soft failure: the sheet can still be shown,
// but no filtering or export is offered.
var ErrMissingColumns = errors.New("missing required columns")

var (
	// ErrColumnNotFound is returned when a named column does not exist.
	ErrColumnNotFound = errors.New("column not found")

	// ErrNotNumeric is returned when a charted column holds a non-numeric value.
	ErrNotNumeric = errors.New("not a number")
)

// RequiredColumns are the columns the filter pipeline needs.
var RequiredColumns = []string{ColumnCampaign, ColumnProcess}

var headerReplacer = strings.NewReplacer(" ", "_", "-", "_")

// NormalizeHeader trims whitespace, upper-cases and replaces spaces and
// hyphens with underscores. It is idempotent.
func NormalizeHeader(name string) string {
	// Casers are stateful and must not be shared between goroutines.
	upper := cases.Upper(language.Und)
	return headerReplacer.Replace(upper.String(strings.TrimSpace(name)))
}

// UniqueColumns returns names with repeats suffixed ".1", ".2" and so on, in
// order, so every column has a distinct name. Already distinct names are
// returned unchanged.
func UniqueColumns(names []string) []string {
	out := make([]string, len(names))
	used := make(map[string]bool, len(names))
	suffix := make(map[string]int, len(names))
	for i, name := range names {
		col := name
		for used[col] {
			suffix[name]++
			col = name + "." + strconv.Itoa(suffix[name])
		}
		used[col] = true
		out[i] = col
	}
	return out
}

// Normalize forward-fills missing cells down each column, drops rows that are
// entirely empty, then normalizes every column name and makes repeats distinct.
//
// The fill runs before the drop, so an interior blank row becomes a copy of
// the row above it; only leading blank rows are removed.
func Normalize(s *Sheet) *Sheet {
	width := len(s.Columns)
	out := &Sheet{
		Name:    s.Name,
		Columns: make([]string, width),
		Rows:    make([][]string, 0, len(s.Rows)),
	}
	for i, c := range s.Columns {
		out.Columns[i] = NormalizeHeader(c)
	}
	// Headers differing only in case or spacing collide after normalizing.
	out.Columns = UniqueColumns(out.Columns)

	last := make([]string, width)
	for _, row := range s.Rows {
		filled := make([]string, width)
		empty := true
		for i := 0; i < width; i++ {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			if v == "" {
				v = last[i]
			} else {
				last[i] = v
			}
			filled[i] = v
			if v != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		out.Rows = append(out.Rows, filled)
	}

	return out
}

// MissingColumns returns the required columns absent from the sheet.
func (s *Sheet) MissingColumns() []string {
	var missing []string
	for _, c := range RequiredColumns {
		if !s.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// CheckColumns returns an error wrapping ErrMissingColumns when the sheet
// lacks CAMPAIGN or PROCESS.
func CheckColumns(s *Sheet) error {
	if missing := s.MissingColumns(); len(missing) > 0 {
		return fmt.Errorf("sheet %q: %w: %s", s.Name, ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}
