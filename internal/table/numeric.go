package table

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates a cleaned numeric string: integers, decimals and
// scientific notation. It rejects NaN and Inf spellings strconv would accept.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber parses a displayed cell value as a number. Thousands
// separators, currency symbols and accounting negatives "(12.50)" are
// accepted.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("$", "", "€", "", "£", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// categorical reports whether a column is always treated as text.
func categorical(column string) bool {
	return column == ColumnCampaign || column == ColumnProcess
}

// NumericColumns returns, in column order, the columns whose non-empty values
// all parse as numbers. A column needs at least one value to qualify, and the
// filter columns are never numeric.
func NumericColumns(s *Sheet) []string {
	var cols []string
	for i, name := range s.Columns {
		if categorical(name) {
			continue
		}
		seen := 0
		numeric := true
		for _, row := range s.Rows {
			v := row[i]
			if v == "" {
				continue
			}
			if _, ok := ParseNumber(v); !ok {
				numeric = false
				break
			}
			seen++
		}
		if numeric && seen > 0 {
			cols = append(cols, name)
		}
	}
	return cols
}

// NumericValues returns the points of a numeric column in row order. xs holds
// the zero-based row position; rows with an empty cell are skipped.
func NumericValues(s *Sheet, column string) (xs, ys []float64, err error) {
	idx := s.ColumnIndex(column)
	if idx < 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	for r, row := range s.Rows {
		if row[idx] == "" {
			continue
		}
		v, ok := ParseNumber(row[idx])
		if !ok {
			return nil, nil, fmt.Errorf("column %s row %d: %w: %q", column, r+1, ErrNotNumeric, row[idx])
		}
		xs = append(xs, float64(r))
		ys = append(ys, v)
	}
	return xs, ys, nil
}

// KeyInfoColumns returns the lead-set columns followed by the calling-mode
// columns, the subset shown in the key info panel.
func KeyInfoColumns(s *Sheet) []string {
	var leadsets, modes []string
	for _, c := range s.Columns {
		if strings.Contains(c, "LEADSET") {
			leadsets = append(leadsets, c)
		}
	}
	for _, c := range s.Columns {
		if strings.Contains(c, "CALLING") && strings.Contains(c, "MODE") {
			modes = append(modes, c)
		}
	}
	return append(leadsets, modes...)
}
