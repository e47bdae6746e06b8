// Package table implements the campaign/process filter pipeline for a single
// spreadsheet sheet.
//
// Every operation is a pure transformation: the input sheet is never mutated
// and each call returns a new *Sheet. Rows may be shared between the input and
// the output of a filter, so callers must treat row slices as read-only.
//
// The pipeline for one user interaction is:
//
//	normalized := Normalize(raw)
//	campaigns := CampaignOptions(normalized)
//	byCampaign := FilterByCampaign(normalized, campaignSel)
//	processes := ProcessOptions(byCampaign)
//	final := FilterByProcess(byCampaign, processSel)
//	csv, _ := SerializeCSV(ExportRows(final))
//
// [Apply] runs the whole sequence and returns a [View].
package table

import "fmt"

// Column names the pipeline filters on, after header normalization.
const (
	ColumnCampaign = "CAMPAIGN"
	ColumnProcess  = "PROCESS"
)

// Sheet is one named table of a workbook: ordered columns and ordered rows.
// An empty string is a missing cell.
type Sheet struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// NewSheet builds a Sheet, padding or truncating every row to the column count.
func NewSheet(name string, columns []string, rows [][]string) *Sheet {
	s := &Sheet{
		Name:    name,
		Columns: append([]string(nil), columns...),
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		s.Rows = append(s.Rows, fitRow(row, len(columns)))
	}
	return s
}

// fitRow returns a copy of row with exactly n cells.
func fitRow(row []string, n int) []string {
	out := make([]string, n)
	copy(out, row)
	return out
}

// Len returns the number of rows.
func (s *Sheet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Rows)
}

// Width returns the number of columns.
func (s *Sheet) Width() int {
	if s == nil {
		return 0
	}
	return len(s.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (s *Sheet) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the sheet has a column with exactly this name.
func (s *Sheet) HasColumn(name string) bool {
	return s.ColumnIndex(name) >= 0
}

// Column returns the values of the named column in row order.
func (s *Sheet) Column(name string) ([]string, error) {
	idx := s.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	values := make([]string, len(s.Rows))
	for i, row := range s.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// Project returns a sheet restricted to the given columns, in the given order.
// Unknown column names are skipped.
func (s *Sheet) Project(columns []string) *Sheet {
	var idx []int
	var names []string
	for _, c := range columns {
		if i := s.ColumnIndex(c); i >= 0 {
			idx = append(idx, i)
			names = append(names, c)
		}
	}

	out := &Sheet{Name: s.Name, Columns: names, Rows: make([][]string, len(s.Rows))}
	for r, row := range s.Rows {
		projected := make([]string, len(idx))
		for j, i := range idx {
			projected[j] = row[i]
		}
		out.Rows[r] = projected
	}
	return out
}

// where returns a sheet with the rows for which keep returns true.
func (s *Sheet) where(keep func(row []string) bool) *Sheet {
	out := &Sheet{Name: s.Name, Columns: s.Columns, Rows: make([][]string, 0, len(s.Rows))}
	for _, row := range s.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
