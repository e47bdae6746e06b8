package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ExportRows returns a copy of s in which every CAMPAIGN value equal to the
// value directly above it is blanked, so each run of a campaign shows its name
// once, like a merged cell. Equal values separated by a different campaign are
// kept. A sheet without a CAMPAIGN column is copied unchanged.
func ExportRows(s *Sheet) *Sheet {
	out := &Sheet{
		Name:    s.Name,
		Columns: append([]string(nil), s.Columns...),
		Rows:    make([][]string, len(s.Rows)),
	}

	idx := s.ColumnIndex(ColumnCampaign)
	prev := ""
	for r, row := range s.Rows {
		cp := append([]string(nil), row...)
		if idx >= 0 {
			cur := row[idx]
			if r > 0 && cur == prev {
				cp[idx] = ""
			}
			prev = cur
		}
		out.Rows[r] = cp
	}

	return out
}

// WriteCSV writes columns as the header row followed by rows, comma-separated.
func WriteCSV(w io.Writer, columns []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// SerializeCSV renders a sheet (usually the result of ExportRows) as UTF-8
// CSV with a header row. Cell values are written as displayed.
func SerializeCSV(s *Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, s.Columns, s.Rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportFileName returns the download name for a company sheet export.
func ExportFileName(company string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '"', '\r', '\n', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(company))
	if name == "" {
		name = "sheet"
	}
	return name + "_export.csv"
}
