// Package workbook loads spreadsheet workbooks into named table.Sheets.
//
// Excel workbooks (.xlsx, .xlsm) are parsed with excelize; every worksheet
// becomes one sheet, in workbook order. CSV files load as a workbook with a
// single sheet named after the file.
package workbook

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sheetdash/internal/table"
	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnreadableWorkbook wraps every parse failure. Nothing is kept from
	// a workbook that fails to load.
	ErrUnreadableWorkbook = errors.New("unreadable workbook")

	// ErrUnsupportedFormat is returned for file extensions we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported workbook format")

	// ErrSheetNotFound is returned when a workbook has no sheet by that name.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrEmptyWorkbook is returned when a workbook has no sheets at all.
	ErrEmptyWorkbook = errors.New("workbook has no sheets")
)

// Extensions lists the file extensions the loader understands.
var Extensions = []string{".xlsx", ".xlsm", ".csv"}

// Supported reports whether a file name has a loadable extension.
func Supported(fileName string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// BaseName returns the file name without directory and extension.
func BaseName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Workbook is a parsed workbook: an ordered set of named sheets.
type Workbook struct {
	Name   string
	sheets []*table.Sheet
}

// New builds a workbook from already-parsed sheets.
func New(name string, sheets ...*table.Sheet) *Workbook {
	return &Workbook{Name: name, sheets: sheets}
}

// SheetNames returns sheet names in workbook order.
func (w *Workbook) SheetNames() []string {
	names := make([]string, len(w.sheets))
	for i, s := range w.sheets {
		names[i] = s.Name
	}
	return names
}

// Sheet returns the raw (not yet normalized) sheet with this name. An empty
// name selects the first sheet.
func (w *Workbook) Sheet(name string) (*table.Sheet, error) {
	if len(w.sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	if name == "" {
		return w.sheets[0], nil
	}
	for _, s := range w.sheets {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// Open reads a workbook from disk.
func Open(path string) (*Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer f.Close()

	return Read(filepath.Base(path), f)
}

// Read parses a workbook from r. fileName selects the format by extension
// and provides the workbook name.
func Read(fileName string, r io.Reader) (*Workbook, error) {
	name := BaseName(fileName)

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return readXLSX(name, r)
	case ".csv":
		return readCSV(name, r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

func readXLSX(name string, r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	defer func() {
		_ = f.Close()
	}()

	sheetNames := f.GetSheetList()
	if len(sheetNames) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableWorkbook, ErrEmptyWorkbook)
	}

	wb := &Workbook{Name: name}
	for _, sheetName := range sheetNames {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("%w: sheet %s: %v", ErrUnreadableWorkbook, sheetName, err)
		}
		wb.sheets = append(wb.sheets, sheetFromRecords(sheetName, rows))
	}
	return wb, nil
}

func readCSV(name string, r io.Reader) (*Workbook, error) {
	cr := csv.NewReader(skipBOM(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	return New(name, sheetFromRecords(name, records)), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// skipBOM drops a leading UTF-8 byte order mark, which Excel adds when
// saving CSV on Windows.
func skipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// sheetFromRecords uses the first record as the header row. Blank headers
// become "Unnamed: <i>" and repeated headers get ".1", ".2" suffixes, so every
// column has a distinct name.
func sheetFromRecords(name string, records [][]string) *table.Sheet {
	if len(records) == 0 {
		return table.NewSheet(name, nil, nil)
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	header := make([]string, width)
	copy(header, records[0])

	for i, h := range header {
		if strings.TrimSpace(h) == "" {
			header[i] = "Unnamed: " + strconv.Itoa(i)
		}
	}

	return table.NewSheet(name, table.UniqueColumns(header), records[1:])
}
