package table

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campaignColumn(t *testing.T, s *Sheet) []string {
	t.Helper()
	col, err := s.Column(ColumnCampaign)
	require.NoError(t, err)
	return col
}

func TestExportRows_BlanksAdjacentRuns(t *testing.T) {
	s := NewSheet("s", []string{"CAMPAIGN", "PROCESS"}, [][]string{
		{"A", "p1"},
		{"A", "p2"},
		{"B", "p3"},
		{"A", "p4"},
	})

	got := ExportRows(s)

	assert.Equal(t, []string{"A", "", "B", "A"}, campaignColumn(t, got))
	assert.Equal(t, []string{"A", "A", "B", "A"}, campaignColumn(t, s), "input must not be modified")
}

func TestExportRows_Properties(t *testing.T) {
	inputs := [][]string{
		{"A"},
		{"A", "A", "A"},
		{"A", "B", "A", "B"},
		{"X", "X", "Y", "Y", "X"},
		{"", "", "A"},
	}

	for _, values := range inputs {
		rows := make([][]string, len(values))
		for i, v := range values {
			rows[i] = []string{v}
		}
		s := NewSheet("s", []string{ColumnCampaign}, rows)
		got := campaignColumn(t, ExportRows(s))

		assert.Equal(t, values[0], got[0], "first row is never blanked")
		for i := 1; i < len(values); i++ {
			if values[i] != values[i-1] {
				assert.Equal(t, values[i], got[i], "value after a change must be kept (%v)", values)
			} else {
				assert.Equal(t, "", got[i])
			}
		}
	}
}

func TestExportRows_WithoutCampaignColumn(t *testing.T) {
	s := NewSheet("s", []string{"OTHER"}, [][]string{{"a"}, {"a"}})
	got := ExportRows(s)
	assert.Equal(t, s.Rows, got.Rows)
}

func TestSerializeCSV(t *testing.T) {
	s := NewSheet("s", []string{"CAMPAIGN", "NOTE", "CALLS"}, [][]string{
		{"Retail", "hello, world", "10"},
		{"", "say \"hi\"", "2.5"},
	})

	out, err := SerializeCSV(s)
	require.NoError(t, err)

	want := "CAMPAIGN,NOTE,CALLS\n" +
		"Retail,\"hello, world\",10\n" +
		",\"say \"\"hi\"\"\",2.5\n"
	assert.Equal(t, want, string(out))
}

func TestSerializeCSV_RoundTrip(t *testing.T) {
	s := NewSheet("s", []string{"CAMPAIGN", "PROCESS", "NOTE"}, [][]string{
		{"Ünïcode", "Dial", "line\nbreak"},
		{"B", "Chat", ""},
		{"C", "Email", "  spaced  "},
	})

	out, err := SerializeCSV(s)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1+s.Len())
	assert.Equal(t, s.Columns, records[0])
	assert.Equal(t, s.Rows, records[1:])
}

func TestView_ExportMatchesPipeline(t *testing.T) {
	raw := NewSheet("Acme", []string{"Campaign", "Process"}, [][]string{
		{"A", "x"},
		{"", "y"},
		{"B", "x"},
	})
	v, err := Apply(raw, Query{})
	require.NoError(t, err)

	got, err := v.Export()
	require.NoError(t, err)

	want, err := SerializeCSV(ExportRows(v.Filtered))
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, "CAMPAIGN,PROCESS\nA,x\n,y\nB,x\n", string(got))
}

func TestExportFileName(t *testing.T) {
	assert.Equal(t, "Acme_export.csv", ExportFileName("Acme"))
	assert.Equal(t, "a_b_export.csv", ExportFileName("a/b"))
	assert.Equal(t, "sheet_export.csv", ExportFileName("  "))
}
