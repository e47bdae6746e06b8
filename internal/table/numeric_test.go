package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"42", 42, true},
		{" -3.5 ", -3.5, true},
		{"1,234.50", 1234.5, true},
		{"$99", 99, true},
		{"(12.50)", -12.5, true},
		{"1e3", 1000, true},
		{".5", 0.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"12abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseNumber(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNumericColumns(t *testing.T) {
	s := Normalize(NewSheet("s",
		[]string{"Campaign", "Process", "Calls", "Rate", "Agent", "Blank"},
		[][]string{
			{"1", "2", "10", "0.5", "Ann", ""},
			{"1", "3", "", "1,000", "Bob", ""},
			{"2", "3", "7", "$2", "7", ""},
		}))

	assert.Equal(t, []string{"CALLS", "RATE"}, NumericColumns(s))
}

func TestNumericColumns_None(t *testing.T) {
	s := NewSheet("s", []string{"CAMPAIGN", "PROCESS", "NAME"}, [][]string{{"a", "b", "c"}})
	assert.Empty(t, NumericColumns(s))
}

func TestNumericValues(t *testing.T) {
	s := NewSheet("s", []string{"CALLS"}, [][]string{{"3"}, {""}, {"5"}})

	xs, ys, err := NumericValues(s, "CALLS")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2}, xs)
	assert.Equal(t, []float64{3, 5}, ys)

	_, _, err = NumericValues(s, "MISSING")
	assert.ErrorIs(t, err, ErrColumnNotFound)

	bad := NewSheet("s", []string{"CALLS"}, [][]string{{"x"}})
	_, _, err = NumericValues(bad, "CALLS")
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestKeyInfoColumns(t *testing.T) {
	s := NewSheet("s", []string{"CAMPAIGN", "CALLING_MODE", "LEADSET_ID", "MODE", "CALLING", "LEADSET_NAME"}, nil)
	assert.Equal(t, []string{"LEADSET_ID", "LEADSET_NAME", "CALLING_MODE"}, KeyInfoColumns(s))
}

func TestSheet_Project(t *testing.T) {
	s := NewSheet("s", []string{"A", "B", "C"}, [][]string{{"1", "2", "3"}})
	p := s.Project([]string{"C", "X", "A"})
	assert.Equal(t, []string{"C", "A"}, p.Columns)
	assert.Equal(t, [][]string{{"3", "1"}}, p.Rows)
}
