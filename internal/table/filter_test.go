package table

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func campaignSheet() *Sheet {
	return Normalize(NewSheet("Acme", []string{"Campaign", "Process", "Calls"}, [][]string{
		{"Retail", "Dial", "10"},
		{"", "Chat", "4"},
		{"Health", "Dial", "7"},
		{"Retail", "Email", "3"},
		{"Auto", "Survey", "1"},
	}))
}

func TestSelection_Unrestricted(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want bool
	}{
		{"nil", nil, true},
		{"empty", Select(), true},
		{"blank values dropped", Select(" ", ""), true},
		{"all sentinel", Select(AllOption), true},
		{"all mixed with values", Select("Retail", AllOption), true},
		{"single value", Select("Retail"), false},
		{"multiple values", Select("Retail", "Health"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sel.Unrestricted())
		})
	}
}

func TestSelection_Within(t *testing.T) {
	opts := []string{AllOption, "Chat", "Dial"}

	assert.Equal(t, Selection{"Dial"}, Select("Dial", "Email").Within(opts))
	assert.True(t, Select("Email").Within(opts).Unrestricted())
	assert.Equal(t, Selection{AllOption}, Select(AllOption).Within(opts))
}

func TestCampaignOptions(t *testing.T) {
	got := CampaignOptions(campaignSheet())
	assert.Equal(t, []string{AllOption, "Auto", "Health", "Retail"}, got)
}

func TestFilterByCampaign_AllReturnsInputUnchanged(t *testing.T) {
	s := campaignSheet()

	for _, sel := range []Selection{nil, Select(AllOption), Select("Health", AllOption)} {
		got := FilterByCampaign(s, sel)
		if diff := cmp.Diff(s, got); diff != "" {
			t.Errorf("FilterByCampaign(%v) changed the sheet (-want +got):\n%s", sel, diff)
		}
	}
}

func TestFilterByCampaign_SingleAndMulti(t *testing.T) {
	s := campaignSheet()

	single := FilterByCampaign(s, Select("Retail"))
	require.Equal(t, 3, single.Len())
	for _, row := range single.Rows {
		assert.Equal(t, "Retail", row[0])
	}

	multi := FilterByCampaign(s, Select("Retail", "Auto"))
	assert.Equal(t, 4, multi.Len())

	none := FilterByCampaign(s, Select("Nope"))
	assert.Equal(t, 0, none.Len())
	assert.Equal(t, s.Columns, none.Columns)
}

func TestFilterBy_MissingColumnMatchesNothing(t *testing.T) {
	s := NewSheet("x", []string{"OTHER"}, [][]string{{"a"}})
	assert.Equal(t, 0, FilterByCampaign(s, Select("a")).Len())
	assert.Equal(t, 1, FilterByCampaign(s, nil).Len())
}

func TestProcessOptions_Cascade(t *testing.T) {
	s := campaignSheet()
	full := ProcessOptions(s)
	assert.Equal(t, []string{AllOption, "Chat", "Dial", "Email", "Survey"}, full)

	for _, campaign := range CampaignOptions(s)[1:] {
		sub := ProcessOptions(FilterByCampaign(s, Select(campaign)))
		assert.Subset(t, full, sub, "process options under %q must be a subset", campaign)
	}

	retail := ProcessOptions(FilterByCampaign(s, Select("Retail")))
	assert.Equal(t, []string{AllOption, "Chat", "Dial", "Email"}, retail)
}

func TestFilterByProcess_AfterCampaign(t *testing.T) {
	s := campaignSheet()

	byCampaign := FilterByCampaign(s, Select("Retail"))
	all := FilterByProcess(byCampaign, Select(AllOption))
	assert.Equal(t, byCampaign.Len(), all.Len())

	dial := FilterByProcess(byCampaign, Select("Dial"))
	require.Equal(t, 1, dial.Len())
	assert.Equal(t, []string{"Retail", "Dial", "10"}, dial.Rows[0])
}

func TestApply_RetailThenAllProcesses(t *testing.T) {
	raw := NewSheet("Acme", []string{"campaign", "process"}, [][]string{
		{"Retail", "Dial"},
		{"", "Chat"},
		{"Health", "Dial"},
		{"Retail", "Chat"},
	})

	v, err := Apply(raw, Query{Campaign: Select("Retail"), Process: Select(AllOption)})
	require.NoError(t, err)

	want := 0
	for _, row := range v.Sheet.Rows {
		if row[0] == "Retail" {
			want++
		}
	}
	assert.Equal(t, 3, want)
	assert.Equal(t, want, v.Filtered.Len())
}

func TestApply_DropsStaleProcessSelection(t *testing.T) {
	v, err := Apply(campaignSheet(), Query{Campaign: Select("Auto"), Process: Select("Dial")})
	require.NoError(t, err)

	assert.True(t, v.Query.Process.Unrestricted())
	assert.Equal(t, []string{AllOption, "Survey"}, v.ProcessOptions)
	assert.Equal(t, 1, v.Filtered.Len())
}

func TestApply_UnknownCampaignMatchesNothing(t *testing.T) {
	v, err := Apply(campaignSheet(), Query{Campaign: Select("Retial"), Process: Select("Dial")})
	require.NoError(t, err)

	assert.Equal(t, Selection{"Retial"}, v.Query.Campaign)
	assert.Equal(t, 0, v.Filtered.Len())
	assert.Equal(t, []string{AllOption}, v.ProcessOptions)
	assert.True(t, v.Query.Process.Unrestricted())

	data, err := v.Export()
	require.NoError(t, err)
	assert.Equal(t, "CAMPAIGN,PROCESS,CALLS\n", string(data))
}

func TestApply_MissingColumns(t *testing.T) {
	raw := NewSheet("NoProcess", []string{"Campaign", "Calls"}, [][]string{{"A", "1"}})

	v, err := Apply(raw, Query{})
	require.ErrorIs(t, err, ErrMissingColumns)
	require.NotNil(t, v)
	assert.Equal(t, 1, v.Sheet.Len())
	assert.Nil(t, v.Filtered)

	_, err = v.Export()
	assert.ErrorIs(t, err, ErrMissingColumns)
}
