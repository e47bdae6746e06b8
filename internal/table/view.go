package table

// Query holds the two filter selections of one interaction.
type Query struct {
	Campaign Selection
	Process  Selection
}

// View is the result of one full recompute of the pipeline.
type View struct {
	// Sheet is the normalized, unfiltered sheet.
	Sheet *Sheet

	// Query is the effective query. A process selection that is no longer
	// offered under the current campaign filter is dropped. The campaign
	// selection is kept as given, so unknown campaigns match no rows.
	Query Query

	CampaignOptions []string
	ProcessOptions  []string

	// Filtered is the sheet after campaign and process filtering.
	Filtered *Sheet

	NumericColumns []string
	KeyColumns     []string
}

// Apply normalizes raw and runs the cascading campaign/process filters.
//
// When the normalized sheet lacks CAMPAIGN or PROCESS, Apply returns a view
// holding only the normalized sheet together with an error wrapping
// ErrMissingColumns.
func Apply(raw *Sheet, q Query) (*View, error) {
	normalized := Normalize(raw)
	v := &View{Sheet: normalized}

	if err := CheckColumns(normalized); err != nil {
		return v, err
	}

	v.CampaignOptions = CampaignOptions(normalized)
	byCampaign := FilterByCampaign(normalized, q.Campaign)

	v.ProcessOptions = ProcessOptions(byCampaign)
	q.Process = q.Process.Within(v.ProcessOptions)
	v.Filtered = FilterByProcess(byCampaign, q.Process)

	v.Query = q
	v.NumericColumns = NumericColumns(v.Filtered)
	v.KeyColumns = KeyInfoColumns(v.Filtered)
	return v, nil
}

// Export returns the CSV bytes for the filtered sheet with campaign runs
// blanked.
func (v *View) Export() ([]byte, error) {
	if v.Filtered == nil {
		return nil, CheckColumns(v.Sheet)
	}
	return SerializeCSV(ExportRows(v.Filtered))
}
