package excel

// RawRowData represents a row of raw spreadsheet data as header -> cell text
type RawRowData map[string]string

// SheetData represents the complete sheet
type SheetData struct {
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

// SeriesColumns selects which columns hold the labels and values. Empty names fall back to
// the first column for labels and the first column after it whose cells parse as numbers.
type SeriesColumns struct {
	Label string `json:"label_col"`
	Value string `json:"value_col"`
}
