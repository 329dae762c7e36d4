package export

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Summary []SummaryLine
	Headers []string
	Rows    []map[string]string
}

// SummaryLine is a labelled value printed above the table.
type SummaryLine struct {
	Label string
	Value string
}
