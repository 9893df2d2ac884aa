package export

// Dataset is tabular export content. Rows are keyed by header so renderers
// can emit columns in header order.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
	// Numeric lists headers whose values are integers; spreadsheet renderers
	// store them as numbers.
	Numeric []string
}

func (d Dataset) record(row map[string]string) []string {
	record := make([]string, len(d.Headers))
	for i, header := range d.Headers {
		record[i] = row[header]
	}
	return record
}

func (d Dataset) isNumeric(header string) bool {
	for _, h := range d.Numeric {
		if h == header {
			return true
		}
	}
	return false
}
