package ingest

// Row is one parsed artifact record keyed by header name.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name.
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// First returns the value of the first candidate header that is present
// and non-empty, in candidate order.
func (r *Row) First(candidates ...string) string {
	for _, c := range candidates {
		if v, ok := r.Data[c]; ok && v != "" {
			return v
		}
	}
	return ""
}

// IsEmpty returns true if the row has no non-empty values.
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// zipRecord maps a raw record onto headers, padding short records with
// empty strings.
func zipRecord(headers []string, record []string, line int) *Row {
	row := &Row{
		LineNumber: line,
		Data:       make(map[string]string, len(headers)),
	}
	for i, header := range headers {
		if i < len(record) {
			row.Data[header] = trimSpaces(record[i])
		} else {
			row.Data[header] = ""
		}
	}
	return row
}
