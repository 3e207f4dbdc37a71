package csvstream

import "strings"

type header struct {
	columns []string
	colIdx  map[string]int
}

func newHeader(cols []string) *header {
	h := &header{
		columns: make([]string, len(cols)),
		colIdx:  make(map[string]int, len(cols)),
	}
	for i, c := range cols {
		if i == 0 {
			c = strings.TrimPrefix(c, "\ufeff")
		}
		c = strings.TrimSpace(c)
		h.columns[i] = c
		if _, dup := h.colIdx[c]; !dup {
			h.colIdx[c] = i
		}
	}
	return h
}

// Row is one data row keyed by its file's header. Missing and short cells
// read as empty strings.
type Row struct {
	header *header
	values []string
}

// NewRow builds a row from parallel column and value slices.
func NewRow(columns, values []string) Row {
	return Row{header: newHeader(columns), values: values}
}

// Get returns the cell under col, or "" if the column is unknown or the
// record is short.
func (r Row) Get(col string) string {
	v, _ := r.Lookup(col)
	return v
}

// Lookup is Get that also reports whether col is a header column.
func (r Row) Lookup(col string) (string, bool) {
	if r.header == nil {
		return "", false
	}
	idx, ok := r.header.colIdx[col]
	if !ok {
		return "", false
	}
	if idx < len(r.values) {
		return r.values[idx], true
	}
	return "", true
}

// Columns returns the header columns in file order.
func (r Row) Columns() []string {
	if r.header == nil {
		return nil
	}
	return append([]string(nil), r.header.columns...)
}

// Values returns one cell per column, padded with "" for short records.
// Cells past the header are dropped.
func (r Row) Values() []string {
	if r.header == nil {
		return nil
	}
	out := make([]string, len(r.header.columns))
	copy(out, r.values)
	return out
}

func (r Row) Len() int {
	if r.header == nil {
		return 0
	}
	return len(r.header.columns)
}
