package tabular

import (
	"fmt"
	"slices"
	"strconv"
)

// Table is a dense, materialized Counter. Values[i][j] is the count for
// Rows[i] and Columns[j].
type Table[R, C comparable] struct {
	Rows    []R
	Columns []C
	Values  [][]int64
}

func (t Table[R, C]) rowIndex(r R) int    { return slices.Index(t.Rows, r) }
func (t Table[R, C]) columnIndex(c C) int { return slices.Index(t.Columns, c) }

// At returns the count at (r, c). ok is false when either label is missing.
func (t Table[R, C]) At(r R, c C) (int64, bool) {
	i, j := t.rowIndex(r), t.columnIndex(c)
	if i < 0 || j < 0 {
		return 0, false
	}
	return t.Values[i][j], true
}

// Column returns a copy of column c, or nil when c is missing.
func (t Table[R, C]) Column(c C) []int64 {
	j := t.columnIndex(c)
	if j < 0 {
		return nil
	}
	out := make([]int64, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Values[i][j]
	}
	return out
}

// SortRowsBy returns a copy with rows stably ordered by column c. Rows keep
// their order when c is missing.
func (t Table[R, C]) SortRowsBy(c C, descending bool) Table[R, C] {
	order := make([]int, len(t.Rows))
	for i := range order {
		order[i] = i
	}
	if j := t.columnIndex(c); j >= 0 {
		slices.SortStableFunc(order, func(a, b int) int {
			va, vb := t.Values[a][j], t.Values[b][j]
			if descending {
				va, vb = vb, va
			}
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			}
			return 0
		})
	}
	return t.pick(order)
}

// Filter returns a copy holding only the rows keep accepts.
func (t Table[R, C]) Filter(keep func(r R, values []int64) bool) Table[R, C] {
	var order []int
	for i, r := range t.Rows {
		if keep(r, t.Values[i]) {
			order = append(order, i)
		}
	}
	return t.pick(order)
}

func (t Table[R, C]) pick(order []int) Table[R, C] {
	out := Table[R, C]{
		Rows:    make([]R, len(order)),
		Columns: slices.Clone(t.Columns),
		Values:  make([][]int64, len(order)),
	}
	for k, i := range order {
		out.Rows[k] = t.Rows[i]
		out.Values[k] = slices.Clone(t.Values[i])
	}
	return out
}

// StringTable is a rendered table ready for a sink. Header covers the row
// label columns followed by one entry per data column.
type StringTable struct {
	Header []string
	Rows   [][]string
}

// Labels controls how Strings renders a table. Nil funcs fall back to
// fmt.Sprint for labels and the plain integer for cells.
type Labels[R, C comparable] struct {
	Index  []string
	Row    func(R) []string
	Column func(C) string
	Cell   func(row, col int, v int64) string
}

// Strings renders t.
func (t Table[R, C]) Strings(l Labels[R, C]) StringTable {
	index := l.Index
	if len(index) == 0 {
		index = []string{""}
	}
	rowLabel := l.Row
	if rowLabel == nil {
		rowLabel = func(r R) []string { return []string{fmt.Sprint(r)} }
	}
	colLabel := l.Column
	if colLabel == nil {
		colLabel = func(c C) string { return fmt.Sprint(c) }
	}
	cell := l.Cell
	if cell == nil {
		cell = func(_, _ int, v int64) string { return strconv.FormatInt(v, 10) }
	}

	st := StringTable{Header: slices.Clone(index)}
	for _, c := range t.Columns {
		st.Header = append(st.Header, colLabel(c))
	}
	st.Rows = make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		line := rowLabel(r)
		for j, v := range t.Values[i] {
			line = append(line, cell(i, j, v))
		}
		st.Rows[i] = line
	}
	return st
}
