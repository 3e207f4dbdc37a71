package export

import (
	"fmt"

	"vastats/tabular"
)

// Cell is one nonzero count of a table in long format.
type Cell struct {
	RunID  string `parquet:"run_id,dict"`
	Job    string `parquet:"job,dict"`
	Row    string `parquet:"row_label"`
	Column string `parquet:"column_label,dict"`
	Count  int64  `parquet:"count"`
}

// Cells flattens t row by row. Zero cells are skipped. Labels are rendered
// with fmt.Sprint, so row types may implement fmt.Stringer.
func Cells[R, C comparable](runID, job string, t tabular.Table[R, C]) []Cell {
	cols := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		cols[j] = fmt.Sprint(c)
	}
	var out []Cell
	for i, r := range t.Rows {
		label := fmt.Sprint(r)
		for j, v := range t.Values[i] {
			if v == 0 {
				continue
			}
			out = append(out, Cell{RunID: runID, Job: job, Row: label, Column: cols[j], Count: v})
		}
	}
	return out
}
