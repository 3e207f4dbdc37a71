// Package tabular provides a sparse two-axis counter whose row and column
// labels are discovered as they are first used, and the dense table it
// materializes into.
package tabular

// axis is an insertion-ordered set of labels.
type axis[K comparable] struct {
	keys []K
	pos  map[K]int
}

func newAxis[K comparable]() axis[K] {
	return axis[K]{pos: make(map[K]int)}
}

// track registers k if unseen and returns its position.
func (a *axis[K]) track(k K) int {
	if i, ok := a.pos[k]; ok {
		return i
	}
	i := len(a.keys)
	a.pos[k] = i
	a.keys = append(a.keys, k)
	return i
}

type cell struct {
	row, col int
}

// Counter accumulates int64 counts keyed by (row, column). Each axis
// remembers the order its labels were first seen. Not safe for concurrent
// use.
type Counter[R, C comparable] struct {
	rows  axis[R]
	cols  axis[C]
	cells map[cell]int64
}

func New[R, C comparable]() *Counter[R, C] {
	return &Counter[R, C]{
		rows:  newAxis[R](),
		cols:  newAxis[C](),
		cells: make(map[cell]int64),
	}
}

// AddRows registers row labels ahead of any counts, fixing their order.
func (c *Counter[R, C]) AddRows(rows ...R) *Counter[R, C] {
	for _, r := range rows {
		c.rows.track(r)
	}
	return c
}

// AddColumns registers column labels ahead of any counts.
func (c *Counter[R, C]) AddColumns(cols ...C) *Counter[R, C] {
	for _, col := range cols {
		c.cols.track(col)
	}
	return c
}

// Increment adds delta to the (r, col) cell, registering either label if it
// is new.
func (c *Counter[R, C]) Increment(r R, col C, delta int64) {
	k := cell{c.rows.track(r), c.cols.track(col)}
	if v := c.cells[k] + delta; v != 0 {
		c.cells[k] = v
	} else {
		delete(c.cells, k)
	}
}

// Inc adds one to the (r, col) cell.
func (c *Counter[R, C]) Inc(r R, col C) {
	c.Increment(r, col, 1)
}

// Set overwrites the (r, col) cell.
func (c *Counter[R, C]) Set(r R, col C, v int64) {
	k := cell{c.rows.track(r), c.cols.track(col)}
	if v != 0 {
		c.cells[k] = v
	} else {
		delete(c.cells, k)
	}
}

// Get returns the count at (r, col), zero when unseen.
func (c *Counter[R, C]) Get(r R, col C) int64 {
	ri, ok := c.rows.pos[r]
	if !ok {
		return 0
	}
	ci, ok := c.cols.pos[col]
	if !ok {
		return 0
	}
	return c.cells[cell{ri, ci}]
}

// Merge adds every nonzero cell of other into c. Labels new to c are
// registered in other's first-seen order.
func (c *Counter[R, C]) Merge(other *Counter[R, C]) {
	if other == nil || len(other.cells) == 0 {
		return
	}
	usedRows := make([]bool, len(other.rows.keys))
	usedCols := make([]bool, len(other.cols.keys))
	for k := range other.cells {
		usedRows[k.row] = true
		usedCols[k.col] = true
	}

	rowMap := make([]int, len(other.rows.keys))
	for i, r := range other.rows.keys {
		if usedRows[i] {
			rowMap[i] = c.rows.track(r)
		}
	}
	colMap := make([]int, len(other.cols.keys))
	for i, col := range other.cols.keys {
		if usedCols[i] {
			colMap[i] = c.cols.track(col)
		}
	}

	for k, v := range other.cells {
		dst := cell{rowMap[k.row], colMap[k.col]}
		if sum := c.cells[dst] + v; sum != 0 {
			c.cells[dst] = sum
		} else {
			delete(c.cells, dst)
		}
	}
}

// Rows returns the row labels in first-seen order.
func (c *Counter[R, C]) Rows() []R {
	return append([]R(nil), c.rows.keys...)
}

// Columns returns the column labels in first-seen order.
func (c *Counter[R, C]) Columns() []C {
	return append([]C(nil), c.cols.keys...)
}

// Len returns the number of nonzero cells.
func (c *Counter[R, C]) Len() int {
	return len(c.cells)
}

// Clone returns an independent copy of c.
func (c *Counter[R, C]) Clone() *Counter[R, C] {
	out := New[R, C]().AddRows(c.rows.keys...).AddColumns(c.cols.keys...)
	for k, v := range c.cells {
		out.cells[k] = v
	}
	return out
}

// Materialize returns the dense rows × columns table, zero-filled. It does
// not modify c and may be called repeatedly.
func (c *Counter[R, C]) Materialize() Table[R, C] {
	t := Table[R, C]{
		Rows:    c.Rows(),
		Columns: c.Columns(),
		Values:  make([][]int64, len(c.rows.keys)),
	}
	for i := range t.Values {
		t.Values[i] = make([]int64, len(c.cols.keys))
	}
	for k, v := range c.cells {
		t.Values[k.row][k.col] = v
	}
	return t
}
