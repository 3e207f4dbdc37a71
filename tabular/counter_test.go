package tabular

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstSeenRowOrder(t *testing.T) {
	c := New[string, string]()
	c.Inc("B", "x")
	c.Inc("A", "x")
	c.Increment("B", "x", 5)

	tbl := c.Materialize()
	assert.Equal(t, []string{"B", "A"}, tbl.Rows)
	assert.Equal(t, [][]int64{{6}, {1}}, tbl.Values)
}

func TestMaterializeIsIdempotentAndZeroFilled(t *testing.T) {
	c := New[string, string]().AddColumns("Total", "Exact")
	c.Inc("Left", "Exact")
	c.Inc("Right", "Total")

	first := c.Materialize()
	second := c.Materialize()
	assert.Equal(t, first, second)
	assert.Equal(t, [][]int64{{0, 1}, {1, 0}}, first.Values)

	first.Values[0][0] = 99
	assert.Zero(t, c.Get("Left", "Total"), "materialized table must not alias the counter")
}

func TestPreSeededAxes(t *testing.T) {
	c := New[string, int]().AddRows("Any").AddColumns(3, 1, 2)
	c.Inc("Field", 2)
	c.Inc("Any", 9)

	assert.Equal(t, []string{"Any", "Field"}, c.Rows())
	assert.Equal(t, []int{3, 1, 2, 9}, c.Columns())
	assert.Equal(t, 2, c.Len())
}

func TestSetAndGet(t *testing.T) {
	c := New[string, string]()
	c.Set("OS", "N", 1)
	c.Set("OS", "N", 1)
	assert.Equal(t, int64(1), c.Get("OS", "N"))
	assert.Zero(t, c.Get("OD", "N"))

	c.Set("OS", "N", 0)
	assert.Zero(t, c.Len())
	assert.Equal(t, []string{"OS"}, c.Rows(), "labels stay registered")
}

func TestMergeAddsAndKeepsOrder(t *testing.T) {
	acc := New[string, string]()
	acc.Inc("B", "count")

	other := New[string, string]().AddRows("Z")
	other.Increment("C", "sum", 3)
	other.Inc("A", "count")
	other.Inc("B", "count")

	acc.Merge(other)
	tbl := acc.Materialize()
	assert.Equal(t, []string{"B", "C", "A"}, tbl.Rows, "zero-only row Z is not carried over")
	assert.Equal(t, []string{"count", "sum"}, tbl.Columns)

	v, ok := tbl.At("B", "count")
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
	v, _ = tbl.At("C", "sum")
	assert.Equal(t, int64(3), v)

	_, ok = tbl.At("Z", "count")
	assert.False(t, ok)
}

func TestMergeCancelsToZero(t *testing.T) {
	acc := New[string, string]()
	acc.Inc("A", "x")
	other := New[string, string]()
	other.Increment("A", "x", -1)

	acc.Merge(other)
	assert.Zero(t, acc.Len())
	acc.Merge(nil)
}

func TestCloneIsIndependent(t *testing.T) {
	c := New[string, string]()
	c.Inc("A", "x")
	d := c.Clone()
	d.Inc("A", "x")
	d.Inc("B", "y")

	assert.Equal(t, int64(1), c.Get("A", "x"))
	assert.Equal(t, []string{"A"}, c.Rows())
	assert.Equal(t, int64(2), d.Get("A", "x"))
}

func TestTableSortFilterAndStrings(t *testing.T) {
	c := New[string, string]().AddColumns("n", "m")
	c.Increment("a", "n", 1)
	c.Increment("b", "n", 3)
	c.Increment("c", "n", 3)
	c.Increment("d", "m", 7)
	tbl := c.Materialize()

	sorted := tbl.SortRowsBy("n", true)
	assert.Equal(t, []string{"b", "c", "a", "d"}, sorted.Rows, "stable for ties")
	assert.Equal(t, []string{"a", "b", "c", "d"}, tbl.Rows, "source table untouched")
	assert.Equal(t, []int64{3, 3, 1, 0}, sorted.Column("n"))
	assert.Nil(t, sorted.Column("missing"))

	big := tbl.Filter(func(_ string, vals []int64) bool { return vals[0]+vals[1] >= 3 })
	assert.Equal(t, []string{"b", "c", "d"}, big.Rows)

	st := big.Strings(Labels[string, string]{
		Index: []string{"key"},
		Cell:  func(_, _ int, v int64) string { return "#" + strconv.FormatInt(v, 10) },
	})
	assert.Equal(t, []string{"key", "n", "m"}, st.Header)
	assert.Equal(t, []string{"d", "#0", "#7"}, st.Rows[2])
}
