// Package stats holds the reduction jobs run by the vastats command. Each
// job maps a visit to a small counter and merges it into the running total.
package stats

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"vastats/mapreduce"
	"vastats/tabular"
	"vastats/visit"
)

// Counter is the accumulator every job folds into.
type Counter[R comparable] = tabular.Counter[R, string]

// Job is a reduction whose accumulator is a Counter with string columns.
type Job[R comparable] interface {
	mapreduce.Job[*Counter[R], *Counter[R]]
	// Name identifies the job in file names and logs.
	Name() string
	// Format renders the final (or a checkpointed) table.
	Format(t tabular.Table[R, string]) tabular.StringTable
}

// merging supplies Reduce and Empty for jobs that fold by Counter.Merge into
// an accumulator with pre-seeded axes.
type merging[R comparable] struct {
	rows    []R
	columns []string
}

func (m merging[R]) Empty() *Counter[R] {
	return tabular.New[R, string]().AddRows(m.rows...).AddColumns(m.columns...)
}

func (m merging[R]) Reduce(acc *Counter[R], first bool, mapped *Counter[R]) (*Counter[R], error) {
	if first {
		acc = m.Empty()
	}
	acc.Merge(mapped)
	return acc, nil
}

// perField returns a counter for one visit with its rows seeded as lead
// followed by the visit's keys.
func perField(lead string, v visit.Visit) *Counter[string] {
	return tabular.New[string, string]().AddRows(lead).AddRows(v.Keys()...)
}

// countPct renders "1,234 (12.3%)", or "0" when either term is zero.
func countPct(x, of int64) string {
	if x == 0 || of == 0 {
		return "0"
	}
	return fmt.Sprintf("%s (%.1f%%)", humanize.Comma(x), 100*float64(x)/float64(of))
}

// ratioPct renders "12/34 (35.3%)", or "0" when the denominator is zero.
func ratioPct(num, den int64) string {
	if den == 0 {
		return "0"
	}
	return fmt.Sprintf("%s/%s (%.1f%%)", humanize.Comma(num), humanize.Comma(den), 100*float64(num)/float64(den))
}

func columnIndex(t tabular.Table[string, string], name string) int {
	for j, c := range t.Columns {
		if c == name {
			return j
		}
	}
	return -1
}
