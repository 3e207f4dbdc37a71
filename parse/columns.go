package parse

import (
	"regexp"
	"strings"

	"github.com/patrickmn/go-cache"

	"vastats/csvstream"
)

// plusColumn matches supplementary columns such as "Left Eye +",
// "Left Eye +/-" or "Left Eye plus".
var plusColumn = regexp.MustCompile(`(?i)^(.*?)\s*(\+/-|\+|\splus)$`)

// Pairing links a field to the column holding its text and the column
// holding its plus letters. Either column may be empty.
type Pairing struct {
	Key        string
	TextColumn string
	PlusColumn string
}

// ColumnMerger folds plus columns into their parent field. Pairings are
// computed once per distinct header. Safe for concurrent use.
type ColumnMerger struct {
	memo *cache.Cache
}

func NewColumnMerger() *ColumnMerger {
	return &ColumnMerger{memo: cache.New(cache.NoExpiration, 0)}
}

// Pairings groups columns into fields, keeping the position at which each
// field was first seen.
func (m *ColumnMerger) Pairings(columns []string) []Pairing {
	key := strings.Join(columns, "\x1f")
	if hit, ok := m.memo.Get(key); ok {
		return hit.([]Pairing)
	}

	var pairs []Pairing
	pos := make(map[string]int, len(columns))
	for _, col := range columns {
		field, isPlus := col, false
		if sub := plusColumn.FindStringSubmatch(col); sub != nil {
			field, isPlus = sub[1], true
		}
		i, ok := pos[field]
		if !ok {
			i = len(pairs)
			pos[field] = i
			pairs = append(pairs, Pairing{Key: field})
		}
		if isPlus {
			pairs[i].PlusColumn = col
		} else {
			pairs[i].TextColumn = col
		}
	}

	m.memo.Set(key, pairs, cache.NoExpiration)
	return pairs
}

// Merge builds parser inputs for row with plus columns folded in.
func (m *ColumnMerger) Merge(row csvstream.Row) []Input {
	pairs := m.Pairings(row.Columns())
	inputs := make([]Input, len(pairs))
	for i, p := range pairs {
		inputs[i] = Input{Key: p.Key}
		if p.TextColumn != "" {
			inputs[i].Text = row.Get(p.TextColumn)
		}
		if p.PlusColumn != "" {
			inputs[i].TextPlus = row.Get(p.PlusColumn)
		}
	}
	return inputs
}

// Unmerged builds one input per column with no plus text.
func Unmerged(row csvstream.Row) []Input {
	cols := row.Columns()
	vals := row.Values()
	inputs := make([]Input, len(cols))
	for i, c := range cols {
		inputs[i] = Input{Key: c, Text: vals[i]}
	}
	return inputs
}
