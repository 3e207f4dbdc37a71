package stats

import (
	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

// PlusMinus counts Snellen notes and how many of them carry plus letters.
type PlusMinus struct {
	merging[string]
}

func NewPlusMinus() *PlusMinus {
	return &PlusMinus{merging[string]{columns: []string{"Snellen", "With +/-"}}}
}

func (*PlusMinus) Name() string { return "plus_minus" }

func (*PlusMinus) Map(v visit.Visit) (*Counter[string], error) {
	c := perField(rowOverall, v)
	for key, note := range v.Present() {
		if note.VAFormat != taxonomy.VAFormatSnellen {
			continue
		}
		c.Inc(key, "Snellen")
		c.Inc(rowOverall, "Snellen")
		if len(note.PlusLetters) > 0 {
			c.Inc(key, "With +/-")
			c.Inc(rowOverall, "With +/-")
		}
	}
	return c, nil
}

// Format reduces the table to one column: the share of Snellen notes with
// plus letters.
func (*PlusMinus) Format(t tabular.Table[string, string]) tabular.StringTable {
	t = t.SortRowsBy("Snellen", true)
	snellen := t.Column("Snellen")
	with := t.Column("With +/-")

	st := tabular.StringTable{Header: []string{"Field", "Snellen with +/-"}}
	for i, r := range t.Rows {
		var num, den int64
		if snellen != nil {
			den = snellen[i]
		}
		if with != nil {
			num = with[i]
		}
		st.Rows = append(st.Rows, []string{r, ratioPct(num, den)})
	}
	return st
}
