package stats

import (
	"github.com/dustin/go-humanize"

	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

const (
	rowAny     = "Any"
	rowOverall = "Overall"
)

// DataQuality counts, per field, how many notes were exact, convertible or
// unusable.
type DataQuality struct {
	merging[string]
}

func NewDataQuality() *DataQuality {
	return &DataQuality{merging[string]{columns: []string{"Total", "Exact", "Convertible", "Unusable"}}}
}

func (*DataQuality) Name() string { return "data_quality" }

func usability(dq taxonomy.DataQuality) string {
	switch dq {
	case taxonomy.DataQualityExact:
		return "Exact"
	case taxonomy.DataQualityConvertibleConfident, taxonomy.DataQualityConvertibleFuzzy:
		return "Convertible"
	}
	return "Unusable"
}

func (*DataQuality) Map(v visit.Visit) (*Counter[string], error) {
	c := perField(rowAny, v)
	for key, note := range v.Present() {
		u := usability(note.DataQuality)
		c.Inc(key, u)
		c.Inc(rowAny, u)
		c.Inc(key, "Total")
		c.Inc(rowAny, "Total")
	}
	return c, nil
}

// Format sorts by Exact and shows every cell as a share of its row total.
func (*DataQuality) Format(t tabular.Table[string, string]) tabular.StringTable {
	t = t.SortRowsBy("Exact", true)
	total := columnIndex(t, "Total")
	return t.Strings(tabular.Labels[string, string]{
		Index: []string{"Field"},
		Cell: func(i, j int, v int64) string {
			if j == total || total < 0 {
				return humanize.Comma(v)
			}
			return countPct(v, t.Values[i][total])
		},
	})
}
