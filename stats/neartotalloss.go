package stats

import (
	"strings"

	"github.com/dustin/go-humanize"

	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

var nearTotalLossKinds = []string{"CF", "HM", "LP", "NLP"}

// NearTotalLoss counts corrected distance notes and how many of them record
// a near-total-loss result.
type NearTotalLoss struct {
	merging[string]
}

func NewNearTotalLoss() *NearTotalLoss {
	cols := append([]string{"N", "Near Total Loss"}, nearTotalLossKinds...)
	return &NearTotalLoss{merging[string]{columns: cols}}
}

func (*NearTotalLoss) Name() string { return "near_total_loss" }

func (*NearTotalLoss) Map(v visit.Visit) (*Counter[string], error) {
	c := perField(rowOverall, v)
	for key, note := range v.Present() {
		if note.Correction != taxonomy.CorrectionCC || note.DistanceOfMeasurement != taxonomy.DistanceFar {
			continue
		}
		c.Inc(key, "N")
		c.Inc(rowOverall, "N")
		if note.VAFormat == taxonomy.VAFormatNearTotalLoss {
			c.Inc(key, "Near Total Loss")
			c.Inc(rowOverall, "Near Total Loss")
		}
		for _, kind := range nearTotalLossKinds {
			if strings.HasPrefix(note.ExtractedValue, kind) {
				c.Inc(key, kind)
				c.Inc(rowOverall, kind)
			}
		}
	}
	return c, nil
}

// Format sorts by N and shows every other column as a share of N.
func (*NearTotalLoss) Format(t tabular.Table[string, string]) tabular.StringTable {
	t = t.SortRowsBy("N", true)
	n := columnIndex(t, "N")
	st := t.Strings(tabular.Labels[string, string]{
		Index: []string{"Field"},
		Cell: func(i, j int, v int64) string {
			if j == n || n < 0 {
				return humanize.Comma(v)
			}
			return countPct(v, t.Values[i][n])
		},
	})
	if n >= 0 {
		st.Header[1+n] = "Distance + Corrected"
	}
	return st
}
