package stats

import (
	"math"

	"github.com/dustin/go-humanize"

	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

var visitColumns = []string{
	"N", "Has Text", "Recognized Format", "LogMAR Equivalent",
	"Distance", "Near", "Manifest", "Pin Hole", "Pin Hole NI",
}

// VisitStats counts visits, not notes: each flag is set at most once per
// visit and laterality.
type VisitStats struct {
	merging[string]
}

func NewVisitStats() *VisitStats {
	var rows []string
	for _, m := range taxonomy.Members(taxonomy.KindLaterality) {
		if m != taxonomy.LateralityUnknown {
			rows = append(rows, m.Code())
		}
	}
	rows = append(rows, rowAny)
	return &VisitStats{merging[string]{rows: rows, columns: visitColumns}}
}

func (*VisitStats) Name() string { return "visit_stats" }

func (s *VisitStats) Map(v visit.Visit) (*Counter[string], error) {
	c := tabular.New[string, string]()
	flag := func(lat, col string) {
		c.Set(lat, col, 1)
		c.Set(rowAny, col, 1)
	}
	for _, note := range v.Present() {
		lat := note.Laterality.Code()
		flag(lat, "Has Text")
		if note.VAFormat == taxonomy.VAFormatUnknown {
			continue
		}
		flag(lat, "Recognized Format")
		if lm, ok := note.LogMarBase.Get(); ok && !math.IsNaN(lm) && !math.IsInf(lm, 0) {
			flag(lat, "LogMAR Equivalent")
		}
		switch note.DistanceOfMeasurement {
		case taxonomy.DistanceFar:
			flag(lat, "Distance")
		case taxonomy.DistanceNear:
			flag(lat, "Near")
		}
		if note.Correction == taxonomy.CorrectionManifest {
			flag(lat, "Manifest")
		}
		if note.PinHole == taxonomy.PinHoleWith {
			flag(lat, "Pin Hole")
			if note.ExtractedValue == "NI" {
				flag(lat, "Pin Hole NI")
			}
		}
	}
	for _, lat := range s.rows {
		c.Set(lat, "N", 1)
	}
	return c, nil
}

// Format shows each flag as a share of all visits, and pin hole NI as a
// share of pin hole visits.
func (*VisitStats) Format(t tabular.Table[string, string]) tabular.StringTable {
	nCol := columnIndex(t, "N")
	phCol := columnIndex(t, "Pin Hole")
	niCol := columnIndex(t, "Pin Hole NI")
	var n int64
	if v, ok := t.At(rowAny, "N"); ok {
		n = v
	}
	return t.Strings(tabular.Labels[string, string]{
		Index: []string{"Laterality"},
		Cell: func(i, j int, v int64) string {
			switch j {
			case nCol:
				return humanize.Comma(v)
			case niCol:
				if phCol < 0 {
					return humanize.Comma(v)
				}
				return ratioPct(v, t.Values[i][phCol])
			}
			return countPct(v, n)
		},
	})
}
