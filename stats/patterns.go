package stats

import (
	"strings"

	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

// DefaultMinCount is the fewest occurrences a pattern needs to be reported.
const DefaultMinCount = 5

// Pattern is a raw text that parsed badly, with how it parsed.
type Pattern struct {
	Text        string
	DataQuality string
	Error       string
}

// String joins the fields with " | " for single-label sinks.
func (p Pattern) String() string {
	return p.Text + " | " + p.DataQuality + " | " + p.Error
}

// UnexpectedPatterns collects the texts that produced unusable or erroring
// notes, counted overall and per field.
type UnexpectedPatterns struct {
	merging[Pattern]
	MinCount int64
}

func NewUnexpectedPatterns() *UnexpectedPatterns {
	return &UnexpectedPatterns{
		merging:  merging[Pattern]{columns: []string{rowAny}},
		MinCount: DefaultMinCount,
	}
}

func (*UnexpectedPatterns) Name() string { return "unexpected_patterns" }

func unexpectedQuality(dq taxonomy.DataQuality) bool {
	switch dq {
	case taxonomy.DataQualityConvertibleFuzzy,
		taxonomy.DataQualityNoValue,
		taxonomy.DataQualityMultiple,
		taxonomy.DataQualityUnusable:
		return true
	}
	return false
}

func (*UnexpectedPatterns) Map(v visit.Visit) (*Counter[Pattern], error) {
	c := tabular.New[Pattern, string]()
	for key, note := range v.Present() {
		var parts []string
		for _, s := range []string{note.Text, note.TextPlus} {
			if s != "" {
				parts = append(parts, s)
			}
		}
		p := Pattern{Text: strings.Join(parts, " "), DataQuality: note.DataQuality.Code()}

		if note.ExtractedValue == "" || unexpectedQuality(note.DataQuality) {
			c.Inc(p, rowAny)
			c.Inc(p, key)
			continue
		}
		if err := note.Err(); err != nil {
			p.Error = err.Error()
			c.Inc(p, rowAny)
			c.Inc(p, key)
		}
	}
	return c, nil
}

// Format keeps patterns seen at least MinCount times, most frequent first.
func (u *UnexpectedPatterns) Format(t tabular.Table[Pattern, string]) tabular.StringTable {
	t = t.SortRowsBy(rowAny, true)
	anyCol := -1
	for j, c := range t.Columns {
		if c == rowAny {
			anyCol = j
		}
	}
	if anyCol >= 0 {
		t = t.Filter(func(_ Pattern, values []int64) bool {
			return values[anyCol] >= u.MinCount
		})
	}
	return t.Strings(tabular.Labels[Pattern, string]{
		Index: []string{"Text", "Data Quality", "Error"},
		Row:   func(p Pattern) []string { return []string{p.Text, p.DataQuality, p.Error} },
	})
}
