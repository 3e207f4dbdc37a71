package stats

import (
	"math"
	"strconv"
	"strings"

	"vastats/tabular"
	"vastats/taxonomy"
	"vastats/visit"
)

// Bin is one row of the acuity distribution.
type Bin struct {
	Name  string
	Label string
}

const maxLogMAR = 2.0

var (
	BinEmpty = Bin{"EMPTY", "Empty"}
	BinMax   = Bin{"MAX", ">20/2000 (>+2.00)"}
	BinCF    = Bin{"CF", "CF"}
	BinHM    = Bin{"HM", "HM"}
	BinLP    = Bin{"LP", "LP"}
	BinNLP   = Bin{"NLP", "NLP"}
	BinNear  = Bin{"NEAR", "Near VA"}
	BinOther = Bin{"OTHER", "Other"}
)

// snellenBins covers logMAR -0.3 to 2.0 in steps of 0.1.
var snellenBins = []Bin{
	{"S20_10", "20/10 (–0.30)"},
	{"S20_12", "20/12.5 (–0.20)"},
	{"S20_16", "20/16 (–0.10)"},
	{"S20_20", "20/20 (+0.00)"},
	{"S20_25", "20/25 (+0.10)"},
	{"S20_32", "20/32 (+0.20)"},
	{"S20_40", "20/40 (+0.30)"},
	{"S20_50", "20/50 (+0.40)"},
	{"S20_63", "20/63 (+0.50)"},
	{"S20_80", "20/80 (+0.60)"},
	{"S20_100", "20/100 (+0.70)"},
	{"S20_125", "20/125 (+0.80)"},
	{"S20_160", "20/160 (+0.90)"},
	{"S20_200", "20/200 (+1.00)"},
	{"S20_250", "20/250 (+1.10)"},
	{"S20_320", "20/320 (+1.20)"},
	{"S20_400", "20/400 (+1.30)"},
	{"S20_500", "20/500 (+1.40)"},
	{"S20_630", "20/630 (+1.50)"},
	{"S20_800", "20/800 (+1.60)"},
	{"S20_1000", "20/1000 (+1.70)"},
	{"S20_1250", "20/1250 (+1.80)"},
	{"S20_1600", "20/1600 (+1.90)"},
	{"S20_2000", "20/2000 (+2.00)"},
}

// Bins lists the distribution rows in display order. BinEmpty is not part
// of it.
func Bins() []Bin {
	out := append([]Bin(nil), snellenBins...)
	return append(out, BinMax, BinCF, BinHM, BinLP, BinNLP, BinNear, BinOther)
}

var binsByName = func() map[string]Bin {
	m := map[string]Bin{BinEmpty.Name: BinEmpty}
	for _, b := range Bins() {
		m[b.Name] = b
	}
	return m
}()

// BinOf places a note in the distribution.
func BinOf(n visit.VisitNote) Bin {
	switch {
	case n.ExtractedValue == "":
		return BinEmpty
	case n.DistanceOfMeasurement == taxonomy.DistanceNear:
		return BinNear
	case n.VAFormat == taxonomy.VAFormatVisualResponse:
		return BinOther
	case n.DataQuality == taxonomy.DataQualityCrossReference || n.VAFormat == taxonomy.VAFormatNearTotalLoss:
		first, _, _ := strings.Cut(strings.TrimSpace(n.ExtractedValue), " ")
		if b, ok := binsByName[first]; ok {
			return b
		}
		return BinOther
	}

	lm, ok := n.LogMarBase.Get()
	if !ok || math.IsNaN(lm) {
		return BinOther
	}
	lm = roundTenths(lm)
	if lm > maxLogMAR {
		return BinMax
	}
	step := int(math.Round(lm*10)) + 3
	switch {
	case step < 0:
		step = 0
	case step >= len(snellenBins):
		step = len(snellenBins) - 1
	}
	return snellenBins[step]
}

// roundTenths rounds the exact decimal value of x to one place, so 0.15
// (stored just below 0.15) goes down and 0.45 (stored just above) goes up.
func roundTenths(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return r
}

// Distribution cross-tabulates acuity bins against data quality.
type Distribution struct {
	merging[string]
}

func NewDistribution() *Distribution {
	var rows []string
	for _, b := range Bins() {
		rows = append(rows, b.Label)
	}
	lead := []taxonomy.DataQuality{
		taxonomy.DataQualityExact,
		taxonomy.DataQualityConvertibleConfident,
		taxonomy.DataQualityConvertibleFuzzy,
	}
	var cols []string
	for _, dq := range lead {
		cols = append(cols, dq.Code())
	}
	for _, m := range taxonomy.Members(taxonomy.KindDataQuality) {
		dq := m.(taxonomy.DataQuality)
		if dq != lead[0] && dq != lead[1] && dq != lead[2] {
			cols = append(cols, dq.Code())
		}
	}
	return &Distribution{merging[string]{rows: rows, columns: cols}}
}

func (*Distribution) Name() string { return "va_distribution" }

func (*Distribution) Map(v visit.Visit) (*Counter[string], error) {
	c := tabular.New[string, string]()
	for _, note := range v.Present() {
		c.Inc(BinOf(note).Label, note.DataQuality.Code())
	}
	return c, nil
}

func (*Distribution) Format(t tabular.Table[string, string]) tabular.StringTable {
	return t.Strings(tabular.Labels[string, string]{Index: []string{"VA"}})
}
