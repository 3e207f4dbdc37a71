package visit

import (
	"cmp"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vastats/taxonomy"
)

func snellenNote(text string, logmar float64) VisitNote {
	return VisitNote{
		Text:                  text,
		DataQuality:           taxonomy.DataQualityExact,
		Laterality:            taxonomy.LateralityOD,
		DistanceOfMeasurement: taxonomy.DistanceFar,
		Correction:            taxonomy.CorrectionCC,
		VAFormat:              taxonomy.VAFormatSnellen,
		ExtractedValue:        text,
		LogMarBase:            Some(logmar),
		LogMarBasePlusLetters: Some(logmar),
	}
}

func TestSnellenFractionOrdering(t *testing.T) {
	assert.Equal(t, 1, Snellen(20, 20).Compare(Snellen(20, 40)))
	assert.Equal(t, -1, Snellen(20, 40).Compare(Snellen(20, 20)))
	assert.True(t, Snellen(20, 20).Equal(Snellen(20, 20)))
	assert.True(t, Snellen(20, 40).Equal(Snellen(10, 20)), "equal ratios compare equal")
	assert.Equal(t, 1, Snellen(20, 15).Compare(Snellen(6, 6)))
}

func TestSnellenFractionZeroRowOrdering(t *testing.T) {
	undefined, infinite := Snellen(0, 0), Snellen(20, 0)
	ordered := []SnellenFraction{undefined, Snellen(20, 200), Snellen(20, 40), Snellen(20, 10), infinite}
	for i := range ordered {
		for j := range ordered {
			assert.Equal(t, cmp.Compare(i, j), ordered[i].Compare(ordered[j]), "%v vs %v", ordered[i], ordered[j])
		}
	}
	assert.True(t, undefined.Equal(Snellen(0, 0)))
	assert.True(t, infinite.Equal(Snellen(6, 0)))
}

func TestSnellenFractionString(t *testing.T) {
	assert.Equal(t, "20/40", Snellen(20, 40).String())
	assert.Equal(t, "6/7.5", Snellen(6, 7.5).String())
	assert.InDelta(t, 0.5, Snellen(20, 40).Ratio(), 1e-12)
}

func TestSnellenFractionJSON(t *testing.T) {
	b, err := json.Marshal(Snellen(20, 30))
	require.NoError(t, err)
	assert.JSONEq(t, `[20,30]`, string(b))

	var s SnellenFraction
	require.NoError(t, json.Unmarshal([]byte(`[20, 200]`), &s))
	assert.Equal(t, Snellen(20, 200), s)

	assert.Error(t, json.Unmarshal([]byte(`[20]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`[-20, 40]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`[0, 0]`), &s))
	assert.Error(t, json.Unmarshal([]byte(`[20, 0]`), &s))
}

func TestValueStates(t *testing.T) {
	var zero Value[float64]
	assert.Equal(t, StateAbsent, zero.State())

	v, ok := Some(0.3).Get()
	assert.True(t, ok)
	assert.Equal(t, 0.3, v)

	_, ok = Failed[float64]().Get()
	assert.False(t, ok)
	assert.True(t, Failed[float64]().IsFailed())
	assert.Equal(t, 1.5, None[float64]().Or(1.5))

	assert.False(t, None[float64]().Equal(Failed[float64]()))
	assert.True(t, Some(math.NaN()).Equal(Some(math.NaN())))
	assert.False(t, Some(0.1).Equal(Some(0.2)))
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name string
		in   Value[float64]
		want string
	}{
		{"present", Some(0.48), `0.48`},
		{"absent", None[float64](), `null`},
		{"failed", Failed[float64](), `"Error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := json.Marshal(tt.in)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(b))

			var back Value[float64]
			require.NoError(t, json.Unmarshal(b, &back))
			assert.True(t, tt.in.Equal(back))
		})
	}
}

func TestNoteCloneIsIndependent(t *testing.T) {
	n := snellenNote("20/40 +2", 0.26)
	n.PlusLetters = []int{2}

	c := n.Clone()
	require.True(t, n.Equal(c))
	c.PlusLetters[0] = -1
	assert.Equal(t, []int{2}, n.PlusLetters)
	assert.False(t, n.Equal(c))
}

func TestNoteEqualCoversEveryField(t *testing.T) {
	base := snellenNote("20/40", 0.3)
	mutations := map[string]func(*VisitNote){
		"text":        func(n *VisitNote) { n.Text = "20/50" },
		"quality":     func(n *VisitNote) { n.DataQuality = taxonomy.DataQualityMultiple },
		"laterality":  func(n *VisitNote) { n.Laterality = taxonomy.LateralityOS },
		"pinhole":     func(n *VisitNote) { n.PinHole = taxonomy.PinHoleWith },
		"snellen":     func(n *VisitNote) { n.SnellenEquivalent = Some(Snellen(20, 40)) },
		"logmar":      func(n *VisitNote) { n.LogMarBase = Failed[float64]() },
		"plusLetters": func(n *VisitNote) { n.PlusLetters = []int{1} },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			n := base.Clone()
			mutate(&n)
			assert.False(t, base.Equal(n))
		})
	}
}

func TestNoteErrors(t *testing.T) {
	n := snellenNote("20/40", 0.3)
	assert.NoError(t, n.Err())
	assert.False(t, n.HasFailures())

	n.Laterality = taxonomy.LateralityError
	n.PinHole = taxonomy.PinHoleError
	assert.Equal(t, []taxonomy.Category{taxonomy.LateralityError, taxonomy.PinHoleError}, n.Errors())

	err := n.Err()
	require.ErrorIs(t, err, ErrNoteHasErrors)
	assert.Contains(t, err.Error(), "Laterality.Error")
	assert.True(t, n.HasFailures())
}

func TestNoteJSONRoundTrip(t *testing.T) {
	n := snellenNote("20/40", 0.3)
	n.SnellenEquivalent = Some(Snellen(20, 40))
	n.LogMarBasePlusLetters = Failed[float64]()

	b, err := json.Marshal(n)
	require.NoError(t, err)

	var back VisitNote
	require.NoError(t, json.Unmarshal(b, &back))
	assert.True(t, n.Equal(back), "got %+v", back)
}

func TestAbsentEntryIsNotNoValue(t *testing.T) {
	v := New(
		Absent("Left Eye Distance SC"),
		Present("Right Eye Distance SC", VisitNote{DataQuality: taxonomy.DataQualityNoValue}),
	)

	left, ok := v.Get("Left Eye Distance SC")
	require.True(t, ok)
	_, present := left.Note()
	assert.False(t, present)

	right, ok := v.Get("Right Eye Distance SC")
	require.True(t, ok)
	note, present := right.Note()
	require.True(t, present)
	assert.Equal(t, taxonomy.DataQualityNoValue, note.DataQuality)

	_, ok = v.Get("Both Eyes Near")
	assert.False(t, ok)
}

func TestVisitKeepsKeyOrder(t *testing.T) {
	v := New(
		Absent("C"),
		Present("A", snellenNote("20/20", 0)),
		Absent("B"),
		Present("C", snellenNote("20/30", 0.18)),
	)
	assert.Equal(t, []string{"C", "A", "B"}, v.Keys())
	assert.Equal(t, 3, v.Len())

	e, _ := v.Get("C")
	assert.True(t, e.IsPresent(), "later entry replaces earlier one in place")

	var seen []string
	for key := range v.Present() {
		seen = append(seen, key)
	}
	assert.Equal(t, []string{"C", "A"}, seen)
}

func TestVisitMinMax(t *testing.T) {
	nan := snellenNote("CF", 0)
	nan.LogMarBasePlusLetters = Some(math.NaN())
	failed := snellenNote("??", 0)
	failed.LogMarBasePlusLetters = Failed[float64]()

	v := New(
		Present("nan", nan),
		Absent("absent"),
		Present("worse", snellenNote("20/200", 1.0)),
		Present("better", snellenNote("20/20", 0.0)),
		Present("tie", snellenNote("20/20", 0.0)),
		Present("failed", failed),
	)

	key, note, ok := v.Min()
	require.True(t, ok)
	assert.Equal(t, "better", key, "ties resolve to the first key")
	assert.Equal(t, "20/20", note.Text)

	key, _, ok = v.Max()
	require.True(t, ok)
	assert.Equal(t, "worse", key)

	_, _, ok = New(Absent("x"), Present("nan", nan)).Min()
	assert.False(t, ok)
}

func TestVisitMarshalJSON(t *testing.T) {
	v := New(Absent("B"), Present("A", VisitNote{Text: "20/40"}))
	b, err := json.Marshal(v)
	require.NoError(t, err)

	assert.Regexp(t, `^\{"B":null,"A":\{`, string(b))
}
