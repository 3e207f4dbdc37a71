package visit

import (
	"cmp"
	"encoding/json"
	"fmt"
	"strconv"
)

// SnellenFraction is a distance/row acuity pair such as 20/40. Fractions
// order by their numeric ratio, so 20/20 is greater than 20/40.
type SnellenFraction struct {
	Distance float64
	Row      float64
}

func Snellen(distance, row float64) SnellenFraction {
	return SnellenFraction{Distance: distance, Row: row}
}

// Ratio returns Distance/Row. A zero row yields +Inf (or NaN for 0/0).
func (s SnellenFraction) Ratio() float64 {
	return s.Distance / s.Row
}

// Compare orders s and o by ratio. Cross-multiplication keeps 20/40 and
// 10/20 equal without a float division. Fractions with a zero row are
// ordered explicitly: 0/0 below every other fraction, d/0 above.
func (s SnellenFraction) Compare(o SnellenFraction) int {
	sc, oc := s.class(), o.class()
	if sc != oc || sc != ratioFinite {
		return cmp.Compare(sc, oc)
	}
	return cmp.Compare(s.Distance*o.Row, o.Distance*s.Row)
}

const (
	ratioUndefined = iota
	ratioFinite
	ratioInfinite
)

func (s SnellenFraction) class() int {
	switch {
	case s.Row != 0:
		return ratioFinite
	case s.Distance == 0:
		return ratioUndefined
	}
	return ratioInfinite
}

func (s SnellenFraction) Equal(o SnellenFraction) bool {
	return s.Compare(o) == 0
}

func (s SnellenFraction) String() string {
	return formatNumber(s.Distance) + "/" + formatNumber(s.Row)
}

// MarshalJSON encodes the fraction as a [distance, row] pair.
func (s SnellenFraction) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{s.Distance, s.Row})
}

func (s *SnellenFraction) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return fmt.Errorf("snellen fraction: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("snellen fraction: want 2 numbers, got %d", len(pair))
	}
	if pair[0] < 0 || pair[1] < 0 {
		return fmt.Errorf("snellen fraction: negative term in %v", pair)
	}
	if pair[1] == 0 {
		return fmt.Errorf("snellen fraction: zero row in %v", pair)
	}
	s.Distance, s.Row = pair[0], pair[1]
	return nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
