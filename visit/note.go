// Package visit is the normalized record model: one VisitNote per measured
// field, gathered into an ordered Visit per clinical encounter.
package visit

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"vastats/taxonomy"
)

// ErrNoteHasErrors is returned by VisitNote.Err when any categorical field
// holds its Error sentinel.
var ErrNoteHasErrors = errors.New("visit note has errors")

// ExtractedError is the extracted value substituted when the parser did not
// expose one.
const ExtractedError = "Error"

// VisitNote is one normalized measurement. Treat it as a value: build a new
// note (or a modified Clone) instead of mutating a shared one.
type VisitNote struct {
	Text     string `json:"text"`
	TextPlus string `json:"text_plus"`

	DataQuality           taxonomy.DataQuality           `json:"data_quality"`
	Laterality            taxonomy.Laterality            `json:"laterality"`
	DistanceOfMeasurement taxonomy.DistanceOfMeasurement `json:"distance_of_measurement"`
	Correction            taxonomy.Correction            `json:"correction"`
	PinHole               taxonomy.PinHole               `json:"pinhole"`
	VAFormat              taxonomy.VAFormat              `json:"va_format"`

	PlusLetters    []int  `json:"plus_letters"`
	ExtractedValue string `json:"extracted_value"`

	SnellenEquivalent     Value[SnellenFraction] `json:"snellen_equivalent"`
	LogMarBase            Value[float64]         `json:"log_mar_base"`
	LogMarBasePlusLetters Value[float64]         `json:"log_mar_base_plus_letters"`
}

// Clone returns a copy that shares no memory with n.
func (n VisitNote) Clone() VisitNote {
	n.PlusLetters = slices.Clone(n.PlusLetters)
	return n
}

// Equal compares the full field tuple. A nil and an empty PlusLetters are
// equal.
func (n VisitNote) Equal(o VisitNote) bool {
	return n.Text == o.Text &&
		n.TextPlus == o.TextPlus &&
		n.DataQuality == o.DataQuality &&
		n.Laterality == o.Laterality &&
		n.DistanceOfMeasurement == o.DistanceOfMeasurement &&
		n.Correction == o.Correction &&
		n.PinHole == o.PinHole &&
		n.VAFormat == o.VAFormat &&
		slices.Equal(n.PlusLetters, o.PlusLetters) &&
		n.ExtractedValue == o.ExtractedValue &&
		n.SnellenEquivalent.Equal(o.SnellenEquivalent) &&
		n.LogMarBase.Equal(o.LogMarBase) &&
		n.LogMarBasePlusLetters.Equal(o.LogMarBasePlusLetters)
}

// Errors lists the categorical fields holding their Error sentinel, in field
// order.
func (n VisitNote) Errors() []taxonomy.Category {
	var errs []taxonomy.Category
	for _, c := range []taxonomy.Category{
		n.Laterality, n.DistanceOfMeasurement, n.Correction, n.VAFormat, n.PinHole,
	} {
		if taxonomy.IsError(c) {
			errs = append(errs, c)
		}
	}
	return errs
}

// Err reports the Error sentinels on n as a single error, or nil.
func (n VisitNote) Err() error {
	errs := n.Errors()
	if len(errs) == 0 {
		return nil
	}
	syms := make([]string, len(errs))
	for i, c := range errs {
		syms[i] = taxonomy.Symbol(c)
	}
	return fmt.Errorf("%w: %s", ErrNoteHasErrors, strings.Join(syms, ", "))
}

// HasFailures reports whether any attribute on n is an Error sentinel or a
// failed value.
func (n VisitNote) HasFailures() bool {
	return len(n.Errors()) > 0 ||
		n.ExtractedValue == ExtractedError ||
		n.SnellenEquivalent.IsFailed() ||
		n.LogMarBase.IsFailed() ||
		n.LogMarBasePlusLetters.IsFailed()
}
