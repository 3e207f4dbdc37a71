// Package parse turns raw delimited rows into visit.Visit records through an
// external Parser, resolving every categorical symbol via taxonomy.
package parse

import (
	"vastats/visit"
)

// Input is one field handed to a Parser: the field's text plus the text of
// its matching plus column, if any.
type Input struct {
	Key      string
	Text     string
	TextPlus string
}

// Field is one parsed entry. A nil Note means the field had no data.
type Field struct {
	Key  string
	Note *RawNote
}

// RawNote is a note as the external parser emits it. Categorical attributes
// are "Type.Value" symbols. A nil pointer means the parser did not expose the
// attribute for this record.
type RawNote struct {
	Text        string
	TextPlus    string
	PlusLetters []int

	ExtractedValue *string

	DataQuality           *string
	Laterality            *string
	DistanceOfMeasurement *string
	Correction            *string
	PinHole               *string
	VAFormat              *string

	SnellenEquivalent     *visit.Value[visit.SnellenFraction]
	LogMarBase            *visit.Value[float64]
	LogMarBasePlusLetters *visit.Value[float64]
}

// Parser is the natural-language extraction service. Parse is called once
// per row and must be safe for concurrent use. Fields should come back in
// input order.
type Parser interface {
	Parse(inputs []Input) ([]Field, error)
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(inputs []Input) ([]Field, error)

func (f ParserFunc) Parse(inputs []Input) ([]Field, error) {
	return f(inputs)
}

// Ptr returns a pointer to v, for building RawNote literals.
func Ptr[T any](v T) *T {
	return &v
}
