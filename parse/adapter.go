package parse

import (
	"errors"
	"fmt"
	"strings"

	"vastats/csvstream"
	"vastats/taxonomy"
	"vastats/visit"
)

// ErrMissingDataQuality is returned for a note the parser emitted without a
// data quality. DataQuality has no Error member to fall back on.
var ErrMissingDataQuality = errors.New("note has no data quality")

// RowError carries the raw row that failed to parse or convert.
type RowError struct {
	Columns []string
	Values  []string
	Err     error
}

func NewRowError(row csvstream.Row, err error) *RowError {
	return &RowError{Columns: row.Columns(), Values: row.Values(), Err: err}
}

func (e *RowError) Error() string {
	var b strings.Builder
	for i, c := range e.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", c, e.Values[i])
	}
	return fmt.Sprintf("%v: `{%s}`", e.Err, b.String())
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Adapter turns a delimited row into a Visit by calling the Parser once and
// converting every note. Safe for concurrent use when its Parser is.
type Adapter struct {
	parser Parser
	conv   *taxonomy.Converter
	merger *ColumnMerger
}

type AdapterOption func(*Adapter)

// WithConverter sets the converter; the default is a fresh one per Adapter.
func WithConverter(c *taxonomy.Converter) AdapterOption {
	return func(a *Adapter) { a.conv = c }
}

// WithPlusMerge folds "X +" style columns into field X before parsing.
func WithPlusMerge(on bool) AdapterOption {
	return func(a *Adapter) {
		if on {
			a.merger = NewColumnMerger()
		} else {
			a.merger = nil
		}
	}
}

func NewAdapter(p Parser, opts ...AdapterOption) *Adapter {
	a := &Adapter{parser: p, conv: taxonomy.NewConverter()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Inputs returns what Parse would hand to the Parser for row.
func (a *Adapter) Inputs(row csvstream.Row) []Input {
	if a.merger != nil {
		return a.merger.Merge(row)
	}
	return Unmerged(row)
}

// Parse builds the Visit for row. Any parser or conversion failure is
// returned as a *RowError.
func (a *Adapter) Parse(row csvstream.Row) (visit.Visit, error) {
	fields, err := a.parser.Parse(a.Inputs(row))
	if err != nil {
		return visit.Visit{}, NewRowError(row, err)
	}

	entries := make([]visit.Entry, len(fields))
	for i, f := range fields {
		if f.Note == nil {
			entries[i] = visit.Absent(f.Key)
			continue
		}
		note, err := a.Convert(f.Note)
		if err != nil {
			return visit.Visit{}, NewRowError(row, fmt.Errorf("field %q: %w", f.Key, err))
		}
		entries[i] = visit.Present(f.Key, note)
	}
	return visit.New(entries...), nil
}

// Convert resolves a raw note. Attributes the parser did not expose become
// their Error sentinel or a failed value.
func (a *Adapter) Convert(raw *RawNote) (visit.VisitNote, error) {
	note := visit.VisitNote{
		Text:           raw.Text,
		TextPlus:       raw.TextPlus,
		PlusLetters:    append([]int(nil), raw.PlusLetters...),
		ExtractedValue: visit.ExtractedError,
	}
	if raw.ExtractedValue != nil {
		note.ExtractedValue = *raw.ExtractedValue
	}

	if raw.DataQuality == nil {
		return visit.VisitNote{}, ErrMissingDataQuality
	}
	var err error
	if note.DataQuality, err = taxonomy.Resolve[taxonomy.DataQuality](a.conv, *raw.DataQuality); err != nil {
		return visit.VisitNote{}, err
	}
	if note.Laterality, err = resolveOr(a.conv, raw.Laterality, taxonomy.LateralityError); err != nil {
		return visit.VisitNote{}, err
	}
	if note.DistanceOfMeasurement, err = resolveOr(a.conv, raw.DistanceOfMeasurement, taxonomy.DistanceError); err != nil {
		return visit.VisitNote{}, err
	}
	if note.Correction, err = resolveOr(a.conv, raw.Correction, taxonomy.CorrectionError); err != nil {
		return visit.VisitNote{}, err
	}
	if note.PinHole, err = resolveOr(a.conv, raw.PinHole, taxonomy.PinHoleError); err != nil {
		return visit.VisitNote{}, err
	}
	if note.VAFormat, err = resolveOr(a.conv, raw.VAFormat, taxonomy.VAFormatError); err != nil {
		return visit.VisitNote{}, err
	}

	note.SnellenEquivalent = valueOrFailed(raw.SnellenEquivalent)
	note.LogMarBase = valueOrFailed(raw.LogMarBase)
	note.LogMarBasePlusLetters = valueOrFailed(raw.LogMarBasePlusLetters)
	return note, nil
}

func resolveOr[E taxonomy.Category](c *taxonomy.Converter, symbol *string, sentinel E) (E, error) {
	if symbol == nil {
		return sentinel, nil
	}
	return taxonomy.Resolve[E](c, *symbol)
}

func valueOrFailed[T comparable](v *visit.Value[T]) visit.Value[T] {
	if v == nil {
		return visit.Failed[T]()
	}
	return *v
}
