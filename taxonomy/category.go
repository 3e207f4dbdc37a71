// Package taxonomy holds the closed categorical vocabularies a visit note is
// normalized into, and the conversion layer that resolves the parser's
// "Type.Value" symbols into them.
package taxonomy

import (
	"cmp"
	"errors"
	"fmt"
)

var (
	ErrUnknownCategoryType  = errors.New("unknown category type")
	ErrUnknownCategoryValue = errors.New("unknown category value")
	ErrIncomparableCategory = errors.New("incomparable categories")
)

// Kind is the registered name of a categorical type, as the parser spells it.
type Kind string

const (
	KindDataQuality           Kind = "DataQuality"
	KindLaterality            Kind = "Laterality"
	KindDistanceOfMeasurement Kind = "DistanceOfMeasurement"
	KindCorrection            Kind = "Correction"
	KindVAFormat              Kind = "VAFormat"
	KindPinHole               Kind = "PinHole"
)

// Category is implemented by every enumeration in this package.
type Category interface {
	Kind() Kind
	// Code is the machine-stable member name, e.g. "OS" or "ConvertibleFuzzy".
	Code() string
	// Ordinal is the position of the member within its Kind.
	Ordinal() int
}

// IncomparableError reports an ordering comparison across two kinds.
type IncomparableError struct {
	Left, Right Kind
}

func (e *IncomparableError) Error() string {
	return fmt.Sprintf("compare %s with %s: %v", e.Left, e.Right, ErrIncomparableCategory)
}

func (e *IncomparableError) Is(target error) bool {
	return target == ErrIncomparableCategory
}

// Compare orders two members of the same kind by declaration order.
func Compare(a, b Category) (int, error) {
	if a.Kind() != b.Kind() {
		return 0, &IncomparableError{Left: a.Kind(), Right: b.Kind()}
	}
	return cmp.Compare(a.Ordinal(), b.Ordinal()), nil
}

// Less reports whether a sorts before b.
func Less(a, b Category) (bool, error) {
	c, err := Compare(a, b)
	return c < 0, err
}

// Symbol renders c the way the parser refers to it: "Kind.Code".
func Symbol(c Category) string {
	return string(c.Kind()) + "." + c.Code()
}
