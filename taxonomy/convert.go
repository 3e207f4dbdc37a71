package taxonomy

import (
	"fmt"
	"strings"

	"github.com/patrickmn/go-cache"
)

type decodeFunc func(code string) (Category, bool)

type registration struct {
	decode  decodeFunc
	members []Category
}

var registry = map[Kind]registration{
	KindDataQuality:           register[DataQuality](dataQualityCodes),
	KindLaterality:            register[Laterality](lateralityCodes),
	KindDistanceOfMeasurement: register[DistanceOfMeasurement](distanceCodes),
	KindCorrection:            register[Correction](correctionCodes),
	KindVAFormat:              register[VAFormat](vaFormatCodes),
	KindPinHole:               register[PinHole](pinHoleCodes),
}

var kinds = []Kind{
	KindDataQuality,
	KindLaterality,
	KindDistanceOfMeasurement,
	KindCorrection,
	KindVAFormat,
	KindPinHole,
}

func register[E interface {
	~uint8
	Category
}](codes []string) registration {
	index := make(map[string]E, len(codes))
	members := make([]Category, len(codes))
	for i, code := range codes {
		index[code] = E(i)
		members[i] = E(i)
	}
	return registration{
		decode: func(code string) (Category, bool) {
			e, ok := index[code]
			return e, ok
		},
		members: members,
	}
}

// Kinds lists the registered categorical types.
func Kinds() []Kind {
	return append([]Kind(nil), kinds...)
}

// Members lists every member of kind in ordinal order, or nil when kind is
// not registered.
func Members(kind Kind) []Category {
	reg, ok := registry[kind]
	if !ok {
		return nil
	}
	return append([]Category(nil), reg.members...)
}

// Converter resolves parser symbols into categories. Successful lookups are
// memoized; the key space is bounded by the registered vocabularies because
// failures are never stored. Safe for concurrent use.
type Converter struct {
	memo *cache.Cache
}

func NewConverter() *Converter {
	return &Converter{memo: cache.New(cache.NoExpiration, 0)}
}

var defaultConverter = NewConverter()

// Convert resolves (typeName, value) with the shared converter.
func Convert(typeName, value string) (Category, error) {
	return defaultConverter.Convert(typeName, value)
}

// ConvertSymbol resolves a "Type.Value" symbol with the shared converter.
func ConvertSymbol(symbol string) (Category, error) {
	return defaultConverter.ConvertSymbol(symbol)
}

func (c *Converter) Convert(typeName, value string) (Category, error) {
	key := typeName + "." + value
	if hit, ok := c.memo.Get(key); ok {
		return hit.(Category), nil
	}

	reg, ok := registry[Kind(typeName)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategoryType, typeName)
	}
	cat, ok := reg.decode(value)
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownCategoryValue, typeName, value)
	}

	c.memo.Set(key, cat, cache.NoExpiration)
	return cat, nil
}

func (c *Converter) ConvertSymbol(symbol string) (Category, error) {
	typeName, value, ok := strings.Cut(symbol, ".")
	if !ok {
		return nil, fmt.Errorf("%w: malformed symbol %q", ErrUnknownCategoryType, symbol)
	}
	return c.Convert(typeName, value)
}

// Cached returns the number of memoized conversions.
func (c *Converter) Cached() int {
	return c.memo.ItemCount()
}

// Resolve converts symbol and requires the result to be of type E, so a
// laterality field holding "Correction.CC" is rejected rather than stored.
func Resolve[E Category](c *Converter, symbol string) (E, error) {
	var zero E
	cat, err := c.ConvertSymbol(symbol)
	if err != nil {
		return zero, err
	}
	e, ok := cat.(E)
	if !ok {
		return zero, fmt.Errorf("%w: %q is not a %s", ErrUnknownCategoryType, symbol, zero.Kind())
	}
	return e, nil
}

func parseCode[E Category](kind Kind, code string) (E, error) {
	cat, err := Convert(string(kind), code)
	if err != nil {
		var zero E
		return zero, err
	}
	return cat.(E), nil
}

// ParseDataQuality resolves a bare DataQuality code such as "Exact".
func ParseDataQuality(code string) (DataQuality, error) {
	return parseCode[DataQuality](KindDataQuality, code)
}

func ParseLaterality(code string) (Laterality, error) {
	return parseCode[Laterality](KindLaterality, code)
}

func ParseDistanceOfMeasurement(code string) (DistanceOfMeasurement, error) {
	return parseCode[DistanceOfMeasurement](KindDistanceOfMeasurement, code)
}

func ParseCorrection(code string) (Correction, error) {
	return parseCode[Correction](KindCorrection, code)
}

func ParseVAFormat(code string) (VAFormat, error) {
	return parseCode[VAFormat](KindVAFormat, code)
}

func ParsePinHole(code string) (PinHole, error) {
	return parseCode[PinHole](KindPinHole, code)
}
