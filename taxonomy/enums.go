package taxonomy

import "fmt"

// DataQuality ranks how reliably a raw field was reduced to a value, weakest
// signal first. It has no Error member: failed extractions are Unusable.
type DataQuality uint8

const (
	DataQualityNoValue DataQuality = iota
	DataQualityExact
	DataQualityMultiple
	DataQualityCrossReference
	DataQualityConvertibleConfident
	DataQualityConvertibleFuzzy
	DataQualityUnusable
)

var dataQualityCodes = []string{
	"NoValue", "Exact", "Multiple", "CrossReference",
	"ConvertibleConfident", "ConvertibleFuzzy", "Unusable",
}

type Laterality uint8

const (
	LateralityUnknown Laterality = iota
	LateralityOS
	LateralityOD
	LateralityOU
	LateralityError
)

var lateralityCodes = []string{"Unknown", "OS", "OD", "OU", "Error"}

type DistanceOfMeasurement uint8

const (
	DistanceUnknown DistanceOfMeasurement = iota
	DistanceNear
	DistanceFar
	DistanceError
)

var distanceCodes = []string{"Unknown", "Near", "Distance", "Error"}

type Correction uint8

const (
	CorrectionUnknown Correction = iota
	CorrectionCC
	CorrectionSC
	CorrectionManifest
	CorrectionError
)

var correctionCodes = []string{"Unknown", "CC", "SC", "Manifest", "Error"}

// VAFormat is the measurement method the acuity was recorded with.
type VAFormat uint8

const (
	VAFormatUnknown VAFormat = iota
	VAFormatSnellen
	VAFormatJaeger
	VAFormatETDRS
	VAFormatTeller
	VAFormatNearTotalLoss
	VAFormatVisualResponse
	VAFormatPinHole
	VAFormatBinocular
	VAFormatNotTaken
	VAFormatCrossReference
	VAFormatError
)

var vaFormatCodes = []string{
	"Unknown", "Snellen", "Jaeger", "ETDRS", "Teller", "NearTotalLoss",
	"VisualResponse", "PinHole", "Binocular", "NotTaken", "CrossReference", "Error",
}

type PinHole uint8

const (
	PinHoleUnknown PinHole = iota
	PinHoleWith
	PinHoleWithout
	PinHoleError
)

var pinHoleCodes = []string{"Unknown", "With", "Without", "Error"}

func (d DataQuality) Kind() Kind     { return KindDataQuality }
func (d DataQuality) Code() string   { return codeOf(dataQualityCodes, int(d)) }
func (d DataQuality) Ordinal() int   { return int(d) }
func (d DataQuality) String() string { return d.Code() }

func (l Laterality) Kind() Kind     { return KindLaterality }
func (l Laterality) Code() string   { return codeOf(lateralityCodes, int(l)) }
func (l Laterality) Ordinal() int   { return int(l) }
func (l Laterality) String() string { return l.Code() }

func (d DistanceOfMeasurement) Kind() Kind     { return KindDistanceOfMeasurement }
func (d DistanceOfMeasurement) Code() string   { return codeOf(distanceCodes, int(d)) }
func (d DistanceOfMeasurement) Ordinal() int   { return int(d) }
func (d DistanceOfMeasurement) String() string { return d.Code() }

func (c Correction) Kind() Kind     { return KindCorrection }
func (c Correction) Code() string   { return codeOf(correctionCodes, int(c)) }
func (c Correction) Ordinal() int   { return int(c) }
func (c Correction) String() string { return c.Code() }

func (v VAFormat) Kind() Kind     { return KindVAFormat }
func (v VAFormat) Code() string   { return codeOf(vaFormatCodes, int(v)) }
func (v VAFormat) Ordinal() int   { return int(v) }
func (v VAFormat) String() string { return v.Code() }

func (p PinHole) Kind() Kind     { return KindPinHole }
func (p PinHole) Code() string   { return codeOf(pinHoleCodes, int(p)) }
func (p PinHole) Ordinal() int   { return int(p) }
func (p PinHole) String() string { return p.Code() }

// IsError reports whether c is the Error sentinel of its kind.
func IsError(c Category) bool {
	return c.Kind() != KindDataQuality && c.Code() == "Error"
}

func codeOf(codes []string, i int) string {
	if i < 0 || i >= len(codes) {
		return fmt.Sprintf("Invalid(%d)", i)
	}
	return codes[i]
}

// Text encoding uses the bare member code so notes serialize readably.

func (d DataQuality) MarshalText() ([]byte, error) { return marshalCode(d) }
func (l Laterality) MarshalText() ([]byte, error)  { return marshalCode(l) }
func (d DistanceOfMeasurement) MarshalText() ([]byte, error) {
	return marshalCode(d)
}
func (c Correction) MarshalText() ([]byte, error) { return marshalCode(c) }
func (v VAFormat) MarshalText() ([]byte, error)   { return marshalCode(v) }
func (p PinHole) MarshalText() ([]byte, error)    { return marshalCode(p) }

func (d *DataQuality) UnmarshalText(b []byte) error {
	return unmarshalCode(d, KindDataQuality, string(b))
}
func (l *Laterality) UnmarshalText(b []byte) error {
	return unmarshalCode(l, KindLaterality, string(b))
}
func (d *DistanceOfMeasurement) UnmarshalText(b []byte) error {
	return unmarshalCode(d, KindDistanceOfMeasurement, string(b))
}
func (c *Correction) UnmarshalText(b []byte) error {
	return unmarshalCode(c, KindCorrection, string(b))
}
func (v *VAFormat) UnmarshalText(b []byte) error {
	return unmarshalCode(v, KindVAFormat, string(b))
}
func (p *PinHole) UnmarshalText(b []byte) error {
	return unmarshalCode(p, KindPinHole, string(b))
}

func marshalCode(c Category) ([]byte, error) {
	if c.Ordinal() >= len(Members(c.Kind())) {
		return nil, fmt.Errorf("%w: %s(%d)", ErrUnknownCategoryValue, c.Kind(), c.Ordinal())
	}
	return []byte(c.Code()), nil
}

func unmarshalCode[E Category](dst *E, kind Kind, code string) error {
	c, err := Convert(string(kind), code)
	if err != nil {
		return err
	}
	*dst = c.(E)
	return nil
}
