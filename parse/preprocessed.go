package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"vastats/taxonomy"
	"vastats/visit"
)

// Preprocessed parses rows whose cells already hold JSON-encoded notes, as
// written by an earlier parsing pass. A blank cell is an absent entry. Keys
// missing from a cell's object are attributes the parser did not expose.
// Categorical values may be bare codes ("OS") or full symbols
// ("Laterality.OS").
type Preprocessed struct{}

func (Preprocessed) Parse(inputs []Input) ([]Field, error) {
	fields := make([]Field, len(inputs))
	for i, in := range inputs {
		fields[i].Key = in.Key
		if strings.TrimSpace(in.Text) == "" {
			continue
		}
		note, err := decodeNote(in.Text)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", in.Key, err)
		}
		fields[i].Note = note
	}
	return fields, nil
}

func decodeNote(cell string) (*RawNote, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cell), &obj); err != nil {
		return nil, fmt.Errorf("decode note: %w", err)
	}

	raw := &RawNote{}
	if err := decodeKey(obj, "text", &raw.Text); err != nil {
		return nil, err
	}
	if err := decodeKey(obj, "text_plus", &raw.TextPlus); err != nil {
		return nil, err
	}
	if err := decodeKey(obj, "plus_letters", &raw.PlusLetters); err != nil {
		return nil, err
	}

	var err error
	if raw.ExtractedValue, err = optionalString(obj, "extracted_value"); err != nil {
		return nil, err
	}
	for _, c := range []struct {
		key  string
		kind taxonomy.Kind
		dst  **string
	}{
		{"data_quality", taxonomy.KindDataQuality, &raw.DataQuality},
		{"laterality", taxonomy.KindLaterality, &raw.Laterality},
		{"distance_of_measurement", taxonomy.KindDistanceOfMeasurement, &raw.DistanceOfMeasurement},
		{"correction", taxonomy.KindCorrection, &raw.Correction},
		{"pinhole", taxonomy.KindPinHole, &raw.PinHole},
		{"va_format", taxonomy.KindVAFormat, &raw.VAFormat},
	} {
		s, err := optionalString(obj, c.key)
		if err != nil {
			return nil, err
		}
		if s != nil && !strings.Contains(*s, ".") {
			*s = string(c.kind) + "." + *s
		}
		*c.dst = s
	}

	if raw.SnellenEquivalent, err = optionalValue[visit.SnellenFraction](obj, "snellen_equivalent"); err != nil {
		return nil, err
	}
	if raw.LogMarBase, err = optionalValue[float64](obj, "log_mar_base"); err != nil {
		return nil, err
	}
	if raw.LogMarBasePlusLetters, err = optionalValue[float64](obj, "log_mar_base_plus_letters"); err != nil {
		return nil, err
	}
	return raw, nil
}

func decodeKey(obj map[string]json.RawMessage, key string, dst any) error {
	msg, ok := obj[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func optionalString(obj map[string]json.RawMessage, key string) (*string, error) {
	if _, ok := obj[key]; !ok {
		return nil, nil
	}
	var s string
	if err := decodeKey(obj, key, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func optionalValue[T comparable](obj map[string]json.RawMessage, key string) (*visit.Value[T], error) {
	if _, ok := obj[key]; !ok {
		return nil, nil
	}
	var v visit.Value[T]
	if err := decodeKey(obj, key, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
