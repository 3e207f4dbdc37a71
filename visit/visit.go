package visit

import (
	"bytes"
	"encoding/json"
	"iter"
	"math"
)

// Entry is one field of a Visit: either a present note or an explicit
// absence. An absent entry is not the same as a note whose DataQuality is
// NoValue.
type Entry struct {
	key     string
	note    VisitNote
	present bool
}

func Present(key string, note VisitNote) Entry {
	return Entry{key: key, note: note, present: true}
}

func Absent(key string) Entry {
	return Entry{key: key}
}

func (e Entry) Key() string { return e.key }

func (e Entry) IsPresent() bool { return e.present }

// Note returns the entry's note and whether it is present.
func (e Entry) Note() (VisitNote, bool) {
	if !e.present {
		return VisitNote{}, false
	}
	return e.note.Clone(), true
}

// Visit is an immutable, ordered mapping from field name to Entry for one
// encounter. Keys keep the order they were supplied in.
type Visit struct {
	entries []Entry
	index   map[string]int
}

// New builds a Visit. A repeated key replaces the earlier entry but keeps its
// position.
func New(entries ...Entry) Visit {
	v := Visit{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if e.present {
			e.note = e.note.Clone()
		}
		if i, ok := v.index[e.key]; ok {
			v.entries[i] = e
			continue
		}
		v.index[e.key] = len(v.entries)
		v.entries = append(v.entries, e)
	}
	return v
}

func (v Visit) Len() int { return len(v.entries) }

// Get returns the entry for key. ok is false when the key is not part of the
// visit at all.
func (v Visit) Get(key string) (Entry, bool) {
	i, ok := v.index[key]
	if !ok {
		return Entry{}, false
	}
	return v.entries[i], true
}

func (v Visit) Keys() []string {
	keys := make([]string, len(v.entries))
	for i, e := range v.entries {
		keys[i] = e.key
	}
	return keys
}

func (v Visit) Entries() []Entry {
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Present yields the present notes in key order.
func (v Visit) Present() iter.Seq2[string, VisitNote] {
	return func(yield func(string, VisitNote) bool) {
		for _, e := range v.entries {
			if !e.present {
				continue
			}
			if !yield(e.key, e.note.Clone()) {
				return
			}
		}
	}
}

// Min returns the note with the lowest LogMarBasePlusLetters. Absent,
// failed and NaN values take no part in the ordering. ok is false when no
// note has a usable value.
func (v Visit) Min() (key string, note VisitNote, ok bool) {
	return v.extreme(func(a, b float64) bool { return a < b })
}

// Max is the counterpart of Min.
func (v Visit) Max() (key string, note VisitNote, ok bool) {
	return v.extreme(func(a, b float64) bool { return a > b })
}

func (v Visit) extreme(better func(a, b float64) bool) (string, VisitNote, bool) {
	best := -1
	var bestVal float64
	for i, e := range v.entries {
		if !e.present {
			continue
		}
		val, ok := e.note.LogMarBasePlusLetters.Get()
		if !ok || math.IsNaN(val) {
			continue
		}
		if best < 0 || better(val, bestVal) {
			best, bestVal = i, val
		}
	}
	if best < 0 {
		return "", VisitNote{}, false
	}
	e := v.entries[best]
	return e.key, e.note.Clone(), true
}

// MarshalJSON writes the visit as an object in key order; absent entries are
// null.
func (v Visit) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range v.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		if !e.present {
			buf.WriteString("null")
			continue
		}
		n, err := json.Marshal(e.note)
		if err != nil {
			return nil, err
		}
		buf.Write(n)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
