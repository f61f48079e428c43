package jhandi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFaceCount is returned when a tally is requested for anything but DiceCount faces.
	ErrFaceCount = errors.New("jhandi: roll must have exactly 6 faces")
	// ErrUnknownSymbol is returned for a key outside the catalog.
	ErrUnknownSymbol = errors.New("jhandi: unknown symbol")
)

// Tally maps every catalog key to the number of faces showing it.
// A valid tally has an entry for all six keys and its counts sum to DiceCount.
type Tally map[Key]int

// NewTally returns a tally with every catalog key at zero.
func NewTally() Tally {
	t := make(Tally, len(catalog))
	for _, s := range catalog {
		t[s.Key] = 0
	}
	return t
}

// TallyFaces counts the faces of one roll.
func TallyFaces(faces []DieFace) (Tally, error) {
	if len(faces) != DiceCount {
		return nil, fmt.Errorf("%w: got %d", ErrFaceCount, len(faces))
	}
	t := NewTally()
	for i, f := range faces {
		if _, ok := t[f.Key]; !ok {
			return nil, fmt.Errorf("%w: face %d has key %q", ErrUnknownSymbol, i, f.Key)
		}
		t[f.Key]++
	}
	return t, nil
}

// Total sums all counts.
func (t Tally) Total() int {
	n := 0
	for _, c := range t {
		n += c
	}
	return n
}

// Copy returns an independent copy.
func (t Tally) Copy() Tally {
	if t == nil {
		return nil
	}
	out := make(Tally, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// String renders the result row in catalog order, e.g. "🚩 × 2  👑 × 0 ...".
func (t Tally) String() string {
	parts := make([]string, 0, len(catalog))
	for _, s := range catalog {
		parts = append(parts, fmt.Sprintf("%s × %d", s.Glyph, t[s.Key]))
	}
	return strings.Join(parts, "  ")
}
