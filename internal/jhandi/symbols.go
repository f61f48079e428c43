// Package jhandi implements the Jhandi Burja roll engine: the six-symbol
// catalog, uniform die-face selection, and per-roll tallies.
package jhandi

// Key identifies a symbol in the catalog.
type Key string

const (
	Jhandi Key = "JHANDI"
	Munda  Key = "MUNDA"
	Paan   Key = "PAAN"
	Eent   Key = "EENT"
	Chiri  Key = "CHIRI"
	Hukum  Key = "HUKUM"
)

// DiceCount is the number of dice thrown per roll.
const DiceCount = 6

// Symbol is one entry of the catalog. Asset is an opaque reference resolved by the client.
type Symbol struct {
	Key   Key    `json:"key"`
	Glyph string `json:"glyph"`
	Asset string `json:"asset"`
}

var catalog = [...]Symbol{
	{Key: Jhandi, Glyph: "🚩", Asset: "cards/JHANDI.png"},
	{Key: Munda, Glyph: "👑", Asset: "cards/MUNDA.png"},
	{Key: Paan, Glyph: "♥️", Asset: "cards/PAAN.png"},
	{Key: Eent, Glyph: "♦️", Asset: "cards/EENT.png"},
	{Key: Chiri, Glyph: "♣️", Asset: "cards/CHIRI.png"},
	{Key: Hukum, Glyph: "♠️", Asset: "cards/HUKUM.png"},
}

// Catalog returns a copy of the symbols in their fixed order.
func Catalog() []Symbol {
	out := make([]Symbol, len(catalog))
	copy(out, catalog[:])
	return out
}

// Keys returns the catalog keys in order.
func Keys() []Key {
	keys := make([]Key, len(catalog))
	for i, s := range catalog {
		keys[i] = s.Key
	}
	return keys
}

// Lookup finds a symbol by key.
func Lookup(k Key) (Symbol, bool) {
	for _, s := range catalog {
		if s.Key == k {
			return s, true
		}
	}
	return Symbol{}, false
}

// DieFace is the symbol showing on one die.
type DieFace struct {
	Symbol
}

// FaceKeys returns the symbol key of each face in order.
func FaceKeys(faces []DieFace) []Key {
	keys := make([]Key, len(faces))
	for i, f := range faces {
		keys[i] = f.Key
	}
	return keys
}

// CopyFaces returns an independent copy of faces.
func CopyFaces(faces []DieFace) []DieFace {
	if faces == nil {
		return nil
	}
	out := make([]DieFace, len(faces))
	copy(out, faces)
	return out
}
