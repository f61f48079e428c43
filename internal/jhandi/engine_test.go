package jhandi

import (
	"errors"
	"math"
	"testing"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// seqSource replays values in order, wrapping around.
type seqSource struct {
	values []int
	i      int
}

func (s *seqSource) IntN(n int) int {
	v := s.values[s.i%len(s.values)] % n
	s.i++
	return v
}

func TestCatalog(t *testing.T) {
	want := []struct {
		key   Key
		glyph string
	}{
		{Jhandi, "🚩"}, {Munda, "👑"}, {Paan, "♥️"}, {Eent, "♦️"}, {Chiri, "♣️"}, {Hukum, "♠️"},
	}

	got := Catalog()
	if len(got) != len(want) {
		t.Fatalf("catalog has %d symbols, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Key != w.key || got[i].Glyph != w.glyph {
			t.Errorf("symbol %d = %s %s, want %s %s", i, got[i].Key, got[i].Glyph, w.key, w.glyph)
		}
		if got[i].Asset == "" {
			t.Errorf("symbol %s has no asset", got[i].Key)
		}
	}

	got[0].Glyph = "x"
	if Catalog()[0].Glyph != "🚩" {
		t.Error("mutating a returned catalog changed the package catalog")
	}
}

func TestLookup(t *testing.T) {
	if s, ok := Lookup(Paan); !ok || s.Glyph != "♥️" {
		t.Errorf("Lookup(PAAN) = %+v, %v", s, ok)
	}
	if _, ok := Lookup("SPADE"); ok {
		t.Error("Lookup of unknown key succeeded")
	}
}

func TestPickRandomSymbolUsesSource(t *testing.T) {
	e := New(&seqSource{values: []int{0, 1, 2, 3, 4, 5}})
	for i, k := range Keys() {
		if got := e.PickRandomSymbol().Key; got != k {
			t.Errorf("pick %d = %s, want %s", i, got, k)
		}
	}
}

func TestRollDice(t *testing.T) {
	e := New(&seqSource{values: []int{1, 1, 1, 5, 0, 3}})
	faces := e.RollDice()
	if len(faces) != DiceCount {
		t.Fatalf("RollDice() returned %d faces", len(faces))
	}
	want := []Key{Munda, Munda, Munda, Hukum, Jhandi, Eent}
	for i, k := range FaceKeys(faces) {
		if k != want[i] {
			t.Errorf("face %d = %s, want %s", i, k, want[i])
		}
	}
}

func TestRollDiceAllSame(t *testing.T) {
	e := New(&seqSource{values: []int{4}})
	faces, tally := e.Roll()
	for i, f := range faces {
		if f.Key != Chiri {
			t.Errorf("face %d = %s, want CHIRI", i, f.Key)
		}
	}
	if tally[Chiri] != 6 {
		t.Errorf("CHIRI count = %d, want 6", tally[Chiri])
	}
	for _, k := range Keys() {
		if k != Chiri && tally[k] != 0 {
			t.Errorf("%s count = %d, want 0", k, tally[k])
		}
	}
}

func TestPickRandomSymbolDistribution(t *testing.T) {
	const draws = 60000
	e := New(engine.NewSeededSource(7, 11))
	counts := map[Key]int{}
	for i := 0; i < draws; i++ {
		counts[e.PickRandomSymbol().Key]++
	}
	expected := float64(draws) / 6
	for _, k := range Keys() {
		dev := math.Abs(float64(counts[k])-expected) / expected
		if dev > 0.05 {
			t.Errorf("%s drawn %d times, %.1f%% from uniform", k, counts[k], dev*100)
		}
	}
}

func TestRollDiceDistribution(t *testing.T) {
	const rolls = 10000
	e := New(engine.NewSeededSource(13, 17))
	counts := map[Key]int{}
	for i := 0; i < rolls; i++ {
		for _, f := range e.RollDice() {
			counts[f.Key]++
		}
	}
	expected := float64(rolls*DiceCount) / 6
	for _, k := range Keys() {
		dev := math.Abs(float64(counts[k])-expected) / expected
		if dev > 0.05 {
			t.Errorf("%s shown %d times in %d faces, %.1f%% from uniform", k, counts[k], rolls*DiceCount, dev*100)
		}
	}
}

func TestTallyFaces(t *testing.T) {
	tests := []struct {
		name string
		keys []Key
		want Tally
	}{
		{
			name: "two jhandi three paan",
			keys: []Key{Jhandi, Jhandi, Munda, Paan, Paan, Paan},
			want: Tally{Jhandi: 2, Munda: 1, Paan: 3, Eent: 0, Chiri: 0, Hukum: 0},
		},
		{
			name: "three munda",
			keys: []Key{Munda, Munda, Munda, Hukum, Jhandi, Eent},
			want: Tally{Jhandi: 1, Munda: 3, Paan: 0, Eent: 1, Chiri: 0, Hukum: 1},
		},
		{
			name: "all chiri",
			keys: []Key{Chiri, Chiri, Chiri, Chiri, Chiri, Chiri},
			want: Tally{Jhandi: 0, Munda: 0, Paan: 0, Eent: 0, Chiri: 6, Hukum: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			faces := make([]DieFace, 0, DiceCount)
			for _, k := range tt.keys {
				s, _ := Lookup(k)
				faces = append(faces, DieFace{Symbol: s})
			}

			tally, err := TallyFaces(faces)
			if err != nil {
				t.Fatalf("TallyFaces() error: %v", err)
			}
			if len(tally) != len(tt.want) {
				t.Fatalf("tally has %d keys, want %d", len(tally), len(tt.want))
			}
			for k, v := range tt.want {
				if tally[k] != v {
					t.Errorf("%s = %d, want %d", k, tally[k], v)
				}
			}
			if tally.Total() != DiceCount {
				t.Errorf("Total() = %d, want %d", tally.Total(), DiceCount)
			}
		})
	}
}

func TestTallyFacesRejectsWrongLength(t *testing.T) {
	s, _ := Lookup(Jhandi)
	for _, n := range []int{0, 1, 5, 7, 12} {
		faces := make([]DieFace, n)
		for i := range faces {
			faces[i] = DieFace{Symbol: s}
		}
		if _, err := TallyFaces(faces); !errors.Is(err, ErrFaceCount) {
			t.Errorf("TallyFaces(%d faces) error = %v, want ErrFaceCount", n, err)
		}
	}
}

func TestTallyFacesRejectsUnknownSymbol(t *testing.T) {
	faces := RollDice()
	faces[2] = DieFace{Symbol: Symbol{Key: "JOKER"}}
	if _, err := TallyFaces(faces); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("error = %v, want ErrUnknownSymbol", err)
	}
}

func TestTallyString(t *testing.T) {
	tally := Tally{Jhandi: 2, Munda: 0, Paan: 1, Eent: 0, Chiri: 3, Hukum: 0}
	want := "🚩 × 2  👑 × 0  ♥️ × 1  ♦️ × 0  ♣️ × 3  ♠️ × 0"
	if got := tally.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestTallyCopyIsIndependent(t *testing.T) {
	orig := Tally{Jhandi: 6}
	cp := orig.Copy()
	cp[Jhandi] = 0
	if orig[Jhandi] != 6 {
		t.Error("mutating copy changed original")
	}
}
