package history

import (
	"regexp"
	"testing"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

// stepClock advances one second per call from a fixed start.
func stepClock(start time.Time) func() time.Time {
	t := start.Add(-time.Second)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func roll(t *testing.T, e *jhandi.Engine) ([]jhandi.DieFace, jhandi.Tally) {
	t.Helper()
	return e.Roll()
}

func TestRecordRollDisabled(t *testing.T) {
	tests := []struct {
		name    string
		prefill int
	}{
		{"empty log", 0},
		{"partial log", 5},
		{"full log", Capacity + 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(WithClock(stepClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))))
			eng := jhandi.New(engine.NewSeededSource(5, 6))
			for i := 0; i < tt.prefill; i++ {
				faces, tally := eng.Roll()
				l.RecordRoll(faces, tally, true)
			}
			before := l.Entries()

			faces, tally := eng.Roll()
			if _, changed := l.RecordRoll(faces, tally, false); changed {
				t.Error("disabled record reported a change")
			}

			after := l.Entries()
			if len(after) != len(before) {
				t.Fatalf("Len() = %d, want %d", len(after), len(before))
			}
			for i := range before {
				if !sameEntry(after[i], before[i]) {
					t.Errorf("entry %d changed: %+v -> %+v", i, before[i], after[i])
				}
			}
			if tt.prefill > Capacity && (after[0].Seq != uint64(tt.prefill-Capacity+1) || after[Capacity-1].Seq != uint64(tt.prefill)) {
				t.Errorf("kept seq %d..%d", after[0].Seq, after[Capacity-1].Seq)
			}
		})
	}
}

func sameEntry(a, b Entry) bool {
	if a.Seq != b.Seq || a.When != b.When || a.Nonce != b.Nonce || len(a.Faces) != len(b.Faces) {
		return false
	}
	for i := range a.Faces {
		if a.Faces[i].Key != b.Faces[i].Key {
			return false
		}
	}
	for k, v := range a.Tally {
		if b.Tally[k] != v {
			return false
		}
	}
	return len(a.Tally) == len(b.Tally)
}

func TestRecordRollStampsAndCopies(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 5, 7, 0, time.Local)
	l := New(WithClock(stepClock(start)))
	faces, tally := roll(t, jhandi.New(engine.NewSeededSource(1, 1)))

	e, changed := l.RecordRoll(faces, tally, true)
	if !changed {
		t.Fatal("enabled record did not change the log")
	}
	if e.When != "09:05:07" {
		t.Errorf("When = %q, want 09:05:07", e.When)
	}
	if e.Seq != 1 {
		t.Errorf("Seq = %d, want 1", e.Seq)
	}

	faces[0] = jhandi.DieFace{Symbol: jhandi.Symbol{Key: "MUTATED"}}
	tally[jhandi.Jhandi] = 99

	stored := l.Entries()[0]
	if stored.Faces[0].Key == "MUTATED" {
		t.Error("entry shares faces with caller")
	}
	if stored.Tally[jhandi.Jhandi] == 99 {
		t.Error("entry shares tally with caller")
	}
}

func TestTimestampFormat(t *testing.T) {
	l := New()
	faces, tally := roll(t, jhandi.New(nil))
	e, _ := l.RecordRoll(faces, tally, true)

	if !regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d:[0-5]\d$`).MatchString(e.When) {
		t.Errorf("When = %q, not HH:MM:SS", e.When)
	}
}

func TestCapacityEvictsOldest(t *testing.T) {
	l := New(WithClock(stepClock(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))))
	eng := jhandi.New(engine.NewSeededSource(3, 4))

	for i := 0; i < 25; i++ {
		faces, tally := eng.Roll()
		l.RecordRoll(faces, tally, true)
	}

	if l.Len() != Capacity {
		t.Fatalf("Len() = %d, want %d", l.Len(), Capacity)
	}
	entries := l.Entries()
	if entries[0].Seq != 6 || entries[Capacity-1].Seq != 25 {
		t.Errorf("kept seq %d..%d, want 6..25", entries[0].Seq, entries[Capacity-1].Seq)
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq != entries[i-1].Seq+1 {
			t.Errorf("entries out of order at %d", i)
		}
	}
}

func TestRecent(t *testing.T) {
	l := New()
	eng := jhandi.New(engine.NewSeededSource(5, 6))

	if got := l.Recent(3); len(got) != 0 {
		t.Errorf("Recent(3) on empty log = %d entries", len(got))
	}

	for i := 0; i < 5; i++ {
		faces, tally := eng.Roll()
		l.RecordRoll(faces, tally, true)
	}

	tests := []struct {
		n    int
		want []uint64
	}{
		{n: 3, want: []uint64{5, 4, 3}},
		{n: 1, want: []uint64{5}},
		{n: 10, want: []uint64{5, 4, 3, 2, 1}},
		{n: 0, want: []uint64{}},
		{n: -2, want: []uint64{}},
	}
	for _, tt := range tests {
		got := l.Recent(tt.n)
		if len(got) != len(tt.want) {
			t.Errorf("Recent(%d) returned %d entries, want %d", tt.n, len(got), len(tt.want))
			continue
		}
		for i, seq := range tt.want {
			if got[i].Seq != seq {
				t.Errorf("Recent(%d)[%d].Seq = %d, want %d", tt.n, i, got[i].Seq, seq)
			}
		}
	}

	if l.Len() != 5 {
		t.Error("Recent mutated the log")
	}
}

func TestRecordFairRollKeepsNonce(t *testing.T) {
	l := New()
	seeds := engine.Seeds{Server: "s", Client: "c"}
	out, err := jhandi.Verify(seeds, 7)
	if err != nil {
		t.Fatal(err)
	}
	e, _ := l.RecordFairRoll(out.Faces, out.Tally, out.Nonce, true)
	if e.Nonce != 7 {
		t.Errorf("Nonce = %d, want 7", e.Nonce)
	}
}

func TestClear(t *testing.T) {
	l := New()
	faces, tally := roll(t, jhandi.New(nil))
	l.RecordRoll(faces, tally, true)
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("Len() after Clear = %d", l.Len())
	}
	e, _ := l.RecordRoll(faces, tally, true)
	if e.Seq != 2 {
		t.Errorf("Seq after Clear = %d, want 2", e.Seq)
	}
}
