package session

import (
	"testing"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

func TestMaxTicks(t *testing.T) {
	timing := DefaultTiming()
	tests := []struct {
		d    time.Duration
		want int
	}{
		{800 * time.Millisecond, 18},
		{900 * time.Millisecond, 20},
		{1100 * time.Millisecond, 25},
		{time.Millisecond, 1},
	}
	for _, tt := range tests {
		if got := timing.MaxTicks(tt.d); got != tt.want {
			t.Errorf("MaxTicks(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestDurationRange(t *testing.T) {
	timing := DefaultTiming()
	src := engine.NewSeededSource(9, 9)
	seenMin, seenMax := false, false
	for i := 0; i < 5000; i++ {
		d := timing.Duration(src)
		if d < timing.RollMin || d > timing.RollMax {
			t.Fatalf("Duration() = %v outside [%v, %v]", d, timing.RollMin, timing.RollMax)
		}
		if d%time.Millisecond != 0 {
			t.Fatalf("Duration() = %v not whole milliseconds", d)
		}
		seenMin = seenMin || d == timing.RollMin
		seenMax = seenMax || d == timing.RollMax
	}
	if !seenMin || !seenMax {
		t.Errorf("range ends not reached: min=%t max=%t", seenMin, seenMax)
	}
}

func TestDurationFixed(t *testing.T) {
	timing := Timing{Tick: time.Millisecond, RollMin: 7 * time.Millisecond, RollMax: 7 * time.Millisecond}
	if d := timing.Duration(engine.NewSource()); d != 7*time.Millisecond {
		t.Errorf("Duration() = %v, want 7ms", d)
	}
}

func TestPickSound(t *testing.T) {
	src := engine.NewSeededSource(3, 3)
	seen := map[SoundCue]int{}
	for i := 0; i < 3000; i++ {
		seen[PickSound(src)]++
	}
	for _, cue := range SoundCues() {
		if seen[cue] < 800 {
			t.Errorf("cue %s picked %d times out of 3000", cue, seen[cue])
		}
	}
	if len(seen) != 3 {
		t.Errorf("picked %d distinct cues, want 3", len(seen))
	}
}
