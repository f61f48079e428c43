package session

import (
	"fmt"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// Timing controls the cosmetic spin that precedes a settled roll.
type Timing struct {
	Tick    time.Duration
	RollMin time.Duration
	RollMax time.Duration
}

// DefaultTiming matches the mobile game: a 45ms tick over 800-1100ms.
func DefaultTiming() Timing {
	return Timing{
		Tick:    45 * time.Millisecond,
		RollMin: 800 * time.Millisecond,
		RollMax: 1100 * time.Millisecond,
	}
}

// Validate rejects a non-positive tick or an inverted duration range.
func (t Timing) Validate() error {
	if t.Tick <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", t.Tick)
	}
	if t.RollMin <= 0 || t.RollMax < t.RollMin {
		return fmt.Errorf("roll duration range invalid: %v..%v", t.RollMin, t.RollMax)
	}
	return nil
}

// Duration draws a roll duration uniformly in [RollMin, RollMax] at millisecond resolution.
func (t Timing) Duration(src engine.Source) time.Duration {
	minMs := t.RollMin.Milliseconds()
	span := t.RollMax.Milliseconds() - minMs
	if span <= 0 {
		return t.RollMin
	}
	return time.Duration(minMs+int64(src.IntN(int(span)+1))) * time.Millisecond
}

// MaxTicks is ceil(d / tick), never less than one.
func (t Timing) MaxTicks(d time.Duration) int {
	n := int((d + t.Tick - 1) / t.Tick)
	if n < 1 {
		n = 1
	}
	return n
}
