package jhandi

import (
	"fmt"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// Engine draws die faces from an injected source.
type Engine struct {
	src engine.Source
}

// New returns an engine over src. A nil src uses an auto-seeded PCG source.
func New(src engine.Source) *Engine {
	if src == nil {
		src = engine.NewSource()
	}
	return &Engine{src: src}
}

// PickRandomSymbol returns one catalog symbol with probability 1/6 each.
func (e *Engine) PickRandomSymbol() Symbol {
	return catalog[e.src.IntN(len(catalog))]
}

// RollDice returns six independent faces. Repeats are allowed.
func (e *Engine) RollDice() []DieFace {
	faces := make([]DieFace, DiceCount)
	for i := range faces {
		faces[i] = DieFace{Symbol: e.PickRandomSymbol()}
	}
	return faces
}

// Roll draws six faces and tallies them.
func (e *Engine) Roll() ([]DieFace, Tally) {
	faces := e.RollDice()
	t, err := TallyFaces(faces)
	if err != nil {
		// RollDice always yields DiceCount catalog faces.
		panic(fmt.Sprintf("jhandi: tally of fresh roll: %v", err))
	}
	return faces, t
}

var defaultEngine = New(nil)

// PickRandomSymbol draws from the package default engine.
func PickRandomSymbol() Symbol { return defaultEngine.PickRandomSymbol() }

// RollDice draws from the package default engine.
func RollDice() []DieFace { return defaultEngine.RollDice() }
