package jhandi

import (
	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// Outcome is a reproducible provably-fair roll.
type Outcome struct {
	Nonce      uint64    `json:"nonce"`
	ServerHash string    `json:"server_hash"`
	Faces      []DieFace `json:"faces"`
	Tally      Tally     `json:"tally"`
}

// Verify recomputes the roll for seeds and nonce. Die i is floor(f*6) of the
// i-th float in the nonce's stream.
func Verify(seeds engine.Seeds, nonce uint64) (Outcome, error) {
	faces := New(engine.NewFairSource(seeds, nonce)).RollDice()
	t, err := TallyFaces(faces)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{
		Nonce:      nonce,
		ServerHash: engine.HashServerSeed(seeds.Server),
		Faces:      faces,
		Tally:      t,
	}, nil
}
