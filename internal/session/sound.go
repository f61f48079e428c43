package session

import "github.com/MJE43/jhandi-burja-go/internal/engine"

// SoundCue names the dice sound a client should play when a roll starts.
type SoundCue string

const (
	SoundDice1 SoundCue = "dice1"
	SoundDice2 SoundCue = "dice2"
	SoundDice3 SoundCue = "dice3"
)

var soundPool = [...]SoundCue{SoundDice1, SoundDice2, SoundDice3}

// SoundCues returns the cue pool.
func SoundCues() []SoundCue {
	out := make([]SoundCue, len(soundPool))
	copy(out, soundPool[:])
	return out
}

// PickSound chooses a cue uniformly.
func PickSound(src engine.Source) SoundCue {
	return soundPool[src.IntN(len(soundPool))]
}
