package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
	"sync"
)

// Source yields uniform integers in [0, n). Implementations used across
// goroutines must be safe for concurrent use.
type Source interface {
	IntN(n int) int
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// NewSource returns a goroutine-safe PCG source seeded from crypto/rand.
func NewSource() Source {
	var b [16]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand does not fail on supported platforms; fall back to the runtime seed.
		return &lockedSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
	}
	return NewSeededSource(binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]))
}

// NewSeededSource returns a reproducible goroutine-safe source.
func NewSeededSource(seed1, seed2 uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed1, seed2))}
}

// FairSource draws from the provably-fair stream of one nonce, mapping each
// float f to floor(f*n). It is not safe for concurrent use.
type FairSource struct {
	stream *ByteStream
}

// NewFairSource starts at cursor 0 of the nonce's stream.
func NewFairSource(seeds Seeds, nonce uint64) *FairSource {
	return &FairSource{stream: NewByteStream(seeds, nonce, 0)}
}

func (s *FairSource) IntN(n int) int {
	if n <= 0 {
		panic("engine: IntN called with non-positive n")
	}
	v := int(s.stream.NextFloat() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}
