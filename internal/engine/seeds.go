package engine

import (
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Seeds is a provably-fair seed pair. Server is used as raw ASCII, never hex-decoded.
type Seeds struct {
	Server string `json:"server"`
	Client string `json:"client"`
}

// HashServerSeed returns the sha256 hex digest published before the seed is revealed.
func HashServerSeed(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// NewServerSeed returns 32 random bytes from crypto/rand as hex.
func NewServerSeed() (string, error) {
	var b [32]byte
	if _, err := crand.Read(b[:]); err != nil {
		return "", fmt.Errorf("read server seed: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
