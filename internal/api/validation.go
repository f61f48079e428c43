package api

import (
	"fmt"
)

const (
	maxSeedLength = 256
	maxNonce      = 1<<53 - 1
)

// ValidateCreateSessionRequest checks the optional client seed.
func ValidateCreateSessionRequest(req *CreateSessionRequest) error {
	if req.ClientSeed != "" && !req.ProvablyFair {
		return fmt.Errorf("client_seed requires provably_fair")
	}
	if len(req.ClientSeed) > maxSeedLength {
		return fmt.Errorf("client_seed too long (max %d characters)", maxSeedLength)
	}
	return nil
}

// ValidateVerifyRequest returns the offending field alongside the error.
func ValidateVerifyRequest(req *VerifyRequest) (string, error) {
	if req.ServerSeed == "" {
		return "server_seed", fmt.Errorf("server_seed is required")
	}
	if req.ClientSeed == "" {
		return "client_seed", fmt.Errorf("client_seed is required")
	}
	if len(req.ServerSeed) > maxSeedLength || len(req.ClientSeed) > maxSeedLength {
		return "seeds", fmt.Errorf("seeds too long (max %d characters)", maxSeedLength)
	}
	if req.Nonce == 0 {
		return "nonce", fmt.Errorf("nonce must be >= 1")
	}
	if req.Nonce > maxNonce {
		return "nonce", fmt.Errorf("nonce too large (max %d)", uint64(maxNonce))
	}
	return "", nil
}

// ValidateSeedHashRequest checks the seed to be hashed.
func ValidateSeedHashRequest(req *SeedHashRequest) error {
	if req.ServerSeed == "" {
		return fmt.Errorf("server_seed is required")
	}
	if len(req.ServerSeed) > maxSeedLength {
		return fmt.Errorf("server_seed too long (max %d characters)", maxSeedLength)
	}
	return nil
}
