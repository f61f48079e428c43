package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/jhandi-burja-go/internal/history"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
	"github.com/MJE43/jhandi-burja-go/internal/session"
	"github.com/MJE43/jhandi-burja-go/internal/store"
)

// EngineError is the structured error envelope of every failed request.
type EngineError struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
	Timestamp string                 `json:"timestamp,omitempty"`
}

func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input validation errors
	ErrTypeValidation    = "validation_error"
	ErrTypeInvalidSeed   = "invalid_seed"
	ErrTypeUnknownSymbol = "unknown_symbol"
	ErrTypeInvalidBet    = "invalid_bet"

	// Session errors
	ErrTypeSessionNotFound = "session_not_found"
	ErrTypeSessionClosed   = "session_closed"
	ErrTypeRollInProgress  = "roll_in_progress"
	ErrTypeRevealNotFound  = "reveal_not_found"

	// System errors
	ErrTypeTimeout  = "timeout"
	ErrTypeInternal = "internal_error"
)

// ErrorCategory groups error types for monitoring.
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategorySession    ErrorCategory = "session"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type.
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidSeed, ErrTypeUnknownSymbol, ErrTypeInvalidBet:
		return CategoryValidation
	case ErrTypeSessionNotFound, ErrTypeSessionClosed, ErrTypeRollInProgress, ErrTypeRevealNotFound:
		return CategorySession
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo is served from /api/v1/version.
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// SymbolsResponse lists the catalog and the sound cue pool.
type SymbolsResponse struct {
	Symbols       []jhandi.Symbol    `json:"symbols"`
	Sounds        []session.SoundCue `json:"sounds"`
	EngineVersion string             `json:"engine_version"`
}

// CreateSessionRequest opens a game screen. HistoryEnabled may also arrive as ?history=true.
type CreateSessionRequest struct {
	HistoryEnabled bool   `json:"history_enabled"`
	ProvablyFair   bool   `json:"provably_fair"`
	ClientSeed     string `json:"client_seed,omitempty"`
}

type SessionResponse struct {
	Session       session.Snapshot `json:"session"`
	EngineVersion string           `json:"engine_version"`
}

type EndSessionResponse struct {
	Ended         bool   `json:"ended"`
	ID            string `json:"id"`
	ServerSeed    string `json:"server_seed,omitempty"`
	ServerHash    string `json:"server_hash,omitempty"`
	EngineVersion string `json:"engine_version"`
}

type RollResponse struct {
	Accepted   bool             `json:"accepted"`
	Sound      session.SoundCue `json:"sound"`
	DurationMs int64            `json:"duration_ms"`
	MaxTicks   int              `json:"max_ticks"`
}

type HistoryToggleRequest struct {
	Enabled *bool `json:"enabled"`
}

type HistoryResponse struct {
	Enabled       bool            `json:"enabled"`
	Entries       []history.Entry `json:"entries"`
	Order         string          `json:"order"`
	EngineVersion string          `json:"engine_version"`
}

type PlaceBetRequest struct {
	Symbol jhandi.Key      `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
}

type BetsResponse struct {
	Bets          map[jhandi.Key]decimal.Decimal `json:"bets"`
	Stake         *decimal.Decimal               `json:"stake,omitempty"`
	EngineVersion string                         `json:"engine_version"`
}

// VerifyRequest recomputes one provably-fair roll.
type VerifyRequest struct {
	ServerSeed string `json:"server_seed"`
	ClientSeed string `json:"client_seed"`
	Nonce      uint64 `json:"nonce"`
}

type VerifyResponse struct {
	Outcome       jhandi.Outcome `json:"outcome"`
	Result        string         `json:"result"`
	EngineVersion string         `json:"engine_version"`
	Echo          VerifyRequest  `json:"echo"`
}

type SeedHashRequest struct {
	ServerSeed string `json:"server_seed"`
}

type SeedHashResponse struct {
	Hash          string          `json:"hash"`
	EngineVersion string          `json:"engine_version"`
	Echo          SeedHashRequest `json:"echo"`
}

// RevealsResponse lists ended fair sessions, newest first.
type RevealsResponse struct {
	Reveals       []store.Reveal `json:"reveals"`
	Count         int            `json:"count"`
	EngineVersion string         `json:"engine_version"`
}
