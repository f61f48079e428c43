package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
	"github.com/MJE43/jhandi-burja-go/internal/session"
)

const maxBodyBytes = 1 << 16

func (s *Server) handleListSymbols(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, SymbolsResponse{
		Symbols:       jhandi.Catalog(),
		Sounds:        session.SoundCues(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format")
		return
	}
	if flag := r.URL.Query().Get("history"); flag != "" {
		req.HistoryEnabled = session.ParseHistoryFlag(flag)
	}
	if err := ValidateCreateSessionRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "client_seed", err.Error())
		return
	}

	sess, err := s.manager.Create(session.CreateOptions{
		HistoryEnabled: req.HistoryEnabled,
		ProvablyFair:   req.ProvablyFair,
		ClientSeed:     req.ClientSeed,
	})
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	s.securityLogger.LogAuditEvent(
		middleware.GetReqID(r.Context()),
		"session_create",
		sess.ID(),
		"success",
		map[string]interface{}{
			"history_enabled": req.HistoryEnabled,
			"provably_fair":   req.ProvablyFair,
		},
	)
	s.writeJSON(w, http.StatusCreated, SessionResponse{Session: sess.Snapshot(), EngineVersion: EngineVersion})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess.Snapshot(), EngineVersion: EngineVersion})
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ended, err := s.manager.End(id)
	if err != nil {
		s.errorHandler.HandleSessionError(w, r, id, err)
		return
	}

	s.securityLogger.LogAuditEvent(
		middleware.GetReqID(r.Context()),
		"session_end",
		id,
		"success",
		map[string]interface{}{"provably_fair": ended.ServerSeed != ""},
	)
	s.writeJSON(w, http.StatusOK, EndSessionResponse{
		Ended:         true,
		ID:            ended.ID,
		ServerSeed:    ended.ServerSeed,
		ServerHash:    ended.ServerHash,
		EngineVersion: EngineVersion,
	})
}

// handleRoll accepts a roll and returns before it settles; results arrive on the stream.
func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	start, err := sess.Roll(r.Context())
	if err != nil {
		s.errorHandler.HandleSessionError(w, r, sess.ID(), err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, RollResponse{
		Accepted:   true,
		Sound:      start.Sound,
		DurationMs: start.Duration.Milliseconds(),
		MaxTicks:   start.MaxTicks,
	})
}

// handleGetHistory returns the full log in insertion order, or with ?n= the
// n most recent entries newest first.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	resp := HistoryResponse{Enabled: sess.HistoryEnabled(), EngineVersion: EngineVersion}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.errorHandler.HandleValidationError(w, r, "n", "n must be a non-negative integer")
			return
		}
		resp.Entries = sess.Recent(n)
		resp.Order = "recent_first"
	} else {
		resp.Entries = sess.History()
		resp.Order = "oldest_first"
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSetHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req HistoryToggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format")
		return
	}
	if req.Enabled == nil {
		s.errorHandler.HandleValidationError(w, r, "enabled", "enabled is required")
		return
	}
	sess.SetHistoryEnabled(*req.Enabled)
	s.writeJSON(w, http.StatusOK, SessionResponse{Session: sess.Snapshot(), EngineVersion: EngineVersion})
}

func (s *Server) handlePlaceBet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	var req PlaceBetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format")
		return
	}
	if req.Symbol == "" {
		s.errorHandler.HandleValidationError(w, r, "symbol", "symbol is required")
		return
	}

	stake, err := sess.PlaceBet(req.Symbol, req.Amount)
	if err != nil {
		s.errorHandler.HandleSessionError(w, r, sess.ID(), err)
		return
	}
	s.writeJSON(w, http.StatusOK, BetsResponse{Bets: sess.Bets(), Stake: &stake, EngineVersion: EngineVersion})
}

func (s *Server) handleClearBets(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	sess.ClearBets()
	s.writeJSON(w, http.StatusOK, BetsResponse{Bets: sess.Bets(), EngineVersion: EngineVersion})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format")
		return
	}
	if field, err := ValidateVerifyRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, field, err.Error())
		return
	}

	seeds := engine.Seeds{Server: req.ServerSeed, Client: req.ClientSeed}
	out, err := jhandi.Verify(seeds, req.Nonce)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}

	result := out.Tally.String()
	s.securityLogger.LogVerifyOperation(middleware.GetReqID(r.Context()), seeds, req.Nonce, result)
	s.writeJSON(w, http.StatusOK, VerifyResponse{
		Outcome:       out,
		Result:        result,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}

func (s *Server) handleSeedHash(w http.ResponseWriter, r *http.Request) {
	var req SeedHashRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "body", "invalid JSON format")
		return
	}
	if err := ValidateSeedHashRequest(&req); err != nil {
		s.errorHandler.HandleValidationError(w, r, "server_seed", err.Error())
		return
	}

	hash := engine.HashServerSeed(req.ServerSeed)
	s.securityLogger.LogSeedHashOperation(middleware.GetReqID(r.Context()), req.ServerSeed, hash)
	s.writeJSON(w, http.StatusOK, SeedHashResponse{Hash: hash, EngineVersion: EngineVersion, Echo: req})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, err := s.manager.Get(id)
	if err != nil {
		s.errorHandler.HandleSessionError(w, r, id, err)
		return nil, false
	}
	return sess, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// decodeOptionalJSON is decodeJSON that accepts an empty body.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if err := decodeJSON(w, r, dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
