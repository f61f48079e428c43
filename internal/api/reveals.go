package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jhandi-burja-go/internal/store"
)

const (
	defaultRevealLimit = 20
	maxRevealLimit     = 200
)

func (s *Server) handleListReveals(w http.ResponseWriter, r *http.Request) {
	limit := defaultRevealLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRevealLimit {
			s.errorHandler.HandleValidationError(w, r, "limit", "limit must be between 1 and 200")
			return
		}
		limit = n
	}

	reveals := []store.Reveal{}
	if s.reveals != nil {
		var err error
		if reveals, err = s.reveals.ListReveals(r.Context(), limit); err != nil {
			s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
			return
		}
	}
	s.writeJSON(w, http.StatusOK, RevealsResponse{
		Reveals:       reveals,
		Count:         len(reveals),
		EngineVersion: EngineVersion,
	})
}

// handleGetReveal looks up the seeds behind a server hash once its session has ended.
func (s *Server) handleGetReveal(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if len(hash) != 64 {
		s.errorHandler.HandleValidationError(w, r, "hash", "hash must be a 64 character sha256 hex digest")
		return
	}

	if s.reveals == nil {
		s.errorHandler.HandleLookupError(w, r, "server_hash", hash, store.ErrNotFound)
		return
	}
	rev, err := s.reveals.GetReveal(r.Context(), hash)
	if err != nil {
		s.errorHandler.HandleLookupError(w, r, "server_hash", hash, err)
		return
	}
	s.securityLogger.LogAuditEvent(middleware.GetReqID(r.Context()), "reveal_lookup", "reveal", "found",
		map[string]interface{}{"server_hash": hash[:16], "nonce": rev.Nonce})
	s.writeJSON(w, http.StatusOK, rev)
}
