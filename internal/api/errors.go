package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
	"github.com/MJE43/jhandi-burja-go/internal/session"
	"github.com/MJE43/jhandi-burja-go/internal/store"
)

// envelope starts an EngineError tagged with the request's ID, method and path.
// Extra context is given as alternating key, value pairs.
func envelope(r *http.Request, errType, message string, kv ...interface{}) EngineError {
	ctx := map[string]interface{}{
		"method": r.Method,
		"path":   r.URL.Path,
	}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			ctx[key] = kv[i+1]
		}
	}
	return EngineError{
		Type:      errType,
		Message:   message,
		Context:   ctx,
		RequestID: middleware.GetReqID(r.Context()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// sessionFault maps a sentinel returned by the session layer to its response.
type sessionFault struct {
	target  error
	status  int
	errType string
	message string
}

var sessionFaults = []sessionFault{
	{session.ErrSessionNotFound, http.StatusNotFound, ErrTypeSessionNotFound, "Session not found"},
	{session.ErrRollInProgress, http.StatusConflict, ErrTypeRollInProgress, "A roll is already in progress"},
	{session.ErrSessionClosed, http.StatusGone, ErrTypeSessionClosed, "Session has ended"},
	{session.ErrInvalidBet, http.StatusBadRequest, ErrTypeInvalidBet, "Bet amount must be positive"},
	{jhandi.ErrUnknownSymbol, http.StatusBadRequest, ErrTypeUnknownSymbol, "Unknown symbol"},
	{store.ErrNotFound, http.StatusNotFound, ErrTypeRevealNotFound, "No reveal for that server hash"},
}

func classifySessionError(err error) (int, string, string) {
	for _, f := range sessionFaults {
		if errors.Is(err, f.target) {
			return f.status, f.errType, f.message
		}
	}
	return http.StatusInternalServerError, ErrTypeInternal, "Internal server error"
}

// ErrorHandler writes EngineError envelopes and logs them.
type ErrorHandler struct {
	logger   *log.Logger
	security *SecurityLogger
}

// NewErrorHandler logs failures to logger and validation rejections to securityLogger.
func NewErrorHandler(logger *log.Logger, securityLogger *SecurityLogger) *ErrorHandler {
	return &ErrorHandler{logger: logger, security: securityLogger}
}

// HandleError writes err with status. Errors that are not EngineErrors become internal_error.
func (eh *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error, status int) {
	var ee EngineError
	if !errors.As(err, &ee) {
		ee = envelope(r, ErrTypeInternal, err.Error())
	}
	eh.respond(w, r, status, ee)
}

// HandleValidationError rejects a request field with 400. Seed fields report invalid_seed.
func (eh *ErrorHandler) HandleValidationError(w http.ResponseWriter, r *http.Request, field, message string) {
	errType := ErrTypeValidation
	switch field {
	case "server_seed", "client_seed", "seeds":
		errType = ErrTypeInvalidSeed
	}
	ee := envelope(r, errType, "Validation failed: "+message, "field", field)
	eh.security.LogSecurityEvent(ee.RequestID, "validation_failure", message,
		map[string]interface{}{"field": field, "path": r.URL.Path}, r.RemoteAddr)
	eh.respond(w, r, http.StatusBadRequest, ee)
}

// HandleSessionError maps session and engine sentinels to their HTTP status.
func (eh *ErrorHandler) HandleSessionError(w http.ResponseWriter, r *http.Request, sessionID string, err error) {
	eh.HandleLookupError(w, r, "session", sessionID, err)
}

// HandleLookupError is HandleSessionError for resources keyed by something other than a session id.
func (eh *ErrorHandler) HandleLookupError(w http.ResponseWriter, r *http.Request, key, value string, err error) {
	status, errType, message := classifySessionError(err)
	eh.respond(w, r, status, envelope(r, errType, message, key, value, "cause", err.Error()))
}

func (eh *ErrorHandler) respond(w http.ResponseWriter, r *http.Request, status int, ee EngineError) {
	level := "WARN"
	if status >= http.StatusInternalServerError {
		level = "ERROR"
	}
	eh.logger.Printf("request_failed level=%s status=%d type=%s category=%s request_id=%s %s %s message=%q%s",
		level, status, ee.Type, GetErrorCategory(ee.Type), ee.RequestID, r.Method, r.URL.Path, ee.Message, loggable(ee.Context))

	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Engine-Version", EngineVersion)
	h.Set("X-Error-Type", ee.Type)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ee); err != nil {
		eh.logger.Printf("encode_error_failed type=%s error=%q", ee.Type, err)
	}
}

// loggable renders context as key=value pairs, leaving out seeds and routing keys already on the line.
func loggable(ctx map[string]interface{}) string {
	var out string
	for k, v := range ctx {
		switch k {
		case "server_seed", "client_seed", "method", "path":
			continue
		}
		out += fmt.Sprintf(" %s=%v", k, v)
	}
	return out
}

// RecoveryHandler turns a handler panic into a 500 envelope.
func (eh *ErrorHandler) RecoveryHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			p := recover()
			if p == nil {
				return
			}
			if p == http.ErrAbortHandler {
				panic(p)
			}
			eh.logger.Printf("panic_recovered request_id=%s %s %s panic=%v",
				middleware.GetReqID(r.Context()), r.Method, r.URL.Path, p)
			eh.respond(w, r, http.StatusInternalServerError,
				envelope(r, ErrTypeInternal, "Internal server error", "panic", fmt.Sprint(p)))
		}()
		next.ServeHTTP(w, r)
	})
}
