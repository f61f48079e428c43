package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
	"github.com/MJE43/jhandi-burja-go/internal/session"
	"github.com/MJE43/jhandi-burja-go/internal/store"
)

// RevealReader serves the seeds of ended fair sessions.
type RevealReader interface {
	GetReveal(ctx context.Context, serverHash string) (store.Reveal, error)
	ListReveals(ctx context.Context, limit int) ([]store.Reveal, error)
}

// Config tunes the HTTP surface. Zero values fall back to defaults.
type Config struct {
	CORSOrigins    []string
	RequestTimeout time.Duration
	// Logger receives request and error lines. Defaults to stdout with an "[API] " prefix.
	Logger *log.Logger
	// SecurityLogger receives audit lines. Defaults to stdout with a "[SECURITY] " prefix.
	SecurityLogger *log.Logger
	// Reveals backs the /reveals routes. Nil answers them with 404.
	Reveals RevealReader
}

// Server exposes a session.Manager over HTTP and WebSocket.
type Server struct {
	manager        *session.Manager
	reveals        RevealReader
	errorHandler   *ErrorHandler
	logger         *log.Logger
	securityLogger *SecurityLogger
	upgrader       websocket.Upgrader
	corsOrigins    []string
	timeout        time.Duration
	startTime      time.Time
}

// NewServer wires manager behind the HTTP routes. A nil manager is allowed for health-only use.
func NewServer(manager *session.Manager, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.New(os.Stdout, "[API] ", log.LstdFlags|log.Lshortfile)
	}
	if cfg.SecurityLogger == nil {
		cfg.SecurityLogger = log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.LUTC)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	securityLogger := NewSecurityLogger(cfg.SecurityLogger)
	s := &Server{
		manager:        manager,
		reveals:        cfg.Reveals,
		errorHandler:   NewErrorHandler(cfg.Logger, securityLogger),
		logger:         cfg.Logger,
		securityLogger: securityLogger,
		corsOrigins:    cfg.CORSOrigins,
		timeout:        cfg.RequestTimeout,
		startTime:      time.Now(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}

	active := 0
	if manager != nil {
		active = manager.Len()
	}
	securityLogger.LogSystemStartup(map[string]interface{}{
		"symbols":         len(jhandi.Catalog()),
		"sessions_active": active,
		"cors_origins":    cfg.CORSOrigins,
	})
	return s
}

// Routes builds the router. The stream route sits outside the request timeout.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.SecurityLoggingMiddleware)
	r.Use(s.errorHandler.RecoveryHandler)
	r.Use(corsHandler(s.corsOrigins))

	r.Get("/api/v1/sessions/{id}/stream", s.handleStream)

	r.Group(func(r chi.Router) {
		r.Use(s.requestTimeout)

		r.Get("/health", s.handleHealthCheck)
		r.Get("/health/ready", s.handleReadiness)
		r.Get("/health/live", s.handleLiveness)

		r.Route("/api/v1", func(r chi.Router) {
			r.Get("/version", s.handleVersion)
			r.Get("/symbols", s.handleListSymbols)
			r.Post("/verify", s.handleVerify)
			r.Post("/seed/hash", s.handleSeedHash)
			r.Get("/reveals", s.handleListReveals)
			r.Get("/reveals/{hash}", s.handleGetReveal)

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleCreateSession)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetSession)
					r.Delete("/", s.handleEndSession)
					r.Post("/roll", s.handleRoll)
					r.Get("/history", s.handleGetHistory)
					r.Put("/history", s.handleSetHistory)
					r.Post("/bets", s.handlePlaceBet)
					r.Delete("/bets", s.handleClearBets)
				})
			})
		})
	})

	return r
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Printf("response_encode_failed status=%d error=%q", status, err)
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.corsOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return len(s.corsOrigins) == 0
}
