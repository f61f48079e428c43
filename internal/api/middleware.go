package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SecurityLoggingMiddleware logs the start and completion of every request.
func (s *Server) SecurityLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		s.logger.Printf(
			"request_start method=%s path=%s request_id=%s remote_addr=%s user_agent=%q engine_version=%s",
			r.Method, r.URL.Path, requestID, r.RemoteAddr, r.UserAgent(), EngineVersion,
		)

		next.ServeHTTP(ww, r)

		s.logger.Printf(
			"request_completed method=%s path=%s status=%d duration=%v request_id=%s bytes_written=%d engine_version=%s",
			r.Method, r.URL.Path, ww.Status(), time.Since(start), requestID, ww.BytesWritten(), EngineVersion,
		)
	})
}

// requestTimeout cancels the request context after the server timeout. A handler
// that gives up on the deadline without writing gets a 504 timeout envelope.
func (s *Server) requestTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && ww.Status() == 0 {
			s.errorHandler.respond(ww, r, http.StatusGatewayTimeout,
				envelope(r, ErrTypeTimeout, "Request timed out", "timeout", s.timeout.String()))
		}
	})
}

func corsHandler(origins []string) func(http.Handler) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Engine-Version", "X-Error-Type"},
		MaxAge:         86400,
	})
}
