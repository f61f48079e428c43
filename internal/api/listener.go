package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"
)

// Listener runs the router on a TCP address.
type Listener struct {
	addr       string
	handler    http.Handler
	logger     *log.Logger
	httpServer *http.Server
	ln         net.Listener
	serveErr   chan error
}

// NewListener binds nothing until Start.
func NewListener(addr string, handler http.Handler, logger *log.Logger) *Listener {
	return &Listener{addr: addr, handler: handler, logger: logger, serveErr: make(chan error, 1)}
}

// Start begins serving in a goroutine. It returns once the socket is bound.
func (l *Listener) Start() error {
	l.httpServer = &http.Server{
		Addr:              l.addr,
		Handler:           l.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	ln, err := net.Listen("tcp", l.addr)
	if err != nil {
		return err
	}
	l.ln = ln
	l.logger.Printf("http_listening addr=%s engine_version=%s", ln.Addr(), EngineVersion)

	go func() {
		if err := l.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.serveErr <- err
		}
		close(l.serveErr)
	}()
	return nil
}

// Addr is the bound address, useful when listening on port 0.
func (l *Listener) Addr() string {
	if l.ln == nil {
		return l.addr
	}
	return l.ln.Addr().String()
}

// Err reports a Serve failure. It is closed when serving stops.
func (l *Listener) Err() <-chan error {
	return l.serveErr
}

// Shutdown gracefully stops the server.
func (l *Listener) Shutdown(ctx context.Context) error {
	if l.httpServer == nil {
		return nil
	}
	return l.httpServer.Shutdown(ctx)
}
