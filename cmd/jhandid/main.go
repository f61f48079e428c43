// Command jhandid serves Jhandi Burja game sessions over HTTP and WebSocket.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/api"
	"github.com/MJE43/jhandi-burja-go/internal/config"
	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/session"
	"github.com/MJE43/jhandi-burja-go/internal/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before the environment is parsed")
	flag.Parse()

	log.SetPrefix("[JHANDID] ")
	log.SetFlags(log.LstdFlags | log.LUTC)

	if err := config.LoadDotEnv(*envFile); err != nil {
		log.Fatalf("startup_failed error=%q", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("startup_failed error=%q", err)
	}
	if !cfg.LogUTC {
		log.SetFlags(log.LstdFlags)
	}

	if err := run(cfg); err != nil {
		log.Fatalf("server_failed error=%q", err)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flags := log.LstdFlags
	if cfg.LogUTC {
		flags |= log.LUTC
	}

	var ledger *store.Ledger
	if cfg.RevealDB != "" {
		l, err := store.Open(cfg.RevealDB)
		if err != nil {
			return err
		}
		defer l.Close()
		ledger = l
		log.Printf("reveal_ledger_opened path=%s", cfg.RevealDB)
	}

	opts := session.Options{
		Timing: cfg.Timing(),
		Source: engine.NewSource(),
		Logger: log.New(os.Stdout, "[SESSION] ", flags),
	}
	apiCfg := api.Config{
		CORSOrigins:    cfg.CORSOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Logger:         log.New(os.Stdout, "[API] ", flags|log.Lshortfile),
		SecurityLogger: log.New(os.Stdout, "[SECURITY] ", flags),
	}
	// Typed nils must not reach the interfaces.
	if ledger != nil {
		opts.Ledger = ledger
		apiCfg.Reveals = ledger
	}

	manager, err := session.NewManager(opts)
	if err != nil {
		return err
	}
	defer manager.CloseAll()

	go manager.RunReaper(ctx, cfg.ReapInterval, cfg.SessionIdleTTL)

	server := api.NewServer(manager, apiCfg)

	listener := api.NewListener(cfg.HTTPAddr, server.Routes(), log.Default())
	if err := listener.Start(); err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		log.Printf("shutdown_requested addr=%s", listener.Addr())
	case err := <-listener.Err():
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	// Ending sessions first sends a close frame to every open stream.
	manager.CloseAll()
	if err := listener.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Printf("shutdown_complete")
	return nil
}
