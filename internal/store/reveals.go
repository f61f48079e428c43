// Package store keeps the revealed seeds of ended provably-fair sessions in SQLite
// so a player can verify their rolls after the session is gone.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MJE43/jhandi-burja-go/internal/session"
)

// ErrNotFound is returned when no reveal matches a server hash.
var ErrNotFound = errors.New("reveal not found")

// Reveal is one ended fair session.
type Reveal struct {
	ServerHash string    `json:"server_hash"`
	ServerSeed string    `json:"server_seed"`
	ClientSeed string    `json:"client_seed"`
	Nonce      uint64    `json:"nonce"`
	SessionID  string    `json:"session_id"`
	EndedAt    time.Time `json:"ended_at"`
}

// Ledger implements session.RevealLedger on a SQLite database.
type Ledger struct {
	db *sql.DB
}

var _ session.RevealLedger = (*Ledger)(nil)

// Open connects to the SQLite file at path and applies migrations.
// ":memory:" gives a private in-process database.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open reveal ledger: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	l := &Ledger{db: db}
	if err := l.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// Close releases the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Migrate creates the reveals table and its index if missing.
func (l *Ledger) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS reveals (
			server_hash TEXT PRIMARY KEY,
			server_seed TEXT NOT NULL,
			client_seed TEXT NOT NULL,
			nonce INTEGER NOT NULL,
			session_id TEXT NOT NULL,
			ended_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reveals_ended_at ON reveals(ended_at DESC)`,
	}
	for _, m := range migrations {
		if _, err := l.db.Exec(m); err != nil {
			return fmt.Errorf("reveal migration failed: %w", err)
		}
	}
	return nil
}

// RecordReveal stores e. Recording the same server hash twice keeps the later nonce.
func (l *Ledger) RecordReveal(ctx context.Context, e session.Ended) error {
	if e.ServerSeed == "" || e.ServerHash == "" {
		return fmt.Errorf("record reveal %s: session was not provably fair", e.ID)
	}
	_, err := l.db.ExecContext(ctx, `INSERT INTO reveals (server_hash, server_seed, client_seed, nonce, session_id, ended_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(server_hash) DO UPDATE SET nonce = excluded.nonce, ended_at = excluded.ended_at`,
		e.ServerHash, e.ServerSeed, e.ClientSeed, int64(e.Nonce), e.ID, e.At.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("record reveal %s: %w", e.ID, err)
	}
	return nil
}

// GetReveal looks a reveal up by the server hash shown while the session was live.
func (l *Ledger) GetReveal(ctx context.Context, serverHash string) (Reveal, error) {
	row := l.db.QueryRowContext(ctx, `SELECT server_hash, server_seed, client_seed, nonce, session_id, ended_at
		FROM reveals WHERE server_hash = ?`, serverHash)
	r, err := scanReveal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Reveal{}, fmt.Errorf("%w: %s", ErrNotFound, serverHash)
	}
	return r, err
}

// ListReveals returns up to limit reveals, most recently ended first.
func (l *Ledger) ListReveals(ctx context.Context, limit int) ([]Reveal, error) {
	if limit <= 0 {
		return []Reveal{}, nil
	}
	rows, err := l.db.QueryContext(ctx, `SELECT server_hash, server_seed, client_seed, nonce, session_id, ended_at
		FROM reveals ORDER BY ended_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list reveals: %w", err)
	}
	defer rows.Close()

	out := []Reveal{}
	for rows.Next() {
		r, err := scanReveal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReveal(s scanner) (Reveal, error) {
	var (
		r     Reveal
		nonce int64
		ended int64
	)
	if err := s.Scan(&r.ServerHash, &r.ServerSeed, &r.ClientSeed, &nonce, &r.SessionID, &ended); err != nil {
		return Reveal{}, err
	}
	r.Nonce = uint64(nonce)
	r.EndedAt = time.UnixMilli(ended).UTC()
	return r, nil
}
