package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/session"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func ended(id, seed string, nonce uint64, at time.Time) session.Ended {
	return session.Ended{
		ID:         id,
		ServerSeed: seed,
		ServerHash: engine.HashServerSeed(seed),
		ClientSeed: "client-" + id,
		Nonce:      nonce,
		At:         at,
	}
}

func TestRecordAndGetReveal(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	e := ended("s1", "seed-one", 7, at)
	if err := l.RecordReveal(ctx, e); err != nil {
		t.Fatal(err)
	}

	got, err := l.GetReveal(ctx, e.ServerHash)
	if err != nil {
		t.Fatal(err)
	}
	if got.ServerHash != e.ServerHash || got.ServerSeed != "seed-one" || got.ClientSeed != "client-s1" ||
		got.Nonce != 7 || got.SessionID != "s1" || !got.EndedAt.Equal(at) {
		t.Errorf("GetReveal() = %+v", got)
	}

	if _, err := l.GetReveal(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetReveal(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestRecordRevealRejectsPlainSessions(t *testing.T) {
	l := openTestLedger(t)
	if err := l.RecordReveal(context.Background(), session.Ended{ID: "plain"}); err == nil {
		t.Error("RecordReveal accepted a session without seeds")
	}
}

func TestRecordRevealUpsert(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	at := time.Now().UTC().Truncate(time.Millisecond)

	if err := l.RecordReveal(ctx, ended("s1", "seed", 2, at)); err != nil {
		t.Fatal(err)
	}
	if err := l.RecordReveal(ctx, ended("s1", "seed", 9, at.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	got, err := l.GetReveal(ctx, engine.HashServerSeed("seed"))
	if err != nil {
		t.Fatal(err)
	}
	if got.Nonce != 9 {
		t.Errorf("nonce after upsert = %d, want 9", got.Nonce)
	}
}

func TestListRevealsNewestFirst(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, seed := range []string{"a", "b", "c"} {
		if err := l.RecordReveal(ctx, ended(seed, seed, uint64(i+1), base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := l.ListReveals(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ServerSeed != "c" || got[1].ServerSeed != "b" {
		t.Errorf("ListReveals(2) = %+v", got)
	}

	none, err := l.ListReveals(ctx, 0)
	if err != nil || len(none) != 0 {
		t.Errorf("ListReveals(0) = %v, %v", none, err)
	}
}

func TestLedgerPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reveals.db")
	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	e := ended("s1", "durable", 3, time.Now())
	if err := l.RecordReveal(context.Background(), e); err != nil {
		t.Fatal(err)
	}
	l.Close()

	l, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	if _, err := l.GetReveal(context.Background(), e.ServerHash); err != nil {
		t.Errorf("reveal lost after reopen: %v", err)
	}
}

func TestLedgerWithManager(t *testing.T) {
	l := openTestLedger(t)
	m, err := session.NewManager(session.Options{Ledger: l})
	if err != nil {
		t.Fatal(err)
	}
	s, err := m.Create(session.CreateOptions{ProvablyFair: true})
	if err != nil {
		t.Fatal(err)
	}
	out, err := m.End(s.ID())
	if err != nil {
		t.Fatal(err)
	}

	got, err := l.GetReveal(context.Background(), out.ServerHash)
	if err != nil {
		t.Fatal(err)
	}
	if got.ServerSeed != out.ServerSeed || got.SessionID != s.ID() {
		t.Errorf("stored reveal = %+v, ended = %+v", got, out)
	}
}
