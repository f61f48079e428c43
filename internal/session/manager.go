package session

import (
	"context"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
)

// CreateOptions are the per-session choices made on the landing screen.
type CreateOptions struct {
	HistoryEnabled bool
	ProvablyFair   bool
	// ClientSeed defaults to a short random string when empty.
	ClientSeed string
}

// Ended is what End reports about a removed session.
type Ended struct {
	ID         string    `json:"id"`
	ServerSeed string    `json:"server_seed,omitempty"`
	ServerHash string    `json:"server_hash,omitempty"`
	ClientSeed string    `json:"client_seed,omitempty"`
	Nonce      uint64    `json:"nonce,omitempty"`
	At         time.Time `json:"ended_at"`
}

// RevealLedger keeps the seeds of ended provably-fair sessions.
type RevealLedger interface {
	RecordReveal(ctx context.Context, e Ended) error
}

const ledgerTimeout = 5 * time.Second

// Manager owns the live sessions of a process.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	defaults Options
	logger   *log.Logger
	ledger   RevealLedger
}

// NewManager returns a manager whose sessions inherit timing, source, clock and logger from defaults.
// A non-nil defaults.Ledger receives the seeds of every fair session that ends.
func NewManager(defaults Options) (*Manager, error) {
	if defaults.Timing == (Timing{}) {
		defaults.Timing = DefaultTiming()
	}
	if err := defaults.Timing.Validate(); err != nil {
		return nil, fmt.Errorf("session timing: %w", err)
	}
	if defaults.Source == nil {
		defaults.Source = engine.NewSource()
	}
	if defaults.Clock == nil {
		defaults.Clock = time.Now
	}
	if defaults.Logger == nil {
		defaults.Logger = log.New(os.Stdout, "[SESSION] ", log.LstdFlags|log.LUTC)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		defaults: defaults,
		logger:   defaults.Logger,
		ledger:   defaults.Ledger,
	}, nil
}

// Create starts a new session.
func (m *Manager) Create(opts CreateOptions) (*Session, error) {
	sessOpts := m.defaults
	sessOpts.HistoryEnabled = opts.HistoryEnabled
	sessOpts.Seeds = nil
	sessOpts.Ledger = nil

	if opts.ProvablyFair {
		server, err := engine.NewServerSeed()
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		client := opts.ClientSeed
		if client == "" {
			client = uuid.NewString()[:8]
		}
		sessOpts.Seeds = &engine.Seeds{Server: server, Client: client}
	}

	id := uuid.NewString()
	s, err := New(id, sessOpts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	serverHash := ""
	if sessOpts.Seeds != nil {
		serverHash = engine.HashServerSeed(sessOpts.Seeds.Server)[:16]
	}
	m.logger.Printf("session_created session=%s history_enabled=%t provably_fair=%t server_hash=%s active=%d",
		id, opts.HistoryEnabled, opts.ProvablyFair, serverHash, n)
	return s, nil
}

// Get looks a session up by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// End closes and removes a session, revealing its server seed.
func (m *Manager) End(id string) (Ended, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return Ended{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	return m.finish(s, s.Close(), "session_ended"), nil
}

// finish reports a closed session and hands a fair session's seeds to the ledger.
func (m *Manager) finish(s *Session, revealed, event string) Ended {
	out := Ended{ID: s.ID(), ServerSeed: revealed, At: m.defaults.Clock()}
	if revealed != "" {
		snap := s.Snapshot()
		out.ServerHash = snap.ServerHash
		out.ClientSeed = snap.ClientSeed
		out.Nonce = snap.Nonce
		m.record(out)
	}
	m.logger.Printf("%s session=%s", event, out.ID)
	return out
}

func (m *Manager) record(e Ended) {
	if m.ledger == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ledgerTimeout)
	defer cancel()
	if err := m.ledger.RecordReveal(ctx, e); err != nil {
		m.logger.Printf("reveal_record_failed session=%s server_hash=%s error=%q", e.ID, e.ServerHash[:16], err)
	}
}

// Reap ends sessions idle for longer than maxIdle and returns how many it removed.
// Sessions that are rolling or have a stream subscriber are kept.
func (m *Manager) Reap(maxIdle time.Duration) int {
	if maxIdle <= 0 {
		return 0
	}
	cutoff := m.defaults.Clock().Add(-maxIdle)

	var stale []string
	m.mu.RLock()
	for id, s := range m.sessions {
		if s.State() == StateIdle && s.LastActive().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if m.reapIfIdle(id, cutoff) {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Printf("sessions_reaped count=%d max_idle=%v", removed, maxIdle)
	}
	return removed
}

// reapIfIdle re-checks a candidate under the write lock so a roll or subscribe
// that started after the scan keeps the session alive.
func (m *Manager) reapIfIdle(id string, cutoff time.Time) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return false
	}
	revealed, retired := s.retireIfIdle(cutoff)
	if retired {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if retired {
		m.finish(s, revealed, "session_reaped")
	}
	return retired
}

// RunReaper calls Reap every interval until ctx is done.
func (m *Manager) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Reap(maxIdle)
		}
	}
}

// Stats is a point-in-time count over the live sessions.
type Stats struct {
	Sessions    int `json:"sessions"`
	Rolling     int `json:"rolling"`
	Fair        int `json:"provably_fair"`
	Subscribers int `json:"subscribers"`
}

// Stats counts the live sessions by state.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	live := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		live = append(live, s)
	}
	m.mu.RUnlock()

	st := Stats{Sessions: len(live)}
	for _, s := range live {
		snap := s.Snapshot()
		if snap.State == StateRolling {
			st.Rolling++
		}
		if snap.ProvablyFair {
			st.Fair++
		}
		st.Subscribers += snap.Subscribers
	}
	return st
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CloseAll ends every session. Used on shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	for _, id := range ids {
		_, _ = m.End(id)
	}
}
