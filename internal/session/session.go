// Package session drives one game screen: the roll state machine, the
// cosmetic spin, history recording, and the bet board.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/jhandi-burja-go/internal/engine"
	"github.com/MJE43/jhandi-burja-go/internal/history"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

var (
	ErrRollInProgress  = errors.New("session: roll in progress")
	ErrSessionClosed   = errors.New("session: closed")
	ErrSessionNotFound = errors.New("session: not found")
	ErrInvalidBet      = errors.New("session: bet amount must be positive")
)

// State is the roll lifecycle. Settled is transient: a session observed outside
// a settle is either Idle or Rolling.
type State string

const (
	StateIdle    State = "idle"
	StateRolling State = "rolling"
	StateSettled State = "settled"
)

// Options configures a Session.
type Options struct {
	HistoryEnabled bool
	Timing         Timing
	// Source drives faces, durations and sound picks. Nil uses an auto-seeded source.
	Source engine.Source
	// Seeds switches the final faces of every roll to the provably-fair stream.
	Seeds  *engine.Seeds
	Clock  func() time.Time
	Logger *log.Logger
	// Ledger is consulted by Manager only. Sessions ignore it.
	Ledger RevealLedger
}

// RollStart describes an accepted roll.
type RollStart struct {
	Sound    SoundCue      `json:"sound"`
	Duration time.Duration `json:"-"`
	MaxTicks int           `json:"max_ticks"`
}

// Session is the state of one game screen. All methods are safe for concurrent use.
type Session struct {
	id     string
	timing Timing
	src    engine.Source
	eng    *jhandi.Engine
	now    func() time.Time
	logger *log.Logger
	frames *broadcaster
	log    *history.Log

	mu             sync.Mutex
	state          State
	historyEnabled bool
	faces          []jhandi.DieFace
	tally          jhandi.Tally
	bets           *BetBoard
	seeds          *engine.Seeds
	nonce          uint64
	lastActive     time.Time
	closed         bool
	stop           chan struct{}
	done           chan struct{}
}

// New returns an idle session showing an initial random set of faces.
func New(id string, opts Options) (*Session, error) {
	if opts.Timing == (Timing{}) {
		opts.Timing = DefaultTiming()
	}
	if err := opts.Timing.Validate(); err != nil {
		return nil, err
	}
	if opts.Source == nil {
		opts.Source = engine.NewSource()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	s := &Session{
		id:             id,
		timing:         opts.Timing,
		src:            opts.Source,
		eng:            jhandi.New(opts.Source),
		now:            opts.Clock,
		logger:         opts.Logger,
		frames:         newBroadcaster(),
		log:            history.New(history.WithClock(opts.Clock)),
		state:          StateIdle,
		historyEnabled: opts.HistoryEnabled,
		bets:           NewBetBoard(),
		lastActive:     opts.Clock(),
		stop:           make(chan struct{}),
	}
	if opts.Seeds != nil {
		seeds := *opts.Seeds
		s.seeds = &seeds
	}
	s.faces, s.tally = s.eng.Roll()
	return s, nil
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Roll starts a roll and returns immediately. While a roll is in flight every
// further call returns ErrRollInProgress and changes nothing. ctx is only
// checked before the roll starts.
func (s *Session) Roll(ctx context.Context) (RollStart, error) {
	if err := ctx.Err(); err != nil {
		return RollStart{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return RollStart{}, ErrSessionClosed
	}
	if s.state != StateIdle {
		return RollStart{}, ErrRollInProgress
	}

	d := s.timing.Duration(s.src)
	start := RollStart{
		Sound:    PickSound(s.src),
		Duration: d,
		MaxTicks: s.timing.MaxTicks(d),
	}

	s.state = StateRolling
	s.lastActive = s.now()
	s.done = make(chan struct{})

	s.frames.publish(Frame{
		Type:       FrameRollStarted,
		Session:    s.id,
		MaxTicks:   start.MaxTicks,
		Faces:      jhandi.CopyFaces(s.faces),
		Sound:      start.Sound,
		DurationMs: d.Milliseconds(),
	})
	s.logger.Printf("roll_started session=%s sound=%s duration_ms=%d max_ticks=%d",
		s.id, start.Sound, d.Milliseconds(), start.MaxTicks)

	go s.spin(start.MaxTicks, s.done)
	return start, nil
}

func (s *Session) spin(maxTicks int, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.timing.Tick)
	defer ticker.Stop()

	for tick := 1; ; tick++ {
		select {
		case <-s.stop:
			s.abort()
			return
		case <-ticker.C:
		}

		// The tick after the last spin frame settles without drawing another frame.
		if tick > maxTicks {
			s.settle()
			return
		}

		faces := s.eng.RollDice()
		s.mu.Lock()
		s.faces = faces
		s.frames.publish(Frame{
			Type:     FrameTick,
			Session:  s.id,
			Tick:     tick,
			MaxTicks: maxTicks,
			Faces:    jhandi.CopyFaces(faces),
		})
		s.mu.Unlock()
	}
}

func (s *Session) abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.logger.Printf("roll_aborted session=%s", s.id)
}

func (s *Session) settle() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.state = StateIdle
		return
	}

	var (
		faces []jhandi.DieFace
		tally jhandi.Tally
		nonce uint64
	)
	if s.seeds != nil {
		s.nonce++
		nonce = s.nonce
		out, err := jhandi.Verify(*s.seeds, nonce)
		if err != nil {
			// Verify only fails if the engine yields a face outside the catalog.
			s.logger.Printf("roll_failed session=%s nonce=%d error=%q", s.id, nonce, err)
			s.state = StateIdle
			return
		}
		faces, tally = out.Faces, out.Tally
	} else {
		faces, tally = s.eng.Roll()
	}

	s.state = StateSettled
	s.faces = faces
	s.tally = tally
	s.lastActive = s.now()

	var recorded *history.Entry
	if entry, ok := s.log.RecordFairRoll(faces, tally, nonce, s.historyEnabled); ok {
		recorded = &entry
	}

	s.frames.publish(Frame{
		Type:    FrameSettled,
		Session: s.id,
		Faces:   jhandi.CopyFaces(faces),
		Tally:   tally.Copy(),
		Entry:   recorded,
		Nonce:   nonce,
	})
	s.logger.Printf("roll_settled session=%s nonce=%d recorded=%t result=%q",
		s.id, nonce, recorded != nil, tally.String())

	s.state = StateIdle
}

// Wait blocks until the in-flight roll, if any, has settled.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops an in-flight spin without recording it and ends all streams.
// It returns the server seed when the session was provably fair.
func (s *Session) Close() (revealed string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return s.revealLocked()
	}
	s.closed = true
	close(s.stop)
	done := s.done
	revealed = s.revealLocked()
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.frames.close()
	return revealed
}

// retireIfIdle closes the session only if it is idle, has no subscribers and
// was last active before cutoff. The check and the close happen under one lock.
func (s *Session) retireIfIdle(cutoff time.Time) (revealed string, ok bool) {
	s.mu.Lock()
	if s.closed || s.state != StateIdle || !s.lastActive.Before(cutoff) || s.frames.count() > 0 {
		s.mu.Unlock()
		return "", false
	}
	s.closed = true
	close(s.stop)
	done := s.done
	revealed = s.revealLocked()
	s.mu.Unlock()

	if done != nil {
		<-done
	}
	s.frames.close()
	return revealed, true
}

func (s *Session) revealLocked() string {
	if s.seeds == nil {
		return ""
	}
	return s.seeds.Server
}

// Subscribe streams frames until cancel is called or the session closes.
func (s *Session) Subscribe() (<-chan Frame, func()) {
	s.Touch()
	return s.frames.subscribe()
}

// SetHistoryEnabled toggles recording for rolls settled from now on.
func (s *Session) SetHistoryEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historyEnabled = enabled
	s.lastActive = s.now()
}

// HistoryEnabled reports whether settled rolls are recorded.
func (s *Session) HistoryEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.historyEnabled
}

// History returns the full log in insertion order.
func (s *Session) History() []history.Entry {
	s.Touch()
	return s.log.Entries()
}

// Recent returns up to n entries, most recent first.
func (s *Session) Recent(n int) []history.Entry {
	s.Touch()
	return s.log.Recent(n)
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Faces returns the faces currently showing, spinning or settled.
func (s *Session) Faces() []jhandi.DieFace {
	s.mu.Lock()
	defer s.mu.Unlock()
	return jhandi.CopyFaces(s.faces)
}

// LastTally returns the tally of the last settled roll.
func (s *Session) LastTally() jhandi.Tally {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tally.Copy()
}

// PlaceBet adds amount to the stake on key.
func (s *Session) PlaceBet(key jhandi.Key, amount decimal.Decimal) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return decimal.Zero, ErrSessionClosed
	}
	s.lastActive = s.now()
	stake, err := s.bets.Place(key, amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("place bet: %w", err)
	}
	return stake, nil
}

// ClearBets removes every stake.
func (s *Session) ClearBets() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = s.now()
	s.bets.Clear()
}

// Bets returns a copy of the stakes by symbol.
func (s *Session) Bets() map[jhandi.Key]decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bets.Stakes()
}

// LastActive is the time of the last roll, toggle, bet or read.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Touch marks the session active now, deferring reaping.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = s.now()
	s.mu.Unlock()
}

// Snapshot is a point-in-time view of a session.
type Snapshot struct {
	ID             string                         `json:"id"`
	State          State                          `json:"state"`
	HistoryEnabled bool                           `json:"history_enabled"`
	Faces          []jhandi.DieFace               `json:"faces"`
	Tally          jhandi.Tally                   `json:"tally"`
	Result         string                         `json:"result"`
	Recent         []history.Entry                `json:"recent"`
	HistoryLen     int                            `json:"history_len"`
	Bets           map[jhandi.Key]decimal.Decimal `json:"bets"`
	BetTotal       decimal.Decimal                `json:"bet_total"`
	ProvablyFair   bool                           `json:"provably_fair"`
	ServerHash     string                         `json:"server_hash,omitempty"`
	ClientSeed     string                         `json:"client_seed,omitempty"`
	Nonce          uint64                         `json:"nonce,omitempty"`
	Subscribers    int                            `json:"subscribers"`
}

// RecentView is the number of entries shown beside the board.
const RecentView = 3

// Snapshot copies the session state under its lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		State:          s.state,
		HistoryEnabled: s.historyEnabled,
		Faces:          jhandi.CopyFaces(s.faces),
		Tally:          s.tally.Copy(),
		Result:         s.tally.String(),
		Recent:         s.log.Recent(RecentView),
		HistoryLen:     s.log.Len(),
		Bets:           s.bets.Stakes(),
		BetTotal:       s.bets.Total(),
		Subscribers:    s.frames.count(),
	}
	if s.seeds != nil {
		snap.ProvablyFair = true
		snap.ServerHash = engine.HashServerSeed(s.seeds.Server)
		snap.ClientSeed = s.seeds.Client
		snap.Nonce = s.nonce
	}
	return snap
}

// ParseHistoryFlag reads the landing-screen history flag, which travels as "true" or "false".
func ParseHistoryFlag(v string) bool {
	return v == "true"
}
