// Package history keeps the bounded, per-session log of settled rolls.
package history

import (
	"sync"
	"time"

	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

const (
	// Capacity is the maximum number of entries kept. Older entries are evicted first.
	Capacity = 20
	// TimeLayout is the 24-hour, zero-padded wall-clock stamp of an entry.
	TimeLayout = "15:04:05"
)

// Entry is one recorded roll. Faces and Tally are owned copies.
type Entry struct {
	Seq   uint64           `json:"seq"`
	When  string           `json:"when"`
	Faces []jhandi.DieFace `json:"faces"`
	Tally jhandi.Tally     `json:"tally"`
	Nonce uint64           `json:"nonce,omitempty"`
}

func (e Entry) clone() Entry {
	e.Faces = jhandi.CopyFaces(e.Faces)
	e.Tally = e.Tally.Copy()
	return e
}

// Log is an ordered FIFO of at most Capacity entries. It is safe for concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	seq     uint64
	now     func() time.Time
}

// Option configures a Log.
type Option func(*Log)

// WithClock sets the clock used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// New returns an empty log.
func New(opts ...Option) *Log {
	l := &Log{
		entries: make([]Entry, 0, Capacity),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// RecordRoll appends a roll when enabled and reports whether the log changed.
func (l *Log) RecordRoll(faces []jhandi.DieFace, tally jhandi.Tally, enabled bool) (Entry, bool) {
	return l.record(faces, tally, 0, enabled)
}

// RecordFairRoll is RecordRoll for a provably-fair roll, keeping its nonce for later verification.
func (l *Log) RecordFairRoll(faces []jhandi.DieFace, tally jhandi.Tally, nonce uint64, enabled bool) (Entry, bool) {
	return l.record(faces, tally, nonce, enabled)
}

func (l *Log) record(faces []jhandi.DieFace, tally jhandi.Tally, nonce uint64, enabled bool) (Entry, bool) {
	if !enabled {
		return Entry{}, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e := Entry{
		Seq:   l.seq,
		When:  l.now().Format(TimeLayout),
		Faces: jhandi.CopyFaces(faces),
		Tally: tally.Copy(),
		Nonce: nonce,
	}

	if len(l.entries) == Capacity {
		copy(l.entries, l.entries[1:])
		l.entries = l.entries[:Capacity-1]
	}
	l.entries = append(l.entries, e)

	return e.clone(), true
}

// Recent returns up to n entries, most recent first.
func (l *Log) Recent(n int) []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if n <= 0 {
		return []Entry{}
	}
	if n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i].clone())
	}
	return out
}

// Entries returns every entry in insertion order.
func (l *Log) Entries() []Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Entry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.clone()
	}
	return out
}

// Len returns the number of entries held.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Clear drops all entries. Sequence numbers keep counting.
func (l *Log) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = l.entries[:0]
}
