package session

import (
	"sync"

	"github.com/MJE43/jhandi-burja-go/internal/history"
	"github.com/MJE43/jhandi-burja-go/internal/jhandi"
)

// FrameType tags a streamed roll event.
type FrameType string

const (
	FrameRollStarted FrameType = "roll_started"
	FrameTick        FrameType = "tick"
	FrameSettled     FrameType = "settled"
)

// Frame is one event of a roll as seen by stream subscribers.
type Frame struct {
	Type       FrameType        `json:"type"`
	Session    string           `json:"session"`
	Tick       int              `json:"tick,omitempty"`
	MaxTicks   int              `json:"max_ticks,omitempty"`
	Faces      []jhandi.DieFace `json:"faces,omitempty"`
	Sound      SoundCue         `json:"sound,omitempty"`
	DurationMs int64            `json:"duration_ms,omitempty"`
	Tally      jhandi.Tally     `json:"tally,omitempty"`
	Entry      *history.Entry   `json:"entry,omitempty"`
	Nonce      uint64           `json:"nonce,omitempty"`
}

const subscriberBuffer = 64

// broadcaster fans frames out to subscribers. A full subscriber buffer drops the frame.
type broadcaster struct {
	mu     sync.Mutex
	next   int
	subs   map[int]chan Frame
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Frame)}
}

func (b *broadcaster) subscribe() (<-chan Frame, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Frame, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.next
	b.next++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
	return ch, cancel
}

func (b *broadcaster) publish(f Frame) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- f:
		default:
			dropped++
		}
	}
	return dropped
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

func (b *broadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
