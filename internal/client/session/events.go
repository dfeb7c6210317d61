package session

import (
	"sync"

	"github.com/rs/zerolog"
)

type Event string

const (
	EventLoggedIn  Event = "logged_in"
	EventLoggedOut Event = "logged_out"
)

const subscriberBuffer = 8

// Bus fans local session events out to subscribers. Publish never blocks: a
// subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	logger zerolog.Logger
}

func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		subs:   make(map[chan Event]struct{}),
		logger: logger.With().Str("component", "bus").Logger(),
	}
}

// Subscribe returns the event channel and a function that detaches it.
// The channel is closed on unsubscribe.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn().Str("event", string(event)).Msg("session subscriber buffer full, dropping event")
		}
	}
}
