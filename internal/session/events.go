package session

import (
	"sync"

	"github.com/schoemantian/pokemon-agent/internal/monitor"
)

// eventBus fans monitor diagnostics out to any number of subscribers
// (the SSE handlers). Slow subscribers drop events rather than block
// the battle loop.
type eventBus struct {
	mu     sync.Mutex
	subs   map[chan monitor.Event]struct{}
	closed bool
}

// NewEventBus returns an empty bus.
func NewEventBus() *eventBus {
	return &eventBus{subs: make(map[chan monitor.Event]struct{})}
}

// Emit publishes one event to all subscribers without blocking.
func (b *eventBus) Emit(ev monitor.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *eventBus) subscribe() (<-chan monitor.Event, func()) {
	ch := make(chan monitor.Event, 32)
	b.mu.Lock()
	if b.closed {
		close(ch)
		b.mu.Unlock()
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			if _, ok := b.subs[ch]; ok {
				delete(b.subs, ch)
				close(ch)
			}
			b.mu.Unlock()
		})
	}
}

func (b *eventBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
