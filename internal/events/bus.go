// Package events provides the in-process publish/subscribe primitive that
// stands in for the webview's event channel. The front end (or, in tests
// and the exerciser CLI, a plain Go subscriber) listens on named topics the
// way a Tauri/Wails front end listens on "pty-output-S1" or
// "terminal-output-captured".
package events

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Publish once the bus has been shut down, which
// is how a reader-task goroutine in internal/pty learns that "the front
// end is gone" and should stop forwarding output.
var ErrClosed = errors.New("events: bus closed")

// Event is a single published message.
type Event struct {
	Topic   string
	Payload any
}

type subscription struct {
	id     int
	topics map[string]bool // nil/empty means "all topics"
	ch     chan Event
}

// Bus is a topic-based, many-subscriber fan-out. Publish blocks until every
// matching subscriber has received the event or the bus is closed, which
// gives PTY output the same in-order, no-drop delivery its single-session
// byte stream requires.
type Bus struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
	doneCh chan struct{}
}

// NewBus creates a ready-to-use Bus.
func NewBus() *Bus {
	return &Bus{
		subs:   make(map[int]*subscription),
		doneCh: make(chan struct{}),
	}
}

// Subscribe registers a new listener. With no topics given, the subscriber
// receives every published event. The returned channel is closed when the
// bus is closed or Unsubscribe is called with this id.
func (b *Bus) Subscribe(topics ...string) (id int, ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	set := make(map[string]bool, len(topics))
	for _, t := range topics {
		set[t] = true
	}

	b.nextID++
	sub := &subscription{
		id:     b.nextID,
		topics: set,
		ch:     make(chan Event, 64),
	}
	b.subs[sub.id] = sub
	return sub.id, sub.ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(sub.ch)
	}
}

func (sub *subscription) matches(topic string) bool {
	if len(sub.topics) == 0 {
		return true
	}
	return sub.topics[topic]
}

// Publish delivers an event to every subscriber listening on topic (or on
// no specific topic at all). It returns ErrClosed once Close has been
// called, which callers use as the "front end is gone" signal.
func (b *Bus) Publish(topic string, payload any) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	matching := make([]*subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.matches(topic) {
			matching = append(matching, sub)
		}
	}
	done := b.doneCh
	b.mu.Unlock()

	ev := Event{Topic: topic, Payload: payload}
	for _, sub := range matching {
		select {
		case sub.ch <- ev:
		case <-done:
			return ErrClosed
		}
	}
	return nil
}

// Close shuts the bus down: pending and future Publish calls return
// ErrClosed, and every subscriber channel is closed.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.doneCh)
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
