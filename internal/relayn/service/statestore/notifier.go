package statestore

import (
	"strings"
	"sync"
)

// Notifier implements prefix subscriptions with ordered, asynchronous
// delivery. Both store backends embed it. A single dispatch goroutine
// preserves the order of SetState calls, which the toggle path relies on.
type Notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
	events chan stateEvent
	done   chan struct{}
	once   sync.Once
}

type subscription struct {
	prefix string
	fn     SubscribeFunc
}

type stateEvent struct {
	id string
	st State
}

// NewNotifier creates a Notifier and starts its dispatch loop.
func NewNotifier() *Notifier {
	n := &Notifier{
		subs:   make(map[int]subscription),
		events: make(chan stateEvent, 256),
		done:   make(chan struct{}),
	}
	go n.dispatch()
	return n
}

// Subscribe registers fn for ids under prefix. The returned cancel is safe
// to call more than once.
func (n *Notifier) Subscribe(prefix string, fn SubscribeFunc) func() {
	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = subscription{prefix: prefix, fn: fn}
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

// Publish queues a state-change event for delivery. Events published after
// Close are dropped.
func (n *Notifier) Publish(id string, st State) {
	select {
	case <-n.done:
	case n.events <- stateEvent{id: id, st: st}:
	}
}

// Close stops the dispatch loop. Queued events are discarded.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
}

func (n *Notifier) dispatch() {
	for {
		select {
		case <-n.done:
			return
		case ev := <-n.events:
			n.mu.Lock()
			matched := make([]SubscribeFunc, 0, len(n.subs))
			for _, sub := range n.subs {
				if strings.HasPrefix(ev.id, sub.prefix) {
					matched = append(matched, sub.fn)
				}
			}
			n.mu.Unlock()
			for _, fn := range matched {
				fn(ev.id, ev.st)
			}
		}
	}
}
