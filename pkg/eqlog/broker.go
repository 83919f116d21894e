package eqlog

import (
	"context"
	"sync"
)

// broker fans a signal out to an explicit list of subscribers.
// Values reach each subscriber in publish order and are never dropped:
// publish blocks on a full subscriber until it reads, unsubscribes, or ctx
// is done.
type broker[T any] struct {
	mu     sync.Mutex
	subs   []*subscription[T]
	closed bool
}

type subscription[T any] struct {
	ch   chan T
	gone chan struct{}
	once sync.Once
}

// subscribe registers a subscriber with the given channel buffer.
// The returned func unsubscribes; it is safe to call more than once.
// The channel is closed only when the broker is closed.
func (b *broker[T]) subscribe(buffer int) (<-chan T, func()) {
	if buffer < 0 {
		buffer = 0
	}
	s := &subscription[T]{
		ch:   make(chan T, buffer),
		gone: make(chan struct{}),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(s.ch)
		return s.ch, func() {}
	}
	b.subs = append(b.subs, s)

	return s.ch, func() { b.unsubscribe(s) }
}

func (b *broker[T]) unsubscribe(s *subscription[T]) {
	s.once.Do(func() { close(s.gone) })

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.subs {
		if cur == s {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// publish delivers v to every current subscriber in subscription order.
// Callers serialize publish; the broker itself does not.
func (b *broker[T]) publish(ctx context.Context, v T) {
	b.mu.Lock()
	if b.closed || len(b.subs) == 0 {
		b.mu.Unlock()
		return
	}
	subs := append([]*subscription[T](nil), b.subs...)
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- v:
		case <-s.gone:
		case <-ctx.Done():
			return
		}
	}
}

// count returns the number of subscribers.
func (b *broker[T]) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// close closes every subscriber channel. No publish may be running or
// start afterwards.
func (b *broker[T]) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		close(s.ch)
	}
	b.subs = nil
}
