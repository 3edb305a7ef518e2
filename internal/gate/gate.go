// Package gate implements the connection capacity limit: a counting
// semaphore bounding how many client handlers may run concurrently.
// Grounded on the original crate's Semaphore (mutex + condvar, blocking
// acquire), expressed with the idiomatic Go counting-semaphore pattern of a
// buffered channel of tokens.
package gate

import "context"

// Gate bounds concurrent holders to capacity. The zero value is not usable;
// construct with New.
type Gate struct {
	tokens chan struct{}
}

// New creates a Gate allowing up to capacity concurrent holders.
func New(capacity int) *Gate {
	if capacity <= 0 {
		capacity = 1
	}
	return &Gate{tokens: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or ctx is done. On success the
// caller must call Release exactly once.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.tokens <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees one previously acquired slot.
func (g *Gate) Release() {
	select {
	case <-g.tokens:
	default:
	}
}

// InUse reports how many slots are currently held. Intended for metrics
// and tests, not for synchronization decisions.
func (g *Gate) InUse() int {
	return len(g.tokens)
}

// Capacity reports the total number of slots.
func (g *Gate) Capacity() int {
	return cap(g.tokens)
}
