// Package limiter bounds how many probes may be in flight at once
// across the whole target set. Each admitted probe spawns an external
// process and holds file descriptors, so the gate exists to cap
// process and fd consumption, not to protect shared state.
package limiter

import "context"

const defaultLimit = 64

// Limiter is a counting admission gate backed by a buffered channel.
// Release clamps at zero: a double release caused by a cancellation
// race is a no-op, not an error.
type Limiter struct {
	slots chan struct{}
}

// New returns a limiter admitting at most limit concurrent holders.
// Non-positive limits fall back to the default.
func New(limit int) *Limiter {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Limiter{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a slot is free or ctx is done. On success the
// caller owns one slot and must Release it exactly once.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Releasing with nothing admitted is a no-op.
func (l *Limiter) Release() {
	select {
	case <-l.slots:
	default:
	}
}

// InFlight returns the number of currently admitted holders.
func (l *Limiter) InFlight() int {
	return len(l.slots)
}

// Limit returns the configured admission cap.
func (l *Limiter) Limit() int {
	return cap(l.slots)
}
