// Package breaker disables the remote store for the rest of a session once
// it has refused the caller.
package breaker

import (
	"sync"
	"sync/atomic"
	"time"
)

// Breaker is a one-way switch. It trips on the first authorization failure
// and stays tripped until Reset, which only a fresh sign-in performs.
type Breaker struct {
	tripped atomic.Bool

	mu       sync.Mutex
	reason   error
	since    time.Time
	onChange []func(tripped bool)
}

// New returns an untripped Breaker.
func New() *Breaker {
	return &Breaker{}
}

// Tripped reports whether remote calls are disabled. A nil Breaker is never
// tripped.
func (b *Breaker) Tripped() bool {
	return b != nil && b.tripped.Load()
}

// Trip disables remote calls. It reports whether this call tripped it;
// tripping an already tripped breaker keeps the first reason.
func (b *Breaker) Trip(reason error) bool {
	if !b.tripped.CompareAndSwap(false, true) {
		return false
	}
	b.mu.Lock()
	b.reason = reason
	b.since = time.Now()
	subs := append([]func(bool){}, b.onChange...)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(true)
	}
	return true
}

// Reset re-enables remote calls.
func (b *Breaker) Reset() {
	if !b.tripped.CompareAndSwap(true, false) {
		return
	}
	b.mu.Lock()
	b.reason = nil
	b.since = time.Time{}
	subs := append([]func(bool){}, b.onChange...)
	b.mu.Unlock()
	for _, fn := range subs {
		fn(false)
	}
}

// Reason returns the error that tripped the breaker, if any.
func (b *Breaker) Reason() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reason
}

// Since returns when the breaker tripped, or the zero time.
func (b *Breaker) Since() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.since
}

// OnChange registers fn to run after every trip or reset.
func (b *Breaker) OnChange(fn func(tripped bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onChange = append(b.onChange, fn)
}
