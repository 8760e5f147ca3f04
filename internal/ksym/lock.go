package ksym

import (
	"sync"

	"github.com/sasha-s/go-deadlock"
)

// LockRegistry is the process-wide named-lock structure referenced by
// spec.md §5/§4.G: actions may name a lock, and every action naming that
// lock across every session serializes on it (writer-exclusive, fair
// FIFO via Go's runtime mutex wake order).
//
// Entries are refcounted so unused locks don't accumulate for the life of
// the daemon; deadlock.Mutex (a drop-in sync.Mutex replacement) detects
// lock-ordering cycles between cooperating actions at test/runtime time
// instead of hanging silently, which is the concrete risk named in
// spec.md §9 design notes ("deadlock avoidance by consistent ordering").
type LockRegistry struct {
	mu    sync.Mutex
	locks map[string]*namedLock
}

type namedLock struct {
	mu   deadlock.Mutex
	refs int
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{locks: map[string]*namedLock{}}
}

// Acquire blocks until the named lock is free, then returns a release
// function. An empty name means "no lock requested"; Acquire returns a
// no-op release in that case so callers can always defer the result.
func (r *LockRegistry) Acquire(name string) func() {
	if name == "" {
		return func() {}
	}

	r.mu.Lock()
	l, ok := r.locks[name]
	if !ok {
		l = &namedLock{}
		r.locks[name] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, name)
		}
		r.mu.Unlock()
	}
}
