package rwlock

import (
	"errors"
	"fmt"
	"time"
)

// SharedGuard scopes one shared acquisition of a ReadWriteLock. It is a
// move-only value: Move, MoveFrom and Swap transfer the release
// obligation, so at most one live guard is ever responsible for a given
// acquisition. Do not copy a guard struct; both copies would try to
// release the same hold.
//
// A guard is meant to live on one goroutine at a time and is not safe
// for concurrent use. The usual shape:
//
//	g, err := rwlock.NewSharedGuard(l)
//	if err != nil {
//		return err
//	}
//	defer g.Close()
type SharedGuard struct {
	lock *ReadWriteLock
	owns bool
}

// NewSharedGuard blocks until shared mode is acquired. On any failure,
// the reader ceiling included, no guard is returned and nothing is
// owned.
func NewSharedGuard(l *ReadWriteLock) (*SharedGuard, error) {
	g := DeferSharedGuard(l)
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// TrySharedGuard attempts shared mode without blocking. Contention and
// the reader ceiling yield a non-owning guard with a nil error;
// programmer errors (ErrAlreadyOwned, ErrInvalidState) are returned
// with no guard.
func TrySharedGuard(l *ReadWriteLock) (*SharedGuard, error) {
	g := DeferSharedGuard(l)
	if _, err := g.TryLock(); err != nil {
		return nil, err
	}
	return g, nil
}

// DeferSharedGuard binds a guard to l without acquiring anything.
func DeferSharedGuard(l *ReadWriteLock) *SharedGuard {
	return &SharedGuard{lock: l}
}

// Lock blocks until the guard owns shared mode. Failure modes are those
// of ReadWriteLock.LockShared, plus ErrAlreadyOwned when the guard
// already owns and ErrInvalidState when no lock is bound.
func (g *SharedGuard) Lock() error {
	if g.lock == nil {
		return fmt.Errorf("shared guard has no lock bound: %w", ErrInvalidState)
	}
	if g.owns {
		return fmt.Errorf("shared guard already owns its lock: %w", ErrAlreadyOwned)
	}
	if err := g.lock.LockShared(); err != nil {
		return err
	}
	g.owns = true
	return nil
}

// TryLock attempts shared mode without blocking and reports whether the
// guard now owns it. ErrBusy and ErrTooManyReaders are expected
// contention outcomes, not errors, and come back as a plain false.
func (g *SharedGuard) TryLock() (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("shared guard has no lock bound: %w", ErrInvalidState)
	}
	if g.owns {
		return false, fmt.Errorf("shared guard already owns its lock: %w", ErrAlreadyOwned)
	}
	err := g.lock.TryLockShared()
	switch {
	case err == nil:
		g.owns = true
		return true, nil
	case errors.Is(err, ErrBusy), errors.Is(err, ErrTooManyReaders):
		return false, nil
	default:
		return false, err
	}
}

// TryLockFor polls TryLock every PollInterval until d elapses. This is
// a spin-poll, not a queued wait: the bound can overshoot by up to one
// interval, and it is only economical when contention windows are short
// relative to the interval.
func (g *SharedGuard) TryLockFor(d time.Duration) (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("shared guard has no lock bound: %w", ErrInvalidState)
	}
	return g.TryLockUntil(g.lock.clock.Now().Add(d))
}

// TryLockUntil polls TryLock until the deadline passes.
func (g *SharedGuard) TryLockUntil(deadline time.Time) (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("shared guard has no lock bound: %w", ErrInvalidState)
	}
	clock := g.lock.clock
	interval := g.lock.pollInterval
	for {
		acquired, err := g.TryLock()
		if acquired || err != nil {
			return acquired, err
		}
		if !clock.Now().Before(deadline) {
			return false, nil
		}
		clock.Sleep(interval)
	}
}

// Unlock releases shared mode if the guard owns it and does nothing
// otherwise.
func (g *SharedGuard) Unlock() error {
	if !g.owns {
		return nil
	}
	if err := g.lock.Unlock(); err != nil {
		return err
	}
	g.owns = false
	return nil
}

// Release detaches the guard from its lock without releasing anything.
// The caller takes over the obligation to call Unlock on the returned
// lock. The guard owns nothing afterwards.
func (g *SharedGuard) Release() *ReadWriteLock {
	l := g.lock
	g.lock = nil
	g.owns = false
	return l
}

// Swap exchanges lock binding and ownership with other.
func (g *SharedGuard) Swap(other *SharedGuard) {
	g.lock, other.lock = other.lock, g.lock
	g.owns, other.owns = other.owns, g.owns
}

// Move transfers the binding and any ownership into a fresh guard,
// leaving g bound to nothing. Closing the moved-from guard releases
// nothing.
func (g *SharedGuard) Move() *SharedGuard {
	moved := &SharedGuard{lock: g.lock, owns: g.owns}
	g.lock = nil
	g.owns = false
	return moved
}

// MoveFrom releases whatever g currently owns, then takes over other's
// binding and ownership, leaving other bound to nothing.
func (g *SharedGuard) MoveFrom(other *SharedGuard) error {
	if g == other {
		return nil
	}
	if err := g.Unlock(); err != nil {
		return err
	}
	g.lock, g.owns = other.lock, other.owns
	other.lock = nil
	other.owns = false
	return nil
}

// OwnsLock reports whether the guard currently owns shared mode.
func (g *SharedGuard) OwnsLock() bool {
	return g.owns
}

// Close releases shared mode if still owned and detaches the guard.
// Safe to defer and to call more than once.
func (g *SharedGuard) Close() error {
	err := g.Unlock()
	g.lock = nil
	return err
}
