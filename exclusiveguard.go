package rwlock

import (
	"errors"
	"fmt"
	"time"
)

// ExclusiveGuard scopes one exclusive acquisition of a ReadWriteLock.
// Same move-only contract as SharedGuard, substituting the exclusive
// operations: while it owns the lock, no reader and no other writer can
// acquire it.
type ExclusiveGuard struct {
	lock *ReadWriteLock
	owns bool
}

// NewExclusiveGuard blocks until exclusive mode is acquired. On any
// failure no guard is returned and nothing is owned.
func NewExclusiveGuard(l *ReadWriteLock) (*ExclusiveGuard, error) {
	g := DeferExclusiveGuard(l)
	if err := g.Lock(); err != nil {
		return nil, err
	}
	return g, nil
}

// TryExclusiveGuard attempts exclusive mode without blocking.
// Contention yields a non-owning guard with a nil error; programmer
// errors (ErrAlreadyOwned, ErrInvalidState) are returned with no guard.
func TryExclusiveGuard(l *ReadWriteLock) (*ExclusiveGuard, error) {
	g := DeferExclusiveGuard(l)
	if _, err := g.TryLock(); err != nil {
		return nil, err
	}
	return g, nil
}

// DeferExclusiveGuard binds a guard to l without acquiring anything.
func DeferExclusiveGuard(l *ReadWriteLock) *ExclusiveGuard {
	return &ExclusiveGuard{lock: l}
}

// Lock blocks until the guard owns exclusive mode. Failure modes are
// those of ReadWriteLock.Lock, plus ErrAlreadyOwned when the guard
// already owns and ErrInvalidState when no lock is bound.
func (g *ExclusiveGuard) Lock() error {
	if g.lock == nil {
		return fmt.Errorf("exclusive guard has no lock bound: %w", ErrInvalidState)
	}
	if g.owns {
		return fmt.Errorf("exclusive guard already owns its lock: %w", ErrAlreadyOwned)
	}
	if err := g.lock.Lock(); err != nil {
		return err
	}
	g.owns = true
	return nil
}

// TryLock attempts exclusive mode without blocking and reports whether
// the guard now owns it. ErrBusy is an expected contention outcome, not
// an error, and comes back as a plain false.
func (g *ExclusiveGuard) TryLock() (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("exclusive guard has no lock bound: %w", ErrInvalidState)
	}
	if g.owns {
		return false, fmt.Errorf("exclusive guard already owns its lock: %w", ErrAlreadyOwned)
	}
	err := g.lock.TryLock()
	switch {
	case err == nil:
		g.owns = true
		return true, nil
	case errors.Is(err, ErrBusy):
		return false, nil
	default:
		return false, err
	}
}

// TryLockFor polls TryLock every PollInterval until d elapses. Same
// spin-poll tradeoff as SharedGuard.TryLockFor.
func (g *ExclusiveGuard) TryLockFor(d time.Duration) (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("exclusive guard has no lock bound: %w", ErrInvalidState)
	}
	return g.TryLockUntil(g.lock.clock.Now().Add(d))
}

// TryLockUntil polls TryLock until the deadline passes.
func (g *ExclusiveGuard) TryLockUntil(deadline time.Time) (bool, error) {
	if g.lock == nil {
		return false, fmt.Errorf("exclusive guard has no lock bound: %w", ErrInvalidState)
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

// Unlock releases exclusive mode if the guard owns it and does nothing
// otherwise.
func (g *ExclusiveGuard) Unlock() error {
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
func (g *ExclusiveGuard) Release() *ReadWriteLock {
	l := g.lock
	g.lock = nil
	g.owns = false
	return l
}

// Swap exchanges lock binding and ownership with other.
func (g *ExclusiveGuard) Swap(other *ExclusiveGuard) {
	g.lock, other.lock = other.lock, g.lock
	g.owns, other.owns = other.owns, g.owns
}

// Move transfers the binding and any ownership into a fresh guard,
// leaving g bound to nothing. Closing the moved-from guard releases
// nothing.
func (g *ExclusiveGuard) Move() *ExclusiveGuard {
	moved := &ExclusiveGuard{lock: g.lock, owns: g.owns}
	g.lock = nil
	g.owns = false
	return moved
}

// MoveFrom releases whatever g currently owns, then takes over other's
// binding and ownership, leaving other bound to nothing.
func (g *ExclusiveGuard) MoveFrom(other *ExclusiveGuard) error {
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

// OwnsLock reports whether the guard currently owns exclusive mode.
func (g *ExclusiveGuard) OwnsLock() bool {
	return g.owns
}

// Close releases exclusive mode if still owned and detaches the guard.
// Safe to defer and to call more than once.
func (g *ExclusiveGuard) Close() error {
	err := g.Unlock()
	g.lock = nil
	return err
}
