package rwlock

import "errors"

// The error taxonomy of the package. Acquisition and release paths wrap
// these sentinels with context, so callers match with errors.Is.
//
// The guard Try* methods translate the two contention outcomes (ErrBusy,
// ErrTooManyReaders) into a plain "not acquired" result; only programmer
// errors surface as errors at that layer.
var (
	// ErrAlreadyOwned reports a recursive or incompatible re-acquisition
	// by a goroutine that already holds the lock: exclusive-on-exclusive,
	// exclusive-while-shared, or shared-while-exclusive. Retrying cannot
	// succeed; the caller would deadlock against itself.
	ErrAlreadyOwned = errors.New("rwlock: lock already owned by calling goroutine")

	// ErrBusy reports that the lock is held in a mode that excludes the
	// requested one, or that a pending writer blocks new readers.
	ErrBusy = errors.New("rwlock: lock busy")

	// ErrTooManyReaders reports that the shared-holder ceiling is reached.
	ErrTooManyReaders = errors.New("rwlock: shared holder limit reached")

	// ErrInvalidState reports use of a closed lock, a guard with no lock
	// bound, or an unlock by a goroutine that holds nothing.
	ErrInvalidState = errors.New("rwlock: invalid lock state")
)
