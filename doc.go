/*
Package rwlock provides a reader-writer lock with explicit ownership
tracking and a pair of scope-bound guard types that manage it.

Any number of goroutines may hold a ReadWriteLock in shared mode at
once; a single goroutine may hold it exclusively with no reader and no
other writer present. Where the underlying primitive leaves misuse
undefined, this package reports it: re-acquisition by a current holder
is ErrAlreadyOwned, unlocking without ownership is ErrInvalidState, and
the shared-holder ceiling is ErrTooManyReaders. Callers distinguish the
cases with errors.Is instead of comparing numeric codes.

SharedGuard and ExclusiveGuard tie release to scope:

	l := rwlock.New("config-store")
	defer l.Close()

	g, err := rwlock.NewSharedGuard(l)
	if err != nil {
		return err
	}
	defer g.Close()
	// ... read the protected state ...

Guards are move-only: Move, MoveFrom and Swap transfer the release
obligation so exactly one live guard can ever release a given
acquisition, and a moved-from guard owns nothing. Release detaches a
guard while leaving the lock held, handing the unlock obligation back
to the caller.

The Try* guard methods never block and treat contention as a boolean
"not acquired" rather than an error. TryLockFor and TryLockUntil bound
the wait by polling at the lock's configured interval; this is a
deliberate spin-poll, so deadlines can overshoot by up to one interval.

Every lock registers itself under its name; Lookup finds registered
locks and DumpAllLockInfo renders the pending and active holders of all
of them, which helps when hunting a stuck writer. Diagnostics (slow
acquisitions past WithWarnTimeout, unlock misuse) go to the zap logger
configured with WithLogger and are silent by default.
*/
package rwlock
