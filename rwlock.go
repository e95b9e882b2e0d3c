package rwlock

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// DefaultMaxReaders is the shared-holder ceiling used when none is
// configured. It mirrors the reader limit of the underlying primitive;
// WithMaxReaders can lower it to something reachable.
const DefaultMaxReaders = 1 << 30

// DefaultPollInterval is the sleep between attempts inside the guards'
// timed acquisition loops.
const DefaultPollInterval = time.Millisecond

// ReadWriteLock layers explicit ownership tracking over sync.RWMutex.
// Any number of goroutines may hold it in shared mode at once; a single
// goroutine may hold it in exclusive mode with no other holder of any
// kind present. Fairness between readers and writers is whatever the
// underlying primitive provides; this type neither adds nor removes
// ordering guarantees.
//
// Everything the raw primitive leaves undefined comes back as an error
// instead: re-acquisition by a current holder is ErrAlreadyOwned, unlock
// by a goroutine that holds nothing is ErrInvalidState, and the shared
// ceiling is ErrTooManyReaders. On any failed acquisition the lock state
// is unchanged and the caller must not call Unlock for that attempt.
//
// Ownership is tracked per goroutine: the goroutine that acquired is the
// one that must unlock. Recursive shared acquisition by one goroutine is
// permitted and counted; recursive exclusive acquisition, and upgrades
// from shared to exclusive, are not.
//
// Callers who want release tied to scope should use SharedGuard and
// ExclusiveGuard instead of pairing Lock and Unlock by hand.
type ReadWriteLock struct {
	mu sync.RWMutex

	name         string
	maxReaders   int
	pollInterval time.Duration
	warnTimeout  time.Duration
	clock        clockwork.Clock
	logger       *zap.Logger

	// internal protects the ownership bookkeeping below.
	internal      sync.Mutex
	closed        bool
	writer        uint64 // goroutine holding exclusive mode, 0 if none
	writerSince   time.Time
	readers       map[uint64]*readerHold
	sharedTotal   int // held plus reserved shared slots
	pendingReads  map[uint64]time.Time
	pendingWrites map[uint64]time.Time

	stats lockStats
}

type readerHold struct {
	count int
	since time.Time
}

// New creates a ReadWriteLock and registers it under name in the global
// registry. The zero configuration is silent and effectively unbounded;
// chain the With* methods to tune it.
func New(name string) *ReadWriteLock {
	l := &ReadWriteLock{
		name:          name,
		maxReaders:    DefaultMaxReaders,
		pollInterval:  DefaultPollInterval,
		clock:         clockwork.NewRealClock(),
		logger:        zap.NewNop(),
		readers:       make(map[uint64]*readerHold),
		pendingReads:  make(map[uint64]time.Time),
		pendingWrites: make(map[uint64]time.Time),
	}
	globalRegistry.register(l)
	return l
}

// WithMaxReaders sets the ceiling on concurrent shared holders and
// returns the lock for chaining. Values below 1 are clamped to 1.
// In-flight blocking acquisitions count toward the ceiling.
func (l *ReadWriteLock) WithMaxReaders(n int) *ReadWriteLock {
	if n < 1 {
		n = 1
	}
	l.maxReaders = n
	return l
}

// WithPollInterval sets the sleep between guard timed-acquisition
// attempts and returns the lock for chaining. The right value depends on
// expected contention duration; non-positive values restore the default.
func (l *ReadWriteLock) WithPollInterval(d time.Duration) *ReadWriteLock {
	if d <= 0 {
		d = DefaultPollInterval
	}
	l.pollInterval = d
	return l
}

// WithWarnTimeout makes blocking acquisitions that wait longer than d
// emit a warning through the configured logger. Zero disables the
// warning (the default).
func (l *ReadWriteLock) WithWarnTimeout(d time.Duration) *ReadWriteLock {
	l.warnTimeout = d
	return l
}

// WithLogger sets the diagnostics sink and returns the lock for
// chaining. A nil logger silences diagnostics.
func (l *ReadWriteLock) WithLogger(logger *zap.Logger) *ReadWriteLock {
	if logger == nil {
		logger = zap.NewNop()
	}
	l.logger = logger
	return l
}

// WithClock sets the time source used for warn timeouts and guard
// polling and returns the lock for chaining.
func (l *ReadWriteLock) WithClock(clock clockwork.Clock) *ReadWriteLock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	l.clock = clock
	return l
}

// Close unregisters the lock. It fails with ErrInvalidState while any
// holder or blocked acquirer remains; every operation on a closed lock
// reports ErrInvalidState. Closing twice is a no-op.
func (l *ReadWriteLock) Close() error {
	l.internal.Lock()
	defer l.internal.Unlock()

	if l.closed {
		return nil
	}
	if l.writer != 0 || l.sharedTotal != 0 || len(l.pendingReads) != 0 || len(l.pendingWrites) != 0 {
		return fmt.Errorf("close %q with outstanding holders: %w", l.name, ErrInvalidState)
	}
	l.closed = true
	globalRegistry.unregister(l)
	return nil
}

// checkAcquire validates an acquisition attempt by gid. Caller holds
// l.internal.
func (l *ReadWriteLock) checkAcquire(gid uint64, mode LockMode) error {
	if l.closed {
		return fmt.Errorf("acquire %s on closed lock %q: %w", mode, l.name, ErrInvalidState)
	}
	if l.writer == gid && gid != 0 {
		return fmt.Errorf("acquire %s while holding exclusive: %w", mode, ErrAlreadyOwned)
	}
	if mode == ModeExclusive {
		if _, ok := l.readers[gid]; ok {
			return fmt.Errorf("acquire exclusive while holding shared: %w", ErrAlreadyOwned)
		}
	}
	return nil
}

// blockOn runs acquire, which blocks on the underlying primitive. When a
// warn timeout is configured and the wait outlives it, a warning is
// emitted and the wait counts as contention.
func (l *ReadWriteLock) blockOn(acquire func(), gid uint64, mode LockMode, start time.Time) {
	if l.warnTimeout <= 0 {
		acquire()
		return
	}

	done := make(chan struct{})
	go func() {
		acquire()
		close(done)
	}()

	select {
	case <-done:
	case <-l.clock.After(l.warnTimeout):
		l.logger.Warn("slow lock acquisition",
			zap.String("lock", l.name),
			zap.Stringer("mode", mode),
			zap.Uint64("goroutine", gid),
			zap.Duration("waiting", l.clock.Since(start)))
		l.stats.contentions.Add(1)
		<-done
	}
}

// Lock acquires exclusive mode, blocking until no reader and no writer
// remains. It fails with ErrAlreadyOwned if the calling goroutine holds
// the lock in either mode, and ErrInvalidState after Close.
func (l *ReadWriteLock) Lock() error {
	gid := GoroutineID()

	l.internal.Lock()
	if err := l.checkAcquire(gid, ModeExclusive); err != nil {
		l.internal.Unlock()
		return err
	}
	start := l.clock.Now()
	l.pendingWrites[gid] = start
	l.internal.Unlock()

	l.blockOn(l.mu.Lock, gid, ModeExclusive, start)

	l.internal.Lock()
	delete(l.pendingWrites, gid)
	l.writer = gid
	l.writerSince = l.clock.Now()
	l.internal.Unlock()

	l.stats.exclusiveAcquired.Add(1)
	l.stats.recordWait(l.clock.Since(start))
	return nil
}

// TryLock acquires exclusive mode without blocking. It fails with
// ErrBusy when any holder is present, with the same ErrAlreadyOwned and
// ErrInvalidState conditions as Lock.
func (l *ReadWriteLock) TryLock() error {
	gid := GoroutineID()

	l.internal.Lock()
	defer l.internal.Unlock()

	if err := l.checkAcquire(gid, ModeExclusive); err != nil {
		return err
	}
	if !l.mu.TryLock() {
		l.stats.contentions.Add(1)
		return fmt.Errorf("acquire exclusive: %w", ErrBusy)
	}
	l.writer = gid
	l.writerSince = l.clock.Now()
	l.stats.exclusiveAcquired.Add(1)
	return nil
}

// LockShared acquires shared mode, blocking while a writer holds the
// lock. It fails with ErrAlreadyOwned if the calling goroutine holds
// exclusive mode, ErrTooManyReaders at the shared ceiling, and
// ErrInvalidState after Close. Repeated shared acquisition by the same
// goroutine nests; each call needs a matching Unlock.
func (l *ReadWriteLock) LockShared() error {
	gid := GoroutineID()

	l.internal.Lock()
	if err := l.checkAcquire(gid, ModeShared); err != nil {
		l.internal.Unlock()
		return err
	}
	if l.sharedTotal >= l.maxReaders {
		l.internal.Unlock()
		return fmt.Errorf("acquire shared: %w", ErrTooManyReaders)
	}
	if h, ok := l.readers[gid]; ok {
		// Nested hold. The goroutine already pins the primitive in read
		// mode; re-entering it behind a pending writer would deadlock, so
		// nesting is granted in the bookkeeping layer alone.
		h.count++
		l.sharedTotal++
		l.internal.Unlock()
		l.stats.sharedAcquired.Add(1)
		return nil
	}
	// Reserve the slot before blocking so concurrent acquirers can never
	// oversubscribe the ceiling.
	l.sharedTotal++
	start := l.clock.Now()
	l.pendingReads[gid] = start
	l.internal.Unlock()

	l.blockOn(l.mu.RLock, gid, ModeShared, start)

	l.internal.Lock()
	delete(l.pendingReads, gid)
	l.readers[gid] = &readerHold{count: 1, since: l.clock.Now()}
	l.internal.Unlock()

	l.stats.sharedAcquired.Add(1)
	l.stats.recordWait(l.clock.Since(start))
	return nil
}

// TryLockShared acquires shared mode without blocking. It fails with
// ErrBusy when a writer holds the lock or the primitive is prioritizing
// a pending writer, with the same ErrAlreadyOwned, ErrTooManyReaders and
// ErrInvalidState conditions as LockShared.
func (l *ReadWriteLock) TryLockShared() error {
	gid := GoroutineID()

	l.internal.Lock()
	defer l.internal.Unlock()

	if err := l.checkAcquire(gid, ModeShared); err != nil {
		return err
	}
	if l.sharedTotal >= l.maxReaders {
		return fmt.Errorf("acquire shared: %w", ErrTooManyReaders)
	}
	if h, ok := l.readers[gid]; ok {
		// Nested hold, granted without re-entering the primitive.
		h.count++
		l.sharedTotal++
		l.stats.sharedAcquired.Add(1)
		return nil
	}
	if !l.mu.TryRLock() {
		l.stats.contentions.Add(1)
		return fmt.Errorf("acquire shared: %w", ErrBusy)
	}
	l.sharedTotal++
	l.readers[gid] = &readerHold{count: 1, since: l.clock.Now()}
	l.stats.sharedAcquired.Add(1)
	return nil
}

// Unlock releases one unit of ownership held by the calling goroutine,
// shared or exclusive inferred from what it holds. A goroutine that
// holds nothing gets ErrInvalidState with the lock state untouched; the
// raw primitive leaves that case undefined, so it is reported here
// instead of replicated.
func (l *ReadWriteLock) Unlock() error {
	gid := GoroutineID()

	l.internal.Lock()
	defer l.internal.Unlock()

	if l.closed {
		return fmt.Errorf("unlock closed lock %q: %w", l.name, ErrInvalidState)
	}
	if l.writer == gid && gid != 0 {
		l.writer = 0
		l.writerSince = time.Time{}
		l.mu.Unlock()
		return nil
	}
	if h, ok := l.readers[gid]; ok {
		h.count--
		l.sharedTotal--
		// The goroutine holds the primitive exactly once however deep its
		// nesting; release it only when the last nested hold goes.
		if h.count == 0 {
			delete(l.readers, gid)
			l.mu.RUnlock()
		}
		return nil
	}

	l.stats.invalidUnlocks.Add(1)
	if warnOnce(l.name + "/unlock-without-ownership") {
		l.logger.Warn("unlock without ownership",
			zap.String("lock", l.name),
			zap.Uint64("goroutine", gid))
	}
	return fmt.Errorf("unlock %q by goroutine %d holding nothing: %w", l.name, gid, ErrInvalidState)
}

// Name returns the registry name of the lock.
func (l *ReadWriteLock) Name() string {
	return l.name
}

// PollInterval returns the configured guard poll interval.
func (l *ReadWriteLock) PollInterval() time.Duration {
	return l.pollInterval
}

// Clock returns the configured time source.
func (l *ReadWriteLock) Clock() clockwork.Clock {
	return l.clock
}

// ActiveReaders returns the number of shared holds currently in effect,
// counting recursive holds individually.
func (l *ReadWriteLock) ActiveReaders() int {
	l.internal.Lock()
	defer l.internal.Unlock()

	n := 0
	for _, h := range l.readers {
		n += h.count
	}
	return n
}

// IsWriteLocked reports whether a goroutine holds exclusive mode.
func (l *ReadWriteLock) IsWriteLocked() bool {
	l.internal.Lock()
	defer l.internal.Unlock()
	return l.writer != 0
}

// PendingReaders returns the number of goroutines blocked in LockShared.
func (l *ReadWriteLock) PendingReaders() int {
	l.internal.Lock()
	defer l.internal.Unlock()
	return len(l.pendingReads)
}

// PendingWriters returns the number of goroutines blocked in Lock.
func (l *ReadWriteLock) PendingWriters() int {
	l.internal.Lock()
	defer l.internal.Unlock()
	return len(l.pendingWrites)
}

// Stats returns a snapshot of the lock's counters.
func (l *ReadWriteLock) Stats() Stats {
	return l.stats.snapshot()
}

// HoldersInfo returns records for every active and pending acquisition,
// sorted by goroutine id with active holders first.
func (l *ReadWriteLock) HoldersInfo() []HolderInfo {
	l.internal.Lock()
	defer l.internal.Unlock()

	infos := make([]HolderInfo, 0, len(l.readers)+len(l.pendingReads)+len(l.pendingWrites)+1)
	if l.writer != 0 {
		infos = append(infos, HolderInfo{
			Mode:        ModeExclusive,
			GoroutineID: l.writer,
			Since:       l.writerSince,
			Count:       1,
		})
	}
	for gid, h := range l.readers {
		infos = append(infos, HolderInfo{
			Mode:        ModeShared,
			GoroutineID: gid,
			Since:       h.since,
			Count:       h.count,
		})
	}
	for gid, since := range l.pendingReads {
		infos = append(infos, HolderInfo{
			Mode:        ModeShared,
			GoroutineID: gid,
			Since:       since,
			Pending:     true,
		})
	}
	for gid, since := range l.pendingWrites {
		infos = append(infos, HolderInfo{
			Mode:        ModeExclusive,
			GoroutineID: gid,
			Since:       since,
			Pending:     true,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Pending != infos[j].Pending {
			return !infos[i].Pending
		}
		return infos[i].GoroutineID < infos[j].GoroutineID
	})
	return infos
}
