package rwlock

import (
	"sync/atomic"
	"time"
)

// lockStats tracks acquisition counters with atomics so snapshot readers
// never contend on the internal bookkeeping mutex.
type lockStats struct {
	sharedAcquired    atomic.Int64
	exclusiveAcquired atomic.Int64
	contentions       atomic.Int64
	invalidUnlocks    atomic.Int64
	maxWaitNanos      atomic.Int64
}

func (s *lockStats) recordWait(wait time.Duration) {
	for {
		current := s.maxWaitNanos.Load()
		if int64(wait) <= current {
			return
		}
		if s.maxWaitNanos.CompareAndSwap(current, int64(wait)) {
			return
		}
	}
}

// Stats is a point-in-time snapshot of a lock's counters.
type Stats struct {
	// SharedAcquired and ExclusiveAcquired count successful acquisitions
	// per mode.
	SharedAcquired    int64
	ExclusiveAcquired int64
	// Contentions counts failed try-acquires and blocking acquires that
	// outlived the warn timeout.
	Contentions int64
	// InvalidUnlocks counts Unlock calls by goroutines that held nothing.
	InvalidUnlocks int64
	// MaxWait is the longest observed acquisition wait.
	MaxWait time.Duration
}

func (s *lockStats) snapshot() Stats {
	return Stats{
		SharedAcquired:    s.sharedAcquired.Load(),
		ExclusiveAcquired: s.exclusiveAcquired.Load(),
		Contentions:       s.contentions.Load(),
		InvalidUnlocks:    s.invalidUnlocks.Load(),
		MaxWait:           time.Duration(s.maxWaitNanos.Load()),
	}
}
