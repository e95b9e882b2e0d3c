package rwlock

import "time"

// LockMode is the mode of a lock request or holder.
type LockMode int

const (
	ModeShared LockMode = iota
	ModeExclusive
)

// stringer for LockMode
func (m LockMode) String() string {
	switch m {
	case ModeShared:
		return "shared"
	case ModeExclusive:
		return "exclusive"
	default:
		return "unknown"
	}
}

// HolderInfo describes one pending or active acquisition of a lock.
// Snapshots of these records feed DumpAllLockInfo and tests.
type HolderInfo struct {
	Mode        LockMode
	GoroutineID uint64
	Since       time.Time
	Pending     bool
	Count       int // shared holds by this goroutine; 1 for a writer, 0 while pending
}
