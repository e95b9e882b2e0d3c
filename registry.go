// registry.go keeps track of all ReadWriteLock instances for diagnostics.
package rwlock

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Global registry of named locks. New registers, Close unregisters.
var globalRegistry = &registry{
	locks: make(map[string]*ReadWriteLock),
}

type registry struct {
	mu    sync.Mutex
	locks map[string]*ReadWriteLock
}

func (r *registry) register(l *ReadWriteLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locks[l.name] = l
}

// unregister removes l, but never evicts a different lock that took over
// the same name.
func (r *registry) unregister(l *ReadWriteLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.locks[l.name] == l {
		delete(r.locks, l.name)
	}
}

// all returns registered locks sorted by name for consistent output.
func (r *registry) all() []*ReadWriteLock {
	r.mu.Lock()
	defer r.mu.Unlock()

	locks := make([]*ReadWriteLock, 0, len(r.locks))
	for _, l := range r.locks {
		locks = append(locks, l)
	}
	sort.Slice(locks, func(i, j int) bool {
		return locks[i].name < locks[j].name
	})
	return locks
}

// Lookup returns the registered lock with the given name, if any.
func Lookup(name string) (*ReadWriteLock, bool) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()
	l, ok := globalRegistry.locks[name]
	return l, ok
}

// LockFilter selects which holder classes DumpAllLockInfo renders.
type LockFilter uint8

const (
	ShowPendingReads LockFilter = 1 << iota
	ShowPendingWrites
	ShowActiveReads
	ShowActiveWrites
)

func (f LockFilter) matches(h HolderInfo) bool {
	var want LockFilter
	switch {
	case h.Pending && h.Mode == ModeShared:
		want = ShowPendingReads
	case h.Pending:
		want = ShowPendingWrites
	case h.Mode == ModeShared:
		want = ShowActiveReads
	default:
		want = ShowActiveWrites
	}
	return f&want != 0
}

// DumpAllLockInfo renders the holder state of every registered lock.
// With no filters everything is shown; otherwise filters are combined.
// Locks with nothing matching are omitted.
func DumpAllLockInfo(filters ...LockFilter) string {
	var combined LockFilter
	if len(filters) == 0 {
		combined = ShowPendingReads | ShowPendingWrites | ShowActiveReads | ShowActiveWrites
	} else {
		for _, f := range filters {
			combined |= f
		}
	}

	locks := globalRegistry.all()

	var b strings.Builder
	fmt.Fprintf(&b, "=== rwlock registry: %d locks ===\n", len(locks))
	for _, l := range locks {
		var lines []string
		for _, h := range l.HoldersInfo() {
			if !combined.matches(h) {
				continue
			}
			state := "active"
			if h.Pending {
				state = "pending"
			}
			lines = append(lines, fmt.Sprintf("  %s %s goroutine=%d count=%d since=%s",
				state, h.Mode, h.GoroutineID, h.Count, h.Since.Format(time.RFC3339Nano)))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n%s\n", l.Name(), strings.Join(lines, "\n"))
	}
	return b.String()
}
