package rwlock

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	l := New("registry-lookup")

	got, ok := Lookup("registry-lookup")
	require.True(t, ok)
	require.Same(t, l, got)

	require.NoError(t, l.Close())
	_, ok = Lookup("registry-lookup")
	require.False(t, ok)
}

func TestLookupDuplicateName(t *testing.T) {
	first := New("registry-duplicate")
	second := New("registry-duplicate")

	// The newest registrant wins the name, and closing the older lock
	// must not evict it.
	got, ok := Lookup("registry-duplicate")
	require.True(t, ok)
	require.Same(t, second, got)

	require.NoError(t, first.Close())
	got, ok = Lookup("registry-duplicate")
	require.True(t, ok)
	require.Same(t, second, got)

	require.NoError(t, second.Close())
	_, ok = Lookup("registry-duplicate")
	require.False(t, ok)
}

func TestDumpAllLockInfoActive(t *testing.T) {
	l := New("registry-dump-active")
	require.NoError(t, l.LockShared())

	dump := DumpAllLockInfo()
	require.Contains(t, dump, "registry-dump-active:")
	require.Contains(t, dump, "active shared")
	require.Contains(t, dump, fmt.Sprintf("goroutine=%d", GoroutineID()))

	// A writes-only filter hides the shared holder entirely.
	filtered := DumpAllLockInfo(ShowActiveWrites, ShowPendingWrites)
	require.NotContains(t, filtered, "registry-dump-active:")

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Close())
}

func TestDumpAllLockInfoPendingWriter(t *testing.T) {
	l := New("registry-dump-pending")
	require.NoError(t, l.LockShared())

	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, l.Lock())
		assert.NoError(t, l.Unlock())
	}()
	waitUntil(t, func() bool { return l.PendingWriters() == 1 })

	dump := DumpAllLockInfo(ShowPendingWrites)
	require.Contains(t, dump, "registry-dump-pending:")
	require.Contains(t, dump, "pending exclusive")

	require.NoError(t, l.Unlock())
	<-done
	require.NoError(t, l.Close())
}
