package rwlock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExclusiveGuard(t *testing.T) {
	l := New("exclusive-guard-new")

	g, err := NewExclusiveGuard(l)
	require.NoError(t, err)
	require.True(t, g.OwnsLock())
	require.True(t, l.IsWriteLocked())

	require.NoError(t, g.Close())
	require.False(t, g.OwnsLock())
	require.False(t, l.IsWriteLocked())

	require.NoError(t, g.Close())
	require.NoError(t, l.Close())
}

func TestTryExclusiveGuardContention(t *testing.T) {
	l := New("exclusive-guard-try-busy")

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, l.LockShared())
		close(locked)
		<-release
		assert.NoError(t, l.Unlock())
	}()
	<-locked

	// A reader elsewhere is contention, not an error.
	g, err := TryExclusiveGuard(l)
	require.NoError(t, err)
	require.False(t, g.OwnsLock())

	close(release)
	<-done

	ok, err := g.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, g.Close())
	require.NoError(t, l.Close())
}

func TestTryExclusiveGuardAlreadyOwnedIsError(t *testing.T) {
	l := New("exclusive-guard-already-owned")

	require.NoError(t, l.LockShared())

	// Holding shared on this goroutine makes the exclusive attempt a
	// programmer error, not a Busy outcome.
	g, err := TryExclusiveGuard(l)
	require.ErrorIs(t, err, ErrAlreadyOwned)
	require.Nil(t, g)

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Close())
}

func TestExclusiveGuardMove(t *testing.T) {
	l := New("exclusive-guard-move")

	g, err := NewExclusiveGuard(l)
	require.NoError(t, err)

	moved := g.Move()
	require.False(t, g.OwnsLock())
	require.True(t, moved.OwnsLock())

	require.NoError(t, g.Close())
	require.True(t, l.IsWriteLocked())

	require.NoError(t, moved.Close())
	require.False(t, l.IsWriteLocked())
	require.NoError(t, l.Close())
}

func TestExclusiveGuardRelease(t *testing.T) {
	l := New("exclusive-guard-release")

	g, err := NewExclusiveGuard(l)
	require.NoError(t, err)

	got := g.Release()
	require.Same(t, l, got)
	require.NoError(t, g.Close())
	require.True(t, l.IsWriteLocked())

	require.NoError(t, got.Unlock())
	require.False(t, l.IsWriteLocked())
	require.NoError(t, l.Close())
}

func TestExclusiveGuardSwap(t *testing.T) {
	l := New("exclusive-guard-swap")

	owning, err := NewExclusiveGuard(l)
	require.NoError(t, err)
	empty := DeferExclusiveGuard(l)

	owning.Swap(empty)
	require.False(t, owning.OwnsLock())
	require.True(t, empty.OwnsLock())

	require.NoError(t, empty.Close())
	require.NoError(t, owning.Close())
	require.NoError(t, l.Close())
}

func TestExclusiveGuardMoveFrom(t *testing.T) {
	a := New("exclusive-guard-movefrom-a")
	b := New("exclusive-guard-movefrom-b")

	dst, err := NewExclusiveGuard(a)
	require.NoError(t, err)
	src, err := NewExclusiveGuard(b)
	require.NoError(t, err)

	require.NoError(t, dst.MoveFrom(src))
	require.False(t, a.IsWriteLocked())
	require.True(t, b.IsWriteLocked())
	require.True(t, dst.OwnsLock())
	require.False(t, src.OwnsLock())

	require.NoError(t, dst.Close())
	require.NoError(t, a.Close())
	require.NoError(t, b.Close())
}

func TestExclusiveGuardTimedAcquisition(t *testing.T) {
	l := New("exclusive-guard-timed").WithPollInterval(time.Millisecond)

	locked := make(chan struct{})
	release := make(chan struct{})
	holderDone := make(chan struct{})
	go func() {
		defer close(holderDone)
		assert.NoError(t, l.Lock())
		close(locked)
		<-release
		assert.NoError(t, l.Unlock())
	}()
	<-locked

	// Bound elapses while the holder keeps the lock.
	g := DeferExclusiveGuard(l)
	ok, err := g.TryLockFor(10 * time.Millisecond)
	require.NoError(t, err)
	require.False(t, ok)

	// Holder releases well inside the next bound.
	go func() {
		time.Sleep(10 * time.Millisecond)
		close(release)
	}()
	ok, err = g.TryLockFor(5 * time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, g.Close())
	<-holderDone
	require.NoError(t, l.Close())
}

func TestExclusiveGuardVisibility(t *testing.T) {
	l := New("exclusive-guard-visibility")
	state := map[string]int{"v": 1}

	w, err := NewExclusiveGuard(l)
	require.NoError(t, err)
	state["v"] = 2
	require.NoError(t, w.Close())

	done := make(chan struct{})
	go func() {
		defer close(done)
		r, err := NewSharedGuard(l)
		if !assert.NoError(t, err) {
			return
		}
		assert.Equal(t, 2, state["v"])
		assert.NoError(t, r.Close())
	}()
	<-done
	require.NoError(t, l.Close())
}
