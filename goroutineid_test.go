package rwlock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGoroutineIDStable(t *testing.T) {
	id1 := GoroutineID()
	id2 := GoroutineID()

	require.NotZero(t, id1)
	require.Equal(t, id1, id2)
}

func TestGoroutineIDDistinct(t *testing.T) {
	const n = 4
	main := GoroutineID()

	ids := make(chan uint64, n)
	block := make(chan struct{})
	for i := 0; i < n; i++ {
		go func() {
			ids <- GoroutineID()
			<-block
		}()
	}

	// Goroutines are kept alive until all ids are collected so the
	// runtime cannot reuse an id mid-test.
	seen := map[uint64]bool{main: true}
	for i := 0; i < n; i++ {
		id := <-ids
		require.NotZero(t, id)
		require.False(t, seen[id], "goroutine id %d seen twice", id)
		seen[id] = true
	}
	close(block)
}

func BenchmarkGoroutineID(b *testing.B) {
	for i := 0; i < b.N; i++ {
		GoroutineID()
	}
}
