package rwlock

import (
	"bytes"
	"runtime"
	"sync"
)

// Pool of reusable buffers to minimize allocations during stack header
// capture. The header line carrying the goroutine id fits in 64 bytes.
var stackBufPool = sync.Pool{
	New: func() interface{} {
		b := make([]byte, 64)
		return &b // Return pointer to prevent slice copying
	},
}

var goroutineHeader = []byte("goroutine ")

// GoroutineID returns the runtime id of the calling goroutine, parsed
// from the first line of its stack trace ("goroutine 123 [running]:").
// All ownership bookkeeping in this package keys on this id.
func GoroutineID() uint64 {
	buf := *(stackBufPool.Get().(*[]byte))
	defer stackBufPool.Put(&buf)

	// Minimal stack capture; only the first line is needed.
	n := runtime.Stack(buf, false)
	line := buf[:n]
	if !bytes.HasPrefix(line, goroutineHeader) {
		return 0
	}
	line = line[len(goroutineHeader):]

	var id uint64
	for _, c := range line {
		if c < '0' || c > '9' {
			break
		}
		id = id*10 + uint64(c-'0')
	}
	return id
}
