package rwlock

import "sync"

// Global map of misuse warnings already emitted, so a buggy caller in a
// loop cannot flood the log.
var warnedKeys = &sync.Map{}

// warnOnce reports whether key is seen for the first time during the
// process lifetime.
func warnOnce(key string) bool {
	_, loaded := warnedKeys.LoadOrStore(key, struct{}{})
	return !loaded
}

// resetWarnOnce clears all tracked keys (mainly for testing).
func resetWarnOnce() {
	warnedKeys = &sync.Map{}
}
