package rwlock

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLockModeString(t *testing.T) {
	require.Equal(t, "shared", ModeShared.String())
	require.Equal(t, "exclusive", ModeExclusive.String())
	require.Equal(t, "unknown", LockMode(7).String())
}
