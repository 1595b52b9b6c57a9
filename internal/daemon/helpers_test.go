package daemon

import (
	"errors"
	"io"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRandomClientIDIsEightHexChars(t *testing.T) {
	id := randomClientID()
	require.Len(t, id, 8)
	for _, r := range id {
		require.True(t, (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f'), "unexpected char %q", r)
	}
}

func TestRandomClientIDVaries(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		seen[randomClientID()] = true
	}
	require.Greater(t, len(seen), 1, "expected distinct ids across calls")
}

func TestIsPipeClassErrors(t *testing.T) {
	require.True(t, isPipeClass(io.EOF))
	require.True(t, isPipeClass(net.ErrClosed))
	require.True(t, isPipeClass(syscall.EPIPE))
	require.True(t, isPipeClass(syscall.ECONNRESET))
	require.False(t, isPipeClass(nil))
	require.False(t, isPipeClass(errors.New("some other error")))
}

func TestIsEOFLike(t *testing.T) {
	require.True(t, isEOFLike(io.EOF))
	require.True(t, isEOFLike(syscall.EIO))
	require.False(t, isEOFLike(errors.New("some other error")))
}
