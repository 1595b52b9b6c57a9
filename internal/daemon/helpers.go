package daemon

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"net"
	"syscall"

	"nds/internal/clientconn"
)

// randomClientID generates the 8-char id attached to each client
// endpoint (spec.md §3), independent of registry.NewID so the daemon
// loop never needs the uuid dependency just to label a socket.
func randomClientID() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "00000000"
	}
	return hex.EncodeToString(b[:])
}

// isWouldBlock reports a transient non-blocking read/write that should
// simply be retried on the next tick (spec.md §7).
func isWouldBlock(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK)
}

// isEOFLike reports a master-side read error that means the shell side
// of the pty has gone away for good.
func isEOFLike(err error) bool {
	return errors.Is(err, io.EOF) || errors.Is(err, syscall.EIO)
}

// isPipeClass reports a client write/read error that means the peer is
// gone and the client should be marked dead rather than retried
// (spec.md §7: broken pipe, connection reset, connection aborted, or a
// write that placed zero bytes).
func isPipeClass(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, clientconn.ErrZeroWrite) {
		return true
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNABORTED) {
		return true
	}
	return false
}
