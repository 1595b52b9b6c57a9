// Package clientconn models a single attached client's daemon-side
// state: its socket, dimensions, and a backpressure queue for output
// the daemon could not place in a single non-blocking write (spec.md
// §4.6).
package clientconn

import (
	"errors"
	"io"
	"net"
	"sync"
	"time"
)

// DefaultPendingCap bounds pending_output growth (spec.md §4.6, §9).
const DefaultPendingCap = 4 * 1024 * 1024

// writeWait is the write deadline budget. A deadline that has already
// passed fails the write before any byte is attempted, so each write
// gets this short window instead.
const writeWait = time.Millisecond

// ErrZeroWrite is reported when a write placed zero bytes though some
// were requested — treated like a pipe-class error by callers.
var ErrZeroWrite = errors.New("clientconn: zero-write")

// Client is a single attached client's daemon-side state.
type Client struct {
	ID         string
	Conn       net.Conn
	Cols, Rows int
	ConnectedAt time.Time

	mu         sync.Mutex
	pending    []byte
	pendingCap int

	// Dead marks a client queued for removal by the daemon loop (e.g.
	// after a pipe-class error or a pending_output cap breach). The daemon
	// loop is single-threaded, so no synchronization is needed here.
	Dead bool

	// Residual holds the tail of a client read that control.Scan could
	// not yet close into a complete envelope (truncation closure,
	// spec.md §8 invariant #5). The daemon loop prepends it to the next
	// read from this client instead of discarding it.
	Residual []byte
}

func New(id string, conn net.Conn, cols, rows int) *Client {
	return &Client{
		ID:          id,
		Conn:        conn,
		Cols:        cols,
		Rows:        rows,
		ConnectedAt: time.Now(),
		pendingCap:  DefaultPendingCap,
	}
}

// Send queues and/or writes data, waiting at most writeWait. If pending
// output already exists, data is appended and a single flush is
// attempted; otherwise a direct write is tried and any unwritten
// remainder is queued.
func (c *Client) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) > 0 {
		c.pending = append(c.pending, data...)
		return c.flushLocked()
	}

	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	n, err := c.Conn.Write(data)
	if err != nil {
		if isWouldBlock(err) {
			c.pending = append(c.pending, data[n:]...)
			return c.capCheckLocked()
		}
		return classify(err)
	}
	if n == 0 && len(data) > 0 {
		return ErrZeroWrite
	}
	if n < len(data) {
		c.pending = append(c.pending, data[n:]...)
		return c.capCheckLocked()
	}
	return nil
}

// FlushPending drains pending_output with non-blocking writes. Stops on
// would-block, continues on interrupted, propagates other errors.
func (c *Client) FlushPending() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushLocked()
}

func (c *Client) flushLocked() error {
	for len(c.pending) > 0 {
		c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		n, err := c.Conn.Write(c.pending)
		if n > 0 {
			c.pending = c.pending[n:]
		}
		if err != nil {
			if isInterrupted(err) {
				continue
			}
			if isWouldBlock(err) {
				return c.capCheckLocked()
			}
			return classify(err)
		}
	}
	return nil
}

func (c *Client) capCheckLocked() error {
	if len(c.pending) > c.pendingCap {
		c.Dead = true
		return errors.New("clientconn: pending_output cap exceeded")
	}
	return nil
}

// PendingLen reports the current backlog size, for tests/metrics.
func (c *Client) PendingLen() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.Conn.Close() }

func isWouldBlock(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, io.ErrShortWrite)
}

func isInterrupted(err error) bool {
	return errors.Is(err, io.ErrShortWrite)
}

func classify(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return err
	}
	return err
}
