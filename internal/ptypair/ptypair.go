// Package ptypair allocates master/slave pseudoterminal file descriptor
// pairs and applies their initial window size.
package ptypair

import (
	"fmt"
	"os"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// Open allocates a new master/slave pty pair, sets the slave's initial
// window size to (cols, rows), and puts the master fd in non-blocking
// mode. On any failure the master is closed and a nil, nil pair is
// returned with the slave fd guaranteed not to leak either.
func Open(cols, rows int) (master, slave *os.File, err error) {
	master, slave, err = pty.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("ptypair: open: %w", err)
	}

	if err := pty.Setsize(slave, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, fmt.Errorf("ptypair: setsize: %w", err)
	}

	if err := unix.SetNonblock(int(master.Fd()), true); err != nil {
		master.Close()
		slave.Close()
		return nil, nil, fmt.Errorf("ptypair: set nonblocking: %w", err)
	}

	return master, slave, nil
}

// Setsize resizes an already-open pty (master or slave fd refers to the
// same underlying terminal) to (cols, rows).
func Setsize(f *os.File, cols, rows int) error {
	return pty.Setsize(f, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
}
