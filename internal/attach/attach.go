// Package attach implements the attach-side client (spec.md §4.8): raw
// terminal handoff, the tilde-escape recognizer, a resize monitor, and
// a background socket-to-stdout pump, grounded on jaigner-hub-mhist's
// Client/relayStdin/relaySocket split and original_source/src/pty.rs's
// raw-mode setup and escape_state loop.
package attach

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"nds/internal/control"
	"nds/internal/debuglog"
	"nds/internal/picker"
	"nds/internal/scrollback"
)

// maxScrollback bounds the in-memory buffer of everything received
// during this attach (spec.md §4.8, §6 glossary).
const maxScrollback = 10 * 1024 * 1024

const socketReadBufSize = 16 * 1024

// resizePollInterval is how often the resize monitor samples the
// caller's tty dimensions.
const resizePollInterval = 250 * time.Millisecond

// stdinPollInterval bounds the main loop's stdin poll, giving the
// escape recognizer's timeout and the running flag a chance to be
// observed promptly (spec.md §4.8 step 6).
const stdinPollInterval = 10 * time.Millisecond

// Result is what the attach loop finished with.
type Result struct {
	// SwitchTarget is non-empty when the user asked to switch sessions;
	// the caller begins a fresh attach to it without returning to the
	// invoking shell (spec.md §4.9).
	SwitchTarget string
}

// session bundles everything the attach loop and its helpers share.
type session struct {
	conn      net.Conn
	fd        int
	cookedSt  *term.State
	sessionID string
	pump      *socketPump
}

// Run attaches to a session socket, pumps I/O until detach/disconnect,
// and restores the caller's terminal before returning. sessionID is
// used only to exclude the current session from the picker.
func Run(conn net.Conn, sessionID string) (Result, error) {
	fd := int(os.Stdin.Fd())

	cookedSt, err := term.GetState(fd)
	if err != nil {
		return Result{}, fmt.Errorf("attach: save termios: %w", err)
	}
	if _, err := term.MakeRaw(fd); err != nil {
		return Result{}, fmt.Errorf("attach: raw mode: %w", err)
	}
	restored := false
	restore := func() {
		if !restored {
			restoreTerminal(os.Stdout)
			term.Restore(fd, cookedSt)
			restored = true
		}
	}
	defer restore()

	cols, rows, err := term.GetSize(fd)
	if err != nil {
		cols, rows = 80, 24
	}
	sendResize(conn, cols, rows)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	defer signal.Stop(sigCh)

	done := make(chan struct{})
	var once sync.Once
	stop := func() { once.Do(func() { close(done) }) }

	go func() {
		<-sigCh
		debuglog.Printf("attach: SIGINT, detaching")
		stop()
	}()

	s := &session{conn: conn, fd: fd, cookedSt: cookedSt, sessionID: sessionID, pump: newPump(conn)}
	go s.pump.run(done)
	go s.resizeMonitor(done)

	return s.runStdinLoop(done, stop), nil
}

func sendResize(conn net.Conn, cols, rows int) {
	conn.Write(control.Encode(control.CmdResize, strconv.Itoa(cols), strconv.Itoa(rows)))
}

func (s *session) resizeMonitor(done <-chan struct{}) {
	ticker := time.NewTicker(resizePollInterval)
	defer ticker.Stop()

	lastCols, lastRows, _ := term.GetSize(s.fd)
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			cols, rows, err := term.GetSize(s.fd)
			if err != nil {
				continue
			}
			if cols != lastCols || rows != lastRows {
				lastCols, lastRows = cols, rows
				sendResize(s.conn, cols, rows)
			}
		}
	}
}

// runStdinLoop is the main poll loop: it reads stdin in small chunks,
// feeds bytes through the escape recognizer, and acts on any completed
// command. It returns once the session should be left, one way or
// another.
func (s *session) runStdinLoop(done chan struct{}, stop func()) Result {
	rec := NewRecognizer()
	stdinCh := startStdinReader()

	for {
		select {
		case <-done:
			return Result{}
		case data, ok := <-stdinCh:
			if !ok || data.err != nil {
				stop()
				return Result{}
			}
			for _, b := range data.buf {
				if b == 0x04 { // Ctrl-D
					stop()
					return Result{}
				}
				out, cmd := rec.Feed(b)
				if len(out) > 0 {
					s.conn.Write(out)
				}
				switch cmd {
				case CmdDetach:
					stop()
					return Result{}
				case CmdSwitch:
					if target, ok := s.runSwitcher(); ok {
						stop()
						return Result{SwitchTarget: target}
					}
				case CmdScrollback:
					s.runScrollbackView()
				}
			}
		case <-time.After(stdinPollInterval):
			if held := rec.CheckTimeout(); len(held) > 0 {
				s.conn.Write(held)
			}
		}
	}
}

// withCooked pauses the pump, drops to cooked termios for fn, then
// restores raw mode and resumes the pump — the dance spec.md §4.8
// requires around the session switcher and the scrollback viewer so
// neither corrupts the other's screen.
func (s *session) withCooked(fn func()) {
	s.pump.pause()
	defer s.pump.resume()

	term.Restore(s.fd, s.cookedSt)
	defer term.MakeRaw(s.fd)

	fn()
}

func (s *session) runSwitcher() (string, bool) {
	var result picker.Result
	var runErr error
	s.withCooked(func() {
		result, runErr = picker.Run(os.Stdout, os.Stdin, s.sessionID)
	})
	if runErr != nil || result.Cancelled || result.TargetID == "" {
		return "", false
	}
	return result.TargetID, true
}

func (s *session) runScrollbackView() {
	s.withCooked(func() {
		cols, rows, err := term.GetSize(s.fd)
		if err != nil {
			cols, rows = 80, 24
		}
		scrollback.View(os.Stdout, os.Stdin, s.pump.snapshot(), rows, cols)
	})
}

// restoreTerminal writes the terminal reset sequence the spec requires
// on exit: leave alt-screen, re-enable line wrap and cursor, disable
// mouse reporting (spec.md §4.8 step 7).
func restoreTerminal(w *os.File) {
	fmt.Fprint(w, "\x1b[?1049l\x1b[?25h\x1b[?7h\x1b[?1000l\x1b[?1006l")
}
