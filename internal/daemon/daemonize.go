package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"nds/internal/paths"
)

// RunSubcommand is the hidden CLI verb the daemon re-execs itself with.
// It is never meant to be typed by a user.
const RunSubcommand = "__daemon_run"

// LaunchOptions describes a session to be created.
type LaunchOptions struct {
	ID         string
	Name       string
	Shell      string
	WorkingDir string
	Cols, Rows int
}

// Launch performs the Go-idiomatic equivalent of the classic double
// fork: it re-execs the current binary detached from the controlling
// terminal (Setsid, no inherited stdio), so the grandchild — the
// process that actually owns the pty master and the listener — has no
// controlling terminal and is reparented away from the shell that
// invoked the CLI. This mirrors the teacher's cmdStart/runDaemon split
// (main.go in the teacher repo), generalized from a single well-known
// socket to one per session.
//
// The caller's current (cols, rows) must be captured before this call,
// since the daemon itself has no tty to query.
func Launch(opts LaunchOptions) error {
	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("daemon: ensure dirs: %w", err)
	}

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("daemon: find executable: %w", err)
	}

	cmd := exec.Command(exePath, RunSubcommand,
		"--id", opts.ID,
		"--name", opts.Name,
		"--shell", opts.Shell,
		"--cwd", opts.WorkingDir,
		"--cols", fmt.Sprintf("%d", opts.Cols),
		"--rows", fmt.Sprintf("%d", opts.Rows),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemon: start: %w", err)
	}
	cmd.Process.Release()

	// Wait briefly for the session record to appear, per spec.md §4.9.
	jsonPath := paths.SessionJSON(opts.ID)
	for i := 0; i < 50; i++ {
		if _, err := os.Stat(jsonPath); err == nil {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon: session record did not appear within 5s")
}
