// Package lifecycle is the controller spec.md §4.9 names: it wires
// together the registry (C2), daemonization (C7), and the attach
// client (C8) into the handful of user-facing operations the CLI
// exposes. Grounded on the teacher's cmdStart/cmdAttach/cmdKill split
// in main.go, generalized from one well-known session to many.
package lifecycle

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"nds/internal/attach"
	"nds/internal/daemon"
	"nds/internal/history"
	"nds/internal/paths"
	"nds/internal/registry"
)

var log = logrus.New()

// healthDialTimeout bounds the preflight socket check before attaching
// (spec.md §4.9: "50-100ms").
const healthDialTimeout = 100 * time.Millisecond

// Create allocates a new session id, captures the caller's current
// terminal size (the daemon has no tty of its own once detached),
// daemonizes it, and waits for the session record to appear.
func Create(name string) (registry.Record, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "/"
	}

	cols, rows := 80, 24
	if c, r, err := term.GetSize(int(os.Stdin.Fd())); err == nil {
		cols, rows = c, r
	}

	id := registry.NewID()
	opts := daemon.LaunchOptions{
		ID:         id,
		Name:       name,
		WorkingDir: cwd,
		Cols:       cols,
		Rows:       rows,
	}
	if err := daemon.Launch(opts); err != nil {
		return registry.Record{}, fmt.Errorf("lifecycle: create: %w", err)
	}

	rec, err := registry.Load(id)
	if err != nil {
		return registry.Record{}, fmt.Errorf("lifecycle: create: %w", err)
	}
	history.Append(id, "create", name)
	log.WithField("session", id).Info("session created")
	return rec, nil
}

// Attach loops: attach to id, and if the attach client reports a
// switch target, continue the loop against that session instead of
// returning to the caller's shell (spec.md §4.9).
func Attach(id string) error {
	for {
		rec, err := registry.Load(id)
		if err != nil {
			return ErrNotFound
		}

		rec.Attached = true
		_ = registry.Save(rec)
		registry.UpdateClientCount(id, registry.ClientCount(id, true)+1)

		conn, err := net.DialTimeout("unix", rec.SocketPath, healthDialTimeout)
		if err != nil {
			registry.Cleanup(id)
			return ErrNotFound
		}

		history.Append(id, "attach", "")
		result, runErr := attach.Run(conn, id)
		conn.Close()
		history.Append(id, "detach", "")

		if runErr != nil {
			return fmt.Errorf("lifecycle: attach: %w", runErr)
		}
		if result.SwitchTarget == "" {
			return nil
		}
		id = result.SwitchTarget
	}
}

// Kill sends SIGTERM to the daemon pid, escalating to SIGKILL if the
// process is still alive after a short grace period, then removes its
// on-disk bookkeeping. Killing an already-dead or unknown session is
// not an error.
func Kill(id string) error {
	rec, err := registry.Load(id)
	if err != nil {
		registry.Cleanup(id)
		return nil
	}

	if err := syscall.Kill(rec.Pid, syscall.SIGTERM); err == nil {
		time.Sleep(500 * time.Millisecond)
		if syscall.Kill(rec.Pid, 0) == nil {
			syscall.Kill(rec.Pid, syscall.SIGKILL)
		}
	}

	registry.Cleanup(id)
	history.Append(id, "kill", "")
	log.WithField("session", id).Info("session killed")
	return nil
}

// Rename overwrites a session's display name. An empty or
// whitespace-only name clears it (spec.md §4.9).
func Rename(id, name string) error {
	rec, err := registry.Load(id)
	if err != nil {
		return ErrNotFound
	}
	rec.Name = strings.TrimSpace(name)
	return registry.Save(rec)
}

// List returns every live session, sorted oldest first.
func List() ([]registry.Record, error) {
	return registry.ListAll()
}

// CleanupDead enumerates every known session record and drops those
// failing the liveness health check (PID dead, or socket unreachable),
// returning the number removed.
func CleanupDead() (int, error) {
	entries, err := os.ReadDir(paths.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("lifecycle: read sessions dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".json") {
			continue
		}
		id := strings.TrimSuffix(name, ".json")

		data, err := os.ReadFile(paths.SessionJSON(id))
		if err != nil {
			continue
		}
		var rec registry.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			registry.Cleanup(id)
			removed++
			continue
		}
		if !registry.IsAlive(rec) {
			registry.Cleanup(id)
			history.Archive(id)
			removed++
		}
	}
	return removed, nil
}
