package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nds/internal/config"
	"nds/internal/control"
	"nds/internal/paths"
	"nds/internal/ptypair"
	"nds/internal/registry"
)

// RunOptions is the fully-resolved set of arguments the __daemon_run
// verb is re-exec'd with (see LaunchOptions, which this mirrors once
// decoded from flags by cmd/nds).
type RunOptions struct {
	ID         string
	Name       string
	Shell      string
	WorkingDir string
	Cols, Rows int
}

// Spawn is the body of the detached grandchild process: it allocates
// the pty, starts the shell attached to the slave side, opens the
// control socket, publishes the session record, and runs the daemon
// loop until the shell or the daemon itself exits. It never returns
// until the session is torn down (spec.md §4.2, §4.7).
func Spawn(opts RunOptions) error {
	syscall.Umask(0o077)

	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("daemon: ensure dirs: %w", err)
	}

	log := newSessionLogger(opts.ID)

	cfg, err := config.Load(paths.ConfigFile())
	if err != nil {
		log.WithError(err).Warn("using default config")
		cfg = config.Defaults()
	}

	master, slave, err := ptypair.Open(opts.Cols, opts.Rows)
	if err != nil {
		return fmt.Errorf("daemon: open pty: %w", err)
	}

	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		shell = cfg.DefaultShell
	}

	cmd := exec.Command(shell)
	cmd.Dir = opts.WorkingDir
	cmd.Env = append(os.Environ(),
		"NDS_SESSION_ID="+opts.ID,
		"NDS_SESSION_NAME="+opts.Name,
	)
	cmd.Stdin = slave
	cmd.Stdout = slave
	cmd.Stderr = slave
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}

	if err := cmd.Start(); err != nil {
		master.Close()
		slave.Close()
		return fmt.Errorf("daemon: start shell: %w", err)
	}
	// The slave fd is kept open for the daemon's lifetime (closed in
	// Daemon.shutdown), not closed here: closing it immediately can
	// deliver a premature EOF on some platforms if the shell detaches
	// from its controlling terminal before forking children.

	socketPath := paths.SessionSocket(opts.ID)
	ln, err := control.Listen(socketPath)
	if err != nil {
		master.Close()
		cmd.Process.Kill()
		return fmt.Errorf("daemon: listen: %w", err)
	}

	rec := registry.Record{
		ID:         opts.ID,
		Name:       opts.Name,
		Pid:        os.Getpid(),
		CreatedAt:  time.Now(),
		SocketPath: socketPath,
		Shell:      shell,
		WorkingDir: opts.WorkingDir,
	}
	if err := registry.Save(rec); err != nil {
		master.Close()
		ln.Close()
		cmd.Process.Kill()
		return fmt.Errorf("daemon: save record: %w", err)
	}
	registry.UpdateClientCount(opts.ID, 0)

	d := New(opts.ID, cfg, log, master, slave, cmd, ln)
	d.Run()
	return nil
}

func newSessionLogger(id string) *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	f, err := os.OpenFile(paths.SessionLog(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err == nil {
		log.SetOutput(f)
	}
	return log
}
