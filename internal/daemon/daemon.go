// Package daemon implements the per-session PTY daemon: the detached
// process that owns the master fd and the control socket, broadcasts
// PTY output to attached clients, forwards client input, and persists
// its own liveness via the session registry (spec.md §4.7).
package daemon

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"nds/internal/clientconn"
	"nds/internal/config"
	"nds/internal/control"
	"nds/internal/history"
	"nds/internal/modetracker"
	"nds/internal/ptypair"
	"nds/internal/registry"
	"nds/internal/ring"
)

const masterReadBufSize = 16 * 1024

// ioWait is the deadline budget for accepting and reading clients. A
// deadline that has already passed fails the call before it is
// attempted, so each call gets this short window instead.
const ioWait = time.Millisecond

// Daemon owns every piece of state for one session's main loop. It is
// single-threaded and cooperative: all state below is touched only from
// the tick loop goroutine, so no locks are needed on it (spec.md §5).
type Daemon struct {
	id   string
	cfg  config.Config
	log  *logrus.Logger

	master *os.File
	slave  *os.File
	cmd    *exec.Cmd
	ln     net.Listener

	ringBuf *ring.Ring
	modes   *modetracker.Tracker

	clients   []*clientconn.Client
	clientsMu sync.Mutex // not locked anywhere: the slice is only touched from the tick loop goroutine

	running        bool
	lastMasterRead time.Time
	consecutiveErr int
	firstErrAt     time.Time
	lastHealthTick time.Time
	healthy        bool
}

// New constructs a Daemon for an already-open pty pair and listener.
func New(id string, cfg config.Config, log *logrus.Logger, master, slave *os.File, cmd *exec.Cmd, ln net.Listener) *Daemon {
	return &Daemon{
		id:             id,
		cfg:            cfg,
		log:            log,
		master:         master,
		slave:          slave,
		cmd:            cmd,
		ln:             ln,
		ringBuf:        ring.New(cfg.RingSizeBytes),
		modes:          modetracker.New(),
		running:        true,
		lastMasterRead: time.Now(),
		healthy:        true,
	}
}

// Run executes the cooperative tick loop until the shell exits, a fatal
// master error accumulates, or SIGTERM/SIGINT is received (spec.md
// §4.7).
func (d *Daemon) Run() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		d.log.Info("received termination signal")
		d.running = false
	}()

	ticker := time.NewTicker(d.cfg.TickInterval())
	defer ticker.Stop()

	lastHealthCheck := time.Now()

	for d.running {
		d.acceptNewClients()

		shellExited := d.readMaster()
		d.readClients()
		d.removeDisconnected()
		d.resizeToFitAll()
		d.flushAllPending()

		if time.Since(lastHealthCheck) > 10*time.Second {
			d.healthCheckClients()
			lastHealthCheck = time.Now()
		}

		if shellExited {
			break
		}
		if d.consecutiveErr > 10 && time.Since(d.firstErrAt) >= 5*time.Second && !d.healthy {
			d.log.Warn("too many consecutive master errors, exiting")
			break
		}

		<-ticker.C
	}

	d.shutdown()
}

func (d *Daemon) acceptNewClients() {
	for {
		if ul, ok := d.ln.(*net.UnixListener); ok {
			ul.SetDeadline(time.Now().Add(ioWait))
		}
		conn, err := d.ln.Accept()
		if err != nil {
			return
		}

		id := randomClientID()
		cols, rows := 80, 24

		c := clientconn.New(id, conn, cols, rows)

		if !d.ringBuf.IsEmpty() {
			data := d.ringBuf.DrainTo(nil)
			c.Send(data)
			c.Send([]byte{0x0c})
		} else {
			c.Send([]byte{0x0c})
		}
		c.Send(d.modes.ReplaySequence())
		c.FlushPending()

		d.clients = append(d.clients, c)
		registry.UpdateClientCount(d.id, len(d.clients))
		d.log.WithField("client", id).Info("client attached")
	}
}

// readMaster reads pending output from the pty master and broadcasts it.
// Returns true if the shell has exited (EOF on master).
func (d *Daemon) readMaster() bool {
	buf := make([]byte, masterReadBufSize)
	n, err := d.master.Read(buf)
	if n > 0 {
		d.lastMasterRead = time.Now()
		d.consecutiveErr = 0
		chunk := buf[:n]
		d.broadcast(chunk)
		d.modes.Observe(chunk)
	}
	if err == nil {
		return false
	}
	if isWouldBlock(err) {
		return false
	}
	if err.Error() == "EOF" || n == 0 && isEOFLike(err) {
		d.log.Info("shell exited")
		return true
	}
	if d.consecutiveErr == 0 {
		d.firstErrAt = time.Now()
	}
	d.consecutiveErr++
	d.log.WithError(err).Warn("master read error")
	return false
}

func (d *Daemon) broadcast(chunk []byte) {
	if len(d.clients) == 0 {
		d.ringBuf.Push(chunk)
		return
	}
	var dead []*clientconn.Client
	for _, c := range d.clients {
		c.FlushPending()
		if err := c.Send(chunk); err != nil && isPipeClass(err) {
			dead = append(dead, c)
		}
	}
	for _, c := range dead {
		d.markDead(c)
	}
}

// readClients drains each attached client's socket once per tick. A
// per-tick SetReadDeadline bounds the read (mirrors the
// SetWriteDeadline-based pattern clientconn uses for writes): with a
// deadline ioWait ahead, Read returns buffered data at once and times
// out within ioWait when none is buffered, instead of parking the
// single-threaded loop on an idle client (spec.md §4.6, §5).
func (d *Daemon) readClients() {
	buf := make([]byte, masterReadBufSize)
	for _, c := range d.clients {
		if c.Dead {
			continue
		}
		c.Conn.SetReadDeadline(time.Now().Add(ioWait))
		n, err := c.Conn.Read(buf)
		if n > 0 {
			data := buf[:n]
			if len(c.Residual) > 0 {
				data = append(c.Residual, data...)
				c.Residual = nil
			}
			d.handleClientBytes(c, data)
		}
		if err != nil && !isWouldBlock(err) {
			d.markDead(c)
		}
	}
}

func (d *Daemon) handleClientBytes(c *clientconn.Client, data []byte) {
	for len(data) > 0 {
		before, env, after, ok := control.Scan(data)
		if len(before) > 0 {
			d.master.Write(before)
		}
		if !ok {
			// An incomplete envelope: after (if any) is the unconsumed
			// tail and must survive to the next read from this client,
			// not be dropped (spec.md §8 invariant #5, truncation
			// closure).
			if len(after) > 0 {
				c.Residual = append([]byte(nil), after...)
			}
			return
		}
		if env != nil {
			d.dispatchControl(c, env)
		}
		data = after
	}
}

func (d *Daemon) dispatchControl(c *clientconn.Client, env *control.Envelope) {
	switch env.Cmd {
	case control.CmdResize:
		if len(env.Args) < 2 {
			return
		}
		cols := control.ClampDim(env.Args[0])
		rows := control.ClampDim(env.Args[1])
		c.Cols, c.Rows = cols, rows
		setWinsize(d.master, cols, rows)
		d.signalShell(syscall.SIGWINCH)
	case control.CmdListClients:
		c.Send([]byte(fmt.Sprintf("%d clients connected\r\n", len(d.clients))))
	case control.CmdDisconnectClient:
		if len(env.Args) < 1 {
			return
		}
		target := env.Args[0]
		if target == c.ID {
			return
		}
		for _, other := range d.clients {
			if other.ID == target {
				d.markDead(other)
			}
		}
	}
}

func (d *Daemon) removeDisconnected() {
	if !d.anyDead() {
		return
	}
	var alive []*clientconn.Client
	for _, c := range d.clients {
		if c.Dead {
			c.Close()
		} else {
			alive = append(alive, c)
		}
	}
	d.clients = alive
	registry.UpdateClientCount(d.id, len(d.clients))
}

func (d *Daemon) anyDead() bool {
	for _, c := range d.clients {
		if c.Dead {
			return true
		}
	}
	return false
}

func (d *Daemon) markDead(c *clientconn.Client) { c.Dead = true }

// resizeToFitAll sets the master winsize to the smallest (cols, rows)
// across remaining clients, per spec.md's resolution of the resize
// open question (min, not latest).
func (d *Daemon) resizeToFitAll() {
	if len(d.clients) == 0 {
		return
	}
	minCols, minRows := d.clients[0].Cols, d.clients[0].Rows
	for _, c := range d.clients[1:] {
		if c.Cols > 0 && c.Cols < minCols {
			minCols = c.Cols
		}
		if c.Rows > 0 && c.Rows < minRows {
			minRows = c.Rows
		}
	}
	if minCols > 0 && minRows > 0 {
		setWinsize(d.master, minCols, minRows)
	}
}

func (d *Daemon) flushAllPending() {
	for _, c := range d.clients {
		c.FlushPending()
	}
}

// healthCheckClients periodically sweeps out clients liveness already
// found dead. A zero-byte Write (or a zero-length Read) never reaches
// the fd in Go's net package — it returns (0, nil) without a syscall —
// so it cannot detect a dead peer; the pipe-class errors that do
// detect one already surface every tick from broadcast's writes and
// readClients' reads, both of which now run under real deadlines. This
// just re-applies that verdict and tracks the session's own health.
func (d *Daemon) healthCheckClients() {
	d.removeDisconnected()

	if time.Since(d.lastMasterRead) > d.cfg.HealthTimeout() {
		d.healthy = false
	}
}

func (d *Daemon) signalShell(sig syscall.Signal) {
	if d.cmd != nil && d.cmd.Process != nil {
		_ = d.cmd.Process.Signal(sig)
	}
}

func (d *Daemon) shutdown() {
	d.log.Info("daemon shutting down")
	for _, c := range d.clients {
		c.Close()
	}
	if d.ln != nil {
		d.ln.Close()
	}
	if d.cmd != nil && d.cmd.Process != nil {
		d.cmd.Process.Signal(syscall.SIGHUP)
	}
	if d.master != nil {
		d.master.Close()
	}
	if d.slave != nil {
		d.slave.Close()
	}
	registry.Cleanup(d.id)
	history.Archive(d.id)
}

func setWinsize(master *os.File, cols, rows int) {
	if err := ptypair.Setsize(master, cols, rows); err != nil {
		logrus.WithError(err).Debug("setsize failed")
	}
}
