package attach

import (
	"net"
	"os"
	"sync"
)

// socketPump reads the session socket in fixed-size chunks and writes
// them to stdout, appending everything to a capped scrollback buffer.
// While paused it queues output to a side buffer instead of writing,
// so the session switcher and scrollback viewer can own the screen
// without losing data (spec.md §4.8 step 5).
type socketPump struct {
	conn net.Conn

	mu         sync.Mutex
	paused     bool
	sideQueue  []byte
	scrollback []byte
}

func newPump(conn net.Conn) *socketPump {
	return &socketPump{conn: conn}
}

func (p *socketPump) run(done <-chan struct{}) {
	buf := make([]byte, socketReadBufSize)
	for {
		n, err := p.conn.Read(buf)
		if n > 0 {
			p.handle(buf[:n])
		}
		if err != nil {
			return
		}
		select {
		case <-done:
			return
		default:
		}
	}
}

func (p *socketPump) handle(data []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.scrollback = append(p.scrollback, data...)
	if over := len(p.scrollback) - maxScrollback; over > 0 {
		p.scrollback = p.scrollback[over:]
	}

	if p.paused {
		p.sideQueue = append(p.sideQueue, data...)
		return
	}
	os.Stdout.Write(data)
}

func (p *socketPump) pause() {
	p.mu.Lock()
	p.paused = true
	p.mu.Unlock()
}

func (p *socketPump) resume() {
	p.mu.Lock()
	queued := p.sideQueue
	p.sideQueue = nil
	p.paused = false
	p.mu.Unlock()

	if len(queued) > 0 {
		os.Stdout.Write(queued)
	}
}

// snapshot returns a copy of the scrollback buffer for the viewer.
func (p *socketPump) snapshot() []byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]byte, len(p.scrollback))
	copy(out, p.scrollback)
	return out
}
