package attach

import "time"

// escapeState is the attach client's tilde-escape recognizer (spec.md
// §4.8), grounded line-for-line on original_source/src/pty.rs's
// escape_state loop (0=normal, 1=saw tilde at line start).
type escapeState int

const (
	stateNormal escapeState = iota
	stateSawTildeAtLineStart
)

// tildeTimeout is how long the recognizer waits in
// stateSawTildeAtLineStart for a second byte before giving up and
// emitting the held tilde literally.
const tildeTimeout = time.Second

// Command is what the user asked the recognizer for, beyond plain
// pass-through bytes.
type Command int

const (
	CmdNone Command = iota
	CmdDetach
	CmdSwitch
	CmdScrollback
)

// Recognizer is an SSH-style `Enter ~<cmd>` escape-sequence detector.
// It is not safe for concurrent use; the attach client's single stdin
// loop owns it.
type Recognizer struct {
	state       escapeState
	atLineStart bool
	tildeAt     time.Time
}

// NewRecognizer starts in Normal state, at line start (as if the
// terminal had just been entered fresh).
func NewRecognizer() *Recognizer {
	return &Recognizer{atLineStart: true}
}

// Feed processes one input byte, returning bytes to forward verbatim
// (possibly empty) and a Command if the byte completed an escape.
func (r *Recognizer) Feed(b byte) ([]byte, Command) {
	switch r.state {
	case stateSawTildeAtLineStart:
		r.state = stateNormal
		switch b {
		case 'd':
			r.atLineStart = false
			return nil, CmdDetach
		case 's':
			r.atLineStart = false
			return nil, CmdSwitch
		case 'h':
			r.atLineStart = false
			return nil, CmdScrollback
		case '~':
			r.atLineStart = false
			return []byte{'~'}, CmdNone
		default:
			r.updateLineStart(b)
			return []byte{'~', b}, CmdNone
		}
	default:
		if b == '~' && r.atLineStart {
			r.state = stateSawTildeAtLineStart
			r.tildeAt = time.Now()
			return nil, CmdNone
		}
		r.updateLineStart(b)
		return []byte{b}, CmdNone
	}
}

func (r *Recognizer) updateLineStart(b byte) {
	r.atLineStart = b == '\r' || b == '\n'
}

// CheckTimeout must be polled periodically (the main loop's stdin poll
// interval is adequate). If the recognizer has been waiting on a held
// tilde for longer than tildeTimeout, it gives up and returns the
// literal tilde to forward.
func (r *Recognizer) CheckTimeout() []byte {
	if r.state == stateSawTildeAtLineStart && time.Since(r.tildeAt) > tildeTimeout {
		r.state = stateNormal
		r.atLineStart = false
		return []byte{'~'}
	}
	return nil
}
