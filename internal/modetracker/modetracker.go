// Package modetracker watches PTY output for a small set of DEC private
// mode toggles and can replay the current state to a newly attached
// client (spec.md §4.5). This is a deliberately narrow substitute for
// full terminal emulation.
package modetracker

import "bytes"

const tailLen = 7

// Tracker holds the current boolean state of the tracked modes.
type Tracker struct {
	CursorVisible         bool
	ApplicationCursorKeys bool
	AlternateScreen       bool
	BracketedPaste        bool

	tail []byte
}

// New returns a tracker in the initial state of a normal VT: cursor
// visible, all other modes off.
func New() *Tracker {
	return &Tracker{CursorVisible: true}
}

type sequence struct {
	bytes []byte
	set   *bool
	value bool
}

// Observe scans chunk (with the previous chunk's trailing bytes
// prepended, so a sequence split across a read boundary is still
// detected) and updates the tracked mode bits.
func (t *Tracker) Observe(chunk []byte) {
	scan := append(append([]byte{}, t.tail...), chunk...)

	seqs := []sequence{
		{[]byte("\x1b[?25l"), &t.CursorVisible, false},
		{[]byte("\x1b[?25h"), &t.CursorVisible, true},
		{[]byte("\x1b[?1l"), &t.ApplicationCursorKeys, false},
		{[]byte("\x1b[?1h"), &t.ApplicationCursorKeys, true},
		{[]byte("\x1b[?1049l"), &t.AlternateScreen, false},
		{[]byte("\x1b[?47l"), &t.AlternateScreen, false},
		{[]byte("\x1b[?1049h"), &t.AlternateScreen, true},
		{[]byte("\x1b[?47h"), &t.AlternateScreen, true},
		{[]byte("\x1b[?2004l"), &t.BracketedPaste, false},
		{[]byte("\x1b[?2004h"), &t.BracketedPaste, true},
	}

	// Apply in the order sequences actually occur so a chunk containing
	// both an enable and a later disable lands on the final state.
	type hit struct {
		pos int
		s   sequence
	}
	var hits []hit
	for _, s := range seqs {
		pos := 0
		for {
			i := bytes.Index(scan[pos:], s.bytes)
			if i < 0 {
				break
			}
			hits = append(hits, hit{pos: pos + i, s: s})
			pos = pos + i + len(s.bytes)
		}
	}
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].pos < hits[i].pos {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}
	for _, h := range hits {
		*h.s.set = h.s.value
	}

	if n := len(chunk); n >= tailLen {
		t.tail = append([]byte{}, chunk[n-tailLen:]...)
	} else {
		t.tail = append([]byte{}, scan[max(0, len(scan)-tailLen):]...)
	}
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// ReplaySequence emits the minimal set-state sequence for each tracked
// bit in the current state, to restore a newly attached client's view.
func (t *Tracker) ReplaySequence() []byte {
	var b []byte
	if t.CursorVisible {
		b = append(b, "\x1b[?25h"...)
	} else {
		b = append(b, "\x1b[?25l"...)
	}
	if t.ApplicationCursorKeys {
		b = append(b, "\x1b[?1h"...)
	} else {
		b = append(b, "\x1b[?1l"...)
	}
	if t.AlternateScreen {
		b = append(b, "\x1b[?1049h"...)
	} else {
		b = append(b, "\x1b[?1049l"...)
	}
	if t.BracketedPaste {
		b = append(b, "\x1b[?2004h"...)
	} else {
		b = append(b, "\x1b[?2004l"...)
	}
	return b
}
