package attach

import (
	"bytes"
	"testing"
	"time"
)

func feedAll(r *Recognizer, in []byte) ([]byte, []Command) {
	var out []byte
	var cmds []Command
	for _, b := range in {
		o, c := r.Feed(b)
		out = append(out, o...)
		if c != CmdNone {
			cmds = append(cmds, c)
		}
	}
	return out, cmds
}

func TestRecognizerLiteralPassthrough(t *testing.T) {
	r := NewRecognizer()
	out, cmds := feedAll(r, []byte("echo hi\n"))
	if !bytes.Equal(out, []byte("echo hi\n")) {
		t.Fatalf("got %q", out)
	}
	if len(cmds) != 0 {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestRecognizerDetach(t *testing.T) {
	r := NewRecognizer()
	feedAll(r, []byte("\r"))
	out, cmds := feedAll(r, []byte("~d"))
	if len(out) != 0 {
		t.Fatalf("expected no passthrough bytes, got %q", out)
	}
	if len(cmds) != 1 || cmds[0] != CmdDetach {
		t.Fatalf("expected CmdDetach, got %v", cmds)
	}
}

func TestRecognizerSwitchAndScrollback(t *testing.T) {
	for _, tc := range []struct {
		b    byte
		want Command
	}{
		{'s', CmdSwitch},
		{'h', CmdScrollback},
	} {
		r := NewRecognizer() // starts at line start
		_, cmds := feedAll(r, []byte{'~', tc.b})
		if len(cmds) != 1 || cmds[0] != tc.want {
			t.Fatalf("byte %q: expected %v, got %v", tc.b, tc.want, cmds)
		}
	}
}

func TestRecognizerLiteralTilde(t *testing.T) {
	r := NewRecognizer()
	out, cmds := feedAll(r, []byte("~~date\n"))
	if !bytes.Equal(out, []byte("~date\n")) {
		t.Fatalf("got %q", out)
	}
	if len(cmds) != 0 {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestRecognizerTildeNotAtLineStartIsLiteral(t *testing.T) {
	r := NewRecognizer()
	out, cmds := feedAll(r, []byte("ls~d\n"))
	if !bytes.Equal(out, []byte("ls~d\n")) {
		t.Fatalf("got %q", out)
	}
	if len(cmds) != 0 {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestRecognizerUnknownEscapeByteEmitsBoth(t *testing.T) {
	r := NewRecognizer()
	out, cmds := feedAll(r, []byte("~x"))
	if !bytes.Equal(out, []byte("~x")) {
		t.Fatalf("got %q", out)
	}
	if len(cmds) != 0 {
		t.Fatalf("unexpected commands: %v", cmds)
	}
}

func TestRecognizerTimeoutEmitsHeldTilde(t *testing.T) {
	r := NewRecognizer()
	r.Feed('~')
	r.tildeAt = time.Now().Add(-2 * time.Second)
	held := r.CheckTimeout()
	if !bytes.Equal(held, []byte("~")) {
		t.Fatalf("expected held tilde, got %q", held)
	}
	// After timeout, state resets to Normal/not-at-line-start.
	out, _ := feedAll(r, []byte("~d"))
	if !bytes.Equal(out, []byte("~d")) {
		t.Fatalf("expected literal passthrough after reset, got %q", out)
	}
}
