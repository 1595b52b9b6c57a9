package modetracker

import "testing"

func TestTracker_InitialState(t *testing.T) {
	tr := New()
	if !tr.CursorVisible {
		t.Fatalf("expected cursor visible by default")
	}
	if tr.ApplicationCursorKeys || tr.AlternateScreen || tr.BracketedPaste {
		t.Fatalf("expected all other modes off by default")
	}
}

func TestTracker_CursorHide(t *testing.T) {
	tr := New()
	tr.Observe([]byte("\x1b[?25l"))
	if tr.CursorVisible {
		t.Fatalf("expected cursor hidden")
	}
	tr.Observe([]byte("\x1b[?25h"))
	if !tr.CursorVisible {
		t.Fatalf("expected cursor visible again")
	}
}

func TestTracker_AlternateScreenBothForms(t *testing.T) {
	tr := New()
	tr.Observe([]byte("\x1b[?1049h"))
	if !tr.AlternateScreen {
		t.Fatalf("expected alt screen on via 1049h")
	}
	tr.Observe([]byte("\x1b[?47l"))
	if tr.AlternateScreen {
		t.Fatalf("expected alt screen off via 47l")
	}
}

func TestTracker_BracketedPaste(t *testing.T) {
	tr := New()
	tr.Observe([]byte("\x1b[?2004h"))
	if !tr.BracketedPaste {
		t.Fatalf("expected bracketed paste on")
	}
}

func TestTracker_SplitAcrossReadBoundary(t *testing.T) {
	tr := New()
	full := "\x1b[?25l"
	tr.Observe([]byte(full[:3]))
	tr.Observe([]byte(full[3:]))
	if tr.CursorVisible {
		t.Fatalf("expected split sequence to still be detected")
	}
}

func TestTracker_MultipleTogglesInOneChunkUsesFinalState(t *testing.T) {
	tr := New()
	tr.Observe([]byte("\x1b[?25l\x1b[?25h\x1b[?25l"))
	if tr.CursorVisible {
		t.Fatalf("expected cursor hidden (final toggle wins)")
	}
}

func TestTracker_ReplaySequenceReflectsState(t *testing.T) {
	tr := New()
	tr.Observe([]byte("\x1b[?1049h\x1b[?2004h\x1b[?25l"))
	seq := string(tr.ReplaySequence())
	if seq != "\x1b[?25l\x1b[?1l\x1b[?1049h\x1b[?2004h" {
		t.Fatalf("unexpected replay sequence: %q", seq)
	}
}
