package control

import (
	"bytes"
	"strings"
	"testing"
)

func TestScan_NoEscape(t *testing.T) {
	before, env, after, ok := Scan([]byte("hello world"))
	if ok || env != nil {
		t.Fatalf("expected no envelope")
	}
	if string(before) != "hello world" || after != nil {
		t.Fatalf("expected all bytes treated as ordinary input")
	}
}

func TestScan_CompleteResize(t *testing.T) {
	data := Encode(CmdResize, "80", "24")
	before, env, after, ok := Scan(data)
	if !ok || env == nil {
		t.Fatalf("expected a parsed envelope")
	}
	if len(before) != 0 || len(after) != 0 {
		t.Fatalf("expected no leading/trailing bytes")
	}
	if env.Cmd != CmdResize || env.Args[0] != "80" || env.Args[1] != "24" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
}

func TestScan_BytesBeforeAndAfter(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("echo hi\n")
	buf.Write(Encode(CmdListClients))
	buf.WriteString("more input")

	before, env, after, ok := Scan(buf.Bytes())
	if !ok || env == nil || env.Cmd != CmdListClients {
		t.Fatalf("expected list_clients envelope, got %+v", env)
	}
	if string(before) != "echo hi\n" {
		t.Fatalf("expected leading bytes preserved, got %q", before)
	}
	if string(after) != "more input" {
		t.Fatalf("expected trailing bytes preserved, got %q", after)
	}
}

func TestScan_UnknownCommandIgnored(t *testing.T) {
	data := Encode("bogus", "1")
	before, env, after, ok := Scan(data)
	if env != nil {
		t.Fatalf("expected unknown command to yield no envelope")
	}
	if !ok {
		t.Fatalf("expected ok=true (envelope was well-formed, just unrecognized)")
	}
	_ = before
	_ = after
}

func TestScan_TruncatedEnvelopeConsumesNothingPermanently(t *testing.T) {
	full := Encode(CmdResize, "100", "30")
	for i := 1; i < len(full); i++ {
		prefix := full[:i]
		if bytes.IndexByte(prefix, bel) >= 0 {
			continue // only test prefixes that haven't seen BEL
		}
		_, env, after, ok := Scan(prefix)
		if ok {
			t.Fatalf("truncated prefix of length %d should not parse as complete: %q", i, prefix)
		}
		if env != nil {
			t.Fatalf("truncated prefix should yield no command")
		}
		// The unconsumed envelope bytes must still be present in either
		// before or after so a subsequent read can complete them.
		if !bytes.Contains(prefix, after) && len(after) > 0 {
			t.Fatalf("expected truncated bytes retained")
		}
	}
}

func TestScan_EnvelopeOverSizeCapIgnored(t *testing.T) {
	huge := strings.Repeat("a", maxEnvelopeBytes+100)
	data := append([]byte{esc, ']'}, []byte(huge)...)
	data = append(data, bel)
	_, env, _, ok := Scan(data)
	if ok || env != nil {
		t.Fatalf("expected oversize envelope to be ignored")
	}
}

func TestClampDim(t *testing.T) {
	cases := map[string]int{
		"0":     1,
		"1":     1,
		"9999":  9999,
		"10000": 9999,
		"-5":    1,
		"80":    80,
		"junk":  1,
	}
	for in, want := range cases {
		if got := ClampDim(in); got != want {
			t.Fatalf("ClampDim(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	data := Encode(CmdDisconnectClient, "ab12cd34")
	_, env, _, ok := Scan(data)
	if !ok || env == nil || env.Cmd != CmdDisconnectClient {
		t.Fatalf("round trip failed: %+v", env)
	}
	if env.Args[0] != "ab12cd34" {
		t.Fatalf("unexpected arg: %v", env.Args)
	}
}
