// Package control implements the in-band control sequence embedded in
// the PTY byte stream (spec.md §4.3): ESC ']' "nds:" <cmd> [":" <arg>]*
// BEL, and the per-session Unix-domain control socket it travels over.
package control

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

const (
	esc = 0x1b
	bel = 0x07

	maxEnvelopeBytes = 8 * 1024
	maxBodyBytes     = 1024
	maxArgBytes      = 4 * 1024

	minDim = 1
	maxDim = 9999
)

// Command names, the fixed whitelist from spec.md §4.3.
const (
	CmdResize           = "resize"
	CmdListClients      = "list_clients"
	CmdDisconnectClient = "disconnect_client"
)

// Envelope is a parsed control message.
type Envelope struct {
	Cmd  string
	Args []string
}

// Listen creates the per-session Unix-domain listener at path with 0600
// permissions (spec.md §4.3, §6).
func Listen(path string) (net.Listener, error) {
	os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("control: listen: %w", err)
	}
	if err := os.Chmod(path, 0o600); err != nil {
		ln.Close()
		return nil, fmt.Errorf("control: chmod: %w", err)
	}
	return ln, nil
}

// Encode renders an envelope as wire bytes: ESC]nds:<cmd>[:<arg>]*BEL.
func Encode(cmd string, args ...string) []byte {
	var b strings.Builder
	b.WriteByte(esc)
	b.WriteByte(']')
	b.WriteString("nds:")
	b.WriteString(cmd)
	for _, a := range args {
		b.WriteByte(':')
		b.WriteString(a)
	}
	b.WriteByte(bel)
	return []byte(b.String())
}

// Scan splits data into (before, envelope, after, ok). before is any
// bytes preceding the first ESC] sequence (ordinary PTY input); after is
// any bytes following a completed envelope's BEL (also ordinary PTY
// input, processed on the next pass by the caller). ok is false when no
// complete envelope is present in data. If data holds no ESC] at all, or
// the envelope exceeds the size cap, before is the whole input. If an
// envelope has started but its BEL has not arrived, before is the bytes
// ahead of it and after is the unterminated envelope, for the caller to
// keep for the next read; the parser has consumed nothing permanently
// (spec.md §8, truncation closure).
func Scan(data []byte) (before []byte, env *Envelope, after []byte, ok bool) {
	prefix := []byte{esc, ']'}
	idx := indexOf(data, prefix)
	if idx < 0 {
		return data, nil, nil, false
	}

	before = data[:idx]
	rest := data[idx:]

	belIdx := indexOfByte(rest, bel)
	envLen := belIdx + 1
	if belIdx < 0 {
		envLen = len(rest)
	}
	if envLen > maxEnvelopeBytes {
		// Too large to ever be valid; treat the escape byte itself as
		// ordinary data rather than hang waiting for a BEL that would
		// blow the cap.
		return data, nil, nil, false
	}

	if belIdx < 0 {
		// Incomplete — might still be arriving. Consume nothing beyond
		// "before"; caller should hold "rest" for the next read.
		return before, nil, rest, false
	}

	body := rest[2:belIdx] // strip ESC] and stop before BEL
	after = rest[belIdx+1:]

	if len(body) > maxBodyBytes || len(body) < 4 || string(body[:4]) != "nds:" {
		return before, nil, after, true
	}

	fields := strings.Split(string(body[4:]), ":")
	cmd := fields[0]
	args := fields[1:]

	cleaned := make([]string, 0, len(args))
	for _, a := range args {
		cleaned = append(cleaned, sanitizeArg(a))
	}

	switch cmd {
	case CmdResize, CmdListClients, CmdDisconnectClient:
		return before, &Envelope{Cmd: cmd, Args: cleaned}, after, true
	default:
		// Unknown command: silently ignored, not forwarded to the PTY.
		return before, nil, after, true
	}
}

func sanitizeArg(a string) string {
	if len(a) > maxArgBytes {
		a = a[:maxArgBytes]
	}
	var b strings.Builder
	for _, r := range a {
		if r == '\n' || r == '\r' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ClampDim clamps a decimal terminal dimension string to [1, 9999],
// per spec.md §4.3 and §8's boundary behavior.
func ClampDim(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return minDim
	}
	if n < minDim {
		return minDim
	}
	if n > maxDim {
		return maxDim
	}
	return n
}

func indexOf(haystack, needle []byte) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

func indexOfByte(haystack []byte, b byte) int {
	for i, c := range haystack {
		if c == b {
			return i
		}
	}
	return -1
}
