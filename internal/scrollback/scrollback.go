// Package scrollback is the attach client's in-memory history viewer,
// invoked by the ~h escape (spec.md §4.8). It is a minimal alternate-
// screen pager over the bytes the attach client has already received —
// grounded on jaigner-hub-mhist's clearScreen/moveCursor helpers and the
// original implementation's simpler scrollback viewer.
package scrollback

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

const clear = "\x1b[2J\x1b[H"

// View pages through content (split into lines) using rows/cols as the
// viewport size. Reads single-byte commands from r: j scrolls down a
// line, k scrolls up a line, space/d pages down, u pages up, q or
// Escape exits. Arrow keys are not recognised; their leading Escape
// byte exits the viewer. Returns when the user quits.
func View(w io.Writer, r io.Reader, content []byte, rows, cols int) error {
	if rows <= 0 {
		rows = 24
	}
	if cols <= 0 {
		cols = 80
	}
	lines := strings.Split(string(content), "\n")
	top := 0
	if len(lines) > rows {
		top = len(lines) - rows
	}

	reader := bufio.NewReader(r)
	for {
		render(w, lines, top, rows, cols)

		b, err := reader.ReadByte()
		if err != nil {
			return err
		}
		switch b {
		case 'q', 0x1b:
			return nil
		case 'j':
			top = clampTop(top+1, len(lines), rows)
		case 'k':
			top = clampTop(top-1, len(lines), rows)
		case ' ', 'd':
			top = clampTop(top+rows, len(lines), rows)
		case 'u':
			top = clampTop(top-rows, len(lines), rows)
		}
	}
}

func clampTop(top, total, rows int) int {
	max := total - rows
	if max < 0 {
		max = 0
	}
	if top < 0 {
		return 0
	}
	if top > max {
		return max
	}
	return top
}

func render(w io.Writer, lines []string, top, rows, cols int) {
	fmt.Fprint(w, clear)
	end := top + rows
	if end > len(lines) {
		end = len(lines)
	}
	for _, l := range lines[top:end] {
		if len(l) > cols {
			l = l[:cols]
		}
		fmt.Fprintf(w, "%s\r\n", l)
	}
	fmt.Fprintf(w, "\x1b[7m[scrollback %d-%d/%d — j/k scroll, q quit]\x1b[27m", top+1, end, len(lines))
}
