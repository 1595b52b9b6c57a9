// Package picker is the interactive session switcher invoked by the
// attach client's ~s escape (spec.md §4.8). It is a plain numbered
// chooser over stdin/stdout — the original implementation's own
// session switcher is just println!/read_line, not a curses TUI, so
// this stays equally simple rather than inventing a richer one.
package picker

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nds/internal/registry"
)

// Result is what the user chose.
type Result struct {
	// TargetID is non-empty when the user picked an existing session to
	// switch to.
	TargetID string
	// NewSessionRequested is true when the user chose the [New Session]
	// option. No session is created for it: the attach client treats
	// this result like a cancel and stays in the current session.
	NewSessionRequested bool
	// NewSessionName is the optional name for a requested new session.
	NewSessionName string
	// Cancelled is true if the user backed out without choosing.
	Cancelled bool
}

// Run lists sessions other than excludeID and prompts for a choice.
func Run(w io.Writer, r io.Reader, excludeID string) (Result, error) {
	sessions, err := registry.ListAll()
	if err != nil {
		return Result{}, err
	}

	var others []registry.Record
	for _, s := range sessions {
		if s.ID != excludeID {
			others = append(others, s)
		}
	}

	fmt.Fprintf(w, "\r\n[Session Switcher]\r\n\r\nAvailable options:\r\n")
	for i, s := range others {
		label := s.Name
		if label == "" {
			label = s.ID
		}
		fmt.Fprintf(w, "\r  %d. %s (pid %d)\r\n", i+1, label, s.Pid)
	}
	newOptionNum := len(others) + 1
	fmt.Fprintf(w, "\r  %d. [New Session]\r\n", newOptionNum)
	fmt.Fprintf(w, "\r  0. Cancel\r\n\r\nSelect option (0-%d): ", newOptionNum)

	reader := bufio.NewReader(r)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)

	num, err := strconv.Atoi(line)
	if err != nil || num == 0 {
		fmt.Fprintf(w, "\r\n[Continuing current session]\r\n")
		return Result{Cancelled: true}, nil
	}
	if num > 0 && num <= len(others) {
		target := others[num-1]
		fmt.Fprintf(w, "\r\n[Switching to session %s]\r\n", target.ID)
		return Result{TargetID: target.ID}, nil
	}
	if num == newOptionNum {
		fmt.Fprintf(w, "\r\nEnter name for new session (or press Enter for no name): ")
		nameLine, _ := reader.ReadString('\n')
		name := strings.TrimSpace(nameLine)
		return Result{NewSessionRequested: true, NewSessionName: name}, nil
	}

	fmt.Fprintf(w, "\r\n[Continuing current session]\r\n")
	return Result{Cancelled: true}, nil
}
