// Package history is a thin, intentionally opaque event log: it records
// lifecycle transitions for a session and moves the log from active/ to
// archived/ on session end. spec.md §1 names the history subsystem as an
// external collaborator; this is the minimal persistence it needs to be
// fed by internal/lifecycle.
package history

import (
	"encoding/json"
	"os"
	"time"

	"nds/internal/paths"
)

// Event is one line of the append-only JSONL log.
type Event struct {
	Time time.Time `json:"time"`
	Kind string    `json:"kind"` // create, attach, detach, kill
	Note string    `json:"note,omitempty"`
}

// Append writes one event to <root>/history/active/<id>.json, creating
// the file if needed.
func Append(id, kind, note string) error {
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	f, err := os.OpenFile(paths.HistoryActive(id), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	line, err := json.Marshal(Event{Time: time.Now(), Kind: kind, Note: note})
	if err != nil {
		return err
	}
	_, err = f.Write(append(line, '\n'))
	return err
}

// Archive moves a session's active log to history/archived/ on session
// end. Missing active logs are not an error.
func Archive(id string) error {
	src := paths.HistoryActive(id)
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	if err := paths.EnsureDirs(); err != nil {
		return err
	}
	return os.Rename(src, paths.HistoryArchived(id))
}
