package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"nds/internal/history"
	"nds/internal/paths"
)

// printHistory prints the lifecycle event log for id, checking the
// active log first and falling back to the archived one.
func printHistory(id string) error {
	path := paths.HistoryActive(id)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		path = paths.HistoryArchived(id)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("no history for session: %s", id)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev history.Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			continue
		}
		fmt.Printf("%s  %-8s %s\n", ev.Time.Format("2006-01-02T15:04:05Z07:00"), ev.Kind, ev.Note)
	}
	return scanner.Err()
}
