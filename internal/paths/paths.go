// Package paths resolves the on-disk layout rooted at $NDS_HOME (or
// $HOME/.nds), as named in spec.md §6.
package paths

import (
	"os"
	"path/filepath"
)

// Root returns $NDS_HOME if set, else $HOME/.nds.
func Root() string {
	if d := os.Getenv("NDS_HOME"); d != "" {
		return d
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".nds")
}

func SessionsDir() string { return filepath.Join(Root(), "sessions") }
func SocketsDir() string  { return filepath.Join(Root(), "sockets") }
func LogsDir() string     { return filepath.Join(Root(), "logs") }
func HistoryActiveDir() string   { return filepath.Join(Root(), "history", "active") }
func HistoryArchivedDir() string { return filepath.Join(Root(), "history", "archived") }

func SessionJSON(id string) string   { return filepath.Join(SessionsDir(), id+".json") }
func SessionStatus(id string) string { return filepath.Join(SessionsDir(), id+".status") }
func SessionSocket(id string) string { return filepath.Join(SocketsDir(), id+".sock") }
func SessionLog(id string) string    { return filepath.Join(LogsDir(), id+".log") }
func ConfigFile() string             { return filepath.Join(Root(), "config.yaml") }

func HistoryActive(id string) string   { return filepath.Join(HistoryActiveDir(), id+".json") }
func HistoryArchived(id string) string { return filepath.Join(HistoryArchivedDir(), id+".json") }

// EnsureDirs creates sessions/ and sockets/ (and history/ subdirs) lazily
// with default user permissions, per spec.md §4.2.
func EnsureDirs() error {
	for _, d := range []string{SessionsDir(), SocketsDir(), LogsDir(), HistoryActiveDir(), HistoryArchivedDir()} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return err
		}
	}
	return nil
}
