// Command nds is the terminal-multiplexer CLI: it creates, lists,
// attaches to, renames, and kills detached PTY sessions (spec.md §1).
// Grounded on ehrlich-b-wingthing's cmd/wt tree for cobra structure and
// on the teacher's cmdStart/cmdStop/runDaemon split for the hidden
// daemon-run verb.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"nds/internal/daemon"
	"nds/internal/lifecycle"
	"nds/internal/registry"
)

func main() {
	root := &cobra.Command{
		Use:   "nds",
		Short: "nds — detached terminal sessions with multi-client attach",
	}

	root.AddCommand(
		newCmd(),
		listCmd(),
		attachCmd(),
		killCmd(),
		infoCmd(),
		renameCmd(),
		cleanCmd(),
		historyCmd(),
		daemonRunCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new detached session",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			rec, err := lifecycle.Create(name)
			if err != nil {
				return err
			}
			fmt.Printf("created session %s\n", rec.ID)
			return lifecycle.Attach(rec.ID)
		},
	}
}

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List live sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := lifecycle.List()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no sessions")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPID\tCLIENTS\tCREATED\tSHELL")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
					s.ID, s.Name, s.Pid,
					registry.ClientCount(s.ID, s.Attached),
					s.CreatedAt.Format(time.RFC3339),
					s.Shell)
			}
			return w.Flush()
		},
	}
}

func attachCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "attach <id>",
		Short: "Attach to a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := lifecycle.Attach(args[0])
			if errors.Is(err, lifecycle.ErrNotFound) {
				return fmt.Errorf("session not found: %s", args[0])
			}
			return err
		},
	}
}

func killCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <id>",
		Short: "Terminate a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := lifecycle.Kill(args[0]); err != nil {
				return err
			}
			fmt.Printf("killed %s\n", args[0])
			return nil
		},
	}
}

func infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show a session's record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := registry.Load(args[0])
			if err != nil {
				return fmt.Errorf("session not found: %s", args[0])
			}
			fmt.Printf("id:       %s\n", rec.ID)
			fmt.Printf("name:     %s\n", rec.Name)
			fmt.Printf("pid:      %d\n", rec.Pid)
			fmt.Printf("created:  %s\n", rec.CreatedAt.Format(time.RFC3339))
			fmt.Printf("shell:    %s\n", rec.Shell)
			fmt.Printf("cwd:      %s\n", rec.WorkingDir)
			fmt.Printf("socket:   %s\n", rec.SocketPath)
			fmt.Printf("clients:  %d\n", registry.ClientCount(rec.ID, rec.Attached))
			return nil
		},
	}
}

func renameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> [name]",
		Short: "Rename a session (omit name to clear it)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 1 {
				name = args[1]
			}
			if err := lifecycle.Rename(args[0], name); err != nil {
				return fmt.Errorf("session not found: %s", args[0])
			}
			return nil
		},
	}
}

func cleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove bookkeeping for dead sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := lifecycle.CleanupDead()
			if err != nil {
				return err
			}
			fmt.Printf("removed %d dead session(s)\n", n)
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Print a session's lifecycle event log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printHistory(args[0])
		},
	}
}

// daemonRunCmd is the hidden verb the grandchild process re-execs
// itself with; it is never meant to be typed by a user (spec.md §4.7).
func daemonRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    daemon.RunSubcommand,
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("id")
			name, _ := cmd.Flags().GetString("name")
			shell, _ := cmd.Flags().GetString("shell")
			cwd, _ := cmd.Flags().GetString("cwd")
			colsStr, _ := cmd.Flags().GetString("cols")
			rowsStr, _ := cmd.Flags().GetString("rows")

			cols, err := strconv.Atoi(colsStr)
			if err != nil || cols <= 0 {
				cols = 80
			}
			rows, err := strconv.Atoi(rowsStr)
			if err != nil || rows <= 0 {
				rows = 24
			}

			return daemon.Spawn(daemon.RunOptions{
				ID:         id,
				Name:       name,
				Shell:      shell,
				WorkingDir: cwd,
				Cols:       cols,
				Rows:       rows,
			})
		},
	}
	cmd.Flags().String("id", "", "")
	cmd.Flags().String("name", "", "")
	cmd.Flags().String("shell", "", "")
	cmd.Flags().String("cwd", "", "")
	cmd.Flags().String("cols", "80", "")
	cmd.Flags().String("rows", "24", "")
	return cmd
}
