package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagebound/pagebound/internal/config"
	"github.com/pagebound/pagebound/internal/database"
)

// NewSessionsCmd creates the sessions command.
func NewSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions [session-id]",
		Short: "List recorded crawl sessions",
		Long: `Sessions lists the crawl sessions recorded in the database, newest
first. Interrupted sessions that can be picked up again are marked
resumable; continue them with 'pagebound resume <session-id>'.

With a session ID argument, details of that single session are shown.

Examples:
  # List all sessions
  pagebound sessions

  # Show one session
  pagebound sessions 12`,
		Args: cobra.MaximumNArgs(1),
		RunE: runSessionsCmd,
	}

	cmd.Flags().String("db-dir", "",
		"Directory of the session database (default: XDG data dir)")

	return cmd
}

// runSessionsCmd executes the sessions command.
func runSessionsCmd(cmd *cobra.Command, args []string) error {
	store, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // Best effort cleanup

	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session ID %q", args[0])
		}
		return showSession(cmd, store, id)
	}

	return listSessions(cmd, store)
}

// openSessionStore opens the session database read-only style: the file
// must already exist.
func openSessionStore(cmd *cobra.Command) (*database.Store, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false

	store, err := database.Open(dbDir, opts)
	if err != nil {
		return nil, fmt.Errorf("no session database found (run a crawl first): %w", err)
	}
	return store, nil
}

// listSessions prints all sessions as a table.
func listSessions(cmd *cobra.Command, store *database.Store) error {
	sessions, err := store.ListSessions(cmd.Context())
	if err != nil {
		return err
	}

	if len(sessions) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTART URL\tPAGES\tERRORS\tSTARTED\tSTATUS")
	for _, s := range sessions {
		status := string(s.Status)
		if s.Resumable() {
			status += " (resumable)"
		}
		fmt.Fprintf(w, "%d\t%s\t%d/%d\t%d\t%s\t%s\n",
			s.ID,
			s.StartURL,
			s.PagesCrawled,
			s.MaxPages,
			s.TotalErrors,
			s.StartedAt.Format(time.DateTime),
			status,
		)
	}
	return w.Flush()
}

// showSession prints one session in detail.
func showSession(cmd *cobra.Command, store *database.Store, id int64) error {
	session, err := store.GetSession(cmd.Context(), id)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %d not found", id)
	}

	pages, err := store.PageCount(cmd.Context(), id)
	if err != nil {
		return err
	}
	pending, err := store.LoadPendingWork(cmd.Context(), id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Session %d\n", session.ID)
	fmt.Fprintf(out, "  Start URL:  %s\n", session.StartURL)
	fmt.Fprintf(out, "  Bounds:     depth %d, %d pages\n", session.MaxDepth, session.MaxPages)
	fmt.Fprintf(out, "  Downloaded: %d pages (%d stored)\n", session.PagesCrawled, pages)
	fmt.Fprintf(out, "  Errors:     %d\n", session.TotalErrors)
	fmt.Fprintf(out, "  Started:    %s\n", session.StartedAt.Format(time.DateTime))
	if !session.CompletedAt.IsZero() {
		fmt.Fprintf(out, "  Finished:   %s\n", session.CompletedAt.Format(time.DateTime))
	}
	fmt.Fprintf(out, "  Status:     %s\n", session.Status)
	if session.Resumable() {
		fmt.Fprintf(out, "  Pending:    %d URLs, resume with: pagebound resume %d\n", len(pending), session.ID)
	}
	return nil
}
