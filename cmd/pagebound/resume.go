package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagebound/pagebound/internal/config"
	internallog "github.com/pagebound/pagebound/internal/log"
	"github.com/pagebound/pagebound/internal/pipeline"
)

// NewResumeCmd creates the resume command.
func NewResumeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Resume an interrupted crawl session",
		Long: `Resume continues an interrupted crawl session from its saved frontier.

Already-downloaded pages are not fetched again, and the session keeps
counting toward its original page cap. Use 'pagebound sessions' to find
resumable sessions.

Examples:
  # Resume session 12
  pagebound resume 12

  # Resume with a different politeness delay
  pagebound resume --delay 2s 12`,
		Args: cobra.ExactArgs(1),
		RunE: runResumeCmd,
	}

	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum interval between requests to the same domain")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent fetch workers (clamped to 1-10)")
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout including the body transfer")
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for downloaded page artifacts")
	cmd.Flags().String("db-dir", "",
		"Directory of the session database (default: XDG data dir)")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: pagebound.yaml in current or XDG config directory)")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("report-file", "r", "",
		"Write the summary to this file in addition to stdout")

	return cmd
}

// runResumeCmd executes the resume command.
func runResumeCmd(cmd *cobra.Command, args []string) error {
	sessionID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid session ID %q", args[0])
	}

	cfg, err := buildConfig(cmd, nil)
	if err != nil {
		return err
	}

	logger := internallog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	store, err := openSessionStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck // Best effort cleanup

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %d not found", sessionID)
	}
	if !session.Resumable() {
		return fmt.Errorf("session %d is not resumable (status %s, %d/%d pages)",
			session.ID, session.Status, session.PagesCrawled, session.MaxPages)
	}

	pending, err := store.LoadPendingWork(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return fmt.Errorf("session %d has no pending work to resume", sessionID)
	}
	visited, err := store.LoadVisited(ctx, sessionID)
	if err != nil {
		return err
	}

	// The resumed run continues toward the session's original bounds;
	// the engine's cap covers only the pages this run may still download.
	cfg.SeedURL = session.StartURL
	cfg.MaxDepth = session.MaxDepth
	cfg.MaxPages = session.MaxPages - session.PagesCrawled
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddSteps(
		pipeline.NewCrawlStep(cfg, store,
			pipeline.WithCrawlLogger(logger),
			pipeline.WithCrawlEvents(newProgressPrinter(os.Stderr, cfg.MaxPages)),
			pipeline.WithResume(pending, visited),
		),
		pipeline.NewReportStep(writer),
		pipeline.NewSessionEndStep(store),
	)

	run := pipeline.NewRun(jobForSeed(cfg, session.StartURL))
	run.SessionID = session.ID
	run.PagesBefore = session.PagesCrawled

	fmt.Printf("Resuming session %d (%s, %d URLs pending)...\n",
		session.ID, session.StartURL, len(pending))
	startTime := time.Now()

	if err := p.Execute(ctx, run); err != nil {
		return err
	}

	elapsed := time.Since(startTime)
	if run.Interrupted {
		fmt.Printf("Crawl interrupted after %s; resume again with: pagebound resume %d\n",
			elapsed.Round(time.Millisecond), session.ID)
	} else {
		fmt.Printf("Crawl completed in %s\n", elapsed.Round(time.Millisecond))
	}
	return nil
}
