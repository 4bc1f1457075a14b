package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagebound/pagebound/internal/config"
	"github.com/pagebound/pagebound/internal/crawler"
	"github.com/pagebound/pagebound/internal/database"
	internallog "github.com/pagebound/pagebound/internal/log"
	"github.com/pagebound/pagebound/internal/pipeline"
	"github.com/pagebound/pagebound/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl a website breadth-first from a seed URL",
		Long: `Crawl downloads pages breadth-first starting from a seed URL.

The crawl stays within hard bounds (maximum depth and page count), honors
robots.txt, and spaces requests to each domain. Every downloaded page is
written to the output directory together with its extracted content, and
the run is recorded in the session database.

Press Ctrl-C to stop a crawl early; the partial results are reported and
the session is saved so it can be resumed with 'pagebound resume'.

Examples:
  # Crawl with default bounds (depth 2, 50 pages)
  pagebound crawl https://example.com/

  # Deeper crawl restricted to one domain
  pagebound crawl -d 4 -p 200 -D example.com https://example.com/

  # Crawl several sites concurrently
  pagebound crawl https://one.example/ https://two.example/

  # JSON summary written to a file
  pagebound crawl --json -r summary.json https://example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl bounds and politeness
	cmd.Flags().IntP("max-depth", "d", config.DefaultMaxDepth,
		"Maximum link distance from the seed (0 fetches only the seed)")
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to download")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum interval between requests to the same domain")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Concurrent fetch workers (clamped to 1-10)")
	cmd.Flags().StringSliceP("allowed-domains", "D", nil,
		"Restrict crawling to these domains and their subdomains")

	// HTTP behavior
	cmd.Flags().StringP("user-agent", "A", config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Per-request timeout including the body transfer")

	// Output and persistence
	cmd.Flags().StringP("output", "o", config.DefaultOutputDir,
		"Directory for downloaded page artifacts")
	cmd.Flags().Bool("no-db", false,
		"Do not record the session in the database")
	cmd.Flags().String("db-dir", "",
		"Directory for the session database (default: XDG data dir)")

	// Batch crawling
	cmd.Flags().IntP("batch", "b", 2,
		"Number of seeds crawled concurrently when several are given")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: pagebound.yaml in current or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("report-file", "r", "",
		"Write the summary to this file in addition to stdout")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := internallog.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := signalContext(logger)
	defer cancel()

	batch, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return err
	}

	return runCrawl(ctx, cfg, args, batch, logger)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM so an
// interrupted crawl still reports partial results and saves its session.
func signalContext(logger *slog.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, stopping crawl...")
		cancel()
	}()

	return ctx, cancel
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from defaults, the configuration file, and
// the command flags, in that precedence order. Only flags the user changed
// override the file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	if len(args) > 0 {
		cfg.SeedURL = args[0]
	}

	var err error
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file, it must exist.
	// An absent default-location file is not an error.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	if cfg.DBDir == "" {
		cfg.DBDir = config.XDGDataDir()
	}

	return cfg, nil
}

// applyFlags overlays changed flag values onto the config.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("max-depth") {
		if cfg.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return err
		}
	}
	if flags.Changed("max-pages") {
		if cfg.MaxPages, err = flags.GetInt("max-pages"); err != nil {
			return err
		}
	}
	if flags.Changed("delay") {
		if cfg.Delay, err = flags.GetDuration("delay"); err != nil {
			return err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return err
		}
	}
	if flags.Changed("allowed-domains") {
		if cfg.AllowedDomains, err = flags.GetStringSlice("allowed-domains"); err != nil {
			return err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.OutputDir, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("no-db") {
		noDB, err := flags.GetBool("no-db")
		if err != nil {
			return err
		}
		cfg.SaveToDB = !noDB
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return err
	}
	if cfg.ReportFile, err = flags.GetString("report-file"); err != nil {
		return err
	}

	return nil
}

// runCrawl executes the crawl for all seeds.
func runCrawl(ctx context.Context, cfg *config.Config, seeds []string, batch int, logger *slog.Logger) error {
	logger.Info("starting",
		"seeds", seeds,
		"maxDepth", cfg.MaxDepth,
		"maxPages", cfg.MaxPages,
		"saveToDB", cfg.SaveToDB,
	)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close() //nolint:errcheck // Best effort cleanup
	}

	if len(seeds) > 1 && batch > 1 {
		return runBatchCrawl(ctx, cfg, seeds, batch, store, logger)
	}
	return runSequentialCrawl(ctx, cfg, seeds, store, logger)
}

// openStore opens the session database when persistence is enabled.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	if !cfg.SaveToDB {
		return nil, nil
	}
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("database opened", "dir", cfg.DBDir)
	return store, nil
}

// newCrawlPipeline assembles the standard crawl pipeline for one seed.
// The report step is included only when a writer is given; batch mode
// writes reports from its completion callback instead.
func newCrawlPipeline(cfg *config.Config, store *database.Store, writer report.Writer, logger *slog.Logger) *pipeline.Pipeline {
	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)

	p.AddStep(pipeline.NewSessionStartStep(store))
	p.AddStep(pipeline.NewCrawlStep(cfg, store,
		pipeline.WithCrawlLogger(logger),
		pipeline.WithCrawlEvents(newProgressPrinter(os.Stderr, cfg.MaxPages)),
	))
	if writer != nil {
		p.AddStep(pipeline.NewReportStep(writer))
	}
	p.AddStep(pipeline.NewSessionEndStep(store))

	return p
}

// jobForSeed builds the crawl job for one seed from the config.
func jobForSeed(cfg *config.Config, seed string) crawler.Job {
	return crawler.Job{
		SeedURL:        seed,
		MaxDepth:       cfg.MaxDepth,
		MaxPages:       cfg.MaxPages,
		Delay:          cfg.Delay,
		Workers:        cfg.Workers,
		AllowedDomains: cfg.AllowedDomains,
		UserAgent:      cfg.UserAgent,
	}
}

// runSequentialCrawl crawls seeds one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, seeds []string, store *database.Store, logger *slog.Logger) error {
	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	for _, seed := range seeds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		fmt.Printf("Crawling %s...\n", seed)
		startTime := time.Now()

		p := newCrawlPipeline(cfg, store, writer, logger)
		run := pipeline.NewRun(jobForSeed(cfg, seed))

		if err := p.Execute(ctx, run); err != nil {
			logger.Error("crawl failed", "seed", seed, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", seed, err)
			continue
		}

		elapsed := time.Since(startTime)
		if run.Interrupted {
			fmt.Printf("Crawl interrupted after %s", elapsed.Round(time.Millisecond))
			if store != nil && len(run.Pending) > 0 {
				fmt.Printf("; resume with: pagebound resume %d", run.SessionID)
			}
			fmt.Println()
		} else {
			fmt.Printf("Crawl completed in %s\n", elapsed.Round(time.Millisecond))
		}
	}

	return nil
}

// runBatchCrawl crawls multiple seeds concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, seeds []string, batch int, store *database.Store, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d seeds (concurrency: %d)...\n\n", len(seeds), batch)
	startTime := time.Now()

	writer, closeWriter, err := newReportWriter(cfg)
	if err != nil {
		return err
	}
	defer closeWriter()

	bp := pipeline.NewBatchProcessor(
		func(seed string) (*pipeline.Pipeline, *pipeline.Run, error) {
			p := newCrawlPipeline(cfg, store, nil, logger)
			return p, pipeline.NewRun(jobForSeed(cfg, seed)), nil
		},
		pipeline.WithConcurrency(batch),
		pipeline.WithBatchLogger(logger),
	)

	// Reports are written from the callback so concurrent crawls do not
	// interleave their summaries.
	var mu sync.Mutex
	var done int
	_, err = bp.ProcessBatchWithCallback(ctx, seeds, func(seed string, run *pipeline.Run) {
		mu.Lock()
		defer mu.Unlock()

		done++
		fmt.Printf("[%d/%d] Crawl finished: %s\n", done, len(seeds), seed)

		if run.ErrorMessage != "" {
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %s\n", seed, run.ErrorMessage)
		}
		if run.Summary != nil {
			if _, err := writer.Write(run.Summary); err != nil {
				logger.Error("report failed", "seed", seed, "error", err)
			}
		}
	})

	fmt.Printf("\nBatch crawl completed in %s\n", time.Since(startTime).Round(time.Millisecond))
	return err
}

// newReportWriter builds the summary writer for the configured format and
// destination. The returned close function releases the report file, if any.
func newReportWriter(cfg *config.Config) (report.Writer, func(), error) {
	outputs := []io.Writer{os.Stdout}
	closeFn := func() {}

	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
			}
		}
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0640)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create report file: %w", err)
		}
		outputs = append(outputs, f)
		closeFn = func() { _ = f.Close() }
	}

	writers := make([]report.Writer, 0, len(outputs))
	for _, out := range outputs {
		switch {
		case cfg.JSONReport:
			writers = append(writers, report.NewJSONWriter(out, report.WithPrettyPrint(), report.WithVersion(getVersion())))
		case cfg.MarkdownReport:
			writers = append(writers, report.NewMarkdownWriter(out))
		default:
			writers = append(writers, report.NewSimpleWriter(out))
		}
	}

	if len(writers) == 1 {
		return writers[0], closeFn, nil
	}
	return report.NewMultiWriter(writers...), closeFn, nil
}
