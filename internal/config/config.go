package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to be polite to crawled sites while keeping a
// default run short enough to finish in a couple of minutes.
const (
	// DefaultMaxDepth of 2 covers the seed, its links, and their links.
	// That is enough to map a site's structure without wandering into
	// deep archives. Larger sites may need this increased via CLI flags.
	DefaultMaxDepth = 2

	// DefaultMaxPages caps a run at 50 pages. This prevents runaway
	// crawling on large or infinitely-generating sites.
	// Users can override this via the --max-pages CLI flag.
	DefaultMaxPages = 50

	// DefaultDelay is the minimum interval between requests to one domain.
	// 1 second is conservative and respectful of server resources.
	// Can be adjusted via the --delay CLI flag.
	DefaultDelay = 1 * time.Second

	// DefaultWorkers of 4 concurrent fetches balances throughput with
	// resource usage. The per-domain delay dominates single-site crawls
	// anyway, so more workers mainly help multi-domain crawls.
	DefaultWorkers = 4

	// DefaultTimeout is the overall per-request timeout, covering the
	// full body transfer. 30 seconds tolerates slow servers without
	// letting one stalled transfer hold a worker for minutes.
	DefaultTimeout = 30 * time.Second

	// DefaultConnectTimeout bounds the TCP handshake separately from the
	// body transfer; an unreachable host should fail fast.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultOutputDir is where page artifacts are written.
	DefaultOutputDir = "downloaded_pages"

	// DefaultUserAgent identifies pagebound in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify crawler traffic in their logs.
	DefaultUserAgent = "pagebound/1.0 (+https://github.com/pagebound/pagebound)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 5MB is sufficient for most HTML pages while preventing memory
	// exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// AppName is the application name used for XDG directory paths.
	AppName = "pagebound"
)

// Config holds all configuration options for a crawl run.
// This struct is designed to be populated from defaults, the YAML file,
// and CLI flags, then passed through the application via dependency
// injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit. The YAML file uses sections, but they flatten into this struct
// at load time.
type Config struct {
	// SeedURL is the URL the crawl starts from.
	SeedURL string

	// MaxDepth is the maximum link distance from the seed.
	// Depth 0 means only fetch the seed page.
	MaxDepth int

	// MaxPages is the maximum number of pages to download per run.
	MaxPages int

	// Delay is the minimum interval between requests to the same domain.
	// Lower values may cause rate limiting or service disruption.
	Delay time.Duration

	// Workers is the number of concurrent fetch workers.
	// Values outside [1, 10] are clamped by Validate.
	Workers int

	// AllowedDomains restricts crawling to these domains and their
	// subdomains when non-empty. Empty means any domain reachable from
	// the seed.
	AllowedDomains []string

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps site operators identify crawler
	// traffic.
	UserAgent string

	// Timeout is the overall per-request timeout including body transfer.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory
	// exhaustion. Set to 0 to use the default (5MB).
	MaxBodySize int64

	// OutputDir is the directory where page artifacts are written.
	OutputDir string

	// DBDir is the directory path for storing the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveToDB indicates whether crawl results are persisted to the
	// database. Disabled by the --no-db CLI flag.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for pagebound.yaml in the current
	// directory and then in the XDG config directory.
	ConfigFilePath string

	// JSONReport enables JSON summary output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown summary output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the summary.
	// When set, the summary is written to this file in addition to stdout.
	ReportFile string
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases. Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., delay, page cap).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxDepth:    DefaultMaxDepth,
		MaxPages:    DefaultMaxPages,
		Delay:       DefaultDelay,
		Workers:     DefaultWorkers,
		UserAgent:   DefaultUserAgent,
		Timeout:     DefaultTimeout,
		MaxBodySize: DefaultMaxBodySize,
		OutputDir:   DefaultOutputDir,
		DBDir:       XDGDataDir(),
		SaveToDB:    true,
	}
}

// XDGDataDir returns the XDG data directory for pagebound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/pagebound
// On macOS: ~/Library/Application Support/pagebound
// On Windows: %LOCALAPPDATA%\pagebound
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagebound.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/pagebound
// On macOS: ~/Library/Application Support/pagebound
// On Windows: %APPDATA%\pagebound
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid and normalizes it.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any crawling begins.
//
// We chose to return the first error found rather than collecting all
// errors because fixing one error often makes others irrelevant.
// The worker count is clamped instead of rejected: an out-of-range pool
// size has an obvious intended meaning.
func (c *Config) Validate() error {
	if c.SeedURL == "" {
		return ErrNoSeed
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.Workers < 1 {
		c.Workers = 1
	} else if c.Workers > 10 {
		c.Workers = 10
	}

	return nil
}
