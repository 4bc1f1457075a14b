package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = "pagebound.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file layout. All fields are optional;
// absent values keep their defaults. Sections group related settings the
// way the CLI flags do.
type File struct {
	Crawler CrawlerSection `yaml:"crawler"`
	HTTP    HTTPSection    `yaml:"http"`
	Output  OutputSection  `yaml:"output"`
	Filters FiltersSection `yaml:"filters"`
}

// Duration wraps time.Duration so YAML values can use Go duration syntax
// ("1s", "500ms"); yaml.v3 has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// CrawlerSection holds crawl bounds and politeness settings.
type CrawlerSection struct {
	MaxDepth *int      `yaml:"max_depth"`
	MaxPages *int      `yaml:"max_pages"`
	Delay    *Duration `yaml:"delay"`
	Workers  *int      `yaml:"workers"`
}

// HTTPSection holds transport settings.
type HTTPSection struct {
	UserAgent   *string   `yaml:"user_agent"`
	Timeout     *Duration `yaml:"timeout"`
	MaxBodySize *int64    `yaml:"max_body_size"`
}

// OutputSection holds artifact and database locations.
type OutputSection struct {
	Dir    *string `yaml:"dir"`
	DBDir  *string `yaml:"db_dir"`
	SaveDB *bool   `yaml:"save_db"`
}

// FiltersSection holds admission restrictions.
type FiltersSection struct {
	AllowedDomains []string `yaml:"allowed_domains"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return &f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for pagebound.yaml in the current directory
// 3. Look for pagebound.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if
// not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply overlays the file's values onto a config. Only set fields are
// applied, so the precedence stays defaults < file < CLI flags (flags are
// applied by the caller after this).
func (f *File) Apply(c *Config) {
	if f.Crawler.MaxDepth != nil {
		c.MaxDepth = *f.Crawler.MaxDepth
	}
	if f.Crawler.MaxPages != nil {
		c.MaxPages = *f.Crawler.MaxPages
	}
	if f.Crawler.Delay != nil {
		c.Delay = time.Duration(*f.Crawler.Delay)
	}
	if f.Crawler.Workers != nil {
		c.Workers = *f.Crawler.Workers
	}

	if f.HTTP.UserAgent != nil {
		c.UserAgent = *f.HTTP.UserAgent
	}
	if f.HTTP.Timeout != nil {
		c.Timeout = time.Duration(*f.HTTP.Timeout)
	}
	if f.HTTP.MaxBodySize != nil {
		c.MaxBodySize = *f.HTTP.MaxBodySize
	}

	if f.Output.Dir != nil {
		c.OutputDir = *f.Output.Dir
	}
	if f.Output.DBDir != nil {
		c.DBDir = *f.Output.DBDir
	}
	if f.Output.SaveDB != nil {
		c.SaveToDB = *f.Output.SaveDB
	}

	if len(f.Filters.AllowedDomains) > 0 {
		c.AllowedDomains = f.Filters.AllowedDomains
	}
}

// DefaultYAML is a commented configuration file with every setting at its
// default, written by the init command as a starting point.
const DefaultYAML = `# pagebound configuration
#
# All settings are optional; absent values keep their defaults.
# CLI flags override anything set here.

crawler:
  # Maximum link distance from the seed URL. 0 fetches only the seed.
  max_depth: 2
  # Maximum number of pages to download per run.
  max_pages: 50
  # Minimum interval between requests to the same domain.
  delay: 1s
  # Concurrent fetch workers, clamped to [1, 10].
  workers: 4

http:
  # User-Agent header sent with every request.
  user_agent: "pagebound/1.0 (+https://github.com/pagebound/pagebound)"
  # Overall per-request timeout, including the body transfer.
  timeout: 30s
  # Maximum response body size in bytes.
  max_body_size: 5242880

output:
  # Directory for downloaded page artifacts.
  dir: downloaded_pages
  # Directory for the session database. Defaults to the XDG data dir.
  # db_dir: /path/to/db
  # Persist sessions, pages, and errors to the database.
  save_db: true

filters:
  # Restrict crawling to these domains and their subdomains.
  # Empty means any domain reachable from the seed.
  allowed_domains: []
`

// WriteDefaultConfig writes the commented default configuration to path.
// It refuses to overwrite an existing file.
func WriteDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}
	return os.WriteFile(path, []byte(DefaultYAML), 0640)
}
