// Package config provides configuration structures and utilities for
// pagebound. It defines the crawl bounds, politeness settings, output
// locations, and report generation preferences, populated from defaults,
// an optional YAML file, and CLI flags in that order.
package config
