// Package main provides the entry point for the pagebound CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for pagebound.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagebound",
		Short: "Polite, bounded, breadth-first web crawler",
		Long: `pagebound crawls websites breadth-first from a seed URL, within hard
bounds on depth and page count. It honors robots.txt, spaces requests to
each domain, extracts structured content from every page, and records
each run in a local session database so interrupted crawls can resume.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewSessionsCmd())
	cmd.AddCommand(NewResumeCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
