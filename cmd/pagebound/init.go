package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pagebound/pagebound/internal/config"
)

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new pagebound configuration file",
		Long: `Initialize creates a new pagebound.yaml configuration file in the
current directory.

The generated file includes every setting at its default value with a
comment explaining it. CLI flags override anything set in the file.

Examples:
  # Create pagebound.yaml in current directory
  pagebound init

  # Create config file at a specific path
  pagebound init -o myconfig.yaml

  # Force overwrite existing file
  pagebound init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	// Create parent directories if needed
	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if force {
		if err := os.WriteFile(outputPath, []byte(config.DefaultYAML), 0640); err != nil {
			return fmt.Errorf("failed to write configuration file: %w", err)
		}
	} else if err := config.WriteDefaultConfig(outputPath); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit this file to adjust settings such as:")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Crawl bounds (max_depth, max_pages)")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Politeness delay and worker count")
	fmt.Fprintln(cmd.OutOrStdout(), "  - Allowed domains and output locations")

	return nil
}
