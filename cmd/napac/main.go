// Package main provides the napac CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether listing commands print tables instead of JSON
var humanOutput bool

func main() {
	// A missing .env is fine; environment overrides are optional.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "napac",
	Short: "NAPAC2025 proceedings scraper",
	Long: `napac scrapes the NAPAC2025 conference proceedings site.

It discovers the session directory, extracts structured contribution
records (id, title, authors, institutions, abstract) from each session
page, probes for and downloads PDF artifacts, and writes per-session
JSON/CSV/TXT exports plus run-wide aggregates and a queryable SQLite
catalog.

Configuration comes from built-in NAPAC2025 defaults, optionally a YAML
file (--config) and the NAPAC_BASE_URL / NAPAC_OUTPUT_DIR environment
variables.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}
