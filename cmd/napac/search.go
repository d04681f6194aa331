package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iuming/NAPAC2025-scraper/internal/catalog"
	"github.com/iuming/NAPAC2025-scraper/internal/config"
)

var (
	searchConfigPath string
	searchOutputDir  string
	searchLimit      int
)

func init() {
	searchCmd.Flags().StringVar(&searchConfigPath, "config", "", "Path to a YAML config file")
	searchCmd.Flags().StringVar(&searchOutputDir, "output", "", "Output directory holding the catalog (overrides config)")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 20, "Maximum number of results")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Full-text search over the scraped paper catalog",
	Long: `Search titles, abstracts and author names across everything the
scraper has catalogued.

Example:
  napac search "beam dynamics"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(searchConfigPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if searchOutputDir != "" {
		cfg.OutputDir = searchOutputDir
	}

	catalogPath := config.CatalogPath(cfg.OutputDir)
	if _, err := os.Stat(catalogPath); err != nil {
		exitWithError(ExitDataError, "no catalog at %s; run 'napac run' first", catalogPath)
	}

	db, err := catalog.Open(catalogPath)
	if err != nil {
		exitWithError(ExitError, "opening catalog: %v", err)
	}
	defer db.Close()

	query := strings.Join(args, " ")
	results, err := db.Search(query, searchLimit)
	if err != nil {
		exitWithError(ExitError, "searching: %v", err)
	}

	if !humanOutput {
		return outputJSON(results)
	}

	for _, r := range results {
		fmt.Printf("%s/%s  %s\n", r.SessionID, r.PaperID, r.Title)
		if len(r.Authors) > 0 {
			fmt.Printf("        %s\n", strings.Join(r.Authors, ", "))
		}
	}
	fmt.Printf("\n%d results for %q\n", len(results), query)
	return nil
}
