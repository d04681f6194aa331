package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/scrape"
)

// testRunSessions bounds the default run so a configuration can be
// sanity-checked before committing to the full program.
const testRunSessions = 3

var (
	runConfigPath   string
	runBaseURL      string
	runOutputDir    string
	runFull         bool
	runSessionLimit int
)

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Path to a YAML config file")
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "Proceedings base URL (overrides config)")
	runCmd.Flags().StringVar(&runOutputDir, "output", "", "Output directory (overrides config)")
	runCmd.Flags().BoolVar(&runFull, "full", false, "Process all sessions instead of the first 3")
	runCmd.Flags().IntVar(&runSessionLimit, "sessions", 0, "Process at most N sessions (overrides --full)")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape the proceedings site",
	Long: `Scrape the proceedings site: discover sessions, extract paper
records, download PDF artifacts and write all exports.

By default only the first 3 sessions are processed as a bounded test
run. Pass --full for the whole program, or --sessions N for an explicit
bound.

Examples:
  napac run
  napac run --full
  napac run --sessions 10 --output /data/napac2025`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if runBaseURL != "" {
		cfg.BaseURL = runBaseURL
	}
	if runOutputDir != "" {
		cfg.OutputDir = runOutputDir
	}

	logger, closeLog, err := setupLogger(cfg.OutputDir)
	if err != nil {
		exitWithError(ExitError, "setting up logging: %v", err)
	}
	defer closeLog()

	// Interrupt stops the loop after the current session; files already
	// written stay intact.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := scrape.New(cfg, logger)
	if err != nil {
		exitWithError(ExitError, "initializing scraper: %v", err)
	}
	defer runner.Close()

	limit := testRunSessions
	if runFull {
		limit = 0
	}
	if runSessionLimit > 0 {
		limit = runSessionLimit
	}

	if _, err := runner.Run(ctx, limit); err != nil {
		return err
	}

	stats := runner.Stats()
	fmt.Printf("Scrape finished: %d sessions, %d papers, %d errors\n",
		stats.SessionsProcessed, stats.TotalPapers, stats.Errors)
	fmt.Printf("Output directory: %s\n", cfg.OutputDir)
	return nil
}

// setupLogger writes structured logs to stderr and to the run log file
// under the output directory.
func setupLogger(outputDir string) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", outputDir, err)
	}

	f, err := os.OpenFile(config.LogPath(outputDir), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(os.Stderr, f), nil)
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, func() { f.Close() }, nil
}
