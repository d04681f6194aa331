package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
	"github.com/iuming/NAPAC2025-scraper/internal/session"
)

var (
	sessionsConfigPath string
	sessionsBaseURL    string
)

func init() {
	sessionsCmd.Flags().StringVar(&sessionsConfigPath, "config", "", "Path to a YAML config file")
	sessionsCmd.Flags().StringVar(&sessionsBaseURL, "base-url", "", "Proceedings base URL (overrides config)")
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the sessions in the proceedings index",
	Long: `List the sessions discovered from the proceedings index page
without scraping them.

Example:
  napac sessions --human`,
	Args: cobra.NoArgs,
	RunE: runSessions,
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(sessionsConfigPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if sessionsBaseURL != "" {
		cfg.BaseURL = sessionsBaseURL
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.PageTimeout}),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithRetries(cfg.Retries),
		fetch.WithRetryBaseDelay(cfg.RetryBaseDelay),
		fetch.WithPageTimeout(cfg.PageTimeout),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithLogger(logger),
	)

	sessions, err := session.Load(cmd.Context(), client, cfg.BaseURL)
	if err != nil {
		exitWithError(ExitError, "loading sessions: %v", err)
	}

	if !humanOutput {
		return outputJSON(sessions)
	}

	fmt.Printf("%-8s %-50s %s\n", "ID", "NAME", "URL")
	for _, s := range sessions {
		name := s.Name
		if len(name) > 50 {
			cut := 47
			for cut > 0 && !utf8.RuneStart(name[cut]) {
				cut--
			}
			name = name[:cut] + "..."
		}
		fmt.Printf("%-8s %-50s %s\n", s.ID, name, s.URL)
	}
	fmt.Printf("\n%d sessions\n", len(sessions))
	return nil
}
