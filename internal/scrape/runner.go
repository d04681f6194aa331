// Package scrape orchestrates a full run: session discovery, extraction,
// artifact downloads and reporting, one session at a time.
package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	"github.com/iuming/NAPAC2025-scraper/internal/artifact"
	"github.com/iuming/NAPAC2025-scraper/internal/catalog"
	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/extract"
	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
	"github.com/iuming/NAPAC2025-scraper/internal/paper"
	"github.com/iuming/NAPAC2025-scraper/internal/report"
	"github.com/iuming/NAPAC2025-scraper/internal/session"
)

// Runner wires the scraper components for one run. Shared mutable state
// is limited to the statistics counters and the HTTP client's connection
// pool; everything executes sequentially.
type Runner struct {
	cfg        *config.Config
	client     *fetch.Client
	extractor  *extract.Extractor
	downloader *artifact.Downloader
	catalog    *catalog.DB
	stats      *report.Stats
	logger     *slog.Logger
}

// New builds a Runner from configuration, creating the output directory
// tree and opening the catalog.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.CreateDirectories(); err != nil {
		return nil, err
	}

	client := fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.DownloadTimeout}),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithRetries(cfg.Retries),
		fetch.WithRetryBaseDelay(cfg.RetryBaseDelay),
		fetch.WithPageTimeout(cfg.PageTimeout),
		fetch.WithRateLimit(cfg.RequestsPerSecond),
		fetch.WithLogger(logger),
	)

	prober := artifact.NewProber(client, cfg.ProbeTimeout, logger)
	rules := extract.NewRules(cfg.Extract.StopKeywords, cfg.Extract.LinkPhrase)
	enricher := extract.NewEnricher(cfg.BaseURL, cfg.DOIPrefix, prober, logger)

	cat, err := catalog.Open(config.CatalogPath(cfg.OutputDir))
	if err != nil {
		return nil, err
	}

	return &Runner{
		cfg:        cfg,
		client:     client,
		extractor:  extract.NewExtractor(rules, enricher, logger),
		downloader: artifact.NewDownloader(client),
		catalog:    cat,
		stats:      &report.Stats{},
		logger:     logger,
	}, nil
}

// Stats returns the run's statistics accumulator.
func (r *Runner) Stats() *report.Stats {
	return r.stats
}

// Close releases the catalog connection.
func (r *Runner) Close() error {
	return r.catalog.Close()
}

// Run processes up to limit sessions (all of them when limit <= 0) and
// writes the run-wide aggregates. Session-level failures are logged,
// counted and skipped; only a failure writing the final aggregates
// propagates. Cancelling ctx stops the loop after the current session
// without corrupting already-written output.
func (r *Runner) Run(ctx context.Context, limit int) ([]report.SessionData, error) {
	start := time.Now()
	r.logger.Info("starting proceedings scrape", "base_url", r.cfg.BaseURL, "output", r.cfg.OutputDir)

	sessions, err := session.Load(ctx, r.client, r.cfg.BaseURL)
	if err != nil {
		// Zero sessions is a degenerate but legitimate run.
		r.logger.Error("failed to load sessions", "error", err)
		r.stats.AddError()
	}
	r.logger.Info("loaded session directory", "sessions", len(sessions))

	if limit > 0 && len(sessions) > limit {
		r.logger.Info("bounded run", "limit", limit)
		sessions = sessions[:limit]
	}

	var all []report.SessionData
	for i, s := range sessions {
		if ctx.Err() != nil {
			r.logger.Warn("interrupted, stopping before next session", "remaining", len(sessions)-i)
			break
		}

		r.logger.Info("processing session", "index", i+1, "total", len(sessions), "session", s.Name)
		papers, err := r.processSession(ctx, s)
		if err != nil {
			r.logger.Error("session failed, skipping", "session", s.Name, "error", err)
			r.stats.AddError()
			continue
		}
		all = append(all, report.NewSessionData(s, papers))

		if i < len(sessions)-1 {
			sleepCtx(ctx, r.cfg.SessionDelay)
		}
	}

	if err := report.WriteFinalReport(r.cfg.OutputDir, all, r.stats, time.Now()); err != nil {
		return all, fmt.Errorf("writing final aggregates: %w", err)
	}

	r.logger.Info("scrape finished",
		"elapsed", time.Since(start).Round(time.Second),
		"sessions", r.stats.SessionsProcessed,
		"papers", r.stats.TotalPapers,
		"errors", r.stats.Errors)
	return all, nil
}

// processSession scrapes one session page, writes its exports and
// downloads its artifacts. A fetch failure after retries is counted and
// yields an empty paper list rather than an error, so the session still
// appears in the aggregates.
func (r *Runner) processSession(ctx context.Context, s session.Session) ([]paper.Paper, error) {
	doc, err := r.client.FetchDocument(ctx, s.URL)
	if err != nil {
		// Counted as an error only; SessionsProcessed covers sessions
		// whose page was actually retrieved.
		r.logger.Error("giving up on session page", "session", s.ID, "error", err)
		r.stats.AddError()
		return nil, nil
	}

	if err := report.WriteDebugText(r.cfg.OutputDir, s.ID, doc.Text()); err != nil {
		r.logger.Warn("debug dump failed", "session", s.ID, "error", err)
	}

	papers := r.extractor.Extract(ctx, doc)
	if len(papers) == 0 {
		r.logger.Warn("no papers detected by pattern matching", "session", s.ID)
	}
	r.stats.AddSession(len(papers))

	if len(papers) > 0 {
		if err := report.WriteSessionData(r.cfg.OutputDir, s, papers, time.Now()); err != nil {
			return nil, err
		}
	}
	if err := r.catalog.ReplaceSession(s, papers); err != nil {
		r.logger.Error("catalog update failed", "session", s.ID, "error", err)
		r.stats.AddError()
	}

	for i := range papers {
		if ctx.Err() != nil {
			break
		}
		r.downloadArtifacts(ctx, s, &papers[i])
		sleepCtx(ctx, r.cfg.PaperDelay)
	}

	r.logger.Info("session complete", "session", s.ID, "papers", len(papers))
	return papers, nil
}

// downloadArtifacts fetches each confirmed artifact of a paper, one at a
// time.
func (r *Runner) downloadArtifacts(ctx context.Context, s session.Session, p *paper.Paper) {
	for _, k := range paper.Kinds() {
		url := p.URL(k)
		if url == "" || !p.Available(k) {
			continue
		}

		dest := filepath.Join(r.cfg.OutputDir, k.Folder(), report.SafeFilename(s.Name),
			p.ID+k.FileSuffix()+".pdf")

		res, err := r.downloader.Download(ctx, url, dest)
		switch res.Outcome {
		case artifact.OutcomeSkipped:
			r.logger.Info("artifact already exists, skipping", "kind", string(k), "id", p.ID)
		case artifact.OutcomeSuccess:
			r.logger.Info("downloaded artifact", "kind", string(k), "id", p.ID, "bytes", res.Size)
			r.stats.AddDownloaded(k)
			if k == paper.KindPaper {
				if err := r.catalog.RecordArtifact(s.ID, p.ID, res.Checksum, res.Size); err != nil {
					r.logger.Warn("recording artifact checksum failed", "id", p.ID, "error", err)
				}
			}
		case artifact.OutcomeFailed:
			r.logger.Error("artifact download failed", "kind", string(k), "url", url, "error", err)
			r.stats.AddError()
		}
	}
}

// sleepCtx pauses for d, returning early when ctx is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
