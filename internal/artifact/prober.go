// Package artifact probes for and downloads the PDF artifacts attached
// to contributions.
package artifact

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
)

// DefaultProbeTimeout bounds a single existence check.
const DefaultProbeTimeout = 10 * time.Second

// Prober performs lightweight existence checks on artifact URLs.
type Prober struct {
	client  *fetch.Client
	timeout time.Duration
	logger  *slog.Logger
}

// NewProber creates a prober sharing the run's HTTP client. A
// non-positive timeout falls back to the default.
func NewProber(client *fetch.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{client: client, timeout: timeout, logger: logger}
}

// Probe issues a metadata-only check and reports whether the URL serves
// a PDF. Any network or protocol failure reads as unavailable; Probe
// never propagates an error.
func (p *Prober) Probe(ctx context.Context, url string) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Head(ctx, url)
	if err != nil {
		p.logger.Debug("artifact probe failed", "url", url, "error", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	return strings.Contains(strings.ToLower(resp.Header.Get("Content-Type")), "pdf")
}
