package artifact

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"golang.org/x/crypto/blake2b"

	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
)

// MinPlausibleSize is the smallest declared content length accepted for
// an artifact. Anything positive but smaller is an HTML error page
// masquerading as a PDF.
const MinPlausibleSize = 100

// Outcome classifies a download attempt.
type Outcome int

const (
	OutcomeSkipped Outcome = iota // destination already exists
	OutcomeSuccess
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeSuccess:
		return "success"
	default:
		return "failed"
	}
}

// Result describes a completed download. Size and Checksum are only set
// on success; Checksum is the hex BLAKE2b-256 digest of the file.
type Result struct {
	Outcome  Outcome
	Size     int64
	Checksum string
}

// Downloader fetches and persists validated artifacts.
type Downloader struct {
	client    *fetch.Client
	minSize   int64
	verifyPDF bool
}

// DownloaderOption configures a Downloader.
type DownloaderOption func(*Downloader)

// WithMinSize overrides the minimum plausible content length.
func WithMinSize(n int64) DownloaderOption {
	return func(d *Downloader) {
		d.minSize = n
	}
}

// WithPDFCheck toggles the post-download check that the file opens as a
// PDF with at least one page.
func WithPDFCheck(enabled bool) DownloaderOption {
	return func(d *Downloader) {
		d.verifyPDF = enabled
	}
}

// NewDownloader creates a downloader sharing the run's HTTP client.
func NewDownloader(client *fetch.Client, opts ...DownloaderOption) *Downloader {
	d := &Downloader{
		client:    client,
		minSize:   MinPlausibleSize,
		verifyPDF: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download streams url to dest. It is idempotent: an existing
// destination is left byte-identical and reported as Skipped. A declared
// content length that is positive but below the plausibility threshold
// fails the download before anything is written; a payload that does not
// verify as a PDF is removed again.
func (d *Downloader) Download(ctx context.Context, url, dest string) (Result, error) {
	if _, err := os.Stat(dest); err == nil {
		return Result{Outcome: OutcomeSkipped}, nil
	}

	resp, err := d.client.Get(ctx, url)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if cl := resp.ContentLength; cl > 0 && cl < d.minSize {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("implausibly small artifact (%d bytes)", cl)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("creating %s: %w", filepath.Dir(dest), err)
	}

	hash, err := blake2b.New256(nil)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("initializing checksum: %w", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("creating %s: %w", dest, err)
	}

	n, err := io.Copy(io.MultiWriter(f, hash), resp.Body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("writing %s: %w", dest, err)
	}

	if d.verifyPDF {
		if err := verifyPDF(dest); err != nil {
			os.Remove(dest)
			return Result{Outcome: OutcomeFailed}, fmt.Errorf("verifying %s: %w", dest, err)
		}
	}

	return Result{
		Outcome:  OutcomeSuccess,
		Size:     n,
		Checksum: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// verifyPDF checks that the file parses as a PDF with at least one page.
func verifyPDF(path string) error {
	f, r, err := pdf.Open(path)
	if err != nil {
		return fmt.Errorf("not a readable PDF: %w", err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return fmt.Errorf("PDF has no pages")
	}
	return nil
}
