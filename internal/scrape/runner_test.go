package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/report"
)

const indexHTML = `<html><body>
<a data-href="session/1161-mowp/index.html">MOWP: Monday Posters</a>
<a data-href="session/1201-tuoa/index.html">TUOA: Tuesday Orals</a>
</body></html>`

const mowpHTML = `<html><body>
<div class="contrib-ancor" id="mop001"></div>
<div class="contrib-header">MOP001Design Of A Compact Storage Ring J. Smith</div>
<div class="contrib-subheader">Monday Posters</div>
<div class="contrib-desc">Design study of a compact storage ring.</div>
<div class="contrib-authors"><ul><li><b>J. Smith</b><br>CERN</li></ul></div>
</body></html>`

const tuoaHTML = `<html><body>
<div class="contrib-ancor" id="tuoa01"></div>
<div class="contrib-header">TUOA01Beam Instrumentation For Hadron Machines D. Green</div>
<div class="contrib-subheader">Tuesday Orals</div>
<div class="contrib-desc">A survey of instrumentation.</div>
<div class="contrib-authors"><ul><li><b>D. Green</b><br>SLAC</li></ul></div>
</body></html>`

// newProceedingsServer serves a two-session proceedings site. Artifact
// probes get 404, so no downloads happen.
func newProceedingsServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/html/session_list.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/session/1161-mowp/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(mowpHTML))
	})
	mux.HandleFunc("/session/1201-tuoa/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tuoaHTML))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = baseURL + "/"
	cfg.OutputDir = filepath.Join(t.TempDir(), "out")
	cfg.RequestsPerSecond = 1000
	cfg.RetryBaseDelay = time.Millisecond
	cfg.PaperDelay = 0
	cfg.SessionDelay = 0
	return cfg
}

func newTestRunner(t *testing.T, cfg *config.Config) *Runner {
	t.Helper()
	r, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestRunFullSite(t *testing.T) {
	srv := newProceedingsServer(t)
	cfg := testConfig(t, srv.URL)
	r := newTestRunner(t, cfg)

	all, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Run returned %d sessions, want 2", len(all))
	}
	if all[0].SessionInfo.ID != "MOWP" || all[1].SessionInfo.ID != "TUOA" {
		t.Errorf("session ids = %q, %q", all[0].SessionInfo.ID, all[1].SessionInfo.ID)
	}
	if all[0].PaperCount != 1 || all[0].Papers[0].ID != "MOP001" {
		t.Errorf("first session papers = %+v", all[0].Papers)
	}

	stats := r.Stats()
	if stats.SessionsProcessed != 2 || stats.TotalPapers != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.Errors != 0 {
		t.Errorf("errors = %d, want 0", stats.Errors)
	}

	// Run-wide aggregates and per-session exports land on disk.
	for _, path := range []string{
		filepath.Join(cfg.OutputDir, report.FinalReportFile),
		filepath.Join(cfg.OutputDir, report.CompleteIndexFile),
		filepath.Join(cfg.OutputDir, report.AllPapersFile),
		filepath.Join(config.SessionsDir(cfg.OutputDir), "MOWP Monday Posters", "papers_data.json"),
		filepath.Join(config.DebugDir(cfg.OutputDir), "MOWP_page_text.txt"),
		config.CatalogPath(cfg.OutputDir),
	} {
		if _, err := os.Stat(path); err != nil {
			t.Errorf("missing output %s: %v", path, err)
		}
	}
}

func TestRunHonorsSessionLimit(t *testing.T) {
	srv := newProceedingsServer(t)
	cfg := testConfig(t, srv.URL)
	r := newTestRunner(t, cfg)

	all, err := r.Run(context.Background(), 1)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("Run returned %d sessions, want 1", len(all))
	}
	if all[0].SessionInfo.ID != "MOWP" {
		t.Errorf("session id = %q, want MOWP", all[0].SessionInfo.ID)
	}
	if r.Stats().SessionsProcessed != 1 {
		t.Errorf("sessions processed = %d, want 1", r.Stats().SessionsProcessed)
	}
}

func TestRunSurvivesSessionPageFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/html/session_list.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indexHTML))
	})
	mux.HandleFunc("/session/1161-mowp/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/session/1201-tuoa/index.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(tuoaHTML))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.Retries = 1
	r := newTestRunner(t, cfg)

	all, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The failed session still appears in the aggregates, empty.
	if len(all) != 2 {
		t.Fatalf("Run returned %d sessions, want 2", len(all))
	}
	if len(all[0].Papers) != 0 {
		t.Errorf("failed session carries %d papers, want 0", len(all[0].Papers))
	}
	if len(all[1].Papers) != 1 {
		t.Errorf("healthy session carries %d papers, want 1", len(all[1].Papers))
	}

	stats := r.Stats()
	if stats.Errors == 0 {
		t.Error("errors = 0, want at least 1")
	}
	// Only the session whose page was retrieved counts as processed.
	if stats.SessionsProcessed != 1 {
		t.Errorf("sessions processed = %d, want 1", stats.SessionsProcessed)
	}
	if stats.TotalPapers != 1 {
		t.Errorf("total papers = %d, want 1", stats.TotalPapers)
	}
}

func TestRunEmptyIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/html/session_list.html", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>No sessions yet</body></html>"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	r := newTestRunner(t, cfg)

	all, err := r.Run(context.Background(), 0)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Run returned %d sessions, want 0", len(all))
	}
	if r.Stats().Errors != 0 {
		t.Errorf("errors = %d, want 0", r.Stats().Errors)
	}
	// The final report is still written for an empty run.
	if _, err := os.Stat(filepath.Join(cfg.OutputDir, report.FinalReportFile)); err != nil {
		t.Errorf("missing final report: %v", err)
	}
}
