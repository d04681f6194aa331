package report

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/paper"
	"github.com/iuming/NAPAC2025-scraper/internal/session"
)

func samplePapers() []paper.Paper {
	return []paper.Paper{
		{
			ID:             "MOP001",
			Title:          "Design Of A Compact Storage Ring",
			Authors:        []string{"J. Smith", "A. Jones"},
			Institutions:   []string{"CERN"},
			Abstract:       "We present the design of a compact storage ring.",
			PaperURL:       "https://example.org/97/pdf/MOP001.pdf",
			PaperAvailable: true,
			DOI:            "https://doi.org/10.18429/JACoW-NAPAC2025-MOP001",
		},
		{
			ID:           "MOP002",
			Title:        "Beam Instrumentation Overview",
			Authors:      []string{"D. Green"},
			Institutions: []string{"SLAC"},
			DOI:          "https://doi.org/10.18429/JACoW-NAPAC2025-MOP002",
		},
	}
}

func sampleSession() session.Session {
	return session.Session{
		ID:   "MOWP",
		Name: "MOWP: Monday Poster Session",
		URL:  "https://example.org/97/session/1161-mowp/index.html",
	}
}

func TestWriteSessionData(t *testing.T) {
	root := t.TempDir()
	s := sampleSession()
	now := time.Date(2025, 8, 14, 10, 30, 0, 0, time.UTC)

	if err := WriteSessionData(root, s, samplePapers(), now); err != nil {
		t.Fatalf("WriteSessionData: %v", err)
	}

	dir := filepath.Join(config.SessionsDir(root), SafeFilename(s.Name))

	// JSON carries the session info, papers and scrape time.
	raw, err := os.ReadFile(filepath.Join(dir, "papers_data.json"))
	if err != nil {
		t.Fatalf("reading session JSON: %v", err)
	}
	var data SessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatalf("decoding session JSON: %v", err)
	}
	if data.SessionInfo.ID != "MOWP" {
		t.Errorf("session id = %q", data.SessionInfo.ID)
	}
	if data.PaperCount != 2 || len(data.Papers) != 2 {
		t.Errorf("paper count = %d (%d papers), want 2", data.PaperCount, len(data.Papers))
	}
	if data.ScrapeTime != "2025-08-14 10:30:00" {
		t.Errorf("scrape time = %q", data.ScrapeTime)
	}

	// CSV has the fixed 14-column schema and one row per paper.
	f, err := os.Open(filepath.Join(dir, "papers_data.csv"))
	if err != nil {
		t.Fatalf("opening session CSV: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading session CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("CSV has %d rows, want header + 2", len(rows))
	}
	if len(rows[0]) != 14 {
		t.Errorf("CSV header has %d columns, want 14", len(rows[0]))
	}
	if rows[1][0] != s.Name || rows[1][1] != "MOP001" {
		t.Errorf("first row = %v", rows[1][:2])
	}
	if rows[1][3] != "J. Smith; A. Jones" {
		t.Errorf("authors column = %q", rows[1][3])
	}
	if rows[1][9] != "true" || rows[2][9] != "false" {
		t.Errorf("paper_available columns = %q, %q", rows[1][9], rows[2][9])
	}

	// TXT summary includes availability glyphs and per-kind counts.
	txt, err := os.ReadFile(filepath.Join(dir, "papers_summary.txt"))
	if err != nil {
		t.Fatalf("reading session TXT: %v", err)
	}
	for _, want := range []string{
		"Session: MOWP: Monday Poster Session",
		"Paper count: 2",
		"Available papers: 1/2",
		"✓ Available",
		"✗ Not available",
	} {
		if !strings.Contains(string(txt), want) {
			t.Errorf("session TXT missing %q", want)
		}
	}
}

func TestAbstractPreviewRuneSafe(t *testing.T) {
	// 200 two-byte runes: 400 bytes, and byte 300 falls mid-rune.
	abstract := strings.Repeat("é", 200)
	got := abstractPreview(abstract)
	if !utf8.ValidString(got) {
		t.Errorf("preview is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("preview %q not marked as truncated", got)
	}

	short := "A short abstract."
	if got := abstractPreview(short); got != short {
		t.Errorf("abstractPreview(%q) = %q, want unchanged", short, got)
	}
}

func TestTruncateTitleRuneSafe(t *testing.T) {
	title := strings.Repeat("晶", 30) // 3 bytes per rune
	got := truncateTitle(title, 10)
	if !utf8.ValidString(got) {
		t.Errorf("truncated title is not valid UTF-8: %q", got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("title %q not marked as truncated", got)
	}
	if got := truncateTitle("Short Title", 60); got != "Short Title" {
		t.Errorf("truncateTitle = %q, want unchanged", got)
	}
}

func TestWriteDebugText(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(config.DebugDir(root), 0755); err != nil {
		t.Fatal(err)
	}

	if err := WriteDebugText(root, "MOWP", "flattened page text"); err != nil {
		t.Fatalf("WriteDebugText: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(config.DebugDir(root), "MOWP_page_text.txt"))
	if err != nil {
		t.Fatalf("reading debug dump: %v", err)
	}
	if string(data) != "flattened page text" {
		t.Errorf("debug dump = %q", data)
	}
}

func TestWriteFinalReport(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2025, 8, 14, 18, 0, 0, 0, time.UTC)

	all := []SessionData{NewSessionData(sampleSession(), samplePapers())}
	stats := &Stats{}
	stats.AddSession(2)
	stats.AddDownloaded(paper.KindPaper)
	stats.AddError()

	if err := WriteFinalReport(root, all, stats, now); err != nil {
		t.Fatalf("WriteFinalReport: %v", err)
	}

	// Complete index JSON: summary plus full session payloads.
	raw, err := os.ReadFile(filepath.Join(root, CompleteIndexFile))
	if err != nil {
		t.Fatalf("reading complete index: %v", err)
	}
	var index struct {
		ScrapeInfo RunSummary    `json:"scrape_info"`
		Sessions   []SessionData `json:"sessions"`
	}
	if err := json.Unmarshal(raw, &index); err != nil {
		t.Fatalf("decoding complete index: %v", err)
	}
	if index.ScrapeInfo.SessionsProcessed != 1 || index.ScrapeInfo.TotalPapers != 2 {
		t.Errorf("summary = %+v", index.ScrapeInfo)
	}
	if index.ScrapeInfo.AvailablePapers != 1 {
		t.Errorf("available papers = %d, want 1", index.ScrapeInfo.AvailablePapers)
	}
	if index.ScrapeInfo.DownloadedPapers != 1 || index.ScrapeInfo.Errors != 1 {
		t.Errorf("counters = %+v", index.ScrapeInfo)
	}
	if len(index.Sessions) != 1 {
		t.Fatalf("index has %d sessions, want 1", len(index.Sessions))
	}

	// Master CSV: 15 columns, one row per paper across all sessions.
	f, err := os.Open(filepath.Join(root, AllPapersFile))
	if err != nil {
		t.Fatalf("opening master CSV: %v", err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("reading master CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("master CSV has %d rows, want header + 2", len(rows))
	}
	if len(rows[0]) != 15 {
		t.Errorf("master CSV header has %d columns, want 15", len(rows[0]))
	}
	if rows[1][1] != "MOWP" {
		t.Errorf("session_id column = %q", rows[1][1])
	}

	// Text report carries the availability markers.
	txt, err := os.ReadFile(filepath.Join(root, FinalReportFile))
	if err != nil {
		t.Fatalf("reading final report: %v", err)
	}
	for _, want := range []string{
		"Sessions processed: 1",
		"[PDF] MOP001",
		"[---] MOP002",
	} {
		if !strings.Contains(string(txt), want) {
			t.Errorf("final report missing %q", want)
		}
	}
}
