package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/iuming/NAPAC2025-scraper/internal/paper"
)

// Run-wide aggregate file names.
const (
	FinalReportFile   = "NAPAC2025_Final_Report.txt"
	CompleteIndexFile = "NAPAC2025_Complete_Index.json"
	AllPapersFile     = "NAPAC2025_All_Papers.csv"
)

// masterCSVHeader is the session CSV schema with session_id added.
var masterCSVHeader = []string{
	"session_name", "session_id", "paper_id", "title", "authors", "institutions", "abstract",
	"presentation_url", "presentation_available", "paper_url", "paper_available",
	"poster_url", "poster_available", "doi", "page_number",
}

// RunSummary heads the complete index JSON.
type RunSummary struct {
	ScrapeTime             string `json:"scrape_time"`
	SessionsProcessed      int    `json:"sessions_processed"`
	TotalPapers            int    `json:"total_papers"`
	AvailablePresentations int    `json:"available_presentations"`
	AvailablePapers        int    `json:"available_papers"`
	AvailablePosters       int    `json:"available_posters"`
	DownloadedPresentation int    `json:"downloaded_presentations"`
	DownloadedPapers       int    `json:"downloaded_papers"`
	DownloadedPosters      int    `json:"downloaded_posters"`
	Errors                 int    `json:"errors"`
}

// WriteFinalReport writes the run-wide aggregates: the text report, the
// complete JSON index and the master CSV. This is the only write whose
// failure propagates to the caller.
func WriteFinalReport(root string, all []SessionData, stats *Stats, now time.Time) error {
	summary := buildSummary(all, stats, now)

	if err := writeReportTXT(filepath.Join(root, FinalReportFile), all, summary); err != nil {
		return err
	}

	index := struct {
		ScrapeInfo RunSummary    `json:"scrape_info"`
		Sessions   []SessionData `json:"sessions"`
	}{ScrapeInfo: summary, Sessions: all}
	if err := writeJSON(filepath.Join(root, CompleteIndexFile), index); err != nil {
		return err
	}

	return writeMasterCSV(filepath.Join(root, AllPapersFile), all)
}

func buildSummary(all []SessionData, stats *Stats, now time.Time) RunSummary {
	s := RunSummary{
		ScrapeTime:             now.Format(TimeFormat),
		SessionsProcessed:      stats.SessionsProcessed,
		TotalPapers:            stats.TotalPapers,
		DownloadedPresentation: stats.DownloadedPresentations,
		DownloadedPapers:       stats.DownloadedPapers,
		DownloadedPosters:      stats.DownloadedPosters,
		Errors:                 stats.Errors,
	}
	for _, sd := range all {
		s.AvailablePresentations += AvailableCount(sd.Papers, paper.KindPresentation)
		s.AvailablePapers += AvailableCount(sd.Papers, paper.KindPaper)
		s.AvailablePosters += AvailableCount(sd.Papers, paper.KindPoster)
	}
	return s
}

func writeReportTXT(path string, all []SessionData, summary RunSummary) error {
	var b strings.Builder

	b.WriteString("NAPAC2025 Conference Complete Scraping Report\n")
	b.WriteString(strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "Scrape completion time: %s\n", summary.ScrapeTime)
	fmt.Fprintf(&b, "Sessions processed: %d\n", summary.SessionsProcessed)
	fmt.Fprintf(&b, "Total papers: %d\n", summary.TotalPapers)
	fmt.Fprintf(&b, "Available presentations: %d\n", summary.AvailablePresentations)
	fmt.Fprintf(&b, "Available papers: %d\n", summary.AvailablePapers)
	fmt.Fprintf(&b, "Available posters: %d\n", summary.AvailablePosters)
	fmt.Fprintf(&b, "Successfully downloaded presentations: %d\n", summary.DownloadedPresentation)
	fmt.Fprintf(&b, "Successfully downloaded papers: %d\n", summary.DownloadedPapers)
	fmt.Fprintf(&b, "Successfully downloaded posters: %d\n", summary.DownloadedPosters)
	fmt.Fprintf(&b, "Errors: %d\n\n", summary.Errors)

	b.WriteString("Session detailed statistics:\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for _, sd := range all {
		fmt.Fprintf(&b, "Session: %s\n", sd.SessionInfo.Name)
		fmt.Fprintf(&b, "   Papers: %d\n", len(sd.Papers))
		fmt.Fprintf(&b, "   Available presentations: %d\n", AvailableCount(sd.Papers, paper.KindPresentation))
		fmt.Fprintf(&b, "   Available papers: %d\n", AvailableCount(sd.Papers, paper.KindPaper))
		fmt.Fprintf(&b, "   Available posters: %d\n", AvailableCount(sd.Papers, paper.KindPoster))
		fmt.Fprintf(&b, "   URL: %s\n", sd.SessionInfo.URL)

		if len(sd.Papers) > 0 {
			b.WriteString("   Paper list:\n")
			for _, p := range sd.Papers {
				marker := "---"
				if p.PaperAvailable {
					marker = "PDF"
				}
				fmt.Fprintf(&b, "     [%s] %s: %s\n", marker, p.ID, truncateTitle(p.Title, 60))
			}
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeMasterCSV(path string, all []SessionData) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(masterCSVHeader); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	for _, sd := range all {
		for i := range sd.Papers {
			row := append([]string{sd.SessionInfo.Name, sd.SessionInfo.ID}, paperCSVFields(&sd.Papers[i])...)
			if err := w.Write(row); err != nil {
				return fmt.Errorf("encoding %s: %w", path, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func truncateTitle(title string, n int) string {
	if len(title) <= n {
		return title
	}
	return cutAtRune(title, n) + "..."
}
