package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iuming/NAPAC2025-scraper/internal/config"
	"github.com/iuming/NAPAC2025-scraper/internal/paper"
	"github.com/iuming/NAPAC2025-scraper/internal/session"
)

// TimeFormat is the timestamp format used across all serialized outputs.
const TimeFormat = "2006-01-02 15:04:05"

// sessionCSVHeader is the fixed per-session CSV schema.
var sessionCSVHeader = []string{
	"session_name", "paper_id", "title", "authors", "institutions", "abstract",
	"presentation_url", "presentation_available", "paper_url", "paper_available",
	"poster_url", "poster_available", "doi", "page_number",
}

// SessionData couples a session with its extracted papers for
// serialization.
type SessionData struct {
	SessionInfo session.Session `json:"session_info"`
	Papers      []paper.Paper   `json:"papers"`
	PaperCount  int             `json:"paper_count"`
	ScrapeTime  string          `json:"scrape_time,omitempty"`
}

// NewSessionData builds a SessionData snapshot.
func NewSessionData(s session.Session, papers []paper.Paper) SessionData {
	return SessionData{
		SessionInfo: s,
		Papers:      papers,
		PaperCount:  len(papers),
	}
}

// WriteSessionData writes papers_data.json, papers_data.csv and
// papers_summary.txt for one session under root/Sessions/<safe-name>/.
func WriteSessionData(root string, s session.Session, papers []paper.Paper, now time.Time) error {
	dir := filepath.Join(config.SessionsDir(root), SafeFilename(s.Name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	data := NewSessionData(s, papers)
	data.ScrapeTime = now.Format(TimeFormat)

	if err := writeJSON(filepath.Join(dir, "papers_data.json"), data); err != nil {
		return err
	}
	if err := writeSessionCSV(filepath.Join(dir, "papers_data.csv"), s, papers); err != nil {
		return err
	}
	return writeSessionTXT(filepath.Join(dir, "papers_summary.txt"), s, papers, now)
}

// WriteDebugText dumps a session page's flattened text for extraction
// rule tuning.
func WriteDebugText(root, sessionID, text string) error {
	path := filepath.Join(config.DebugDir(root), sessionID+"_page_text.txt")
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func writeSessionCSV(path string, s session.Session, papers []paper.Paper) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(sessionCSVHeader); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	for _, p := range papers {
		row := append([]string{s.Name}, paperCSVFields(&p)...)
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
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

// paperCSVFields renders the per-paper columns shared by the session CSV
// and the master CSV.
func paperCSVFields(p *paper.Paper) []string {
	return []string{
		p.ID,
		p.Title,
		strings.Join(p.Authors, "; "),
		strings.Join(p.Institutions, "; "),
		p.Abstract,
		p.PresentationURL,
		strconv.FormatBool(p.PresentationAvailable),
		p.PaperURL,
		strconv.FormatBool(p.PaperAvailable),
		p.PosterURL,
		strconv.FormatBool(p.PosterAvailable),
		p.DOI,
		p.PageNumber,
	}
}

func writeSessionTXT(path string, s session.Session, papers []paper.Paper, now time.Time) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Session: %s\n", s.Name)
	fmt.Fprintf(&b, "Session ID: %s\n", s.ID)
	fmt.Fprintf(&b, "URL: %s\n", s.URL)
	fmt.Fprintf(&b, "Scrape time: %s\n", now.Format(TimeFormat))
	fmt.Fprintf(&b, "Paper count: %d\n", len(papers))
	for _, k := range paper.Kinds() {
		fmt.Fprintf(&b, "Available %ss: %d/%d\n", k, AvailableCount(papers, k), len(papers))
	}
	b.WriteString(strings.Repeat("=", 80) + "\n\n")

	for i, p := range papers {
		fmt.Fprintf(&b, "%d. Paper ID: %s\n", i+1, p.ID)
		fmt.Fprintf(&b, "   Title: %s\n", p.Title)
		if len(p.Authors) > 0 {
			fmt.Fprintf(&b, "   Authors: %s\n", strings.Join(p.Authors, ", "))
		}
		if len(p.Institutions) > 0 {
			fmt.Fprintf(&b, "   Institutions: %s\n", strings.Join(p.Institutions, "; "))
		}
		page := p.PageNumber
		if page == "" {
			page = "N/A"
		}
		fmt.Fprintf(&b, "   Page: %s\n", page)
		fmt.Fprintf(&b, "   Presentation Status: %s\n", availabilityGlyph(p.PresentationAvailable))
		fmt.Fprintf(&b, "   Paper Status: %s\n", availabilityGlyph(p.PaperAvailable))
		fmt.Fprintf(&b, "   Poster Status: %s\n", availabilityGlyph(p.PosterAvailable))
		fmt.Fprintf(&b, "   Presentation URL: %s\n", p.PresentationURL)
		fmt.Fprintf(&b, "   Paper URL: %s\n", p.PaperURL)
		fmt.Fprintf(&b, "   Poster URL: %s\n", p.PosterURL)
		if p.DOI != "" {
			fmt.Fprintf(&b, "   DOI: %s\n", p.DOI)
		}
		if p.Abstract != "" {
			fmt.Fprintf(&b, "   Abstract: %s\n", abstractPreview(p.Abstract))
		}
		b.WriteString(strings.Repeat("-", 60) + "\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// AvailableCount counts papers with a confirmed artifact of the given
// kind.
func AvailableCount(papers []paper.Paper, k paper.Kind) int {
	n := 0
	for i := range papers {
		if papers[i].Available(k) {
			n++
		}
	}
	return n
}

func availabilityGlyph(available bool) string {
	if available {
		return "✓ Available"
	}
	return "✗ Not available"
}

func abstractPreview(abstract string) string {
	const max = 300
	if len(abstract) > max {
		return cutAtRune(abstract, max) + "..."
	}
	return abstract
}
