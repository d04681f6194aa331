package extract

import (
	"context"
	"log/slog"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/NAPAC2025-scraper/internal/paper"
)

// Extractor runs both extraction stages over a session document.
type Extractor struct {
	rules    Rules
	enricher *Enricher
	logger   *slog.Logger
}

// NewExtractor creates an extractor from a cleanup rule table and an
// enricher.
func NewExtractor(rules Rules, enricher *Enricher, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rules: rules, enricher: enricher, logger: logger}
}

// Extract produces the contribution records of a session page. Candidates
// that fail the title heuristics are dropped, not retained as partial
// records; no candidate's failure aborts the remaining ones.
func (x *Extractor) Extract(ctx context.Context, doc *goquery.Document) []paper.Paper {
	var papers []paper.Paper
	for _, cand := range ScanCandidates(doc.Text()) {
		title, ok := x.rules.CleanTitle(cand.Raw)
		if !ok {
			continue
		}

		p := paper.Paper{
			ID:           cand.ID,
			Title:        title,
			Authors:      []string{},
			Institutions: []string{},
		}
		x.enricher.Enrich(ctx, doc, &p)
		if p.Title == "" {
			continue
		}

		papers = append(papers, p)
		x.logger.Info("extracted contribution", "id", p.ID, "title", truncate(p.Title, 50))
	}
	return papers
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
