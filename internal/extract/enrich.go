package extract

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
	"github.com/iuming/NAPAC2025-scraper/internal/paper"
)

// Prober reports whether an artifact URL resolves to a real artifact.
// Probe never fails; any network or protocol error reads as unavailable.
type Prober interface {
	Probe(ctx context.Context, url string) bool
}

// sessionFragmentRef matches a cross-reference to a contribution in
// another session's page, e.g. "session/1161-mowp/index.html#mop001".
var sessionFragmentRef = regexp.MustCompile(`session/.*#\w+`)

// Enricher fills a paper's structured fields (authors, institutions,
// abstract, artifact URLs) from the known markup regions of a session
// page. Every region lookup degrades gracefully: absence leaves the
// corresponding fields at their defaults and never fails the record.
type Enricher struct {
	baseURL   string
	doiPrefix string
	prober    Prober
	logger    *slog.Logger
}

// NewEnricher creates an enricher rooted at the proceedings base URL.
func NewEnricher(baseURL, doiPrefix string, prober Prober, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		baseURL:   baseURL,
		doiPrefix: doiPrefix,
		prober:    prober,
		logger:    logger,
	}
}

// Enrich resolves the structured regions for p.ID within doc and fills
// p in place. When the top-level anchor is missing the record keeps its
// Stage-A fields only.
func (e *Enricher) Enrich(ctx context.Context, doc *goquery.Document, p *paper.Paper) {
	// DOI defaults to the paper's own code; a resolved primary code
	// overrides it below.
	p.DOI = e.doiFor(p.ID)

	anchor := findAnchor(doc, p.ID)
	if anchor == nil {
		e.logger.Debug("no structured section for contribution, keeping title only", "id", p.ID)
		return
	}

	// Fixed sibling chain: ancor -> header -> subheader -> desc -> authors.
	header := nextSibling(anchor, "contrib-header")
	subheader := nextSibling(header, "contrib-subheader")
	desc := nextSibling(subheader, "contrib-desc")
	authors := nextSibling(desc, "contrib-authors")

	primary := e.primaryCode(subheader, p.ID)

	// The shared PDF artifact is filed under the primary code.
	p.PaperURL = fetch.ResolveURL(e.baseURL, "pdf/"+primary+".pdf")
	p.DOI = e.doiFor(primary)
	p.PaperAvailable = p.PaperURL != "" && e.prober.Probe(ctx, p.PaperURL)

	if authors != nil {
		e.extractAuthors(authors, p)
	}
	if desc != nil {
		p.Abstract = strings.TrimSpace(desc.Text())
	}
}

func (e *Enricher) doiFor(code string) string {
	return fmt.Sprintf("https://doi.org/%s-%s", e.doiPrefix, code)
}

// primaryCode reads the subheader's cross-reference anchor, whose visible
// text names the code the shared artifact is filed under (an invited talk
// cross-listed from an overview session, for example). Without such an
// anchor the contribution's own id is the primary code; a reflexive
// reference resolves to the same thing.
func (e *Enricher) primaryCode(subheader *goquery.Selection, id string) string {
	if subheader == nil {
		return id
	}

	primary := id
	subheader.Find("a[data-href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("data-href")
		if !sessionFragmentRef.MatchString(href) {
			return true
		}
		if code := strings.ToUpper(strings.TrimSpace(a.Text())); code != "" {
			primary = code
			e.logger.Debug("resolved primary code", "id", id, "primary", code)
		}
		return false
	})
	return primary
}

// extractAuthors reads the authors block: each list item carries the
// author names in emphasized spans and the institution in the text run
// after the item's line break. Institutions are deduplicated per record.
func (e *Enricher) extractAuthors(authorsBlock *goquery.Selection, p *paper.Paper) {
	authorsBlock.Find("li").Each(func(_ int, item *goquery.Selection) {
		item.Find("b").Each(func(_ int, b *goquery.Selection) {
			name := strings.TrimSuffix(strings.TrimSpace(b.Text()), ",")
			if name != "" {
				p.Authors = append(p.Authors, name)
			}
		})
		p.AddInstitution(institutionAfterBreak(item))
	})
}

// findAnchor locates the contribution's anchor container by
// case-insensitive id match.
func findAnchor(doc *goquery.Document, id string) *goquery.Selection {
	var found *goquery.Selection
	doc.Find("div.contrib-ancor").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if strings.EqualFold(s.AttrOr("id", ""), id) {
			found = s
			return false
		}
		return true
	})
	return found
}

// nextSibling returns the first following sibling div with the given
// class, or nil. A nil input short-circuits, so a missing region early in
// the chain degrades the rest without special-casing.
func nextSibling(s *goquery.Selection, class string) *goquery.Selection {
	if s == nil || s.Length() == 0 {
		return nil
	}
	next := s.NextAllFiltered("div." + class).First()
	if next.Length() == 0 {
		return nil
	}
	return next
}

// institutionAfterBreak collects the text that follows the first <br> in
// a list item, which is where the institution line lives.
func institutionAfterBreak(item *goquery.Selection) string {
	br := item.Find("br").First()
	if br.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for n := br.Get(0).NextSibling; n != nil; n = n.NextSibling {
		b.WriteString(nodeText(n))
	}
	return strings.TrimSpace(b.String())
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
	}
	return b.String()
}
