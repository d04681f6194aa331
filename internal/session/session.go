// Package session resolves the conference session directory from the
// proceedings index page.
package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/iuming/NAPAC2025-scraper/internal/fetch"
)

// IndexPath is the session list page, relative to the proceedings base URL.
// The top-level index loads it dynamically, so it is fetched directly.
const IndexPath = "html/session_list.html"

// Session is one scheduled grouping of contributions on the program.
// Identifiers are not guaranteed unique across the index; duplicates are
// processed independently.
type Session struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Load fetches the session index and returns the sessions it lists, in
// document order. A retrieval or parse failure returns the error; zero
// sessions is a legitimate outcome for the caller, not a fatal one.
func Load(ctx context.Context, client *fetch.Client, baseURL string) ([]Session, error) {
	indexURL := fetch.ResolveURL(baseURL, IndexPath)
	if indexURL == "" {
		return nil, fmt.Errorf("building index URL from %q", baseURL)
	}

	doc, err := client.FetchDocument(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("loading session index: %w", err)
	}
	return ParseIndex(doc, baseURL), nil
}

// ParseIndex extracts sessions from an index document. Session links are
// anchors carrying a data-href attribute pointing at a
// "session/<nnnn-code>/index.html" sub-resource.
func ParseIndex(doc *goquery.Document, baseURL string) []Session {
	var sessions []Session

	doc.Find("a[data-href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("data-href")
		if href == "" || !strings.HasPrefix(href, "session/") {
			return
		}

		name := strings.TrimSpace(a.Text())
		id := identifierFromPath(href)
		if id == "" {
			// Unexpected path shape; fall back to the link text.
			id = identifierFromText(name)
		}
		if name == "" {
			name = id
		}

		sessions = append(sessions, Session{
			ID:   id,
			Name: name,
			URL:  fetch.ResolveURL(baseURL, href),
		})
	})

	return sessions
}

// identifierFromPath derives the session code from a path like
// "session/1161-mowp/index.html": the second segment's suffix after the
// first hyphen, uppercased, or the whole segment when it has no hyphen.
func identifierFromPath(href string) string {
	parts := strings.Split(href, "/")
	if len(parts) < 2 || parts[1] == "" {
		return ""
	}
	seg := parts[1]
	if _, suffix, found := strings.Cut(seg, "-"); found {
		return strings.ToUpper(suffix)
	}
	return strings.ToUpper(seg)
}

// identifierFromText falls back to the first whitespace-delimited token
// of the link text.
func identifierFromText(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
