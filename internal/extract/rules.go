package extract

import (
	"regexp"
	"strings"
)

const (
	// minRawLen discards spans too short to contain a real title.
	minRawLen = 20
	// minTitleLen discards cleaned titles too short to be real.
	minTitleLen = 10
)

// authorInitial matches the start of an author list: a single capital
// initial, a period, whitespace, then a capitalized surname
// (e.g. "J. Smith"). Everything before it is the title candidate.
var authorInitial = regexp.MustCompile(`[A-Z]\.\s+[A-Z][a-z]+`)

// Rules is the title cleanup rule table applied to each raw candidate
// span. The keyword set and linking phrase are corpus-specific
// heuristics, so they are configuration rather than code.
type Rules struct {
	stopKeywords []string
	secondaryRef *regexp.Regexp
}

// DefaultStopKeywords terminate a title at their first occurrence.
var DefaultStopKeywords = []string{"DOI:", "About:", "Cite:", "Received:", "Funding:"}

// DefaultLinkPhrase is the boilerplate text that follows a secondary
// contribution code in cross-reference links.
const DefaultLinkPhrase = "use link"

// NewRules builds a rule table. Empty arguments fall back to the NAPAC
// defaults.
func NewRules(stopKeywords []string, linkPhrase string) Rules {
	if len(stopKeywords) == 0 {
		stopKeywords = DefaultStopKeywords
	}
	if linkPhrase == "" {
		linkPhrase = DefaultLinkPhrase
	}
	return Rules{
		stopKeywords: stopKeywords,
		secondaryRef: secondaryRefPattern(linkPhrase),
	}
}

// secondaryRefPattern matches an embedded secondary identifier token
// immediately followed by the linking phrase, plus everything after it.
// Whitespace inside the phrase is matched loosely.
func secondaryRefPattern(phrase string) *regexp.Regexp {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return regexp.MustCompile(`[A-Z]{3,4}[0-9]{2,3}` + strings.Join(words, `\s+`) + `(?s:.*)`)
}

// CleanTitle derives a title from a raw candidate span, applying each
// cleanup rule left to right. It returns false when the candidate fails
// a length heuristic and must be discarded.
func (r Rules) CleanTitle(raw string) (string, bool) {
	if len(strings.TrimSpace(raw)) < minRawLen {
		return "", false
	}

	title := r.stripSecondaryRef(raw)
	title = truncateAtAuthor(title)
	title = r.truncateAtKeyword(title)
	title = collapseWhitespace(title)

	if len(title) < minTitleLen {
		return "", false
	}
	return title, true
}

// stripSecondaryRef removes a trailing "TUP080use link ..." fragment.
func (r Rules) stripSecondaryRef(s string) string {
	return r.secondaryRef.ReplaceAllString(s, "")
}

// truncateAtAuthor cuts the text at the first author-initial pattern.
func truncateAtAuthor(s string) string {
	if loc := authorInitial.FindStringIndex(s); loc != nil {
		return s[:loc[0]]
	}
	return s
}

// truncateAtKeyword cuts the text at the positionally earliest stop
// keyword.
func (r Rules) truncateAtKeyword(s string) string {
	cut := len(s)
	for _, kw := range r.stopKeywords {
		if i := strings.Index(s, kw); i >= 0 && i < cut {
			cut = i
		}
	}
	return s[:cut]
}

// collapseWhitespace folds whitespace runs to single spaces and trims.
// The result is idempotent under re-collapsing.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
