// Package extract recovers structured contribution records from session
// pages. Stage A segments the page's flattened text on identifier tokens
// to discover candidate ids and titles; Stage B walks known markup
// regions to recover authors, institutions, abstracts and artifact URLs.
package extract

import "regexp"

// idToken matches a contribution identifier: 3-4 uppercase letters
// followed by 2-3 digits. Session pages render contributions as densely
// concatenated text with no reliable separators, so these tokens are the
// only stable segmentation anchors.
var idToken = regexp.MustCompile(`[A-Z]{3,4}[0-9]{2,3}`)

// Candidate pairs a discovered identifier with the raw text span
// attributed to it.
type Candidate struct {
	ID  string
	Raw string
}

// ScanCandidates performs a single forward scan over flattened page text
// and returns one candidate per identifier token whose span starts with
// an uppercase letter. The span of a candidate runs from the end of its
// token to the start of the next token (or end of text), so adjacent
// candidates never overlap. The scan is deterministic: identical input
// yields an identical ordered sequence.
func ScanCandidates(text string) []Candidate {
	// Tokens embedded in a longer word (e.g. the tail of "XMOP001") are
	// neither candidates nor span terminators.
	var tokens [][]int
	for _, loc := range idToken.FindAllStringIndex(text, -1) {
		if loc[0] == 0 || !isWordByte(text[loc[0]-1]) {
			tokens = append(tokens, loc)
		}
	}

	var out []Candidate
	for i, loc := range tokens {
		end := len(text)
		if i+1 < len(tokens) {
			end = tokens[i+1][0]
		}
		raw := text[loc[1]:end]

		// A real contribution block starts its title with a capital
		// letter right after the identifier.
		if len(raw) == 0 || raw[0] < 'A' || raw[0] > 'Z' {
			continue
		}

		out = append(out, Candidate{
			ID:  text[loc[0]:loc[1]],
			Raw: raw,
		})
	}
	return out
}

func isWordByte(b byte) bool {
	return b == '_' ||
		(b >= '0' && b <= '9') ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z')
}
