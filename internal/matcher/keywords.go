// Package matcher finds GovWin counterparts for stored SAM opportunities:
// keyword search, rule-based pre-filtering, model evaluation, and idempotent
// match recording.
package matcher

import (
	"regexp"
	"strings"

	"github.com/agext/levenshtein"
)

// stopWords are tokens too generic to narrow a procurement search.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"into": true, "this": true, "that": true, "will": true, "per": true,
	"services": true, "service": true, "support": true, "solicitation": true,
	"notice": true, "request": true, "requirement": true, "requirements": true,
	"other": true, "various": true,
}

const maxQueryKeywords = 5

// ExtractKeywords reduces a title to a short search query: lower-cased
// tokens longer than three characters with stop words removed, first five in
// original order.
func ExtractKeywords(title string) string {
	var kept []string
	for _, tok := range strings.Fields(strings.ToLower(title)) {
		tok = strings.Trim(tok, ".,;:()[]\"'")
		if len(tok) <= 3 || stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
		if len(kept) == maxQueryKeywords {
			break
		}
	}
	return strings.Join(kept, " ")
}

// TitleSimilarity returns a similarity ratio in [0,1] between two titles,
// case-insensitive.
func TitleSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return levenshtein.Similarity(strings.ToLower(a), strings.ToLower(b), nil)
}

// identifierPattern matches solicitation/contract number shapes such as
// FA8732-24-R-0001 or HSHQDC-24-Q-00123.
var identifierPattern = regexp.MustCompile(`\b[A-Z0-9]{2,}[-_][0-9]{2,}[-_][A-Z0-9][-_][0-9]+\b`)

// ExtractIdentifier scans text for the first solicitation-number-shaped
// token. Returns "" when none is present.
func ExtractIdentifier(text string) string {
	if text == "" {
		return ""
	}
	return identifierPattern.FindString(strings.ToUpper(text))
}

// agencyPrefixes are boilerplate openings stripped before an agency name is
// used as a search query.
var agencyPrefixes = []string{
	"DEPARTMENT OF THE ",
	"DEPARTMENT OF ",
	"DEPT OF THE ",
	"DEPT OF ",
	"OFFICE OF THE ",
	"OFFICE OF ",
	"U.S. ",
	"US ",
}

// StripAgencyBoilerplate removes leading filler from an agency name so the
// distinctive part drives the search.
func StripAgencyBoilerplate(agency string) string {
	name := strings.TrimSpace(strings.ToUpper(agency))
	for changed := true; changed; {
		changed = false
		for _, prefix := range agencyPrefixes {
			if strings.HasPrefix(name, prefix) {
				name = strings.TrimSpace(strings.TrimPrefix(name, prefix))
				changed = true
			}
		}
	}
	return name
}

// sharedKeywords returns the tokens longer than four characters appearing in
// both titles.
func sharedKeywords(a, b string) []string {
	seen := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(a)) {
		if len(tok) > 4 {
			seen[tok] = true
		}
	}
	var shared []string
	dup := map[string]bool{}
	for _, tok := range strings.Fields(strings.ToLower(b)) {
		if len(tok) > 4 && seen[tok] && !dup[tok] {
			shared = append(shared, tok)
			dup[tok] = true
		}
	}
	return shared
}
