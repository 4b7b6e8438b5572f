package export

import (
	"context"
	"regexp"
	"strings"
)

// CitationResult is what a DOI lookup service reports for one identifier.
type CitationResult struct {
	Valid   bool     `json:"valid"`
	Title   string   `json:"title,omitempty"`
	Authors []string `json:"authors,omitempty"`
	Year    int      `json:"year,omitempty"`
	Journal string   `json:"journal,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// CitationVerifier resolves a DOI against an external registry. Called after
// survey artifacts are finalized; it never participates in the debate loop.
type CitationVerifier interface {
	Verify(ctx context.Context, doi string) (CitationResult, error)
}

var reDOI = regexp.MustCompile(`10\.\d{4,9}/[-._;()/:a-zA-Z0-9]+`)

// ExtractDOIs pulls DOI identifiers out of free text, deduplicated in
// first-seen order. Trailing sentence punctuation is stripped.
func ExtractDOIs(text string) []string {
	matches := reDOI.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;)")
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}

// VerifyCitations runs every DOI found in text through the verifier.
// A lookup error marks the citation invalid rather than aborting the batch.
func VerifyCitations(ctx context.Context, v CitationVerifier, text string) map[string]CitationResult {
	dois := ExtractDOIs(text)
	if len(dois) == 0 || v == nil {
		return nil
	}
	results := make(map[string]CitationResult, len(dois))
	for _, doi := range dois {
		res, err := v.Verify(ctx, doi)
		if err != nil {
			results[doi] = CitationResult{Valid: false}
			continue
		}
		results[doi] = res
	}
	return results
}
