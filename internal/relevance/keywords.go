package relevance

import "strings"

// Keywords carries the three filter layers: layer 1 is the required
// vocabulary, layer 2 boosts the score, layer 3 excludes categorically
// unrelated domains regardless of other matches.
type Keywords struct {
	Must    []string
	Should  []string
	Exclude []string
}

// MatchTier1 is the cheap first gate: case-insensitive substring match
// against the required vocabulary. It runs before any network or AI call.
func (k Keywords) MatchTier1(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range k.Must {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// matches returns the subset of list found in text, case-insensitively.
func matches(list []string, text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, kw := range list {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}
