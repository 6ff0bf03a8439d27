package scoring

import (
	"regexp"
	"strings"
)

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true,
	"not": true, "you": true, "all": true, "can": true, "this": true,
	"that": true, "with": true, "from": true, "have": true, "will": true,
	"its": true, "was": true, "were": true, "been": true, "into": true,
	"they": true, "them": true, "then": true, "than": true, "when": true,
	"what": true, "which": true, "should": true, "would": true, "could": true,
	"there": true, "their": true, "about": true, "after": true, "before": true,
	"each": true, "other": true, "some": true, "such": true, "only": true,
	"also": true, "more": true, "most": true, "make": true, "made": true,
	"use": true, "used": true, "using": true, "please": true, "need": true,
}

var (
	wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+`)
	// identifierPattern finds identifier-like tokens in task text:
	// camelCase / PascalCase names and explicit call syntax.
	identifierPattern = regexp.MustCompile(`\b\w+\(\)|\b[A-Za-z_]\w*[A-Z]\w*\b`)
)

// taskKeywords extracts the matchable vocabulary of a task
// description: a frequency map of lower-cased words longer than two
// characters (stop words removed) plus identifier-like tokens kept
// verbatim.
func taskKeywords(task string) (freq map[string]int, identifiers []string) {
	freq = make(map[string]int)
	for _, w := range wordPattern.FindAllString(strings.ToLower(task), -1) {
		if len(w) <= 2 || stopWords[w] {
			continue
		}
		freq[w]++
	}

	seen := make(map[string]bool)
	for _, id := range identifierPattern.FindAllString(task, -1) {
		if seen[id] {
			continue
		}
		seen[id] = true
		identifiers = append(identifiers, id)
	}
	return freq, identifiers
}
