// Package local implements a dependency-light, deterministic intent
// recognizer built on keyword matching, fuzzy matching, and TF-IDF cosine
// similarity — no network calls, no LLM.
package local

import "regexp"

// Pattern describes one intent's matching rules. A Recognizer is built
// from a slice of Patterns registered at construction time.
type Pattern struct {
	Intent   string
	Keywords []string
	// Synonyms maps a canonical term to the variant spellings that should
	// be rewritten to it before scoring.
	Synonyms map[string][]string
	Regexes  []string
	Examples []string
	// Weight scales the combined score. It is clamped to [0.5, 2.0]; zero
	// or a negative value is treated as 1.0.
	Weight float64
	// Priority breaks ties between equal combined scores; higher wins.
	Priority int

	compiledRegexes []*regexp.Regexp
	exampleKeywords []map[string]struct{} // stopword-stripped keyword set per example
	vector          tfidfVector            // aggregate vector over keywords ∪ examples
}

func clampWeight(w float64) float64 {
	if w <= 0 {
		return 1.0
	}
	if w < 0.5 {
		return 0.5
	}
	if w > 2.0 {
		return 2.0
	}
	return w
}
