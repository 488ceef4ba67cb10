package local

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/antzucaro/matchr"
	"github.com/ormasoftchile/dialogos/pkg/recognizer"
)

// Weights controls how keyword/similarity/pattern sub-scores combine.
type Weights struct {
	Keyword    float64 // w_k
	Similarity float64 // w_s
	Pattern    float64 // w_p
}

// DefaultWeights matches the specification's default (0.4, 0.3, 0.3).
var DefaultWeights = Weights{Keyword: 0.4, Similarity: 0.3, Pattern: 0.3}

// Config tunes recognizer thresholds. Zero-value Config resolves to the
// specification's defaults via Recognizer construction.
type Config struct {
	FuzzyThreshold float64 // default 0.6
	MinConfidence  float64 // default 0.3
	Weights        Weights
}

func (c Config) withDefaults() Config {
	if c.FuzzyThreshold == 0 {
		c.FuzzyThreshold = 0.6
	}
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.3
	}
	if c.Weights == (Weights{}) {
		c.Weights = DefaultWeights
	}
	return c
}

// Recognizer is the dependency-free local implementation of the
// recognizer.Recognizer contract: keyword + fuzzy + TF-IDF cosine + regex
// + example-Jaccard scoring against a registered pattern library.
//
// A Recognizer is safe for concurrent use once built: scoring only reads
// the trained patterns and IDF table.
type Recognizer struct {
	mu       sync.RWMutex
	patterns map[string]*Pattern
	idf      *idfTable
	cfg      Config
}

// New builds a Recognizer from a pattern library, training the TF-IDF
// table and compiling regexes once.
func New(patterns []Pattern, cfg Config) (*Recognizer, error) {
	cfg = cfg.withDefaults()
	r := &Recognizer{
		patterns: make(map[string]*Pattern, len(patterns)),
		cfg:      cfg,
	}

	trainingTexts := make([]string, 0, len(patterns))
	compiled := make([]*Pattern, 0, len(patterns))
	for i := range patterns {
		p := patterns[i]
		p.Weight = clampWeight(p.Weight)
		for _, rx := range p.Regexes {
			re, err := regexp.Compile("(?i)" + rx)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: compile regex %q: %w", p.Intent, rx, err)
			}
			p.compiledRegexes = append(p.compiledRegexes, re)
		}
		for _, ex := range p.Examples {
			p.exampleKeywords = append(p.exampleKeywords, KeywordSet(ex))
		}
		text := strings.Join(append(append([]string{}, p.Keywords...), p.Examples...), " ")
		trainingTexts = append(trainingTexts, text)
		compiled = append(compiled, &p)
	}

	r.idf = buildIDF(trainingTexts)
	for i, p := range compiled {
		p.vector = r.idf.vectorize(trainingTexts[i])
		r.patterns[p.Intent] = p
	}
	return r, nil
}

// Recognize implements recognizer.Recognizer.
func (r *Recognizer) Recognize(utterance string, candidates []string, ctx recognizer.Context) recognizer.Result {
	if recognizer.IsBlank(utterance) {
		return recognizer.Result{IsSilence: true}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	preprocessed := Preprocess(utterance)
	utterKeywords := KeywordSet(utterance)
	utterVec := r.idf.vectorize(preprocessed)

	type scored struct {
		intent   string
		combined float64
		priority int
	}
	var ranked []scored

	for _, candidate := range candidates {
		p, ok := r.patterns[candidate]
		if !ok {
			continue
		}
		expanded := ExpandSynonyms(preprocessed, p.Synonyms)
		expandedToks := Tokenize(expanded)

		kwScore := r.keywordScore(p, expanded, expandedToks)
		patScore := patternScore(p, utterance)
		simScore := cosine(utterVec, p.vector)
		exScore := exampleScore(p, utterKeywords)

		combined := (kwScore*r.cfg.Weights.Keyword +
			max(simScore, exScore)*r.cfg.Weights.Similarity +
			patScore*r.cfg.Weights.Pattern) * p.Weight

		ranked = append(ranked, scored{intent: candidate, combined: combined, priority: p.Priority})
	}

	if len(ranked) == 0 {
		return recognizer.Result{Intent: "", Confidence: 0}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].combined != ranked[j].combined {
			return ranked[i].combined > ranked[j].combined
		}
		return ranked[i].priority > ranked[j].priority
	})

	top := ranked[0]
	if top.combined < r.cfg.MinConfidence {
		return recognizer.Result{Intent: "", Confidence: 0}
	}
	return recognizer.Result{
		Intent:     recognizer.Snap(top.intent, candidates),
		Confidence: recognizer.Clamp01(top.combined),
	}
}

// keywordScore is the fraction of the pattern's keywords that appear
// verbatim in the expanded utterance, or pass a fuzzy match against any
// token window of length |keyword|±1.
func (r *Recognizer) keywordScore(p *Pattern, expanded string, toks []string) float64 {
	if len(p.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range p.Keywords {
		if strings.Contains(expanded, kw) {
			hits++
			continue
		}
		if fuzzyContains(toks, kw, r.cfg.FuzzyThreshold) {
			hits++
		}
	}
	return float64(hits) / float64(len(p.Keywords))
}

// fuzzyContains checks every contiguous token window near len(kw tokens)±1
// long for Levenshtein similarity >= threshold against kw.
func fuzzyContains(toks []string, kw string, threshold float64) bool {
	kwLen := len(Tokenize(kw))
	if kwLen == 0 {
		kwLen = 1
	}
	for winLen := kwLen - 1; winLen <= kwLen+1; winLen++ {
		if winLen <= 0 {
			continue
		}
		for start := 0; start+winLen <= len(toks); start++ {
			window := strings.Join(toks[start:start+winLen], " ")
			if levenshteinSimilarity(window, kw) >= threshold {
				return true
			}
		}
	}
	return false
}

func levenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	dist, err := matchr.Levenshtein(a, b)
	if err != nil {
		return 0
	}
	maxLen := len([]rune(a))
	if bl := len([]rune(b)); bl > maxLen {
		maxLen = bl
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(dist)/float64(maxLen)
}

// patternScore is the fraction of the pattern's regexes that match the raw
// utterance, case-insensitively.
func patternScore(p *Pattern, utterance string) float64 {
	if len(p.compiledRegexes) == 0 {
		return 0
	}
	hits := 0
	for _, re := range p.compiledRegexes {
		if re.MatchString(utterance) {
			hits++
		}
	}
	return float64(hits) / float64(len(p.compiledRegexes))
}

// exampleScore is the max Jaccard similarity between the utterance's
// stopword-stripped keyword set and any example's keyword set.
func exampleScore(p *Pattern, utterKeywords map[string]struct{}) float64 {
	best := 0.0
	for _, exKw := range p.exampleKeywords {
		if j := Jaccard(utterKeywords, exKw); j > best {
			best = j
		}
	}
	return best
}
