package local

import (
	"strings"
	"unicode"
)

// asciiPunct and cjkPunct are the punctuation sets stripped during
// preprocessing. CJK punctuation is listed explicitly since unicode.IsPunct
// already covers it, but keeping an explicit set documents intent and lets
// us diverge from Unicode's classification if a symbol needs to survive.
const asciiPunct = `.,!?;:'"()[]{}/<>\-_+=*&^%$#@~` + "`"

var cjkPunct = []rune{
	'。', '，', '、', '！', '？', '；', '：', '“', '”', '‘', '’',
	'（', '）', '【', '】', '《', '》', '…', '—', '·',
}

func isPunct(r rune) bool {
	if strings.ContainsRune(asciiPunct, r) {
		return true
	}
	for _, p := range cjkPunct {
		if r == p {
			return true
		}
	}
	return false
}

// Preprocess lowercases, strips punctuation, and collapses whitespace runs.
func Preprocess(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	lastWasSpace := false
	for _, r := range s {
		if isPunct(r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		}
		b.WriteRune(r)
		lastWasSpace = false
	}
	return strings.TrimSpace(b.String())
}

// isCJK reports whether r falls in a CJK ideograph/kana/hangul block.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// Tokenize splits preprocessed text into tokens: each CJK character is its
// own token; runs of ASCII letters/digits form whole tokens.
func Tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case isCJK(r):
			flush()
			tokens = append(tokens, string(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// stopwords are excluded from example_score's keyword-set comparison.
var stopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "is": {}, "are": {}, "to": {}, "of": {},
	"i": {}, "you": {}, "me": {}, "my": {}, "it": {}, "and": {}, "or": {},
	"in": {}, "on": {}, "for": {}, "want": {}, "please": {}, "would": {},
	"like": {}, "can": {}, "could": {},
}

// KeywordSet tokenizes and strips stopwords, returning a set suitable for
// Jaccard comparison.
func KeywordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(Preprocess(s)) {
		if _, stop := stopwords[tok]; stop {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}

// ExpandSynonyms rewrites each occurrence of a variant spelling in text to
// its canonical form, for each canon→variants mapping in syn.
func ExpandSynonyms(text string, syn map[string][]string) string {
	for canon, variants := range syn {
		for _, v := range variants {
			text = strings.ReplaceAll(text, v, canon)
		}
	}
	return text
}

// Jaccard computes |a∩b| / |a∪b| over two string sets. Two empty sets are
// defined to have similarity 0 (no signal either way).
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
