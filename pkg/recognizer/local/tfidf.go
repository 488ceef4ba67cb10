package local

import "math"

// tfidfVector is a sparse term -> weight map.
type tfidfVector map[string]float64

// idfTable holds inverse-document-frequency weights computed once at
// training time from the pattern library's keywords ∪ examples.
type idfTable struct {
	idf map[string]float64
	n   int // number of training texts
}

// buildIDF computes IDF over a set of training texts (one per pattern,
// each text being that pattern's keywords ∪ examples joined).
//
// idf(t) = log((N+1)/(df(t)+1)) + 1
func buildIDF(texts []string) *idfTable {
	df := make(map[string]int)
	for _, text := range texts {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(Preprocess(text)) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	n := len(texts)
	idf := make(map[string]float64, len(df))
	for term, d := range df {
		idf[term] = math.Log(float64(n+1)/float64(d+1)) + 1
	}
	return &idfTable{idf: idf, n: n}
}

// vectorize builds a TF-IDF vector for text, normalizing term frequency by
// the max term frequency within text.
func (t *idfTable) vectorize(text string) tfidfVector {
	toks := Tokenize(Preprocess(text))
	tf := make(map[string]int)
	maxTF := 0
	for _, tok := range toks {
		tf[tok]++
		if tf[tok] > maxTF {
			maxTF = tf[tok]
		}
	}
	if maxTF == 0 {
		return tfidfVector{}
	}
	vec := make(tfidfVector, len(tf))
	for term, freq := range tf {
		idfVal := t.idf[term] // unseen terms (not in training corpus) have idf 0
		vec[term] = (float64(freq) / float64(maxTF)) * idfVal
	}
	return vec
}

// cosine computes cosine similarity over the intersection of nonzero
// dimensions. Either vector being empty yields 0.
func cosine(a, b tfidfVector) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for term, va := range a {
		normA += va * va
		if vb, ok := b[term]; ok {
			dot += va * vb
		}
	}
	for _, vb := range b {
		normB += vb * vb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
