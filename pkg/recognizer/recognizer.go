// Package recognizer defines the intent-recognition contract used by the
// interpreter to classify user utterances. Concrete implementations live
// in the local, remote, and mock subpackages.
package recognizer

import "strings"

// Context carries the session state a Recognizer may use to disambiguate
// an utterance: the session's variables and a short tail of recent
// conversation history.
type Context struct {
	Variables      map[string]any
	RecentHistory  []HistoryEntry
}

// HistoryEntry mirrors one entry of the interpreter's conversation history.
type HistoryEntry struct {
	Role    string // "user" or "assistant"
	Content string
}

// Result is the outcome of classifying an utterance against a candidate
// set. Intent is either "" (no match) or one of the candidates passed to
// Recognize.
type Result struct {
	Intent     string
	Confidence float64
	Entities   map[string]any
	IsSilence  bool
}

// Recognizer classifies a user utterance into one of a caller-supplied set
// of candidate intents. Implementations must be synchronous and total from
// the caller's point of view: a Recognizer never returns an error that the
// interpreter must special-case — on internal failure it degrades to its
// best available fallback and still returns a Result.
//
// Implementations must be safe for concurrent use: many sessions may call
// Recognize on the same Recognizer instance at once.
type Recognizer interface {
	Recognize(utterance string, candidates []string, ctx Context) Result
}

// IsBlank reports whether an utterance is empty or whitespace-only, the
// condition every Recognizer must treat as silence.
func IsBlank(utterance string) bool {
	return strings.TrimSpace(utterance) == ""
}

// Snap restricts result to the candidate set: if intent isn't among
// candidates, it is forced to "" (no match). Implementations that rank
// against a broader taxonomy internally should call this before returning.
func Snap(intent string, candidates []string) string {
	for _, c := range candidates {
		if c == intent {
			return intent
		}
	}
	return ""
}

// Clamp01 clamps a confidence score into [0,1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
