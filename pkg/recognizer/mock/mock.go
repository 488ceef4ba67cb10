// Package mock implements a scripted Recognizer for deterministic tests:
// a fixed sequence of canned recognizer.Result values replayed in order,
// one per call to Recognize. This is the composition-based MockRecognizer
// the language specification calls for in its interpreter tests (favoring
// composition over inheritance).
package mock

import (
	"fmt"
	"sync"

	"github.com/ormasoftchile/dialogos/pkg/recognizer"
)

// Recognizer replays a fixed script of results, fail-closed: calling
// Recognize past the end of the script panics rather than silently
// returning a zero-value result, so a test that over-calls the mock fails
// loudly instead of passing on bogus data.
type Recognizer struct {
	mu     sync.Mutex
	script []recognizer.Result
	pos    int
	calls  []Call
}

// Call records one invocation of Recognize, for assertions in tests.
type Call struct {
	Utterance  string
	Candidates []string
}

// New builds a Recognizer that replays script in order.
func New(script ...recognizer.Result) *Recognizer {
	return &Recognizer{script: script}
}

// Recognize implements recognizer.Recognizer.
func (m *Recognizer) Recognize(utterance string, candidates []string, ctx recognizer.Context) recognizer.Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Utterance: utterance, Candidates: append([]string{}, candidates...)})
	if m.pos >= len(m.script) {
		panic(fmt.Sprintf("mock.Recognizer: script exhausted after %d calls (utterance %q)", len(m.calls), utterance))
	}
	result := m.script[m.pos]
	m.pos++
	return recognizer.Result{
		Intent:     recognizer.Snap(result.Intent, candidates),
		Confidence: result.Confidence,
		Entities:   result.Entities,
		IsSilence:  result.IsSilence,
	}
}

// Calls returns every invocation recorded so far, in order.
func (m *Recognizer) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call{}, m.calls...)
}

// Remaining reports how many scripted results have not yet been consumed.
func (m *Recognizer) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script) - m.pos
}
