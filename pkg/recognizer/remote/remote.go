// Package remote implements an LLM-backed Recognizer. The model endpoint
// itself is an external collaborator (out of scope for this module per the
// language specification) — Recognizer talks to it through the small
// ModelClient interface, so any HTTP-based LLM API can be plugged in
// without this package depending on a particular vendor SDK.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ormasoftchile/dialogos/pkg/recognizer"
)

// ModelClient sends a completed prompt to an opaque model endpoint and
// returns its raw text response. Implementations should return an *HTTPError
// with StatusCode set when the transport layer sees a non-2xx response, so
// Recognizer can tell a 429 (retryable) from other failures.
type ModelClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// HTTPError is returned by a ModelClient to report a non-2xx HTTP status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("model endpoint returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Config tunes retry and timeout behavior.
type Config struct {
	Model          string
	RequestTimeout time.Duration // default 30s
	MaxAttempts    int           // default 3
}

func (c Config) withDefaults() Config {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	return c
}

// Recognizer classifies utterances by prompting a model and falling back
// to a keyword substring match over the candidate list on any failure —
// network error, timeout, non-JSON response, or retry budget exhaustion.
// It never propagates an error to the caller.
type Recognizer struct {
	client ModelClient
	cfg    Config
}

// New builds a Recognizer backed by client.
func New(client ModelClient, cfg Config) *Recognizer {
	return &Recognizer{client: client, cfg: cfg.withDefaults()}
}

// modelResponse is the expected JSON shape from the model.
type modelResponse struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
}

// Recognize implements recognizer.Recognizer.
func (r *Recognizer) Recognize(utterance string, candidates []string, ctx recognizer.Context) recognizer.Result {
	if recognizer.IsBlank(utterance) {
		return recognizer.Result{IsSilence: true}
	}

	prompt := buildPrompt(utterance, candidates, ctx)
	raw, err := r.callWithRetry(prompt)
	if err != nil {
		return fallbackKeywordMatch(utterance, candidates)
	}

	var resp modelResponse
	if jsonErr := json.Unmarshal([]byte(extractJSON(raw)), &resp); jsonErr != nil {
		return fallbackKeywordMatch(utterance, candidates)
	}

	return recognizer.Result{
		Intent:     recognizer.Snap(resp.Intent, candidates),
		Confidence: recognizer.Clamp01(resp.Confidence),
		Entities:   resp.Entities,
	}
}

// backoffSchedule is the fixed 1s, 2s, 4s exponential backoff used between
// retryable attempts.
var backoffSchedule = []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}

func (r *Recognizer) callWithRetry(prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(backoffSchedule[min(attempt-1, len(backoffSchedule)-1)])
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RequestTimeout)
		out, err := r.client.Complete(ctx, prompt)
		cancel()
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return "", err
		}
	}
	return "", lastErr
}

func isRetryable(err error) bool {
	if he, ok := err.(*HTTPError); ok {
		return he.StatusCode == 429
	}
	return err == context.DeadlineExceeded || strings.Contains(err.Error(), "timeout")
}

func buildPrompt(utterance string, candidates []string, ctx recognizer.Context) string {
	var b strings.Builder
	b.WriteString("Classify the user's utterance into exactly one of these intents, or \"\" if none fit.\n")
	b.WriteString("Intents: " + strings.Join(candidates, ", ") + "\n")
	if len(ctx.RecentHistory) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, h := range ctx.RecentHistory {
			fmt.Fprintf(&b, "  %s: %s\n", h.Role, h.Content)
		}
	}
	fmt.Fprintf(&b, "Utterance: %q\n", utterance)
	b.WriteString(`Respond with JSON only: {"intent": "...", "confidence": 0.0, "entities": {}}`)
	return b.String()
}

// extractJSON trims leading/trailing prose a chat model sometimes wraps
// around its JSON answer, returning the first top-level {...} span.
func extractJSON(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < 0 || end < start {
		return s
	}
	return s[start : end+1]
}

// fallbackKeywordMatch is the required degrade path: a plain substring
// search of the utterance against each candidate's own name.
func fallbackKeywordMatch(utterance string, candidates []string) recognizer.Result {
	lower := strings.ToLower(utterance)
	for _, c := range candidates {
		if strings.Contains(lower, strings.ToLower(c)) {
			return recognizer.Result{Intent: c, Confidence: 0.5}
		}
	}
	return recognizer.Result{Intent: "", Confidence: 0}
}
