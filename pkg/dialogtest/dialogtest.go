// Package dialogtest implements assertion helpers over interpreter.Output,
// for tests and automated scripted-conversation checks against a running
// Interpreter session.
package dialogtest

import (
	"fmt"
	"regexp"

	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

// Result is the outcome of a single assertion.
type Result struct {
	Type     string
	Expected string
	Actual   string
	Passed   bool
	Message  string
}

// AssertMessage checks that out.Message exactly equals expected.
func AssertMessage(out interpreter.Output, expected string) *Result {
	passed := out.Message == expected
	msg := fmt.Sprintf("message equals %q", expected)
	if !passed {
		msg = fmt.Sprintf("message %q != %q", truncate(out.Message, 200), expected)
	}
	return &Result{Type: "message", Expected: expected, Actual: truncate(out.Message, 200), Passed: passed, Message: msg}
}

// AssertMessageContains checks that out.Message contains substr.
func AssertMessageContains(out interpreter.Output, substr string) *Result {
	passed := contains(out.Message, substr)
	msg := fmt.Sprintf("message contains %q", substr)
	if !passed {
		msg = fmt.Sprintf("message %q does not contain %q", truncate(out.Message, 200), substr)
	}
	return &Result{Type: "message_contains", Expected: substr, Actual: truncate(out.Message, 200), Passed: passed, Message: msg}
}

// AssertState checks that out.State equals expected.
func AssertState(out interpreter.Output, expected session.State) *Result {
	passed := out.State == expected
	msg := fmt.Sprintf("state equals %s", expected)
	if !passed {
		msg = fmt.Sprintf("state %s != %s", out.State, expected)
	}
	return &Result{Type: "state", Expected: expected.String(), Actual: out.State.String(), Passed: passed, Message: msg}
}

// AssertWaitingForInput checks out.WaitingForInput against expected.
func AssertWaitingForInput(out interpreter.Output, expected bool) *Result {
	passed := out.WaitingForInput == expected
	msg := fmt.Sprintf("waiting_for_input == %v", expected)
	if !passed {
		msg = fmt.Sprintf("waiting_for_input %v != %v", out.WaitingForInput, expected)
	}
	return &Result{Type: "waiting_for_input", Expected: fmt.Sprintf("%v", expected), Actual: fmt.Sprintf("%v", out.WaitingForInput), Passed: passed, Message: msg}
}

// AssertAvailableIntents checks out.AvailableIntents equals expected,
// order-sensitive (branches are offered in source order).
func AssertAvailableIntents(out interpreter.Output, expected []string) *Result {
	passed := len(out.AvailableIntents) == len(expected)
	if passed {
		for i := range expected {
			if out.AvailableIntents[i] != expected[i] {
				passed = false
				break
			}
		}
	}
	msg := fmt.Sprintf("available_intents == %v", expected)
	if !passed {
		msg = fmt.Sprintf("available_intents %v != %v", out.AvailableIntents, expected)
	}
	return &Result{Type: "available_intents", Expected: fmt.Sprint(expected), Actual: fmt.Sprint(out.AvailableIntents), Passed: passed, Message: msg}
}

// AssertMessageMatches checks that out.Message matches the regex pattern.
func AssertMessageMatches(out interpreter.Output, pattern string) *Result {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return &Result{Type: "message_matches", Expected: pattern, Actual: truncate(out.Message, 200), Passed: false, Message: fmt.Sprintf("invalid regex: %v", err)}
	}
	passed := re.MatchString(out.Message)
	msg := fmt.Sprintf("message matches /%s/", pattern)
	if !passed {
		msg = fmt.Sprintf("message %q does not match /%s/", truncate(out.Message, 200), pattern)
	}
	return &Result{Type: "message_matches", Expected: pattern, Actual: truncate(out.Message, 200), Passed: passed, Message: msg}
}

// Turn is one step of a scripted conversation: an input utterance (not
// used on the opening turn, which starts the session) and the assertions
// to run against the Output it produces.
type Turn struct {
	Input  string // ignored on the first turn, which calls Start instead of ProcessInput
	Checks []func(interpreter.Output) *Result
}

// RunConversation drives sessionID through turns in order, calling Start
// for the first turn and ProcessInput for the rest, collecting every
// check's Result regardless of pass/fail so a caller can report them all
// at once instead of stopping at the first failure.
func RunConversation(in *interpreter.Interpreter, sessionID string, turns []Turn) []*Result {
	var results []*Result
	for i, turn := range turns {
		var out interpreter.Output
		if i == 0 {
			out = in.Start(sessionID)
		} else {
			out = in.ProcessInput(sessionID, turn.Input)
		}
		for _, check := range turn.Checks {
			results = append(results, check(out))
		}
	}
	return results
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func contains(s, substr string) bool {
	return len(substr) == 0 || indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
