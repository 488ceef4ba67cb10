package dialogtest

import (
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/ormasoftchile/dialogos/pkg/recognizer"
	"github.com/ormasoftchile/dialogos/pkg/recognizer/mock"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

const script = `
Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "help", helping
  Branch "bye", goodbye
Step helping
  Speak "Here to help."
  Exit
Step goodbye
  Speak "Bye!"
  Exit
`

func TestAssertMessageAndState(t *testing.T) {
	out := interpreter.Output{Message: "Bye!", State: session.Finished}
	if r := AssertMessage(out, "Bye!"); !r.Passed {
		t.Errorf("expected pass: %s", r.Message)
	}
	if r := AssertMessage(out, "Hi!"); r.Passed {
		t.Error("expected fail for mismatched message")
	}
	if r := AssertState(out, session.Finished); !r.Passed {
		t.Errorf("expected pass: %s", r.Message)
	}
	if r := AssertState(out, session.Error); r.Passed {
		t.Error("expected fail for mismatched state")
	}
}

func TestAssertMessageContains(t *testing.T) {
	out := interpreter.Output{Message: "Hello, Alice!"}
	if r := AssertMessageContains(out, "Alice"); !r.Passed {
		t.Errorf("expected pass: %s", r.Message)
	}
	if r := AssertMessageContains(out, "Bob"); r.Passed {
		t.Error("expected fail for absent substring")
	}
}

func TestAssertMessageMatches(t *testing.T) {
	out := interpreter.Output{Message: "confirmation: REST-0042"}
	if r := AssertMessageMatches(out, `REST-\d+`); !r.Passed {
		t.Errorf("expected pass: %s", r.Message)
	}
	if r := AssertMessageMatches(out, `HOSP-\d+`); r.Passed {
		t.Error("expected fail for non-matching pattern")
	}
}

func TestAssertAvailableIntents(t *testing.T) {
	out := interpreter.Output{AvailableIntents: []string{"help", "bye"}}
	if r := AssertAvailableIntents(out, []string{"help", "bye"}); !r.Passed {
		t.Errorf("expected pass: %s", r.Message)
	}
	if r := AssertAvailableIntents(out, []string{"bye", "help"}); r.Passed {
		t.Error("expected fail for out-of-order intents")
	}
}

func TestRunConversationDrivesFullExchange(t *testing.T) {
	s, err := parser.Parse(script)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	rec := mock.New(recognizer.Result{Intent: "bye", Confidence: 1})
	in := interpreter.New(s, rec, nil)
	in.CreateSession("conv1", map[string]any{"name": "Alice"})

	results := RunConversation(in, "conv1", []Turn{
		{
			Checks: []func(interpreter.Output) *Result{
				func(o interpreter.Output) *Result { return AssertMessage(o, "Hello, Alice!") },
				func(o interpreter.Output) *Result { return AssertWaitingForInput(o, true) },
			},
		},
		{
			Input: "goodbye then",
			Checks: []func(interpreter.Output) *Result{
				func(o interpreter.Output) *Result { return AssertMessage(o, "Bye!") },
				func(o interpreter.Output) *Result { return AssertState(o, session.Finished) },
			},
		},
	})

	for _, r := range results {
		if !r.Passed {
			t.Errorf("%s: %s", r.Type, r.Message)
		}
	}
}
