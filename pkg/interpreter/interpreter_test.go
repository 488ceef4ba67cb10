package interpreter

import (
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/ormasoftchile/dialogos/pkg/recognizer"
	"github.com/ormasoftchile/dialogos/pkg/recognizer/mock"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

const welcomeScript = `
Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "help", help
  Branch "bye", goodbye
Step help
  Speak "This is help."
  Exit
Step goodbye
  Speak "Bye!"
  Exit
`

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(script.Errors) > 0 {
		t.Fatalf("unexpected parse errors: %+v", script.Errors)
	}
	return script
}

func TestVariableSubstitutionAndSuspension(t *testing.T) {
	script := mustParse(t, welcomeScript)
	rec := mock.New(recognizer.Result{Intent: "bye", Confidence: 1})
	in := New(script, rec, nil)

	in.CreateSession("s1", map[string]any{"name": "Alice"})
	out := in.Start("s1")
	if out.Message != "Hello, Alice!" {
		t.Fatalf("message = %q", out.Message)
	}
	if out.State != session.WaitingInput || !out.WaitingForInput {
		t.Fatalf("state = %v", out.State)
	}
	if len(out.AvailableIntents) != 2 || out.AvailableIntents[0] != "help" || out.AvailableIntents[1] != "bye" {
		t.Fatalf("available intents = %v", out.AvailableIntents)
	}

	out = in.ProcessInput("s1", "bye")
	if out.Message != "Bye!" {
		t.Fatalf("message = %q", out.Message)
	}
	if out.State != session.Finished {
		t.Fatalf("state = %v", out.State)
	}
}

func TestSilenceRouting(t *testing.T) {
	src := `
Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "help", help
  Branch "bye", goodbye
  Silence goodbye
Step help
  Speak "This is help."
  Exit
Step goodbye
  Speak "Bye!"
  Exit
`
	script := mustParse(t, src)
	rec := mock.New(recognizer.Result{IsSilence: true})
	in := New(script, rec, nil)

	in.CreateSession("s1", map[string]any{"name": "Alice"})
	in.Start("s1")
	out := in.ProcessInput("s1", "")
	if out.Message != "Bye!" || out.State != session.Finished {
		t.Fatalf("got %+v", out)
	}
}

func TestDefaultRouting(t *testing.T) {
	src := `
Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "help", help
  Branch "bye", goodbye
  Default welcome
Step help
  Speak "This is help."
  Exit
Step goodbye
  Speak "Bye!"
  Exit
`
	script := mustParse(t, src)
	rec := mock.New(recognizer.Result{Intent: ""})
	in := New(script, rec, nil)

	in.CreateSession("s1", map[string]any{"name": "Alice"})
	in.Start("s1")
	out := in.ProcessInput("s1", "xyzzy")
	if out.Message != "Hello, Alice!" || out.State != session.WaitingInput {
		t.Fatalf("got %+v", out)
	}
}

func TestArithmeticExpression(t *testing.T) {
	src := `
Step t
  Set $a = 10
  Set $b = 5
  Set $s = $a + $b
  Speak "sum=" + $s
  Exit
`
	script := mustParse(t, src)
	in := New(script, mock.New(), nil)
	in.CreateSession("s1", nil)
	out := in.Start("s1")
	if out.Message != "sum=15" || out.State != session.Finished {
		t.Fatalf("got %+v", out)
	}
}

func TestWhileIterationCap(t *testing.T) {
	src := `
Step t
  Set $i = 0
  While $i >= 0
    Set $i = $i + 1
  EndWhile
  Exit
`
	script := mustParse(t, src)
	in := New(script, mock.New(), nil)
	in.CreateSession("s1", nil)
	out := in.Start("s1")
	if out.State != session.Error {
		t.Fatalf("expected ERROR from runaway while, got %v", out.State)
	}
}

func TestUnmatchedIntentKeepsWaiting(t *testing.T) {
	script := mustParse(t, welcomeScript)
	rec := mock.New(recognizer.Result{Intent: ""})
	in := New(script, rec, nil)
	in.CreateSession("s1", map[string]any{"name": "Alice"})
	in.Start("s1")
	out := in.ProcessInput("s1", "xyzzy")
	if out.Message != unmatchedMessage {
		t.Fatalf("message = %q", out.Message)
	}
	if out.State != session.WaitingInput {
		t.Fatalf("state = %v", out.State)
	}
}

func TestFinishedSessionRejectsFurtherInput(t *testing.T) {
	src := `
Step t
  Speak "done"
  Exit
`
	script := mustParse(t, src)
	in := New(script, mock.New(), nil)
	in.CreateSession("s1", nil)
	in.Start("s1")

	out := in.ProcessInput("s1", "anything")
	if out.State != session.Error {
		t.Fatalf("expected ERROR for input to a finished session, got %v", out.State)
	}
	ctx, _ := in.GetSession("s1")
	if ctx.State != session.Finished {
		t.Fatalf("finished session's state must not mutate, got %v", ctx.State)
	}
}
