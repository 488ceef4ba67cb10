package parser

import (
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/ast"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return script
}

// A syntax error in one step must not stop the rest of the script from
// parsing: the error is recorded and the parser resynchronizes at the
// next Step keyword, so every step that is itself well-formed still
// shows up in script.Steps.
func TestErrorInOneStepDoesNotBlockTheNext(t *testing.T) {
	src := `
Step broken
  Speak

Step ok
  Speak "fine"
  Exit
`
	script := mustParse(t, src)
	if len(script.Errors) == 0 {
		t.Fatal("expected at least one recorded parse error")
	}
	if _, ok := script.Steps["broken"]; ok {
		t.Error("step with a syntax error should not be recorded as a valid step")
	}
	ok := script.StepByName("ok")
	if ok == nil {
		t.Fatal("expected step 'ok' to parse intact despite the earlier error")
	}
	if len(ok.Statements) != 2 || ok.Statements[0].Kind != ast.StmtSpeak || ok.Statements[1].Kind != ast.StmtExit {
		t.Errorf("step 'ok' statements malformed: %+v", ok.Statements)
	}
}

func TestRecoveryResynchronizesOnStepKeyword(t *testing.T) {
	src := `
Step one
  Set $x = (

Step two
  Speak "hi"
  Exit

Step three
  Speak "bye"
  Exit
`
	script := mustParse(t, src)
	if len(script.Errors) != 1 {
		t.Fatalf("expected exactly one parse error, got %d: %+v", len(script.Errors), script.Errors)
	}
	if script.StepByName("two") == nil || script.StepByName("three") == nil {
		t.Fatalf("expected steps after the broken one to parse, got order %v", script.Order)
	}
}

func TestDuplicateStepNameIsRecordedAsError(t *testing.T) {
	src := `
Step a
  Exit

Step a
  Exit
`
	script := mustParse(t, src)
	if len(script.Errors) != 1 {
		t.Fatalf("expected 1 duplicate-name error, got %d", len(script.Errors))
	}
	if len(script.Order) != 1 {
		t.Fatalf("expected only the first occurrence kept, got order %v", script.Order)
	}
}

func TestEntryStepIsFirstSuccessfullyParsedStep(t *testing.T) {
	src := `
Step broken
  Speak

Step welcome
  Exit
`
	script := mustParse(t, src)
	if script.EntryStep != "welcome" {
		t.Errorf("EntryStep = %q, want %q", script.EntryStep, "welcome")
	}
}

func TestBranchSilenceDefaultAreHoistedOffOfStatements(t *testing.T) {
	src := `
Step menu
  Speak "pick one"
  Listen 5, 30
  Branch "help", helping
  Branch "bye", goodbye
  Silence reprompt
  Default fallback
Step helping
  Exit
Step goodbye
  Exit
Step reprompt
  Exit
Step fallback
  Exit
`
	script := mustParse(t, src)
	menu := script.StepByName("menu")
	if menu == nil {
		t.Fatal("expected step 'menu'")
	}
	for _, s := range menu.Statements {
		if s.Kind != ast.StmtSpeak && s.Kind != ast.StmtListen {
			t.Errorf("expected only Speak/Listen statements in body, found %v", s.Kind)
		}
	}
	if len(menu.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(menu.Branches))
	}
	if menu.Branches[0].Intent != "help" || menu.Branches[0].Target != "helping" {
		t.Errorf("first branch = %+v", menu.Branches[0])
	}
	if !menu.HasSilence || menu.SilenceStep != "reprompt" {
		t.Errorf("silence handler = %q (has=%v)", menu.SilenceStep, menu.HasSilence)
	}
	if !menu.HasDefault || menu.DefaultStep != "fallback" {
		t.Errorf("default handler = %q (has=%v)", menu.DefaultStep, menu.HasDefault)
	}
	if !menu.HasListen {
		t.Error("expected HasListen true")
	}
}

func TestIfElseEndIfNesting(t *testing.T) {
	src := `
Step gate
  If $age >= 18
    Speak "welcome"
  Else
    Speak "sorry"
  EndIf
  Exit
`
	script := mustParse(t, src)
	step := script.StepByName("gate")
	if step == nil || len(step.Statements) != 2 {
		t.Fatalf("expected If + Exit, got %+v", step)
	}
	ifStmt := step.Statements[0]
	if ifStmt.Kind != ast.StmtIf {
		t.Fatalf("expected StmtIf, got %v", ifStmt.Kind)
	}
	if ifStmt.Cond.Kind != ast.ExprBinary || ifStmt.Cond.BinOp != ast.OpGe {
		t.Errorf("condition = %+v", ifStmt.Cond)
	}
	if len(ifStmt.Then) != 1 || len(ifStmt.Else) != 1 {
		t.Errorf("then/else blocks = %d/%d statements", len(ifStmt.Then), len(ifStmt.Else))
	}
}

func TestWhileEndWhile(t *testing.T) {
	src := `
Step loop
  While $count < 3
    Set $count = $count + 1
  EndWhile
  Exit
`
	script := mustParse(t, src)
	step := script.StepByName("loop")
	if step == nil || step.Statements[0].Kind != ast.StmtWhile {
		t.Fatalf("expected StmtWhile, got %+v", step)
	}
	body := step.Statements[0].Then
	if len(body) != 1 || body[0].Kind != ast.StmtSet {
		t.Fatalf("expected one Set statement in loop body, got %+v", body)
	}
}

func TestCallWithArgsAndResultVar(t *testing.T) {
	src := `
Step book
  Call reserve_table(2, "7pm") = $confirmation
  Exit
`
	script := mustParse(t, src)
	step := script.StepByName("book")
	call := step.Statements[0]
	if call.Kind != ast.StmtCall {
		t.Fatalf("expected StmtCall, got %v", call.Kind)
	}
	if call.ServiceName != "reserve_table" || call.ResultVar != "confirmation" {
		t.Errorf("got service=%q resultVar=%q", call.ServiceName, call.ResultVar)
	}
	if len(call.Args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(call.Args))
	}
}

func TestExpressionPrecedenceMatchesArithmeticConventions(t *testing.T) {
	// 1 + 2 * 3 must parse as 1 + (2 * 3), not (1 + 2) * 3.
	script := mustParse(t, "Step s\n  Speak 1 + 2 * 3\n  Exit\n")
	expr := script.StepByName("s").Statements[0].Expr
	if expr.Kind != ast.ExprBinary || expr.BinOp != ast.OpAdd {
		t.Fatalf("expected top-level Add, got %+v", expr)
	}
	right := expr.Right
	if right.Kind != ast.ExprBinary || right.BinOp != ast.OpMul {
		t.Fatalf("expected right operand to be a Mul, got %+v", right)
	}
}

func TestParenthesesOverridePrecedence(t *testing.T) {
	script := mustParse(t, "Step s\n  Speak (1 + 2) * 3\n  Exit\n")
	expr := script.StepByName("s").Statements[0].Expr
	if expr.Kind != ast.ExprBinary || expr.BinOp != ast.OpMul {
		t.Fatalf("expected top-level Mul, got %+v", expr)
	}
	left := expr.Left
	if left.Kind != ast.ExprBinary || left.BinOp != ast.OpAdd {
		t.Fatalf("expected left operand to be an Add, got %+v", left)
	}
}

func TestBareIdentifierIsAZeroArgFunctionCall(t *testing.T) {
	script := mustParse(t, "Step s\n  Speak current_time\n  Exit\n")
	expr := script.StepByName("s").Statements[0].Expr
	if expr.Kind != ast.ExprCall || expr.FuncName != "current_time" || len(expr.FuncArgs) != 0 {
		t.Errorf("got %+v", expr)
	}
}

func TestUnaryNotAndNegation(t *testing.T) {
	script := mustParse(t, "Step s\n  Speak not $flag\n  Exit\n")
	expr := script.StepByName("s").Statements[0].Expr
	if expr.Kind != ast.ExprUnary || expr.UnOp != ast.OpNot {
		t.Fatalf("got %+v", expr)
	}
}

func TestEmptySourceProducesNoStepsAndNoErrors(t *testing.T) {
	script := mustParse(t, "")
	if len(script.Steps) != 0 || len(script.Errors) != 0 {
		t.Errorf("expected empty script, got %+v", script)
	}
}

func TestUnexpectedTokenAtTopLevelIsRecorded(t *testing.T) {
	script := mustParse(t, "Speak \"no enclosing step\"\n")
	if len(script.Errors) == 0 {
		t.Error("expected a parse error for a statement outside any Step")
	}
}
