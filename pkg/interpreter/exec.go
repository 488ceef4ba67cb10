package interpreter

import (
	"context"
	"strings"

	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/service"
	"github.com/ormasoftchile/dialogos/pkg/session"
)

// maxWhileIterations is the hard cap on a single While statement's
// iteration count before the session transitions to ERROR.
const maxWhileIterations = 1000

type ctrlKind int

const (
	ctrlNone ctrlKind = iota
	ctrlGoto
	ctrlExit
)

// ctrl signals how a statement block wants execution to continue: fall
// through to the next statement, jump to another step, or terminate the
// step immediately (Exit), unwinding out of however deeply nested the
// statement was.
type ctrl struct {
	kind   ctrlKind
	target string
}

// execBlock runs stmts in order, evaluating expressions against ctx and
// appending Speak output to out. It returns as soon as a Goto or Exit is
// hit, or an expression/loop error occurs.
func (in *Interpreter) execBlock(ctx *session.Context, stmts []ast.Statement, out *strings.Builder) (ctrl, error) {
	for _, st := range stmts {
		switch st.Kind {
		case ast.StmtSpeak:
			v, err := in.eval(ctx, st.Expr)
			if err != nil {
				return ctrl{}, err
			}
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
			s := stringify(v)
			out.WriteString(s)
			ctx.History = append(ctx.History, session.HistoryEntry{Role: "assistant", Content: s})

		case ast.StmtListen:
			// No-op at statement level; only affects the step's suspension
			// decision once the statement sequence finishes.

		case ast.StmtSet:
			v, err := in.eval(ctx, st.Expr)
			if err != nil {
				return ctrl{}, err
			}
			ctx.Variables[st.VarName] = v

		case ast.StmtGoto:
			return ctrl{kind: ctrlGoto, target: st.Target}, nil

		case ast.StmtIf:
			v, err := in.eval(ctx, st.Cond)
			if err != nil {
				return ctrl{}, err
			}
			block := st.Then
			if !truthy(v) {
				block = st.Else
			}
			c, err := in.execBlock(ctx, block, out)
			if err != nil || c.kind != ctrlNone {
				return c, err
			}

		case ast.StmtWhile:
			iterations := 0
			for {
				v, err := in.eval(ctx, st.Cond)
				if err != nil {
					return ctrl{}, err
				}
				if !truthy(v) {
					break
				}
				iterations++
				if iterations > maxWhileIterations {
					return ctrl{}, typeErr("while loop exceeded %d iterations", maxWhileIterations)
				}
				c, err := in.execBlock(ctx, st.Then, out)
				if err != nil {
					return ctrl{}, err
				}
				if c.kind != ctrlNone {
					return c, nil
				}
			}

		case ast.StmtCall:
			args := make([]service.Value, len(st.Args))
			for i, a := range st.Args {
				v, err := in.eval(ctx, a)
				if err != nil {
					return ctrl{}, err
				}
				args[i] = v
			}
			result := in.services.Call(context.Background(), st.ServiceName, args, service.CallContext{
				SessionID: ctx.ID,
				Variables: ctx.Variables,
			})
			if st.ResultVar != "" {
				ctx.Variables[st.ResultVar] = result
			}

		case ast.StmtExit:
			return ctrl{kind: ctrlExit}, nil
		}
	}
	return ctrl{}, nil
}

// branchIntents returns the ordered, duplicate-preserving list of intent
// literals offered by step's branches.
func branchIntents(step *ast.Step) []string {
	intents := make([]string, len(step.Branches))
	for i, b := range step.Branches {
		intents[i] = b.Intent
	}
	return intents
}

// branchTarget scans step's branches in source order for the first exact
// match on intent.
func branchTarget(step *ast.Step, intent string) (string, bool) {
	for _, b := range step.Branches {
		if b.Intent == intent {
			return b.Target, true
		}
	}
	return "", false
}

func suspendsOnEntry(step *ast.Step) bool {
	return step.HasListen || len(step.Branches) > 0 || step.HasSilence || step.HasDefault
}
