// Package interpreter executes a compiled ast.Script as a per-session
// state machine (C6): it drives statement execution, expression
// evaluation, intent dispatch through a recognizer.Recognizer, and step
// transitions, coordinating with an external service.Handler for Call
// statements. The Script is treated as immutable and shared across every
// session the Interpreter drives.
package interpreter

import (
	"fmt"
	"strings"
	"time"

	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/recognizer"
	"github.com/ormasoftchile/dialogos/pkg/service"
	"github.com/ormasoftchile/dialogos/pkg/session"
	"github.com/ormasoftchile/dialogos/pkg/trace"
)

// unmatchedMessage is the fixed reply for an utterance that matched no
// silence, branch, or default handler.
const unmatchedMessage = "Sorry, I didn't understand. Please try again."

// Output is the result of a start or process_input call: the text to
// show the user, the session's resulting state, and whether it is now
// waiting on further input.
type Output struct {
	Message          string
	State            session.State
	WaitingForInput  bool
	AvailableIntents []string
}

// Interpreter drives sessions against a single compiled Script.
type Interpreter struct {
	script     *ast.Script
	recognizer recognizer.Recognizer
	services   service.Handler
	sessions   *session.Registry
	tracer     trace.Sink
}

// New builds an Interpreter. svc may be nil, in which case an empty
// service.Registry is used — every Call then resolves to an
// "unknown service" error value rather than panicking.
func New(script *ast.Script, rec recognizer.Recognizer, svc service.Handler) *Interpreter {
	if svc == nil {
		svc = service.NewRegistry()
	}
	return &Interpreter{
		script:     script,
		recognizer: rec,
		services:   svc,
		sessions:   session.NewRegistry(),
		tracer:     trace.Discard,
	}
}

// SetTracer directs every subsequent lifecycle event at sink. Passing
// nil restores the default no-op sink.
func (in *Interpreter) SetTracer(sink trace.Sink) {
	if sink == nil {
		sink = trace.Discard
	}
	in.tracer = sink
}

// CreateSession registers a new session at the script's entry step,
// state IDLE. Per contract the caller owns id uniqueness: creating a
// session under an id that already exists overwrites it.
func (in *Interpreter) CreateSession(id string, initialVars map[string]any) *session.Context {
	ctx := session.New(id, initialVars)
	ctx.CurrentStep = in.script.EntryStep
	in.sessions.Set(ctx)
	in.tracer.Emit(trace.Event{Type: trace.SessionCreated, SessionID: id, Step: ctx.CurrentStep, Timestamp: time.Now()})
	return ctx
}

// GetSession looks up a session by id without mutating it.
func (in *Interpreter) GetSession(id string) (*session.Context, bool) {
	return in.sessions.Get(id)
}

// RemoveSession drops a session's context, releasing all its state.
func (in *Interpreter) RemoveSession(id string) {
	in.sessions.Delete(id)
}

// Start transitions a session from IDLE to RUNNING and executes from the
// entry step, returning the first suspension output. Calling Start on a
// session that isn't IDLE returns an error Output without mutating the
// session.
func (in *Interpreter) Start(id string) Output {
	ctx, ok := in.sessions.Get(id)
	if !ok {
		return errorOutput(fmt.Sprintf("unknown session %q", id))
	}

	ctx.Lock()
	defer ctx.Unlock()

	if ctx.State != session.Idle {
		return Output{
			Message: fmt.Sprintf("session %q is not idle", id),
			State:   session.Error,
		}
	}
	ctx.State = session.Running
	return in.runFrom(ctx)
}

// ProcessInput is the only input-driven operation. The session must
// exist and be WAITING_INPUT; otherwise the context is left unchanged
// and an error Output is returned.
func (in *Interpreter) ProcessInput(id string, userText string) Output {
	ctx, ok := in.sessions.Get(id)
	if !ok {
		return errorOutput(fmt.Sprintf("unknown session %q", id))
	}

	ctx.Lock()
	defer ctx.Unlock()

	if ctx.State != session.WaitingInput {
		return Output{
			Message: fmt.Sprintf("session %q is not waiting for input", id),
			State:   session.Error,
		}
	}

	step := in.script.StepByName(ctx.CurrentStep)
	if step == nil {
		ctx.State = session.Error
		ctx.LastError = fmt.Sprintf("unknown step %q", ctx.CurrentStep)
		return Output{Message: ctx.LastError, State: session.Error}
	}

	ctx.History = append(ctx.History, session.HistoryEntry{Role: "user", Content: userText})

	result := in.recognizer.Recognize(userText, ctx.AvailableIntents, recognizer.Context{
		Variables:     ctx.Variables,
		RecentHistory: lastHistory(ctx.History, 5),
	})

	switch {
	case result.IsSilence && step.HasSilence:
		ctx.CurrentStep = step.SilenceStep

	case result.Intent != "":
		target, matched := branchTarget(step, result.Intent)
		if !matched {
			if step.HasDefault {
				ctx.CurrentStep = step.DefaultStep
				break
			}
			return Output{
				Message:          unmatchedMessage,
				State:            ctx.State,
				WaitingForInput:  true,
				AvailableIntents: ctx.AvailableIntents,
			}
		}
		for name, val := range result.Entities {
			ctx.Variables[name] = val
		}
		ctx.CurrentStep = target

	case step.HasDefault:
		ctx.CurrentStep = step.DefaultStep

	default:
		return Output{
			Message:          unmatchedMessage,
			State:            ctx.State,
			WaitingForInput:  true,
			AvailableIntents: ctx.AvailableIntents,
		}
	}

	return in.runFrom(ctx)
}

// runFrom executes steps starting at ctx.CurrentStep until the session
// suspends, finishes, or errors, following Goto chains in a loop rather
// than recursing.
func (in *Interpreter) runFrom(ctx *session.Context) Output {
	var out strings.Builder

	for {
		step := in.script.StepByName(ctx.CurrentStep)
		if step == nil {
			ctx.State = session.Error
			ctx.LastError = fmt.Sprintf("unknown step %q", ctx.CurrentStep)
			return Output{Message: ctx.LastError, State: session.Error}
		}

		in.tracer.Emit(trace.Event{Type: trace.StepEntered, SessionID: ctx.ID, Step: step.Name, Timestamp: time.Now()})

		c, err := in.execBlock(ctx, step.Statements, &out)
		if err != nil {
			ctx.State = session.Error
			ctx.LastError = err.Error()
			in.tracer.Emit(trace.Event{Type: trace.Error, SessionID: ctx.ID, Step: step.Name, Message: err.Error(), Timestamp: time.Now()})
			return Output{Message: out.String(), State: session.Error}
		}

		if c.kind == ctrlGoto {
			ctx.CurrentStep = c.target
			continue
		}

		ctx.AvailableIntents = branchIntents(step)

		if c.kind == ctrlExit || step.IsExit {
			ctx.State = session.Finished
			in.tracer.Emit(trace.Event{Type: trace.Finished, SessionID: ctx.ID, Step: step.Name, Timestamp: time.Now()})
			return Output{Message: out.String(), State: session.Finished}
		}

		if suspendsOnEntry(step) {
			ctx.State = session.WaitingInput
			in.tracer.Emit(trace.Event{Type: trace.Suspended, SessionID: ctx.ID, Step: step.Name, Timestamp: time.Now()})
			return Output{
				Message:          out.String(),
				State:            session.WaitingInput,
				WaitingForInput:  true,
				AvailableIntents: ctx.AvailableIntents,
			}
		}

		ctx.State = session.Finished
		in.tracer.Emit(trace.Event{Type: trace.Finished, SessionID: ctx.ID, Step: step.Name, Timestamp: time.Now()})
		return Output{Message: out.String(), State: session.Finished}
	}
}

func errorOutput(msg string) Output {
	return Output{Message: msg, State: session.Error}
}

// lastHistory returns the last n entries of history, in order.
func lastHistory(history []session.HistoryEntry, n int) []recognizer.HistoryEntry {
	start := 0
	if len(history) > n {
		start = len(history) - n
	}
	out := make([]recognizer.HistoryEntry, 0, len(history)-start)
	for _, h := range history[start:] {
		out = append(out, recognizer.HistoryEntry{Role: h.Role, Content: h.Content})
	}
	return out
}
