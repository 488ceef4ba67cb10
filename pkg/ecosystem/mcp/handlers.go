package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/ormasoftchile/dialogos/pkg/catalog"
	"github.com/ormasoftchile/dialogos/pkg/diagram"
	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/ormasoftchile/dialogos/pkg/recognizer/local"
)

func readScript(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// HandleValidate implements the dialogue/validate tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := pathArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	src, err := readScript(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	script, err := parser.Parse(src)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	if len(script.Errors) > 0 {
		msgs := make([]string, 0, len(script.Errors))
		for _, e := range script.Errors {
			msgs = append(msgs, fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message))
		}
		data, _ := json.MarshalIndent(msgs, "", "  ")
		return &mcp.CallToolResult{Content: []mcp.Content{mcp.NewTextContent(string(data))}, IsError: true}, nil
	}
	return textResult(fmt.Sprintf("valid: %d steps, entry %q", len(script.Order), script.EntryStep)), nil
}

// HandleDiagram implements the dialogue/diagram tool.
func HandleDiagram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := pathArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	args := req.GetArguments()
	formatName, _ := args["format"].(string)

	src, err := readScript(path)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	script, err := parser.Parse(src)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	format := diagram.FormatMermaid
	if formatName == "ascii" {
		format = diagram.FormatASCII
	}

	out, err := diagram.Generate(script, format)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(out), nil
}

// sessionRuntime holds every loaded script's interpreter, keyed by file
// path, and maps live session ids to the interpreter that owns them so
// later tool calls don't need to repeat the path.
type sessionRuntime struct {
	mu           sync.Mutex
	interpreters map[string]*interpreter.Interpreter
	owner        map[string]*interpreter.Interpreter
}

func newSessionRuntime() *sessionRuntime {
	return &sessionRuntime{
		interpreters: make(map[string]*interpreter.Interpreter),
		owner:        make(map[string]*interpreter.Interpreter),
	}
}

func (rt *sessionRuntime) interpreterFor(path string) (*interpreter.Interpreter, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if in, ok := rt.interpreters[path]; ok {
		return in, nil
	}

	src, err := readScript(path)
	if err != nil {
		return nil, err
	}
	script, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	if len(script.Errors) > 0 {
		return nil, fmt.Errorf("script has %d parse error(s); run dialogue/validate for details", len(script.Errors))
	}

	rec, err := local.New(nil, local.Config{})
	if err != nil {
		return nil, fmt.Errorf("build recognizer: %w", err)
	}

	in := interpreter.New(script, rec, nil)
	rt.interpreters[path] = in
	return in, nil
}

// interpreterForScenario resolves the scenario tagged tag within
// manifestPath, keyed by "manifest#tag" so distinct manifests or tags
// each get their own interpreter, letting one running server process
// host several named dialogue flows side by side.
func (rt *sessionRuntime) interpreterForScenario(manifestPath, tag string) (*interpreter.Interpreter, error) {
	key := manifestPath + "#" + tag

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if in, ok := rt.interpreters[key]; ok {
		return in, nil
	}

	sc, err := catalog.LoadScenario(manifestPath, tag)
	if err != nil {
		return nil, err
	}
	src, err := readScript(sc.ScriptPath)
	if err != nil {
		return nil, err
	}
	script, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	if len(script.Errors) > 0 {
		return nil, fmt.Errorf("scenario %q script has %d parse error(s); run dialogue/validate for details", tag, len(script.Errors))
	}

	rec, err := catalog.MakeLocal(manifestPath, tag, map[string]any{})
	if err != nil {
		return nil, err
	}

	in := interpreter.New(script, rec, nil)
	rt.interpreters[key] = in
	return in, nil
}

// HandleSessionCreate implements dialogue/session_create. A script is
// named either by "path" directly, or by "scenario" looked up in a
// "scenario_manifest", so one server process can host several named
// dialogue flows selected per call instead of a single script baked in
// at startup.
func (rt *sessionRuntime) HandleSessionCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return errorResult("session_id argument is required"), nil
	}

	var in *interpreter.Interpreter
	var err error
	if tag, _ := args["scenario"].(string); tag != "" {
		manifestPath, _ := args["scenario_manifest"].(string)
		if manifestPath == "" {
			return errorResult("scenario_manifest argument is required with scenario"), nil
		}
		in, err = rt.interpreterForScenario(manifestPath, tag)
	} else {
		var path string
		path, err = pathArg(req)
		if err == nil {
			in, err = rt.interpreterFor(path)
		}
	}
	if err != nil {
		return errorResult(err.Error()), nil
	}

	in.CreateSession(sessionID, map[string]any{})

	rt.mu.Lock()
	rt.owner[sessionID] = in
	rt.mu.Unlock()

	return textResult(fmt.Sprintf("session %q created", sessionID)), nil
}

// HandleSessionStart implements dialogue/session_start.
func (rt *sessionRuntime) HandleSessionStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, sessionID, err := rt.sessionArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	return outputResult(in.Start(sessionID)), nil
}

// HandleSessionProcessInput implements dialogue/session_process_input.
func (rt *sessionRuntime) HandleSessionProcessInput(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, sessionID, err := rt.sessionArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	args := req.GetArguments()
	text, _ := args["text"].(string)
	return outputResult(in.ProcessInput(sessionID, text)), nil
}

// HandleSessionGet implements dialogue/session_get.
func (rt *sessionRuntime) HandleSessionGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, sessionID, err := rt.sessionArg(req)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	snap, ok := in.GetSession(sessionID)
	if !ok {
		return errorResult(fmt.Sprintf("unknown session %q", sessionID)), nil
	}
	view := snap.Snapshot()
	data, _ := json.MarshalIndent(map[string]any{
		"current_step":      view.CurrentStep,
		"state":              view.State.String(),
		"variables":          view.Variables,
		"available_intents": view.AvailableIntents,
	}, "", "  ")
	return textResult(string(data)), nil
}

func (rt *sessionRuntime) sessionArg(req mcp.CallToolRequest) (*interpreter.Interpreter, string, error) {
	args := req.GetArguments()
	sessionID, _ := args["session_id"].(string)
	if sessionID == "" {
		return nil, "", fmt.Errorf("session_id argument is required")
	}
	rt.mu.Lock()
	in, ok := rt.owner[sessionID]
	rt.mu.Unlock()
	if !ok {
		return nil, "", fmt.Errorf("unknown session %q: call session_create first", sessionID)
	}
	return in, sessionID, nil
}

func outputResult(out interpreter.Output) *mcp.CallToolResult {
	data, _ := json.MarshalIndent(map[string]any{
		"message":            out.Message,
		"state":              out.State.String(),
		"waiting_for_input":  out.WaitingForInput,
		"available_intents": out.AvailableIntents,
	}, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: out.State.String() == "ERROR",
	}
}

func pathArg(req mcp.CallToolRequest) (string, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return "", fmt.Errorf("path argument is required")
	}
	return path, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(msg)},
		IsError: true,
	}
}
