package mcp

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
)

const fixtureScript = `
Step welcome
  Speak "Hello, " + $name + "!"
  Listen 5, 30
  Branch "bye", goodbye
Step goodbye
  Speak "Bye!"
  Exit
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "welcome.flow")
	if err := os.WriteFile(path, []byte(fixtureScript), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestHandleValidate_MissingPath(t *testing.T) {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for missing path")
	}
}

func TestHandleValidate_ValidScript(t *testing.T) {
	path := writeFixture(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleValidate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("expected success, got error result: %+v", result.Content)
	}
}

func TestHandleDiagram_DefaultsToMermaid(t *testing.T) {
	path := writeFixture(t)
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"path": path}

	result, err := HandleDiagram(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if result.IsError {
		t.Errorf("expected success, got error result: %+v", result.Content)
	}
}

func TestSessionLifecycle(t *testing.T) {
	path := writeFixture(t)
	rt := newSessionRuntime()
	ctx := context.Background()

	createReq := mcp.CallToolRequest{}
	createReq.Params.Arguments = map[string]any{"path": path, "session_id": "s1"}
	if result, err := rt.HandleSessionCreate(ctx, createReq); err != nil || result.IsError {
		t.Fatalf("session_create failed: %v %+v", err, result)
	}

	startReq := mcp.CallToolRequest{}
	startReq.Params.Arguments = map[string]any{"session_id": "s1"}
	if result, err := rt.HandleSessionStart(ctx, startReq); err != nil || result.IsError {
		t.Fatalf("session_start failed: %v %+v", err, result)
	}

	inputReq := mcp.CallToolRequest{}
	inputReq.Params.Arguments = map[string]any{"session_id": "s1", "text": "goodbye"}
	if result, err := rt.HandleSessionProcessInput(ctx, inputReq); err != nil || result.IsError {
		t.Fatalf("session_process_input failed: %v %+v", err, result)
	}

	getReq := mcp.CallToolRequest{}
	getReq.Params.Arguments = map[string]any{"session_id": "s1"}
	if result, err := rt.HandleSessionGet(ctx, getReq); err != nil || result.IsError {
		t.Fatalf("session_get failed: %v %+v", err, result)
	}
}

func TestSessionCreate_ByScenarioTag(t *testing.T) {
	scriptPath := writeFixture(t)
	manifestPath := filepath.Join(filepath.Dir(scriptPath), "scenarios.yaml")
	manifest := "scenarios:\n  - tag: welcome\n    script: " + scriptPath + "\n"
	if err := os.WriteFile(manifestPath, []byte(manifest), 0o644); err != nil {
		t.Fatalf("write manifest fixture: %v", err)
	}

	rt := newSessionRuntime()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{
		"scenario":          "welcome",
		"scenario_manifest": manifestPath,
		"session_id":        "s2",
	}
	if result, err := rt.HandleSessionCreate(context.Background(), req); err != nil || result.IsError {
		t.Fatalf("session_create by scenario failed: %v %+v", err, result)
	}
}

func TestSessionCreate_ScenarioWithoutManifestIsAnError(t *testing.T) {
	rt := newSessionRuntime()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"scenario": "welcome", "session_id": "s3"}
	result, err := rt.HandleSessionCreate(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error when scenario is given without scenario_manifest")
	}
}

func TestSessionGet_UnknownSession(t *testing.T) {
	rt := newSessionRuntime()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"session_id": "missing"}

	result, err := rt.HandleSessionGet(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Error("expected error for unknown session")
	}
}
