// Package mcp exposes the dialogue engine as a set of MCP tools: parsing
// and validating scripts, rendering flow diagrams, and driving sessions
// (create/start/process_input) over an in-process interpreter registry.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the dialogue toolset registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"dialogos",
		version,
		server.WithToolCapabilities(true),
	)

	runtime := newSessionRuntime()

	s.AddTool(
		mcp.NewTool("dialogue/validate",
			mcp.WithDescription("Parse a dialogue script and report syntax errors"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .flow script file")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("dialogue/diagram",
			mcp.WithDescription("Render a dialogue script's step flow as Mermaid or ASCII"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the .flow script file")),
			mcp.WithString("format", mcp.Description("mermaid or ascii (default mermaid)")),
		),
		HandleDiagram,
	)

	s.AddTool(
		mcp.NewTool("dialogue/session_create",
			mcp.WithDescription("Load a script and create a new session at its entry step, either by direct path or by scenario tag"),
			mcp.WithString("path", mcp.Description("Path to the .flow script file; omit when using scenario")),
			mcp.WithString("scenario", mcp.Description("Scenario tag to select from scenario_manifest, instead of path")),
			mcp.WithString("scenario_manifest", mcp.Description("Path to a scenario manifest; required with scenario")),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Caller-chosen session identifier")),
		),
		runtime.HandleSessionCreate,
	)

	s.AddTool(
		mcp.NewTool("dialogue/session_start",
			mcp.WithDescription("Transition a session from idle to running and execute to the first suspension"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier from session_create")),
		),
		runtime.HandleSessionStart,
	)

	s.AddTool(
		mcp.NewTool("dialogue/session_process_input",
			mcp.WithDescription("Feed user input to a waiting session and execute to the next suspension"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier from session_create")),
			mcp.WithString("text", mcp.Required(), mcp.Description("The user's utterance")),
		),
		runtime.HandleSessionProcessInput,
	)

	s.AddTool(
		mcp.NewTool("dialogue/session_get",
			mcp.WithDescription("Inspect a session's current state, step, and variables"),
			mcp.WithString("session_id", mcp.Required(), mcp.Description("Session identifier from session_create")),
		),
		runtime.HandleSessionGet,
	)

	return s
}
