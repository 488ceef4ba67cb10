// Package main provides the dialogue-mcp binary — an MCP server exposing
// dialogue script validation, diagramming, and session operations to AI
// agents over stdio.
package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	dmcp "github.com/ormasoftchile/dialogos/pkg/ecosystem/mcp"
)

var version = "dev"

func main() {
	s := dmcp.NewServer(version)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
