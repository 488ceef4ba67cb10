// Package main provides the dialogue-tui binary: an interactive terminal
// inspector for a single dialogue session.
package main

import (
	"fmt"
	"os"

	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/ormasoftchile/dialogos/pkg/recognizer/local"
	"github.com/ormasoftchile/dialogos/pkg/service"
	"github.com/ormasoftchile/dialogos/pkg/tui"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: dialogue-tui <script.flow>")
		os.Exit(1)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "read %s: %v\n", os.Args[1], err)
		os.Exit(1)
	}
	script, err := parser.Parse(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse: %v\n", err)
		os.Exit(1)
	}
	if len(script.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "%s has %d parse error(s); run `dialogue validate` for details\n", os.Args[1], len(script.Errors))
		os.Exit(1)
	}

	rec, err := local.New(nil, local.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "build recognizer: %v\n", err)
		os.Exit(1)
	}

	in := interpreter.New(script, rec, service.NewDemoRegistry())

	err = tui.Run(tui.Config{
		Interpreter: in,
		SessionID:   "tui",
		InitialVars: map[string]any{},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
