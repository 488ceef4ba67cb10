// Package main provides the dialogue CLI: validate, diagram, run, and
// schema-export subcommands over the dialogue scripting language.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ormasoftchile/dialogos/pkg/catalog"
	"github.com/ormasoftchile/dialogos/pkg/diagram"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dialogue",
	Short: "Scripted dialogue engine",
	Long:  "dialogue — compile, validate, diagram, and run scripted conversation flows.",
}

// --- validate ---

var validateCmd = &cobra.Command{
	Use:   "validate [script.flow]",
	Short: "Parse a dialogue script and report syntax errors",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	script, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(script.Errors) > 0 {
		for i, e := range script.Errors {
			fmt.Fprintf(os.Stderr, "  %d. %d:%d: %s\n", i+1, e.Line, e.Column, e.Message)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(script.Errors))
	}
	fmt.Printf("✓ %s is valid (%d steps, entry %q)\n", args[0], len(script.Order), script.EntryStep)
	return nil
}

// --- diagram ---

var diagramFormat string

var diagramCmd = &cobra.Command{
	Use:   "diagram [script.flow]",
	Short: "Render a script's step flow as Mermaid or ASCII",
	Args:  cobra.ExactArgs(1),
	RunE:  runDiagram,
}

func runDiagram(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	script, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	format := diagram.FormatMermaid
	if diagramFormat == "ascii" {
		format = diagram.FormatASCII
	} else if diagramFormat != "" && diagramFormat != "mermaid" {
		return fmt.Errorf("unknown format %q: use mermaid or ascii", diagramFormat)
	}

	out, err := diagram.Generate(script, format)
	if err != nil {
		return fmt.Errorf("diagram: %w", err)
	}
	fmt.Println(out)
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Schema operations",
}

var schemaExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the pattern catalog JSON Schema to stdout",
	RunE:  runSchemaExport,
}

func runSchemaExport(cmd *cobra.Command, args []string) error {
	data, err := catalog.GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var raw json.RawMessage = data
	formatted, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		fmt.Println(string(data))
		return nil
	}
	fmt.Println(string(formatted))
	return nil
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("dialogue %s (build: %s)\n", version, commit)
	},
}

func init() {
	diagramCmd.Flags().StringVar(&diagramFormat, "format", "mermaid", "Output format: mermaid or ascii")

	schemaCmd.AddCommand(schemaExportCmd)

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diagramCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(versionCmd)
}
