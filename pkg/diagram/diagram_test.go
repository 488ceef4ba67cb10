package diagram

import (
	"strings"
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/parser"
)

func mustParse(t *testing.T, src string) *ast.Script {
	t.Helper()
	script, err := parser.Parse(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return script
}

func TestGenerateMermaidLinearFlow(t *testing.T) {
	src := `
Step one
  Speak "hi"
  Goto two
Step two
  Speak "bye"
  Exit
`
	script := mustParse(t, src)
	out, err := Generate(script, FormatMermaid)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "flowchart TD") {
		t.Error("missing flowchart header")
	}
	if !strings.Contains(out, "one") || !strings.Contains(out, "two") {
		t.Error("missing step nodes")
	}
	if !strings.Contains(out, "one --> two") {
		t.Errorf("missing goto edge, got:\n%s", out)
	}
}

func TestGenerateMermaidBranches(t *testing.T) {
	src := `
Step welcome
  Speak "hi"
  Listen
  Branch "help", help
  Silence bye
  Default welcome
Step help
  Exit
Step bye
  Exit
`
	script := mustParse(t, src)
	out, err := Generate(script, FormatMermaid)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, `welcome -->|"help"| help`) {
		t.Errorf("missing branch edge, got:\n%s", out)
	}
	if !strings.Contains(out, "welcome -.->|silence| bye") {
		t.Errorf("missing silence edge, got:\n%s", out)
	}
	if !strings.Contains(out, "welcome -.->|default| welcome") {
		t.Errorf("missing default edge, got:\n%s", out)
	}
}

func TestGenerateASCIIEmptyScript(t *testing.T) {
	script := mustParse(t, "")
	out, err := Generate(script, FormatASCII)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(out, "empty") {
		t.Errorf("expected empty-script message, got:\n%s", out)
	}
}

func TestGenerateRejectsNilScript(t *testing.T) {
	if _, err := Generate(nil, FormatMermaid); err == nil {
		t.Error("expected error for nil script")
	}
}

func TestGenerateRejectsUnknownFormat(t *testing.T) {
	script := mustParse(t, "Step t\n  Exit\n")
	if _, err := Generate(script, Format("bogus")); err == nil {
		t.Error("expected error for unknown format")
	}
}
