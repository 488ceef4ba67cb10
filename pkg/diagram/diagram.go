// Package diagram renders a compiled script's step graph as either a
// Mermaid flowchart or a plain ASCII box diagram, for authors who want a
// visual check of how Branch/Silence/Default/Goto wiring routes between
// steps.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/dialogos/pkg/ast"
)

// Format selects the rendered diagram's notation.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Generate renders script in format, walking steps in source order.
func Generate(script *ast.Script, format Format) (string, error) {
	if script == nil {
		return "", fmt.Errorf("nil script")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(script), nil
	case FormatASCII:
		return generateASCII(script), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// topLevelGotos returns the Goto targets found directly in step's own
// statement sequence (not inside nested If/While bodies) — enough to
// show the common case without a full control-flow walk.
func topLevelGotos(step *ast.Step) []string {
	var targets []string
	for _, st := range step.Statements {
		if st.Kind == ast.StmtGoto {
			targets = append(targets, st.Target)
		}
	}
	return targets
}

// --- Mermaid flowchart ---

func generateMermaid(script *ast.Script) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	if script.EntryStep != "" {
		fmt.Fprintf(&b, "    START([Start]) --> %s\n", safeID(script.EntryStep))
	}

	for _, name := range script.Order {
		step := script.Steps[name]
		b.WriteString("    " + nodeDefinition(step) + "\n")

		for _, br := range step.Branches {
			fmt.Fprintf(&b, "    %s -->|%q| %s\n", safeID(name), br.Intent, safeID(br.Target))
		}
		if step.HasSilence {
			fmt.Fprintf(&b, "    %s -.->|silence| %s\n", safeID(name), safeID(step.SilenceStep))
		}
		if step.HasDefault {
			fmt.Fprintf(&b, "    %s -.->|default| %s\n", safeID(name), safeID(step.DefaultStep))
		}
		for _, target := range topLevelGotos(step) {
			fmt.Fprintf(&b, "    %s --> %s\n", safeID(name), safeID(target))
		}
		if step.IsExit {
			fmt.Fprintf(&b, "    style %s fill:#0d6,stroke:#0a5,color:#fff\n", safeID(name))
		}
	}

	return b.String()
}

func nodeDefinition(step *ast.Step) string {
	id := safeID(step.Name)
	icon := "○"
	switch {
	case step.IsExit:
		icon = "✅"
	case step.HasListen:
		icon = "⏸"
	}
	return fmt.Sprintf(`%s["%s %s"]`, id, icon, escMermaid(step.Name))
}

func safeID(name string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_")
	return r.Replace(name)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	return s
}

// --- ASCII ---

func generateASCII(script *ast.Script) string {
	var b strings.Builder
	if len(script.Order) == 0 {
		b.WriteString("(empty script)\n")
		return b.String()
	}

	boxWidth := 22
	for _, name := range script.Order {
		if w := runewidth.StringWidth(name) + 4; w > boxWidth {
			boxWidth = w
		}
	}

	for _, name := range script.Order {
		step := script.Steps[name]
		writeASCIIStep(&b, step, boxWidth)
		for _, br := range step.Branches {
			fmt.Fprintf(&b, "      branch %q -> %s\n", br.Intent, br.Target)
		}
		if step.HasSilence {
			fmt.Fprintf(&b, "      silence -> %s\n", step.SilenceStep)
		}
		if step.HasDefault {
			fmt.Fprintf(&b, "      default -> %s\n", step.DefaultStep)
		}
		for _, target := range topLevelGotos(step) {
			fmt.Fprintf(&b, "      goto -> %s\n", target)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func writeASCIIStep(b *strings.Builder, step *ast.Step, boxWidth int) {
	label := step.Name
	if step.IsExit {
		label += " (exit)"
	}
	contentWidth := runewidth.StringWidth(label) + 2
	width := boxWidth
	if contentWidth > width {
		width = contentWidth
	}

	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")
	pad := width - contentWidth
	b.WriteString("  | " + label + strings.Repeat(" ", pad+1) + "|\n")
	b.WriteString("  +" + strings.Repeat("-", width) + "+\n")
}
