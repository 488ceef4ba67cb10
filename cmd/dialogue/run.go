package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/ormasoftchile/dialogos/pkg/catalog"
	"github.com/ormasoftchile/dialogos/pkg/governance"
	"github.com/ormasoftchile/dialogos/pkg/interpreter"
	"github.com/ormasoftchile/dialogos/pkg/parser"
	"github.com/ormasoftchile/dialogos/pkg/recognizer/local"
	"github.com/ormasoftchile/dialogos/pkg/service"
	"github.com/ormasoftchile/dialogos/pkg/trace"
	"github.com/spf13/cobra"
)

var (
	runCatalogPath   string
	runManifestPath  string
	runScenarioTag   string
	runTracePath     string
	runVars          []string
	runAllowServices []string
	runDenyServices  []string
)

var runCmd = &cobra.Command{
	Use:   "run [script.flow]",
	Short: "Run a script interactively against stdin/stdout",
	Long: "Run a script interactively against stdin/stdout.\n\n" +
		"The script is named either directly as the positional argument, or by\n" +
		"--scenario tag looked up in the manifest given by --manifest, so one\n" +
		"process can host several named dialogue flows without a rebuild.",
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func resolveScript(args []string) (scriptPath, resolvedCatalogPath string, err error) {
	if runScenarioTag != "" {
		if runManifestPath == "" {
			return "", "", fmt.Errorf("--scenario requires --manifest")
		}
		sc, err := catalog.LoadScenario(runManifestPath, runScenarioTag)
		if err != nil {
			return "", "", fmt.Errorf("resolve scenario %q: %w", runScenarioTag, err)
		}
		return sc.ScriptPath, sc.CatalogPath, nil
	}
	if len(args) != 1 {
		return "", "", fmt.Errorf("provide a script path, or --manifest with --scenario to select one")
	}
	return args[0], runCatalogPath, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	scriptPath, resolvedCatalogPath, err := resolveScript(args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(scriptPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", scriptPath, err)
	}
	script, err := parser.Parse(string(data))
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(script.Errors) > 0 {
		return fmt.Errorf("%s has %d parse error(s); run `dialogue validate` for details", scriptPath, len(script.Errors))
	}

	vars, err := parseVars(runVars)
	if err != nil {
		return err
	}

	var patterns []local.Pattern
	if resolvedCatalogPath != "" {
		lib, err := catalog.LoadFile(resolvedCatalogPath)
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		patterns, err = catalog.ToPatterns(lib, vars)
		if err != nil {
			return fmt.Errorf("resolve catalog patterns: %w", err)
		}
	}
	rec, err := local.New(patterns, local.Config{})
	if err != nil {
		return fmt.Errorf("build recognizer: %w", err)
	}

	var handler service.Handler = service.NewDemoRegistry()
	if len(runAllowServices) > 0 || len(runDenyServices) > 0 {
		guard, err := governance.NewGuard(governance.Policy{
			AllowedServices: runAllowServices,
			DeniedServices:  runDenyServices,
		})
		if err != nil {
			return fmt.Errorf("build governance guard: %w", err)
		}
		handler = governance.Wrap(handler, guard)
	}

	in := interpreter.New(script, rec, handler)
	if runTracePath != "" {
		w, err := trace.NewWriter(runTracePath)
		if err != nil {
			return fmt.Errorf("open trace file: %w", err)
		}
		defer w.Close()
		in.SetTracer(w)
	}

	const sessionID = "cli"
	in.CreateSession(sessionID, vars)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	out := in.Start(sessionID)
	printTurn(out)
	for out.WaitingForInput {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				break
			}
			return fmt.Errorf("readline: %w", err)
		}
		out = in.ProcessInput(sessionID, line)
		printTurn(out)
	}
	if out.State.String() == "ERROR" {
		return fmt.Errorf("session ended in error: %s", out.Message)
	}
	return nil
}

func printTurn(out interpreter.Output) {
	if out.Message != "" {
		fmt.Println(out.Message)
	}
}

func parseVars(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, val, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --var %q: expected key=value", p)
		}
		vars[key] = val
	}
	return vars, nil
}

func init() {
	runCmd.Flags().StringVar(&runCatalogPath, "catalog", "", "Path to a YAML pattern catalog for intent recognition")
	runCmd.Flags().StringVar(&runManifestPath, "manifest", "", "Path to a scenario manifest, for selecting a script by --scenario tag")
	runCmd.Flags().StringVar(&runScenarioTag, "scenario", "", "Scenario tag to select from --manifest, instead of a positional script path")
	runCmd.Flags().StringVar(&runTracePath, "trace", "", "Write a JSONL lifecycle trace to this path")
	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "Set an initial variable (key=value), repeatable")
	runCmd.Flags().StringArrayVar(&runAllowServices, "allow-service", nil, "Allow only these service names (repeatable); empty allows all")
	runCmd.Flags().StringArrayVar(&runDenyServices, "deny-service", nil, "Deny these service names (repeatable); takes precedence over allow")
}
