package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/dialogos/pkg/recognizer/local"
)

// Scenario is a named bundle of a script source and the pattern catalog
// its recognizer is built from, letting one process host several
// dialogue flows selected by tag instead of hardcoding a single script
// per invocation.
type Scenario struct {
	Tag         string `yaml:"tag"                   json:"tag"`
	ScriptPath  string `yaml:"script"                json:"script"`
	CatalogPath string `yaml:"catalog,omitempty"      json:"catalog,omitempty"`
}

// scenarioManifest is the YAML shape of a scenario manifest file: a flat
// list of scenarios, looked up by Tag.
type scenarioManifest struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenarios strictly decodes every scenario entry in a manifest file.
func LoadScenarios(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario manifest %s: %w", path, err)
	}
	var manifest scenarioManifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return nil, fmt.Errorf("decode scenario manifest %s: %w", path, err)
	}
	seen := make(map[string]bool, len(manifest.Scenarios))
	for _, sc := range manifest.Scenarios {
		if sc.Tag == "" {
			return nil, fmt.Errorf("scenario manifest %s: scenario with empty tag", path)
		}
		if sc.ScriptPath == "" {
			return nil, fmt.Errorf("scenario manifest %s: scenario %q has no script", path, sc.Tag)
		}
		if seen[sc.Tag] {
			return nil, fmt.Errorf("scenario manifest %s: duplicate tag %q", path, sc.Tag)
		}
		seen[sc.Tag] = true
	}
	return manifest.Scenarios, nil
}

// LoadScenario loads a manifest and returns the scenario matching tag.
func LoadScenario(manifestPath, tag string) (*Scenario, error) {
	scenarios, err := LoadScenarios(manifestPath)
	if err != nil {
		return nil, err
	}
	for i := range scenarios {
		if scenarios[i].Tag == tag {
			return &scenarios[i], nil
		}
	}
	return nil, fmt.Errorf("scenario manifest %s: no scenario tagged %q", manifestPath, tag)
}

// MakeLocal resolves the scenario tagged tag within manifestPath and
// builds the local.Recognizer its catalog describes, mirroring
// make_local(scenario_tag) from the recognizer factory contract: the
// caller supplies a tag instead of wiring a catalog path by hand, so a
// single process can serve several named dialogue flows.
func MakeLocal(manifestPath, tag string, vars map[string]any) (*local.Recognizer, error) {
	sc, err := LoadScenario(manifestPath, tag)
	if err != nil {
		return nil, err
	}
	var patterns []local.Pattern
	if sc.CatalogPath != "" {
		lib, err := LoadFile(sc.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: load catalog: %w", tag, err)
		}
		patterns, err = ToPatterns(lib, vars)
		if err != nil {
			return nil, fmt.Errorf("scenario %q: resolve catalog patterns: %w", tag, err)
		}
	}
	rec, err := local.New(patterns, local.Config{})
	if err != nil {
		return nil, fmt.Errorf("scenario %q: build recognizer: %w", tag, err)
	}
	return rec, nil
}
