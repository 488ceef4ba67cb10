// Package catalog loads intent-pattern libraries from YAML documents: the
// scenario-specific data a local.Recognizer is trained on, kept out of
// Go source so a script's pattern set can be edited without a rebuild.
// Documents are strictly decoded, then validated against a JSON Schema
// generated from the Go types, mirroring a structural-then-semantic
// validation pipeline.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/dialogos/pkg/recognizer/local"
)

// PatternDef is the YAML shape of one local.Pattern, plus an optional
// When expression gating whether it's included for a given variable set.
type PatternDef struct {
	Intent   string              `yaml:"intent"             json:"intent"             jsonschema:"required"`
	Keywords []string            `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Synonyms map[string][]string `yaml:"synonyms,omitempty" json:"synonyms,omitempty"`
	Regexes  []string            `yaml:"regexes,omitempty"  json:"regexes,omitempty"`
	Examples []string            `yaml:"examples,omitempty" json:"examples,omitempty"`
	Weight   float64             `yaml:"weight,omitempty"   json:"weight,omitempty"`
	Priority int                 `yaml:"priority,omitempty" json:"priority,omitempty"`
	// When is an expr-lang boolean expression evaluated against the
	// session's variables; a pattern whose When evaluates false is
	// excluded from the built recognizer. Empty means always included.
	When string `yaml:"when,omitempty" json:"when,omitempty" jsonschema:"description=expr-lang expression gating inclusion"`
}

// Library is the top-level catalog document: a named scenario's pattern
// set.
type Library struct {
	APIVersion string       `yaml:"apiVersion" json:"apiVersion" jsonschema:"required,enum=catalog/v1"`
	Scenario   string       `yaml:"scenario"   json:"scenario"`
	Patterns   []PatternDef `yaml:"patterns"   json:"patterns"   jsonschema:"required"`
}

// GenerateJSONSchema produces a JSON Schema Draft 2020-12 document from
// Library using invopop/jsonschema, for validating catalog documents and
// for publishing alongside the module as editor tooling.
func GenerateJSONSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = false
	s := r.Reflect(&Library{})
	s.ID = "https://github.com/ormasoftchile/dialogos/schemas/catalog-v1.json"
	s.Title = "Dialogue Intent Catalog v1"
	s.Description = "Schema for intent pattern library YAML documents"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return data, nil
}

// LoadFile strictly decodes a catalog YAML document (unknown fields are
// an error) and validates it against the generated JSON Schema.
func LoadFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Load(data)
}

// Load parses and validates a catalog document from memory.
func Load(data []byte) (*Library, error) {
	var lib Library
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&lib); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := Validate(&lib); err != nil {
		return nil, err
	}
	return &lib, nil
}

// Validate checks lib against the generated JSON Schema.
func Validate(lib *Library) error {
	schemaJSON, err := GenerateJSONSchema()
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	var schemaDoc any
	if err := json.Unmarshal(schemaJSON, &schemaDoc); err != nil {
		return fmt.Errorf("unmarshal schema: %w", err)
	}

	c := sjsonschema.NewCompiler()
	if err := c.AddResource("catalog-v1.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	sch, err := c.Compile("catalog-v1.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	docJSON, err := json.Marshal(lib)
	if err != nil {
		return fmt.Errorf("marshal catalog for validation: %w", err)
	}
	var doc any
	if err := json.Unmarshal(docJSON, &doc); err != nil {
		return fmt.Errorf("unmarshal catalog for validation: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("catalog %q failed schema validation: %w", lib.Scenario, err)
	}
	return nil
}

// ToPatterns converts lib into a []local.Pattern, excluding any
// PatternDef whose When expression evaluates false against vars. An
// empty When always includes the pattern.
func ToPatterns(lib *Library, vars map[string]any) ([]local.Pattern, error) {
	patterns := make([]local.Pattern, 0, len(lib.Patterns))
	for _, def := range lib.Patterns {
		if strings.TrimSpace(def.When) != "" {
			include, err := evalWhen(def.When, vars)
			if err != nil {
				return nil, fmt.Errorf("pattern %q: when %q: %w", def.Intent, def.When, err)
			}
			if !include {
				continue
			}
		}
		patterns = append(patterns, local.Pattern{
			Intent:   def.Intent,
			Keywords: def.Keywords,
			Synonyms: def.Synonyms,
			Regexes:  def.Regexes,
			Examples: def.Examples,
			Weight:   def.Weight,
			Priority: def.Priority,
		})
	}
	return patterns, nil
}

func evalWhen(expression string, vars map[string]any) (bool, error) {
	program, err := expr.Compile(expression, expr.Env(vars), expr.AsBool())
	if err != nil {
		return false, err
	}
	out, err := expr.Run(program, vars)
	if err != nil {
		return false, err
	}
	b, _ := out.(bool)
	return b, nil
}
