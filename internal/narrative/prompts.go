package narrative

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yml
var defaultPrompts []byte

type RollupExample struct {
	Input  map[string]any `yaml:"input"`
	Output string         `yaml:"output"`
}

type ExtractionExample struct {
	User      string         `yaml:"user"`
	Arguments map[string]any `yaml:"arguments"`
}

type Prompts struct {
	Rollup struct {
		System   string          `yaml:"system"`
		Examples []RollupExample `yaml:"examples"`
	} `yaml:"rollup"`
	Extraction struct {
		System   string              `yaml:"system"`
		Examples []ExtractionExample `yaml:"examples"`
	} `yaml:"extraction"`
}

// DefaultPrompts returns the built-in prompt set.
func DefaultPrompts() Prompts {
	p, err := parsePrompts(defaultPrompts)
	if err != nil {
		panic(fmt.Sprintf("embedded prompts: %v", err))
	}
	return p
}

// LoadPrompts reads a prompt file. An empty path means the built-in set.
func LoadPrompts(path string) (Prompts, error) {
	if path == "" {
		return DefaultPrompts(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Prompts{}, err
	}
	p, err := parsePrompts(b)
	if err != nil {
		return Prompts{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

func parsePrompts(b []byte) (Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Prompts{}, err
	}
	if p.Rollup.System == "" || p.Extraction.System == "" {
		return Prompts{}, fmt.Errorf("prompts: rollup.system and extraction.system are required")
	}
	// Examples end up in JSON; catch values yaml can hold but JSON cannot.
	for i, ex := range p.Rollup.Examples {
		if _, err := json.Marshal(ex.Input); err != nil {
			return Prompts{}, fmt.Errorf("prompts: rollup example %d: %w", i, err)
		}
	}
	for i, ex := range p.Extraction.Examples {
		if _, err := json.Marshal(ex.Arguments); err != nil {
			return Prompts{}, fmt.Errorf("prompts: extraction example %d: %w", i, err)
		}
	}
	return p, nil
}
