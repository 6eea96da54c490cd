package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/veilcc/veil/internal/config"
	"github.com/veilcc/veil/internal/engine"
	"github.com/veilcc/veil/internal/interp"
	"github.com/veilcc/veil/internal/ir"
	"github.com/veilcc/veil/internal/profile"
)

// Scenario defines a conformance test scenario: one source module plus the
// configuration to obfuscate it under.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Source is the path to the textual IR module, relative to the
	// scenario file location.
	Source string `yaml:"source"`

	// Config holds profile-format settings. Absent keys take defaults.
	Config map[string]any `yaml:"config,omitempty"`
}

// Result captures a full scenario execution.
type Result struct {
	// Config is the resolved configuration the pipeline ran under.
	Config config.Config

	// Before is the interpreter result for the untouched module.
	Before interp.Result

	// After is the interpreter result for the obfuscated module.
	After interp.Result

	// Stats are the pipeline's mutation counts.
	Stats engine.Stats

	// Dump is the canonical dump of the obfuscated module.
	Dump []byte
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly. The source path is resolved relative to
// the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}

	if !filepath.IsAbs(scenario.Source) && scenario.Source != "" {
		scenario.Source = filepath.Join(filepath.Dir(path), scenario.Source)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if _, err := os.Stat(s.Source); os.IsNotExist(err) {
		return fmt.Errorf("source module not found: %s", s.Source)
	}
	return nil
}

// resolveConfig turns the scenario's config mapping into a validated
// Config. The mapping goes through the profile schema, so a scenario and a
// profile file reject exactly the same inputs.
func resolveConfig(s *Scenario) (config.Config, error) {
	if len(s.Config) == 0 {
		return config.Default(), nil
	}
	raw, err := yaml.Marshal(s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to encode scenario config: %w", err)
	}
	return profile.Parse(raw)
}

// Run executes a scenario: parse the source module, capture its baseline
// behavior, obfuscate a second parse of the same source, and capture the
// transformed behavior. The two interpreter results land side by side in
// the Result for equivalence checks.
func Run(scenario *Scenario) (*Result, error) {
	cfg, err := resolveConfig(scenario)
	if err != nil {
		return nil, err
	}

	src, err := os.ReadFile(scenario.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to read source module: %w", err)
	}

	baseline, err := ir.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source module: %w", err)
	}
	before, err := interp.Run(baseline)
	if err != nil {
		return nil, fmt.Errorf("baseline execution: %w", err)
	}

	// The pipeline mutates in place; obfuscate a fresh parse so the
	// baseline module stays untouched.
	subject, err := ir.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source module: %w", err)
	}
	stats, err := engine.Run(subject, cfg)
	if err != nil {
		return nil, fmt.Errorf("obfuscation: %w", err)
	}
	after, err := interp.Run(subject)
	if err != nil {
		return nil, fmt.Errorf("obfuscated execution: %w", err)
	}

	return &Result{
		Config: cfg,
		Before: before,
		After:  after,
		Stats:  stats,
		Dump:   ir.Dump(subject),
	}, nil
}
