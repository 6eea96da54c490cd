// Package profile loads obfuscation profiles from YAML files.
//
// A profile is the driver-boundary way to configure a run: the same four
// parameters the front-end can embed as module globals, but supplied as an
// explicit structured value instead of traveling inside the artifact. The
// decoded document is validated against an embedded CUE schema before it is
// mapped onto a config.Config, so unknown fields and out-of-range values are
// rejected with positions the operator can act on.
package profile

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/veilcc/veil/internal/config"
)

//go:embed schema.cue
var schemaCUE string

// document mirrors the YAML profile. Pointer fields distinguish "absent"
// (keep the default) from an explicit zero.
type document struct {
	BogusBlocks *uint `yaml:"bogus_blocks"`
	StringLevel *uint `yaml:"string_level"`
	InsertNops  *uint `yaml:"insert_nops"`
	LoopWrap    *bool `yaml:"loop_wrap"`
}

// Load reads and validates a profile file. Fields absent from the file keep
// their config.Default values.
func Load(path string) (config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("read profile: %w", err)
	}
	return Parse(data)
}

// Parse validates and decodes profile YAML.
func Parse(data []byte) (config.Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return config.Config{}, fmt.Errorf("decode profile: %w", err)
	}
	if raw == nil {
		raw = map[string]any{}
	}

	if err := validateAgainstSchema(raw); err != nil {
		return config.Config{}, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return config.Config{}, fmt.Errorf("decode profile: %w", err)
	}

	cfg := config.Default()
	if doc.BogusBlocks != nil {
		cfg.BogusBlocksPerFunction = *doc.BogusBlocks
	}
	if doc.StringLevel != nil {
		cfg.StringEncryptLevel = *doc.StringLevel
	}
	if doc.InsertNops != nil {
		cfg.InsertNopsBudget = *doc.InsertNops
	}
	if doc.LoopWrap != nil {
		cfg.EnableLoopWrap = *doc.LoopWrap
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("profile: %w", err)
	}
	return cfg, nil
}

// validateAgainstSchema unifies the decoded document with the closed
// #Profile definition. Unknown fields and out-of-range values fail here.
func validateAgainstSchema(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile profile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Profile"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("lookup profile schema: %w", err)
	}

	val := ctx.Encode(raw)
	if err := val.Err(); err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}
	return nil
}
