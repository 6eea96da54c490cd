// Package config defines the immutable obfuscation parameters for one run.
//
// A Config is resolved once - either from a profile file at the driver
// boundary or from the configuration globals embedded in the input module -
// validated, and then passed by value into every pass. There is no global
// mutable state; passes are pure functions of (Module, Config).
package config

import (
	"fmt"

	"github.com/veilcc/veil/internal/ir"
)

// Names of the scalar globals that embed configuration inside the artifact
// being transformed (the front-end convention; see FromModule).
const (
	GlobalBogusBlocks = "obf_bogus_blocks"
	GlobalStringLevel = "obf_string_level"
	GlobalInsertNops  = "obf_insert_nops"
	GlobalLoopWrap    = "obf_flatten"
)

// Upper bounds enforced by Validate. Counts above these are configuration
// errors: the run fails fast before any pass mutates the module.
const (
	MaxBogusBlocks = 64
	MaxStringLevel = 255
	MaxNopsBudget  = 4096
)

// Config holds the obfuscation parameters for one run. Immutable by
// convention: it is passed by value and never stored on a pass.
type Config struct {
	BogusBlocksPerFunction uint
	StringEncryptLevel     uint
	InsertNopsBudget       uint
	EnableLoopWrap         bool
}

// Default returns the parameters used when the input embeds none.
func Default() Config {
	return Config{
		BogusBlocksPerFunction: 1,
		StringEncryptLevel:     1,
		InsertNopsBudget:       0,
		EnableLoopWrap:         false,
	}
}

// Validate rejects out-of-range parameters.
func (c Config) Validate() error {
	if c.BogusBlocksPerFunction > MaxBogusBlocks {
		return fmt.Errorf("bogus blocks per function %d exceeds limit %d", c.BogusBlocksPerFunction, MaxBogusBlocks)
	}
	if c.StringEncryptLevel > MaxStringLevel {
		return fmt.Errorf("string encrypt level %d exceeds limit %d", c.StringEncryptLevel, MaxStringLevel)
	}
	if c.InsertNopsBudget > MaxNopsBudget {
		return fmt.Errorf("nop insertion budget %d exceeds limit %d", c.InsertNopsBudget, MaxNopsBudget)
	}
	return nil
}

// FromModule reads the configuration embedded in the module as uniquely
// named scalar globals. Absent entries keep their defaults. A negative
// embedded count is a configuration error.
func FromModule(m *ir.Module) (Config, error) {
	c := Default()

	read := func(name string) (int64, bool, error) {
		g := m.Global(name)
		if g == nil {
			return 0, false, nil
		}
		if g.Kind != ir.GlobalInt {
			return 0, false, fmt.Errorf("configuration global %q is not a scalar", name)
		}
		if g.Int < 0 {
			return 0, false, fmt.Errorf("configuration global %q is negative (%d)", name, g.Int)
		}
		return g.Int, true, nil
	}

	if v, ok, err := read(GlobalBogusBlocks); err != nil {
		return Config{}, err
	} else if ok {
		c.BogusBlocksPerFunction = uint(v)
	}
	if v, ok, err := read(GlobalStringLevel); err != nil {
		return Config{}, err
	} else if ok {
		c.StringEncryptLevel = uint(v)
	}
	if v, ok, err := read(GlobalInsertNops); err != nil {
		return Config{}, err
	} else if ok {
		c.InsertNopsBudget = uint(v)
	}
	if v, ok, err := read(GlobalLoopWrap); err != nil {
		return Config{}, err
	} else if ok {
		c.EnableLoopWrap = v != 0
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
