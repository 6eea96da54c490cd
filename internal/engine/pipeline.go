package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/veilcc/veil/internal/config"
	"github.com/veilcc/veil/internal/ir"
)

// Run applies the full obfuscation pipeline to m in place and returns the
// mutation counts. The caller owns m exclusively for the duration of the
// call.
//
// Order is fixed: per-function passes first (bogus blocks, NOPs, loop wrap),
// then the module-wide string encryption, then verification. On a
// configuration error nothing is mutated. On a verification failure the
// returned error wraps *ir.VerifyError and the module must be discarded -
// the pipeline never ships a broken graph to the back-end.
func Run(m *ir.Module, cfg config.Config) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, fmt.Errorf("configuration: %w", err)
	}

	var st Stats
	for _, fn := range m.Funcs {
		if !Eligible(fn) {
			continue
		}
		st.FunctionsVisited++

		n := InsertBogusBlocks(fn, cfg.BogusBlocksPerFunction)
		st.BogusBlocks += n

		nops := 0
		if cfg.InsertNopsBudget > 0 {
			nops = InsertNops(fn, cfg.InsertNopsBudget)
			st.NopsInserted += nops
		}

		wrapped := false
		if cfg.EnableLoopWrap {
			wrapped = WrapLoopOnce(fn)
			if wrapped {
				st.LoopsWrapped++
			}
		}

		slog.Debug("function transformed",
			"func", fn.Name,
			"bogus_blocks", n,
			"nops", nops,
			"loop_wrapped", wrapped,
		)
	}

	st.StringsEncrypted = EncryptStrings(m, cfg.StringEncryptLevel)

	if err := ir.Verify(m); err != nil {
		return st, fmt.Errorf("post-pipeline verification: %w", err)
	}

	slog.Info("pipeline complete",
		"functions", st.FunctionsVisited,
		"bogus_blocks", st.BogusBlocks,
		"nops", st.NopsInserted,
		"loops_wrapped", st.LoopsWrapped,
		"strings_encrypted", st.StringsEncrypted,
	)
	return st, nil
}

// Eligible reports whether per-function passes may transform fn: it must be
// defined and must not be one of the engine's own synthesized runtime
// helpers.
func Eligible(fn *ir.Function) bool {
	return !fn.Declared && !strings.HasPrefix(fn.Name, ir.RuntimePrefix)
}
