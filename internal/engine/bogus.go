package engine

import (
	"fmt"
	"strings"

	"github.com/veilcc/veil/internal/ir"
)

// Opaque predicate constants: the per-function seed is masked to a byte and
// compared against bogusMagic. The predicate is decorative, not provably
// false - correctness never depends on which way it evaluates, because the
// decoy block touches nothing observable.
const (
	bogusMask  = 0xFF
	bogusMagic = 0xAB

	decoyStoreValue = 0xDEADBEEF
	decoyXorValue   = 0xFEED
)

// InsertBogusBlocks splits the entry block of fn count times, each time
// guarding the continuation behind a conditional branch to a freshly built
// decoy block. Both branch arms converge on the same continuation, so
// control flow is preserved regardless of the predicate's runtime value.
//
// The decoy body only operates on a locally allocated cell that nothing
// outside the decoy reads; that isolation is what makes the predicate's
// truthiness irrelevant to correctness.
//
// A defined function with an empty entry block has no instruction to split
// at; the call is then a no-op, not an error. Returns the number of decoy
// blocks created.
func InsertBogusBlocks(fn *ir.Function, count uint) int {
	inserted := 0
	for i := uint(0); i < count; i++ {
		entry := fn.Block(fn.Entry)
		if entry == nil || len(entry.Instrs) == 0 {
			break
		}

		_, cont, err := ir.SplitBlock(fn, entry, 0)
		if err != nil {
			break
		}
		decoy := fn.NewBlock(fmt.Sprintf("%s.decoy%d", fn.Name, decoyOrdinal(fn)))

		seed := fn.NewInstr(ir.OpFnSeed)
		masked := fn.NewInstr(ir.OpAnd, ir.Val(seed.ID), ir.Imm(bogusMask))
		cmp := fn.NewInstr(ir.OpICmpEQ, ir.Val(masked.ID), ir.Imm(bogusMagic))
		br := fn.NewInstr(ir.OpCondBr, ir.Val(cmp.ID), ir.Blk(decoy.ID), ir.Blk(cont.ID))
		entry.Append(seed.ID)
		entry.Append(masked.ID)
		entry.Append(cmp.ID)
		entry.Append(br.ID)

		cell := fn.NewInstr(ir.OpAlloca)
		st0 := fn.NewInstr(ir.OpStore, ir.Val(cell.ID), ir.Imm(decoyStoreValue))
		ld := fn.NewInstr(ir.OpLoad, ir.Val(cell.ID))
		xor := fn.NewInstr(ir.OpXor, ir.Val(ld.ID), ir.Imm(decoyXorValue))
		st1 := fn.NewInstr(ir.OpStore, ir.Val(cell.ID), ir.Val(xor.ID))
		out := fn.NewInstr(ir.OpBr, ir.Blk(cont.ID))
		for _, id := range []ir.ValueID{cell.ID, st0.ID, ld.ID, xor.ID, st1.ID, out.ID} {
			decoy.Append(id)
		}

		inserted++
	}
	return inserted
}

// decoyOrdinal numbers decoy labels within a function so repeated insertions
// stay unique and the dump stays deterministic.
func decoyOrdinal(fn *ir.Function) int {
	n := 0
	for _, b := range fn.Blocks() {
		if strings.Contains(b.Label, ".decoy") {
			n++
		}
	}
	return n + 1
}
