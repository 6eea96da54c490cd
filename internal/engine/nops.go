package engine

import "github.com/veilcc/veil/internal/ir"

// InsertNops walks the function's blocks in order and pairs every existing
// instruction with one identity computation (add 0, 0) whose result nothing
// ever consumes. The NOP lands after the instruction it pairs with, except
// for terminators, where it lands just before so the single-terminator-at-
// the-end invariant survives.
//
// budget is per function, not a module-wide total: each call starts from the
// configured value. Insertion stops when the budget reaches zero or every
// existing instruction has been paired, whichever comes first, so the count
// inserted is min(budget, existing instructions). Returns that count.
func InsertNops(fn *ir.Function, budget uint) int {
	inserted := 0
	remaining := budget
	for _, b := range fn.Blocks() {
		if remaining == 0 {
			break
		}
		// Pair against a snapshot: the NOPs themselves are not insertion
		// points.
		orig := make([]ir.ValueID, len(b.Instrs))
		copy(orig, b.Instrs)

		rebuilt := make([]ir.ValueID, 0, len(orig)*2)
		for _, id := range orig {
			if remaining == 0 {
				rebuilt = append(rebuilt, id)
				continue
			}
			nop := fn.NewInstr(ir.OpAdd, ir.Imm(0), ir.Imm(0))
			if fn.Instr(id).IsTerminator() {
				rebuilt = append(rebuilt, nop.ID, id)
			} else {
				rebuilt = append(rebuilt, id, nop.ID)
			}
			remaining--
			inserted++
		}
		b.Instrs = rebuilt
	}
	return inserted
}
