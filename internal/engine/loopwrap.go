package engine

import (
	"fmt"

	"github.com/veilcc/veil/internal/ir"
)

// WrapLoopOnce re-expresses the straight-line continuation of fn's entry as
// a loop body guaranteed to execute exactly once.
//
// Shape after the transform:
//
//	entry:      iv = alloca; store iv, 0; br header
//	header:     v = load iv; c = icmp.eq v, 0; cbr c, body, exit
//	body:       <continuation's non-terminator instructions>
//	            store iv, 1; br header
//	exit:       br cont
//	cont:       <continuation's original terminator>
//
// The induction cell is initialized in the entry block, so the header admits
// the body exactly once per entry into the function and then exits - even if
// another block branches back to the entry, the cell is re-zeroed and the
// exactly-once guarantee holds for that entry too.
//
// The continuation keeps its original terminator: it is the branch target of
// exit and carries the control flow that originally followed the moved code.
// Any pre-existing edge into the continuation (possible when earlier
// transforms created branches to the split point) is repointed to exit so
// no block observes the moved body's stale location.
//
// Returns false (a skip, not an error) when the entry block has no
// instruction to split at.
func WrapLoopOnce(fn *ir.Function) bool {
	entry := fn.Block(fn.Entry)
	if entry == nil || len(entry.Instrs) == 0 {
		return false
	}

	_, cont, err := ir.SplitBlock(fn, entry, 0)
	if err != nil {
		return false
	}

	ord := len(fn.Blocks())
	header := fn.NewBlock(fmt.Sprintf("%s.loop%d", fn.Name, ord))
	body := fn.NewBlock(fmt.Sprintf("%s.body%d", fn.Name, ord))
	exit := fn.NewBlock(fmt.Sprintf("%s.exit%d", fn.Name, ord))

	// Predecessor repair: edges that targeted the continuation must follow
	// the moved body and re-enter the original control flow through exit.
	ir.RetargetBranches(fn, cont.ID, exit.ID)

	iv := fn.NewInstr(ir.OpAlloca)
	init := fn.NewInstr(ir.OpStore, ir.Val(iv.ID), ir.Imm(0))
	toHeader := fn.NewInstr(ir.OpBr, ir.Blk(header.ID))
	entry.Append(iv.ID)
	entry.Append(init.ID)
	entry.Append(toHeader.ID)

	load := fn.NewInstr(ir.OpLoad, ir.Val(iv.ID))
	cmp := fn.NewInstr(ir.OpICmpEQ, ir.Val(load.ID), ir.Imm(0))
	cbr := fn.NewInstr(ir.OpCondBr, ir.Val(cmp.ID), ir.Blk(body.ID), ir.Blk(exit.ID))
	header.Append(load.ID)
	header.Append(cmp.ID)
	header.Append(cbr.ID)

	// Move everything but the terminator into the body, preserving order.
	moved := cont.Instrs[:len(cont.Instrs)-1]
	body.Instrs = append(body.Instrs, moved...)
	cont.Instrs = cont.Instrs[len(cont.Instrs)-1:]

	set := fn.NewInstr(ir.OpStore, ir.Val(iv.ID), ir.Imm(1))
	back := fn.NewInstr(ir.OpBr, ir.Blk(header.ID))
	body.Append(set.ID)
	body.Append(back.ID)

	leave := fn.NewInstr(ir.OpBr, ir.Blk(cont.ID))
	exit.Append(leave.ID)

	return true
}
