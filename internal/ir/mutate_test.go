package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilcc/veil/internal/ir"
)

func TestSplitBlock_MovesSuffix(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	a1 := f.NewInstr(ir.OpAlloca)
	a2 := f.NewInstr(ir.OpStore, ir.Val(a1.ID), ir.Imm(1))
	a3 := f.NewInstr(ir.OpRet, ir.Imm(0))
	b.Append(a1.ID)
	b.Append(a2.ID)
	b.Append(a3.ID)
	m.AddFunc(f)

	pred, succ, err := ir.SplitBlock(f, b, 1)
	require.NoError(t, err)

	assert.Same(t, b, pred)
	assert.Equal(t, []ir.ValueID{a1.ID}, pred.Instrs)
	assert.Equal(t, []ir.ValueID{a2.ID, a3.ID}, succ.Instrs)
	assert.Equal(t, f.Entry, pred.ID, "entry designation stays with the predecessor")

	// The predecessor lost its terminator; the module is invalid until the
	// caller installs a new one.
	require.Error(t, ir.Verify(m))
	pred.Append(f.NewInstr(ir.OpBr, ir.Blk(succ.ID)).ID)
	require.NoError(t, ir.Verify(m))
}

func TestSplitBlock_AtZero(t *testing.T) {
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	ret := f.NewInstr(ir.OpRet)
	b.Append(ret.ID)

	pred, succ, err := ir.SplitBlock(f, b, 0)
	require.NoError(t, err)
	assert.Empty(t, pred.Instrs)
	assert.Equal(t, []ir.ValueID{ret.ID}, succ.Instrs)
}

func TestSplitBlock_UniqueLabels(t *testing.T) {
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpRet).ID)

	seen := map[string]bool{"entry": true}
	cur := b
	for i := 0; i < 3; i++ {
		_, succ, err := ir.SplitBlock(f, cur, 0)
		require.NoError(t, err)
		require.False(t, seen[succ.Label], "label %q reused", succ.Label)
		seen[succ.Label] = true
		cur = succ
	}
}

func TestSplitBlock_Errors(t *testing.T) {
	f := ir.NewFunction("main")
	empty := f.NewBlock("entry")
	_, _, err := ir.SplitBlock(f, empty, 0)
	require.Error(t, err)

	empty.Append(f.NewInstr(ir.OpRet).ID)
	_, _, err = ir.SplitBlock(f, empty, 1)
	require.Error(t, err)
	_, _, err = ir.SplitBlock(f, empty, -1)
	require.Error(t, err)
}

func TestReplaceUses_RewritesValueOperands(t *testing.T) {
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	oldCell := f.NewInstr(ir.OpAlloca)
	newCell := f.NewInstr(ir.OpAlloca)
	ld := f.NewInstr(ir.OpLoad, ir.Val(oldCell.ID))
	st := f.NewInstr(ir.OpStore, ir.Val(oldCell.ID), ir.Val(ld.ID))
	for _, id := range []ir.ValueID{oldCell.ID, newCell.ID, ld.ID, st.ID} {
		b.Append(id)
	}
	b.Append(f.NewInstr(ir.OpRet).ID)

	n := f.ReplaceUses(oldCell.ID, newCell.ID)
	assert.Equal(t, 2, n)
	assert.Equal(t, newCell.ID, ld.Args[0].Value)
	assert.Equal(t, newCell.ID, st.Args[0].Value)
	assert.Equal(t, ld.ID, st.Args[1].Value, "unrelated operand untouched")
}

func TestReplaceGlobalUses_ModuleWide(t *testing.T) {
	m := &ir.Module{Name: "m"}
	m.AddGlobal(&ir.Global{Name: "str.old", Kind: ir.GlobalBytes, Bytes: []byte{'x', 0}})
	m.AddGlobal(&ir.Global{Name: "str.new", Kind: ir.GlobalBytes, Bytes: []byte{'y', 0}})

	for _, name := range []string{"a", "b"} {
		f := ir.NewFunction(name)
		b := f.NewBlock("entry")
		b.Append(f.NewInstr(ir.OpPrint, ir.Glob("str.old")).ID)
		b.Append(f.NewInstr(ir.OpRet, ir.Imm(0)).ID)
		m.AddFunc(f)
	}

	n := m.ReplaceGlobalUses("str.old", "str.new")
	assert.Equal(t, 2, n)
	for _, fn := range m.Funcs {
		b := fn.Block(fn.Entry)
		in := fn.Instr(b.Instrs[0])
		assert.Equal(t, "str.new", in.Args[0].Global)
	}
}

func TestRetargetBranches_RepointsEdges(t *testing.T) {
	f := ir.NewFunction("main")
	entry := f.NewBlock("entry")
	mid := f.NewBlock("mid")
	from := f.NewBlock("from")
	to := f.NewBlock("to")

	cond := f.NewInstr(ir.OpFnSeed)
	entry.Append(cond.ID)
	entry.Append(f.NewInstr(ir.OpCondBr, ir.Val(cond.ID), ir.Blk(mid.ID), ir.Blk(from.ID)).ID)
	mid.Append(f.NewInstr(ir.OpBr, ir.Blk(from.ID)).ID)
	from.Append(f.NewInstr(ir.OpBr, ir.Blk(to.ID)).ID)
	to.Append(f.NewInstr(ir.OpRet).ID)

	n := ir.RetargetBranches(f, from.ID, to.ID)
	assert.Equal(t, 2, n)

	entryTerm := f.Instr(entry.Instrs[len(entry.Instrs)-1])
	assert.Equal(t, []ir.BlockID{mid.ID, to.ID}, entryTerm.BranchTargets())
	midTerm := f.Instr(mid.Instrs[0])
	assert.Equal(t, []ir.BlockID{to.ID}, midTerm.BranchTargets())
}
