package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilcc/veil/internal/ir"
)

// validModule builds a minimal well-formed module programmatically.
func validModule() *ir.Module {
	m := &ir.Module{Name: "valid"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	ret := f.NewInstr(ir.OpRet, ir.Imm(0))
	b.Append(ret.ID)
	m.AddFunc(f)
	return m
}

func TestVerify_ValidModule(t *testing.T) {
	require.NoError(t, ir.Verify(validModule()))
}

func TestVerify_DuplicateGlobal(t *testing.T) {
	m := validModule()
	m.AddGlobal(&ir.Global{Name: "g", Kind: ir.GlobalInt})
	m.AddGlobal(&ir.Global{Name: "g", Kind: ir.GlobalInt})

	err := ir.Verify(m)
	require.Error(t, err)
	assert.True(t, ir.IsVerifyError(err))
	assert.Contains(t, err.Error(), "duplicate global")
}

func TestVerify_DuplicateFunction(t *testing.T) {
	m := validModule()
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpRet).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate function")
}

func TestVerify_CtorUnknownFunction(t *testing.T) {
	m := validModule()
	m.AddCtor(0, "missing")

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown function")
}

func TestVerify_CtorDeclaredFunction(t *testing.T) {
	m := validModule()
	m.AddFunc(ir.NewDeclaredFunction("ext"))
	m.AddCtor(0, "ext")

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "declared function")
}

func TestVerify_NoEntryBlock(t *testing.T) {
	m := &ir.Module{Name: "m"}
	m.AddFunc(ir.NewFunction("main"))

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no entry block")
}

func TestVerify_EmptyBlock(t *testing.T) {
	m := validModule()
	m.Func("main").NewBlock("hollow")

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing terminator")
}

func TestVerify_MissingTerminator(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpAlloca).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a terminator")
}

func TestVerify_EarlyTerminator(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpRet, ir.Imm(0)).ID)
	b.Append(f.NewInstr(ir.OpRet, ir.Imm(1)).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before end of block")
}

func TestVerify_UnplacedValueReference(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	orphan := f.NewInstr(ir.OpAlloca) // allocated but never placed
	b.Append(f.NewInstr(ir.OpRet, ir.Val(orphan.ID)).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unplaced value")
}

func TestVerify_ReferenceToNonResult(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	cell := f.NewInstr(ir.OpAlloca)
	st := f.NewInstr(ir.OpStore, ir.Val(cell.ID), ir.Imm(1))
	b.Append(cell.ID)
	b.Append(st.ID)
	b.Append(f.NewInstr(ir.OpRet, ir.Val(st.ID)).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "produces no result")
}

func TestVerify_BranchToUnknownBlock(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpBr, ir.Blk(99)).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown block")
}

func TestVerify_UnknownGlobalReference(t *testing.T) {
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	b := f.NewBlock("entry")
	b.Append(f.NewInstr(ir.OpPrint, ir.Glob("ghost")).ID)
	b.Append(f.NewInstr(ir.OpRet, ir.Imm(0)).ID)
	m.AddFunc(f)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown global")
}

func TestVerify_UnreachableBlock(t *testing.T) {
	m := validModule()
	f := m.Func("main")
	island := f.NewBlock("island")
	island.Append(f.NewInstr(ir.OpRet, ir.Imm(1)).ID)

	err := ir.Verify(m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unreachable")
}

func TestVerify_DecoyStyleDiamondIsReachable(t *testing.T) {
	// Both arms of a conditional branch count as edges, so a decoy that is
	// never taken at runtime still passes reachability.
	m := &ir.Module{Name: "m"}
	f := ir.NewFunction("main")
	entry := f.NewBlock("entry")
	decoy := f.NewBlock("decoy")
	cont := f.NewBlock("cont")

	seed := f.NewInstr(ir.OpFnSeed)
	cmp := f.NewInstr(ir.OpICmpEQ, ir.Val(seed.ID), ir.Imm(0xAB))
	entry.Append(seed.ID)
	entry.Append(cmp.ID)
	entry.Append(f.NewInstr(ir.OpCondBr, ir.Val(cmp.ID), ir.Blk(decoy.ID), ir.Blk(cont.ID)).ID)
	decoy.Append(f.NewInstr(ir.OpBr, ir.Blk(cont.ID)).ID)
	cont.Append(f.NewInstr(ir.OpRet, ir.Imm(0)).ID)
	m.AddFunc(f)

	require.NoError(t, ir.Verify(m))
}
