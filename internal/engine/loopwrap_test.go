package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilcc/veil/internal/interp"
	"github.com/veilcc/veil/internal/ir"
	"github.com/veilcc/veil/internal/testutil"
)

func TestWrapLoopOnce_Shape(t *testing.T) {
	m := testutil.MustParse(t, `module w

func @main {
entry:
  %c = alloca
  store %c, 41
  %v = load %c
  %r = add %v, 1
  ret %r
}
`)
	fn := m.Func("main")

	require.True(t, WrapLoopOnce(fn))
	require.NoError(t, ir.Verify(m))

	// entry now only sets up the induction cell and enters the header.
	entry := fn.Block(fn.Entry)
	require.Len(t, entry.Instrs, 3)
	assert.Equal(t, ir.OpAlloca, fn.Instr(entry.Instrs[0]).Op)
	assert.Equal(t, ir.OpStore, fn.Instr(entry.Instrs[1]).Op)
	assert.Equal(t, ir.OpBr, fn.Instr(entry.Instrs[2]).Op)

	// The continuation keeps only the original terminator.
	cont := fn.BlockByLabel("entry.split2")
	require.NotNil(t, cont)
	require.Len(t, cont.Instrs, 1)
	assert.Equal(t, ir.OpRet, fn.Instr(cont.Instrs[0]).Op)
}

func TestWrapLoopOnce_BodyRunsExactlyOnce(t *testing.T) {
	m := testutil.MustParse(t, `module w

func @main {
entry:
  %c = alloca
  store %c, 41
  %v = load %c
  %r = add %v, 1
  ret %r
}
`)
	baseline, err := interp.Run(m)
	require.NoError(t, err)
	require.Equal(t, int64(42), baseline.Exit)

	require.True(t, WrapLoopOnce(m.Func("main")))
	require.NoError(t, ir.Verify(m))

	wrapped, err := interp.Run(m)
	require.NoError(t, err)
	assert.Equal(t, int64(42), wrapped.Exit)
}

func TestWrapLoopOnce_AfterBogusBlocks(t *testing.T) {
	// The pipeline runs bogus insertion first; wrapping must then repair the
	// decoy's edge into the moved continuation.
	m := testutil.MustParse(t, `module w

func @main {
entry:
  %c = alloca
  store %c, 9
  %v = load %c
  ret %v
}
`)
	fn := m.Func("main")
	require.Equal(t, 1, InsertBogusBlocks(fn, 1))
	require.True(t, WrapLoopOnce(fn))
	require.NoError(t, ir.Verify(m))

	result, err := interp.Run(m)
	require.NoError(t, err)
	assert.Equal(t, int64(9), result.Exit)
}

func TestWrapLoopOnce_DumpRoundTrip(t *testing.T) {
	// Wrapping leaves the continuation's terminator ahead of the block that
	// now defines its operand, so the dump must survive a re-parse.
	m := testutil.MustParse(t, `module w

func @main {
entry:
  %c = alloca
  store %c, 41
  %v = load %c
  %r = add %v, 1
  ret %r
}
`)
	require.True(t, WrapLoopOnce(m.Func("main")))
	require.NoError(t, ir.Verify(m))

	reparsed, err := ir.Parse(ir.Dump(m))
	require.NoError(t, err)
	require.NoError(t, ir.Verify(reparsed))

	want, err := interp.Run(m)
	require.NoError(t, err)
	got, err := interp.Run(reparsed)
	require.NoError(t, err)
	assert.Equal(t, want.Exit, got.Exit)
	assert.Equal(t, string(want.Output), string(got.Output))
}

func TestWrapLoopOnce_EmptyEntry(t *testing.T) {
	f := ir.NewFunction("hollow")
	f.NewBlock("entry")
	assert.False(t, WrapLoopOnce(f))
}
