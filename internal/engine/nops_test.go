package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veilcc/veil/internal/ir"
	"github.com/veilcc/veil/internal/testutil"
)

func TestInsertNops_PairsEveryInstruction(t *testing.T) {
	// Three existing instructions with budget five: every one gets a pair,
	// nothing more.
	m := testutil.MustParse(t, `module n

func @main {
entry:
  %c = alloca
  store %c, 1
  ret 0
}
`)
	fn := m.Func("main")

	n := InsertNops(fn, 5)
	assert.Equal(t, 3, n)

	entry := fn.Block(fn.Entry)
	assert.Len(t, entry.Instrs, 6)
	require.NoError(t, ir.Verify(m))

	// The terminator's pair lands before it so the block still ends in ret.
	last := fn.Instr(entry.Instrs[len(entry.Instrs)-1])
	assert.Equal(t, ir.OpRet, last.Op)
	beforeLast := fn.Instr(entry.Instrs[len(entry.Instrs)-2])
	assert.Equal(t, ir.OpAdd, beforeLast.Op)
	assert.Equal(t, int64(0), beforeLast.Args[0].Const)
	assert.Equal(t, int64(0), beforeLast.Args[1].Const)
}

func TestInsertNops_BudgetExhausted(t *testing.T) {
	m := testutil.MustParse(t, `module n

func @main {
entry:
  %c = alloca
  store %c, 1
  %v = load %c
  ret %v
}
`)
	fn := m.Func("main")

	assert.Equal(t, 2, InsertNops(fn, 2))
	require.NoError(t, ir.Verify(m))
	assert.Len(t, fn.Block(fn.Entry).Instrs, 6)
}

func TestInsertNops_SpansBlocks(t *testing.T) {
	m := testutil.MustParse(t, `module n

func @main {
entry:
  br next
next:
  ret 0
}
`)
	fn := m.Func("main")

	assert.Equal(t, 2, InsertNops(fn, 10))
	require.NoError(t, ir.Verify(m))
	for _, b := range fn.Blocks() {
		assert.Len(t, b.Instrs, 2)
		term, _ := b.Terminator()
		assert.True(t, fn.Instr(term).IsTerminator())
	}
}

func TestInsertNops_ZeroBudget(t *testing.T) {
	m := testutil.MustParse(t, `module n

func @main {
entry:
  ret 0
}
`)
	fn := m.Func("main")
	assert.Equal(t, 0, InsertNops(fn, 0))
	assert.Len(t, fn.Block(fn.Entry).Instrs, 1)
}
