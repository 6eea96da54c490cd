package engine

import (
	"fmt"

	"github.com/veilcc/veil/internal/ir"
)

// DecryptFuncName is the startup routine synthesized by the string
// encryption pass. One instance is shared by all encrypted strings in a
// module.
const DecryptFuncName = ir.RuntimePrefix + "decrypt"

// DecryptCtorPriority registers the decryptor in the initializer table.
// Initializers run in ascending priority order, so priority 0 guarantees the
// strings are plaintext again before anything else - including other
// initializers - can read them.
const DecryptCtorPriority = 0

// EncryptKey derives the per-run XOR key from the configured level.
func EncryptKey(level uint) byte {
	return byte(level*37 + 13)
}

// encryptBytes applies the position-dependent XOR stream to everything
// before the trailing NUL, which is left untouched. Byte arithmetic supplies
// the mod-256 wrap. The transform is a self-inverse: the decryptor runs the
// identical loop.
func encryptBytes(plain []byte, key byte) []byte {
	out := make([]byte, len(plain))
	copy(out, plain)
	for i := 0; i < len(out)-1; i++ {
		out[i] ^= key + byte(i)
	}
	return out
}

// EncryptStrings is the module-wide string encryption pass. It must run
// after all per-function passes: it mutates the global list and the
// initializer table, which per-function work must never observe mid-change.
//
// For each global matching the literal-string convention it creates a
// private mutable replacement holding the encrypted bytes, redirects every
// reference to it, and drops the plaintext original from the module. The
// decryption routine is synthesized lazily, once, on the first string
// encountered, and registered in the initializer table.
//
// Returns the number of strings encrypted.
func EncryptStrings(m *ir.Module, level uint) int {
	key := EncryptKey(level)

	var literals []*ir.Global
	for _, g := range m.Globals {
		if g.IsStringLiteral() {
			literals = append(literals, g)
		}
	}
	if len(literals) == 0 {
		return 0
	}

	dec := ir.NewFunction(DecryptFuncName)
	cursor := dec.NewBlock("entry")

	for _, g := range literals {
		enc := &ir.Global{
			Name:    g.Name + ".enc",
			Kind:    ir.GlobalBytes,
			Bytes:   encryptBytes(g.Bytes, key),
			Private: true,
			Mutable: true,
		}
		m.AddGlobal(enc)
		m.ReplaceGlobalUses(g.Name, enc.Name)
		m.RemoveGlobal(g.Name)

		cursor = emitDecryptLoop(dec, cursor, enc, key)
	}

	cursor.Append(dec.NewInstr(ir.OpRet).ID)
	m.AddFunc(dec)
	m.AddCtor(DecryptCtorPriority, DecryptFuncName)

	return len(literals)
}

// emitDecryptLoop appends, starting in cur, an in-place XOR loop over the
// encrypted payload of g (excluding the trailing NUL):
//
//	plain[i] = enc[i] XOR ((key + (i mod 256)) mod 256)
//
// the exact inverse of encryptBytes. Returns the block where emission for
// the next string (or the final return) continues.
func emitDecryptLoop(f *ir.Function, cur *ir.BasicBlock, g *ir.Global, key byte) *ir.BasicBlock {
	n := int64(len(g.Bytes) - 1)
	ord := len(f.Blocks())
	loop := f.NewBlock(fmt.Sprintf("loop%d", ord))
	body := f.NewBlock(fmt.Sprintf("body%d", ord))
	next := f.NewBlock(fmt.Sprintf("next%d", ord))

	idx := f.NewInstr(ir.OpAlloca)
	init := f.NewInstr(ir.OpStore, ir.Val(idx.ID), ir.Imm(0))
	enter := f.NewInstr(ir.OpBr, ir.Blk(loop.ID))
	cur.Append(idx.ID)
	cur.Append(init.ID)
	cur.Append(enter.ID)

	i := f.NewInstr(ir.OpLoad, ir.Val(idx.ID))
	cond := f.NewInstr(ir.OpICmpULT, ir.Val(i.ID), ir.Imm(n))
	branch := f.NewInstr(ir.OpCondBr, ir.Val(cond.ID), ir.Blk(body.ID), ir.Blk(next.ID))
	loop.Append(i.ID)
	loop.Append(cond.ID)
	loop.Append(branch.ID)

	ch := f.NewInstr(ir.OpGLoadByte, ir.Glob(g.Name), ir.Val(i.ID))
	off := f.NewInstr(ir.OpAnd, ir.Val(i.ID), ir.Imm(0xFF))
	sum := f.NewInstr(ir.OpAdd, ir.Val(off.ID), ir.Imm(int64(key)))
	wrapped := f.NewInstr(ir.OpAnd, ir.Val(sum.ID), ir.Imm(0xFF))
	plain := f.NewInstr(ir.OpXor, ir.Val(ch.ID), ir.Val(wrapped.ID))
	store := f.NewInstr(ir.OpGStoreByte, ir.Glob(g.Name), ir.Val(i.ID), ir.Val(plain.ID))
	inc := f.NewInstr(ir.OpAdd, ir.Val(i.ID), ir.Imm(1))
	writeBack := f.NewInstr(ir.OpStore, ir.Val(idx.ID), ir.Val(inc.ID))
	again := f.NewInstr(ir.OpBr, ir.Blk(loop.ID))
	for _, id := range []ir.ValueID{ch.ID, off.ID, sum.ID, wrapped.ID, plain.ID, store.ID, inc.ID, writeBack.ID, again.ID} {
		body.Append(id)
	}

	return next
}
