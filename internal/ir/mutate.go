package ir

import "fmt"

// SplitBlock moves the instructions of b from index at onward into a freshly
// allocated successor block and returns (predecessor, successor). The
// predecessor keeps Instrs[:at] and, because the terminator moved, ends
// WITHOUT a control transfer: the caller must install one before the Module
// is used for anything else. Branches held by other blocks keep pointing at
// the predecessor's BlockID.
//
// at must satisfy 0 <= at < len(b.Instrs); splitting an empty block is an
// error (passes treat that case as a skip, not by calling SplitBlock).
func SplitBlock(f *Function, b *BasicBlock, at int) (*BasicBlock, *BasicBlock, error) {
	if len(b.Instrs) == 0 {
		return nil, nil, fmt.Errorf("split %s: block is empty", b)
	}
	if at < 0 || at >= len(b.Instrs) {
		return nil, nil, fmt.Errorf("split %s: index %d out of range [0,%d)", b, at, len(b.Instrs))
	}

	succ := f.NewBlock(fmt.Sprintf("%s.split%d", b.Label, len(f.blocks)+1))
	succ.Instrs = append(succ.Instrs, b.Instrs[at:]...)
	b.Instrs = b.Instrs[:at]
	return b, succ, nil
}

// ReplaceUses rewrites every value-operand reference from old to new across
// all instructions of f, returning the number of operands rewritten.
func (f *Function) ReplaceUses(old, new ValueID) int {
	n := 0
	for _, in := range f.instrs {
		for i := range in.Args {
			if in.Args[i].Kind == OperValue && in.Args[i].Value == old {
				in.Args[i].Value = new
				n++
			}
		}
	}
	return n
}

// ReplaceGlobalUses rewrites every global-operand reference from old to new
// across the whole module, returning the number of operands rewritten.
// Used by the string encryption pass to swap a plaintext global for its
// encrypted replacement.
func (m *Module) ReplaceGlobalUses(old, new string) int {
	n := 0
	for _, f := range m.Funcs {
		for _, in := range f.instrs {
			for i := range in.Args {
				if in.Args[i].Kind == OperGlobal && in.Args[i].Global == old {
					in.Args[i].Global = new
					n++
				}
			}
		}
	}
	return n
}

// RetargetBranches repoints every branch targeting from so it targets to,
// returning the number of edges rewritten. This is the predecessor-repair
// primitive for transforms that move a block's body: any block that held an
// edge to the moved code must be repointed at its new location, or downstream
// blocks see a stale predecessor.
func RetargetBranches(f *Function, from, to BlockID) int {
	n := 0
	for _, b := range f.blocks {
		term, ok := b.Terminator()
		if !ok {
			continue
		}
		in := f.Instr(term)
		if in == nil || !in.IsTerminator() {
			continue
		}
		for i := range in.Args {
			if in.Args[i].Kind == OperBlock && in.Args[i].Block == from {
				in.Args[i].Block = to
				n++
			}
		}
	}
	return n
}
