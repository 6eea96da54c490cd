package ir

import (
	"errors"
	"fmt"
)

// VerifyError reports a broken Module invariant. It names the function and
// block that triggered the failure so the driver can surface which unit of
// the pipeline produced an unsound graph.
type VerifyError struct {
	Func   string
	Block  string
	Reason string
}

func (e *VerifyError) Error() string {
	switch {
	case e.Func != "" && e.Block != "":
		return fmt.Sprintf("verify: func %s, block %s: %s", e.Func, e.Block, e.Reason)
	case e.Func != "":
		return fmt.Sprintf("verify: func %s: %s", e.Func, e.Reason)
	}
	return fmt.Sprintf("verify: %s", e.Reason)
}

// IsVerifyError reports whether err is (or wraps) a VerifyError.
func IsVerifyError(err error) bool {
	var ve *VerifyError
	return errors.As(err, &ve)
}

// Verify checks every Module invariant: unique names, entry-block presence,
// single-terminator-at-the-end for every block, no dangling value, block,
// global, or function references, initializer-table integrity, and
// reachability of every block from the entry. It is the single correctness
// backstop of the pipeline: a Module that fails Verify must never be handed
// to the back-end.
func Verify(m *Module) error {
	globals := make(map[string]bool, len(m.Globals))
	for _, g := range m.Globals {
		if g.Name == "" {
			return &VerifyError{Reason: "global with empty name"}
		}
		if globals[g.Name] {
			return &VerifyError{Reason: fmt.Sprintf("duplicate global name %q", g.Name)}
		}
		globals[g.Name] = true
	}

	funcs := make(map[string]*Function, len(m.Funcs))
	for _, f := range m.Funcs {
		if f.Name == "" {
			return &VerifyError{Reason: "function with empty name"}
		}
		if funcs[f.Name] != nil {
			return &VerifyError{Reason: fmt.Sprintf("duplicate function name %q", f.Name)}
		}
		funcs[f.Name] = f
	}

	for _, ct := range m.Ctors {
		f, ok := funcs[ct.Func]
		if !ok {
			return &VerifyError{Reason: fmt.Sprintf("initializer references unknown function %q", ct.Func)}
		}
		if f.Declared {
			return &VerifyError{Func: ct.Func, Reason: "initializer references a declared function"}
		}
	}

	for _, f := range m.Funcs {
		if err := verifyFunc(f, globals, funcs); err != nil {
			return err
		}
	}
	return nil
}

func verifyFunc(f *Function, globals map[string]bool, funcs map[string]*Function) error {
	if f.Declared {
		if len(f.blocks) != 0 {
			return &VerifyError{Func: f.Name, Reason: "declared function has a body"}
		}
		return nil
	}
	if f.Block(f.Entry) == nil {
		return &VerifyError{Func: f.Name, Reason: "no entry block"}
	}

	labels := make(map[string]bool, len(f.blocks))
	placed := make(map[ValueID]BlockID, len(f.instrs))
	for _, b := range f.blocks {
		if b.Label == "" {
			return &VerifyError{Func: f.Name, Reason: fmt.Sprintf("block #%d has no label", b.ID)}
		}
		if labels[b.Label] {
			return &VerifyError{Func: f.Name, Reason: fmt.Sprintf("duplicate block label %q", b.Label)}
		}
		labels[b.Label] = true

		if len(b.Instrs) == 0 {
			return &VerifyError{Func: f.Name, Block: b.Label, Reason: "block is empty (missing terminator)"}
		}
		for i, id := range b.Instrs {
			in := f.Instr(id)
			if in == nil {
				return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("dangling instruction reference %%%d", id)}
			}
			if prev, dup := placed[id]; dup {
				return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("instruction %%%d already placed in block #%d", id, prev)}
			}
			placed[id] = b.ID

			last := i == len(b.Instrs)-1
			if last && !in.IsTerminator() {
				return &VerifyError{Func: f.Name, Block: b.Label, Reason: "last instruction is not a terminator"}
			}
			if !last && in.IsTerminator() {
				return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("terminator %%%d before end of block", id)}
			}
		}
	}

	// Operand checks run after placement so value references can be
	// validated against instructions actually living in some block.
	for _, b := range f.blocks {
		for _, id := range b.Instrs {
			in := f.Instr(id)
			for _, a := range in.Args {
				switch a.Kind {
				case OperValue:
					target := f.Instr(a.Value)
					if target == nil {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d references unknown value %%%d", id, a.Value)}
					}
					if _, ok := placed[a.Value]; !ok {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d references unplaced value %%%d", id, a.Value)}
					}
					if !target.Op.HasResult() {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d references %%%d which produces no result", id, a.Value)}
					}
				case OperBlock:
					if !in.IsTerminator() {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d: block operand outside a terminator", id)}
					}
					if f.Block(a.Block) == nil {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d branches to unknown block #%d", id, a.Block)}
					}
				case OperGlobal:
					if !globals[a.Global] {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d references unknown global %q", id, a.Global)}
					}
				case OperFunc:
					if funcs[a.Func] == nil {
						return &VerifyError{Func: f.Name, Block: b.Label, Reason: fmt.Sprintf("%%%d references unknown function %q", id, a.Func)}
					}
				}
			}
		}
	}

	// Reachability over terminator edges. Decoy blocks are reachable via
	// their conditional branch even though the branch is never taken.
	seen := make(map[BlockID]bool, len(f.blocks))
	stack := []BlockID{f.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		b := f.Block(id)
		term, _ := b.Terminator()
		for _, t := range f.Instr(term).BranchTargets() {
			if !seen[t] {
				stack = append(stack, t)
			}
		}
	}
	for _, b := range f.blocks {
		if !seen[b.ID] {
			return &VerifyError{Func: f.Name, Block: b.Label, Reason: "block unreachable from entry"}
		}
	}
	return nil
}
