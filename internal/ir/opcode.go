package ir

import "fmt"

// Opcode identifies an instruction's operation.
type Opcode int

const (
	// OpInvalid is the zero Opcode; it never appears in a valid Module.
	OpInvalid Opcode = iota

	// OpConst materializes an immediate as a value: %x = const N.
	OpConst

	// Two-operand arithmetic/bitwise, producing a value.
	OpAdd
	OpSub
	OpMul
	OpAnd
	OpOr
	OpXor

	// Comparisons, producing 1 or 0.
	OpICmpEQ
	OpICmpULT

	// OpAlloca allocates a private storage cell local to one function
	// invocation. Its result identifies the cell for OpLoad/OpStore.
	OpAlloca
	// OpLoad reads a cell: %x = load %cell.
	OpLoad
	// OpStore writes a cell: store %cell, value.
	OpStore

	// OpFnSeed produces the deterministic per-function opaque seed
	// (FNV-32a of the enclosing function's name). Decorative, not provably
	// constant to an analyzer, but reproducible across builds.
	OpFnSeed

	// OpGLoadByte reads one byte of a byte-array global: %x = gload @g, idx.
	OpGLoadByte
	// OpGStoreByte writes one byte of a byte-array global: gstore @g, idx, v.
	OpGStoreByte

	// OpPrint emits the bytes of a global up to its NUL terminator to the
	// program's observable output.
	OpPrint

	// OpCall invokes a defined function and yields its return value.
	OpCall

	// Terminators.
	OpBr
	OpCondBr
	OpRet
)

var opcodeNames = map[Opcode]string{
	OpConst:      "const",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpAnd:        "and",
	OpOr:         "or",
	OpXor:        "xor",
	OpICmpEQ:     "icmp.eq",
	OpICmpULT:    "icmp.ult",
	OpAlloca:     "alloca",
	OpLoad:       "load",
	OpStore:      "store",
	OpFnSeed:     "fnseed",
	OpGLoadByte:  "gload",
	OpGStoreByte: "gstore",
	OpPrint:      "print",
	OpCall:       "call",
	OpBr:         "br",
	OpCondBr:     "cbr",
	OpRet:        "ret",
}

func (op Opcode) String() string {
	if s, ok := opcodeNames[op]; ok {
		return s
	}
	return fmt.Sprintf("opcode(%d)", int(op))
}

// IsTerminator reports whether the opcode transfers control.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpBr, OpCondBr, OpRet:
		return true
	}
	return false
}

// HasResult reports whether the instruction produces a value consumable by
// later instructions.
func (op Opcode) HasResult() bool {
	switch op {
	case OpStore, OpGStoreByte, OpPrint, OpBr, OpCondBr, OpRet:
		return false
	}
	return op != OpInvalid
}

// OperandKind tags the variants of Operand.
type OperandKind int

const (
	// OperValue references the result of another instruction (non-owning).
	OperValue OperandKind = iota
	// OperConst is an immediate integer.
	OperConst
	// OperGlobal references a module global by name.
	OperGlobal
	// OperBlock references a block in the same function (branch target).
	OperBlock
	// OperFunc references a module function by name (call target).
	OperFunc
)

// Operand is a non-owning reference consumed by an instruction.
type Operand struct {
	Kind   OperandKind
	Value  ValueID
	Const  int64
	Global string
	Block  BlockID
	Func   string
}

// Val references another instruction's result.
func Val(id ValueID) Operand { return Operand{Kind: OperValue, Value: id} }

// Imm is an immediate integer operand.
func Imm(n int64) Operand { return Operand{Kind: OperConst, Const: n} }

// Glob references a global by name.
func Glob(name string) Operand { return Operand{Kind: OperGlobal, Global: name} }

// Blk references a branch target.
func Blk(id BlockID) Operand { return Operand{Kind: OperBlock, Block: id} }

// Fn references a function by name.
func Fn(name string) Operand { return Operand{Kind: OperFunc, Func: name} }

// Instruction is an operation owned by exactly one BasicBlock. Operands are
// non-owning references resolved through the owning Function's arenas.
type Instruction struct {
	ID   ValueID
	Op   Opcode
	Args []Operand
}

// IsTerminator reports whether the instruction transfers control.
func (in *Instruction) IsTerminator() bool {
	return in.Op.IsTerminator()
}

// BranchTargets returns the blocks this instruction can transfer control to.
// Non-terminators and returns have none.
func (in *Instruction) BranchTargets() []BlockID {
	var out []BlockID
	for _, a := range in.Args {
		if a.Kind == OperBlock {
			out = append(out, a.Block)
		}
	}
	return out
}
