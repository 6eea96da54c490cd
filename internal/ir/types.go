package ir

import "fmt"

// ValueID is a stable handle into a Function's instruction arena.
// The zero value is invalid; real IDs start at 1.
type ValueID uint32

// BlockID is a stable handle into a Function's block arena.
// The zero value is invalid; real IDs start at 1.
type BlockID uint32

// StringLiteralPrefix marks globals holding literal string data. The string
// encryption pass only touches globals carrying this prefix.
const StringLiteralPrefix = "str."

// RuntimePrefix marks functions synthesized by the engine itself (the string
// decryptor). Per-function passes never transform them.
const RuntimePrefix = "__veil_"

// Module is the unit the pipeline consumes and produces. It is mutated in
// place; nothing else may observe it during a run.
type Module struct {
	Name    string
	Funcs   []*Function
	Globals []*Global
	Ctors   []Ctor
}

// Ctor is one entry of the startup initializer table. Entries run before
// user code, ordered by ascending Priority (lower runs first).
type Ctor struct {
	Priority int
	Func     string
}

// GlobalKind distinguishes byte-array globals from scalar integer globals.
type GlobalKind int

const (
	// GlobalBytes is a byte-array global (string literals, encrypted blobs).
	GlobalBytes GlobalKind = iota
	// GlobalInt is a scalar integer global (configuration embedding, counters).
	GlobalInt
)

// Global is a named module-scope storage location with a constant
// initializer and a mutability flag.
type Global struct {
	Name    string
	Kind    GlobalKind
	Bytes   []byte // initializer when Kind == GlobalBytes
	Int     int64  // initializer when Kind == GlobalInt
	Private bool
	Mutable bool
}

// IsStringLiteral reports whether the global is encryptable literal string
// data: the recognized naming convention, a byte-array initializer, and a
// trailing NUL. Private globals are excluded so the encryption pass never
// re-encrypts its own output.
func (g *Global) IsStringLiteral() bool {
	if g.Private || g.Kind != GlobalBytes {
		return false
	}
	if len(g.Name) <= len(StringLiteralPrefix) || g.Name[:len(StringLiteralPrefix)] != StringLiteralPrefix {
		return false
	}
	return len(g.Bytes) > 0 && g.Bytes[len(g.Bytes)-1] == 0
}

// Function owns an ordered sequence of BasicBlocks. A declared function has
// no body and is never transformed.
type Function struct {
	Name     string
	Declared bool
	Entry    BlockID

	blocks []*BasicBlock // arena; BlockID = index+1
	instrs []*Instruction
}

// BasicBlock owns an ordered sequence of instruction IDs. The last entry is
// always a terminator (see package invariants).
type BasicBlock struct {
	ID     BlockID
	Label  string
	Instrs []ValueID
}

// Func returns the function with the given name, or nil.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Global returns the global with the given name, or nil.
func (m *Module) Global(name string) *Global {
	for _, g := range m.Globals {
		if g.Name == name {
			return g
		}
	}
	return nil
}

// AddGlobal appends a global to the module.
func (m *Module) AddGlobal(g *Global) {
	m.Globals = append(m.Globals, g)
}

// RemoveGlobal deletes the named global, preserving the order of the rest.
// It reports whether anything was removed. Callers are responsible for
// rewriting any outstanding references first (see ReplaceGlobalUses).
func (m *Module) RemoveGlobal(name string) bool {
	for i, g := range m.Globals {
		if g.Name == name {
			m.Globals = append(m.Globals[:i], m.Globals[i+1:]...)
			return true
		}
	}
	return false
}

// AddFunc appends a function to the module.
func (m *Module) AddFunc(f *Function) {
	m.Funcs = append(m.Funcs, f)
}

// AddCtor registers a startup initializer.
func (m *Module) AddCtor(priority int, fn string) {
	m.Ctors = append(m.Ctors, Ctor{Priority: priority, Func: fn})
}

// NewFunction creates an empty defined function. The caller must create an
// entry block before the module can pass verification.
func NewFunction(name string) *Function {
	return &Function{Name: name}
}

// NewDeclaredFunction creates an external declaration with no body.
func NewDeclaredFunction(name string) *Function {
	return &Function{Name: name, Declared: true}
}

// NewBlock allocates an empty block in the function's arena. The first block
// ever allocated becomes the entry block.
func (f *Function) NewBlock(label string) *BasicBlock {
	b := &BasicBlock{
		ID:    BlockID(len(f.blocks) + 1),
		Label: label,
	}
	f.blocks = append(f.blocks, b)
	if f.Entry == 0 {
		f.Entry = b.ID
	}
	return b
}

// Block resolves a BlockID. Returns nil for out-of-range IDs.
func (f *Function) Block(id BlockID) *BasicBlock {
	if id == 0 || int(id) > len(f.blocks) {
		return nil
	}
	return f.blocks[id-1]
}

// Blocks returns the block arena in allocation order. The slice is shared;
// callers must not append to it.
func (f *Function) Blocks() []*BasicBlock {
	return f.blocks
}

// BlockByLabel returns the block with the given label, or nil.
func (f *Function) BlockByLabel(label string) *BasicBlock {
	for _, b := range f.blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

// NewInstr allocates an instruction in the function's arena. The instruction
// is not placed in any block; callers append its ID where it belongs.
func (f *Function) NewInstr(op Opcode, args ...Operand) *Instruction {
	in := &Instruction{
		ID:   ValueID(len(f.instrs) + 1),
		Op:   op,
		Args: args,
	}
	f.instrs = append(f.instrs, in)
	return in
}

// Instr resolves a ValueID. Returns nil for out-of-range IDs.
func (f *Function) Instr(id ValueID) *Instruction {
	if id == 0 || int(id) > len(f.instrs) {
		return nil
	}
	return f.instrs[id-1]
}

// NumInstrs returns the size of the instruction arena, including
// instructions not currently placed in any block.
func (f *Function) NumInstrs() int {
	return len(f.instrs)
}

// Terminator returns the block's final instruction ID and whether the block
// is non-empty.
func (b *BasicBlock) Terminator() (ValueID, bool) {
	if len(b.Instrs) == 0 {
		return 0, false
	}
	return b.Instrs[len(b.Instrs)-1], true
}

// Append adds an instruction ID at the end of the block.
func (b *BasicBlock) Append(id ValueID) {
	b.Instrs = append(b.Instrs, id)
}

func (b *BasicBlock) String() string {
	return fmt.Sprintf("%s(#%d)", b.Label, b.ID)
}
