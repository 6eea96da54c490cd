package interp

import (
	"fmt"
	"sort"

	"github.com/veilcc/veil/internal/ir"
)

// DefaultMaxSteps bounds the total number of instructions executed in one
// Run, across initializers, main, and every call.
const DefaultMaxSteps = 1 << 20

// EntryFunc is the function a Run executes after the initializer table.
const EntryFunc = "main"

// Result is the externally observable outcome of executing a module.
type Result struct {
	Output []byte
	Exit   int64
}

// Option configures a Run.
type Option func(*machine)

// WithMaxSteps overrides the step quota.
func WithMaxSteps(n int) Option {
	return func(m *machine) { m.maxSteps = n }
}

// Run executes the module: initializers in ascending priority order, then
// main. The module itself is never mutated; globals are copied into run
// state first.
func Run(mod *ir.Module, opts ...Option) (Result, error) {
	m := &machine{
		mod:      mod,
		maxSteps: DefaultMaxSteps,
		bytes:    make(map[string][]byte),
		ints:     make(map[string]int64),
	}
	for _, opt := range opts {
		opt(m)
	}
	for _, g := range mod.Globals {
		if g.Kind == ir.GlobalBytes {
			m.bytes[g.Name] = append([]byte(nil), g.Bytes...)
		} else {
			m.ints[g.Name] = g.Int
		}
	}

	ctors := make([]ir.Ctor, len(mod.Ctors))
	copy(ctors, mod.Ctors)
	sort.SliceStable(ctors, func(i, j int) bool { return ctors[i].Priority < ctors[j].Priority })
	for _, ct := range ctors {
		if _, err := m.call(ct.Func); err != nil {
			return Result{}, fmt.Errorf("initializer %s: %w", ct.Func, err)
		}
	}

	exit, err := m.call(EntryFunc)
	if err != nil {
		return Result{}, err
	}
	return Result{Output: m.output, Exit: exit}, nil
}

type machine struct {
	mod      *ir.Module
	maxSteps int
	steps    int
	output   []byte

	bytes map[string][]byte
	ints  map[string]int64
}

// frame is one function activation: instruction results and Alloca cells.
type frame struct {
	fn     *ir.Function
	values map[ir.ValueID]int64
	cells  map[ir.ValueID]int64
}

func (m *machine) call(name string) (int64, error) {
	fn := m.mod.Func(name)
	if fn == nil {
		return 0, fmt.Errorf("call to unknown function %q", name)
	}
	if fn.Declared {
		return 0, fmt.Errorf("cannot execute declared function %q", name)
	}
	return m.exec(fn)
}

func (m *machine) exec(fn *ir.Function) (int64, error) {
	fr := &frame{
		fn:     fn,
		values: make(map[ir.ValueID]int64),
		cells:  make(map[ir.ValueID]int64),
	}

	block := fn.Block(fn.Entry)
	pc := 0
	for {
		if pc >= len(block.Instrs) {
			return 0, fmt.Errorf("%s: fell off end of block %s", fn.Name, block.Label)
		}
		m.steps++
		if m.steps > m.maxSteps {
			return 0, &StepsExceededError{Func: fn.Name, Limit: m.maxSteps}
		}

		in := fn.Instr(block.Instrs[pc])
		next, ret, done, err := m.step(fr, in)
		if err != nil {
			return 0, fmt.Errorf("%s/%s: %w", fn.Name, block.Label, err)
		}
		if done {
			return ret, nil
		}
		if next != 0 {
			block = fn.Block(next)
			pc = 0
			continue
		}
		pc++
	}
}

// step executes one instruction. It returns the next block on a branch, the
// return value when done, or neither for straight-line flow.
func (m *machine) step(fr *frame, in *ir.Instruction) (next ir.BlockID, ret int64, done bool, err error) {
	switch in.Op {
	case ir.OpConst:
		fr.values[in.ID] = in.Args[0].Const

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpAnd, ir.OpOr, ir.OpXor:
		a, errA := m.eval(fr, in.Args[0])
		b, errB := m.eval(fr, in.Args[1])
		if errA != nil || errB != nil {
			return 0, 0, false, firstErr(errA, errB)
		}
		switch in.Op {
		case ir.OpAdd:
			fr.values[in.ID] = a + b
		case ir.OpSub:
			fr.values[in.ID] = a - b
		case ir.OpMul:
			fr.values[in.ID] = a * b
		case ir.OpAnd:
			fr.values[in.ID] = a & b
		case ir.OpOr:
			fr.values[in.ID] = a | b
		case ir.OpXor:
			fr.values[in.ID] = a ^ b
		}

	case ir.OpICmpEQ, ir.OpICmpULT:
		a, errA := m.eval(fr, in.Args[0])
		b, errB := m.eval(fr, in.Args[1])
		if errA != nil || errB != nil {
			return 0, 0, false, firstErr(errA, errB)
		}
		var v bool
		if in.Op == ir.OpICmpEQ {
			v = a == b
		} else {
			v = uint64(a) < uint64(b)
		}
		if v {
			fr.values[in.ID] = 1
		} else {
			fr.values[in.ID] = 0
		}

	case ir.OpAlloca:
		// The cell is keyed by the alloca's own ID; re-executing the
		// instruction in the same frame reuses the cell.
		if _, ok := fr.cells[in.ID]; !ok {
			fr.cells[in.ID] = 0
		}
		fr.values[in.ID] = int64(in.ID)

	case ir.OpLoad:
		cell, cerr := m.cellOf(fr, in.Args[0])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		fr.values[in.ID] = fr.cells[cell]

	case ir.OpStore:
		cell, cerr := m.cellOf(fr, in.Args[0])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		v, verr := m.eval(fr, in.Args[1])
		if verr != nil {
			return 0, 0, false, verr
		}
		fr.cells[cell] = v

	case ir.OpFnSeed:
		fr.values[in.ID] = ir.FnSeedValue(fr.fn.Name)

	case ir.OpGLoadByte:
		data, i, gerr := m.globalIndex(fr, in)
		if gerr != nil {
			return 0, 0, false, gerr
		}
		fr.values[in.ID] = int64(data[i])

	case ir.OpGStoreByte:
		data, i, gerr := m.globalIndex(fr, in)
		if gerr != nil {
			return 0, 0, false, gerr
		}
		v, verr := m.eval(fr, in.Args[2])
		if verr != nil {
			return 0, 0, false, verr
		}
		data[i] = byte(v)

	case ir.OpPrint:
		data, ok := m.bytes[in.Args[0].Global]
		if !ok {
			return 0, 0, false, fmt.Errorf("print of unknown global %q", in.Args[0].Global)
		}
		end := len(data)
		for i, c := range data {
			if c == 0 {
				end = i
				break
			}
		}
		m.output = append(m.output, data[:end]...)

	case ir.OpCall:
		v, cerr := m.call(in.Args[0].Func)
		if cerr != nil {
			return 0, 0, false, cerr
		}
		fr.values[in.ID] = v

	case ir.OpBr:
		return in.Args[0].Block, 0, false, nil

	case ir.OpCondBr:
		c, cerr := m.eval(fr, in.Args[0])
		if cerr != nil {
			return 0, 0, false, cerr
		}
		if c != 0 {
			return in.Args[1].Block, 0, false, nil
		}
		return in.Args[2].Block, 0, false, nil

	case ir.OpRet:
		if len(in.Args) == 0 {
			return 0, 0, true, nil
		}
		v, verr := m.eval(fr, in.Args[0])
		if verr != nil {
			return 0, 0, false, verr
		}
		return 0, v, true, nil

	default:
		return 0, 0, false, fmt.Errorf("unsupported opcode %s", in.Op)
	}
	return 0, 0, false, nil
}

func (m *machine) eval(fr *frame, a ir.Operand) (int64, error) {
	switch a.Kind {
	case ir.OperConst:
		return a.Const, nil
	case ir.OperValue:
		v, ok := fr.values[a.Value]
		if !ok {
			return 0, fmt.Errorf("use of %%%d before definition", a.Value)
		}
		return v, nil
	case ir.OperGlobal:
		if v, ok := m.ints[a.Global]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("global %q is not a scalar", a.Global)
	}
	return 0, fmt.Errorf("operand kind %d is not a value", a.Kind)
}

// cellOf resolves a Load/Store address operand to an Alloca cell.
func (m *machine) cellOf(fr *frame, a ir.Operand) (ir.ValueID, error) {
	if a.Kind != ir.OperValue {
		return 0, fmt.Errorf("load/store address is not a value reference")
	}
	target := fr.fn.Instr(a.Value)
	if target == nil || target.Op != ir.OpAlloca {
		return 0, fmt.Errorf("load/store address %%%d is not an alloca", a.Value)
	}
	if _, ok := fr.cells[a.Value]; !ok {
		fr.cells[a.Value] = 0
	}
	return a.Value, nil
}

func (m *machine) globalIndex(fr *frame, in *ir.Instruction) ([]byte, int64, error) {
	name := in.Args[0].Global
	data, ok := m.bytes[name]
	if !ok {
		return nil, 0, fmt.Errorf("byte access to unknown global %q", name)
	}
	i, err := m.eval(fr, in.Args[1])
	if err != nil {
		return nil, 0, err
	}
	if i < 0 || i >= int64(len(data)) {
		return nil, 0, fmt.Errorf("index %d out of range for global %q (len %d)", i, name, len(data))
	}
	return data, i, nil
}

func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
