package ir

import (
	"bytes"
	"fmt"
	"strconv"
)

// Dump renders the module in its canonical textual form. The output is
// deterministic for a given module: globals, initializers, functions, blocks
// and instructions appear in their owned order, and value names are the
// stable arena IDs. Golden tests and Fingerprint both build on this.
func Dump(m *Module) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "module %s\n", m.Name)

	if len(m.Globals) > 0 {
		buf.WriteByte('\n')
		for _, g := range m.Globals {
			buf.WriteString("global ")
			if g.Private {
				buf.WriteString("private ")
			}
			if g.Mutable {
				buf.WriteString("mutable ")
			}
			fmt.Fprintf(&buf, "@%s = %s\n", g.Name, dumpInitializer(g))
		}
	}

	if len(m.Ctors) > 0 {
		buf.WriteByte('\n')
		for _, ct := range m.Ctors {
			fmt.Fprintf(&buf, "ctor %d @%s\n", ct.Priority, ct.Func)
		}
	}

	for _, f := range m.Funcs {
		buf.WriteByte('\n')
		if f.Declared {
			fmt.Fprintf(&buf, "declare @%s\n", f.Name)
			continue
		}
		fmt.Fprintf(&buf, "func @%s {\n", f.Name)
		for _, b := range f.Blocks() {
			fmt.Fprintf(&buf, "%s:\n", b.Label)
			for _, id := range b.Instrs {
				buf.WriteString("  ")
				buf.WriteString(dumpInstr(f, f.Instr(id)))
				buf.WriteByte('\n')
			}
		}
		buf.WriteString("}\n")
	}
	return buf.Bytes()
}

func dumpInitializer(g *Global) string {
	if g.Kind == GlobalInt {
		return strconv.FormatInt(g.Int, 10)
	}
	if isCString(g.Bytes) {
		return "c\"" + escapeBytes(g.Bytes[:len(g.Bytes)-1], false) + "\""
	}
	return "b\"" + escapeBytes(g.Bytes, true) + "\""
}

// isCString reports whether data is NUL-terminated printable text that can
// round-trip through the c"..." form (the NUL is implicit there).
func isCString(data []byte) bool {
	if len(data) == 0 || data[len(data)-1] != 0 {
		return false
	}
	for _, c := range data[:len(data)-1] {
		switch c {
		case '\n', '\t', '\r':
			continue
		}
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func escapeBytes(data []byte, hexFallback bool) string {
	var buf bytes.Buffer
	for _, c := range data {
		switch c {
		case '\\':
			buf.WriteString(`\\`)
		case '"':
			buf.WriteString(`\"`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			if c >= 0x20 && c <= 0x7e {
				buf.WriteByte(c)
			} else if hexFallback {
				fmt.Fprintf(&buf, `\x%02x`, c)
			} else {
				// isCString guarantees this is unreachable for c"..." data.
				fmt.Fprintf(&buf, `\x%02x`, c)
			}
		}
	}
	return buf.String()
}

func dumpInstr(f *Function, in *Instruction) string {
	var buf bytes.Buffer
	if in.Op.HasResult() {
		fmt.Fprintf(&buf, "%%%d = ", in.ID)
	}
	buf.WriteString(in.Op.String())
	for i, a := range in.Args {
		if i == 0 {
			buf.WriteByte(' ')
		} else {
			buf.WriteString(", ")
		}
		buf.WriteString(dumpOperand(f, a))
	}
	return buf.String()
}

func dumpOperand(f *Function, a Operand) string {
	switch a.Kind {
	case OperValue:
		return fmt.Sprintf("%%%d", a.Value)
	case OperConst:
		return strconv.FormatInt(a.Const, 10)
	case OperGlobal:
		return "@" + a.Global
	case OperBlock:
		if b := f.Block(a.Block); b != nil {
			return b.Label
		}
		return fmt.Sprintf("#%d", a.Block)
	case OperFunc:
		return "@" + a.Func
	}
	return "?"
}
