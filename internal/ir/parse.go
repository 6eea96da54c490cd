package ir

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// ParseError reports a syntax error with its 1-based source line.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// opcodesByName is the inverse of the Opcode name table.
var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeNames))
	for op, name := range opcodeNames {
		m[name] = op
	}
	return m
}()

// Parse reads a module from its textual form. Value names are re-numbered in
// order of appearance, so Parse(Dump(m)) yields a semantically identical
// module whose dump is canonical (stable under further round trips).
//
// Both branch labels and value operands may reference definitions that
// appear later in the function body: transforms reorder blocks freely, so a
// block's terminator can consume a value whose defining instruction is
// printed in a later block. All such references are resolved at the end of
// the function.
func Parse(src []byte) (*Module, error) {
	p := &parser{sc: bufio.NewScanner(bytes.NewReader(src))}
	p.sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return p.parse()
}

type parser struct {
	sc   *bufio.Scanner
	line int

	mod *Module

	// per-function state
	fn      *Function
	block   *BasicBlock
	values  map[string]ValueID
	fixups  []blockFixup
	vfixups []valueFixup
	results map[ValueID]bool
}

type blockFixup struct {
	instr *Instruction
	arg   int
	label string
	line  int
}

type valueFixup struct {
	instr *Instruction
	arg   int
	name  string
	line  int
}

func (p *parser) errf(format string, args ...any) error {
	return &ParseError{Line: p.line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) next() (string, bool) {
	for p.sc.Scan() {
		p.line++
		line := strings.TrimSpace(p.sc.Text())
		if line == "" || strings.HasPrefix(line, ";") {
			continue
		}
		return line, true
	}
	return "", false
}

func (p *parser) parse() (*Module, error) {
	line, ok := p.next()
	if !ok {
		return nil, p.errf("empty input")
	}
	name, found := strings.CutPrefix(line, "module ")
	if !found || strings.TrimSpace(name) == "" {
		return nil, p.errf("expected %q header, got %q", "module <name>", line)
	}
	p.mod = &Module{Name: strings.TrimSpace(name)}

	for {
		line, ok := p.next()
		if !ok {
			return p.mod, nil
		}
		switch {
		case strings.HasPrefix(line, "global "):
			if err := p.parseGlobal(line); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "ctor "):
			if err := p.parseCtor(line); err != nil {
				return nil, err
			}
		case strings.HasPrefix(line, "declare "):
			name, err := p.parseRef(strings.TrimSpace(strings.TrimPrefix(line, "declare ")))
			if err != nil {
				return nil, err
			}
			p.mod.AddFunc(NewDeclaredFunction(name))
		case strings.HasPrefix(line, "func "):
			if err := p.parseFunc(line); err != nil {
				return nil, err
			}
		default:
			return nil, p.errf("unexpected line %q", line)
		}
	}
}

func (p *parser) parseRef(tok string) (string, error) {
	name, found := strings.CutPrefix(tok, "@")
	if !found || name == "" {
		return "", p.errf("expected @name, got %q", tok)
	}
	return name, nil
}

func (p *parser) parseGlobal(line string) error {
	rest := strings.TrimPrefix(line, "global ")
	g := &Global{}
	for {
		switch {
		case strings.HasPrefix(rest, "private "):
			g.Private = true
			rest = strings.TrimPrefix(rest, "private ")
		case strings.HasPrefix(rest, "mutable "):
			g.Mutable = true
			rest = strings.TrimPrefix(rest, "mutable ")
		default:
			goto nameInit
		}
	}
nameInit:
	nameTok, init, found := strings.Cut(rest, "=")
	if !found {
		return p.errf("global without initializer: %q", line)
	}
	name, err := p.parseRef(strings.TrimSpace(nameTok))
	if err != nil {
		return err
	}
	g.Name = name

	init = strings.TrimSpace(init)
	switch {
	case strings.HasPrefix(init, `c"`):
		data, err := p.parseQuoted(init[1:])
		if err != nil {
			return err
		}
		g.Kind = GlobalBytes
		g.Bytes = append(data, 0)
	case strings.HasPrefix(init, `b"`):
		data, err := p.parseQuoted(init[1:])
		if err != nil {
			return err
		}
		g.Kind = GlobalBytes
		g.Bytes = data
	default:
		n, err := strconv.ParseInt(init, 10, 64)
		if err != nil {
			return p.errf("bad global initializer %q", init)
		}
		g.Kind = GlobalInt
		g.Int = n
	}
	p.mod.AddGlobal(g)
	return nil
}

// parseQuoted decodes a double-quoted byte literal with \n \t \r \" \\ and
// \xNN escapes. The argument starts at the opening quote.
func (p *parser) parseQuoted(s string) ([]byte, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return nil, p.errf("malformed string literal %q", s)
	}
	body := s[1 : len(s)-1]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			out = append(out, c)
			continue
		}
		i++
		if i >= len(body) {
			return nil, p.errf("truncated escape in %q", s)
		}
		switch body[i] {
		case 'n':
			out = append(out, '\n')
		case 't':
			out = append(out, '\t')
		case 'r':
			out = append(out, '\r')
		case '"':
			out = append(out, '"')
		case '\\':
			out = append(out, '\\')
		case 'x':
			if i+2 >= len(body) {
				return nil, p.errf("truncated \\x escape in %q", s)
			}
			v, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return nil, p.errf("bad \\x escape in %q", s)
			}
			out = append(out, byte(v))
			i += 2
		default:
			return nil, p.errf("unknown escape \\%c in %q", body[i], s)
		}
	}
	return out, nil
}

func (p *parser) parseCtor(line string) error {
	fields := strings.Fields(line)
	if len(fields) != 3 {
		return p.errf("expected %q, got %q", "ctor <priority> @func", line)
	}
	prio, err := strconv.Atoi(fields[1])
	if err != nil {
		return p.errf("bad ctor priority %q", fields[1])
	}
	name, err := p.parseRef(fields[2])
	if err != nil {
		return err
	}
	p.mod.AddCtor(prio, name)
	return nil
}

func (p *parser) parseFunc(line string) error {
	header := strings.TrimSpace(strings.TrimPrefix(line, "func "))
	header, found := strings.CutSuffix(header, "{")
	if !found {
		return p.errf("expected %q, got %q", "func @name {", line)
	}
	name, err := p.parseRef(strings.TrimSpace(header))
	if err != nil {
		return err
	}

	p.fn = NewFunction(name)
	p.block = nil
	p.values = make(map[string]ValueID)
	p.fixups = nil
	p.vfixups = nil

	for {
		line, ok := p.next()
		if !ok {
			return p.errf("unterminated function @%s", name)
		}
		if line == "}" {
			break
		}
		if label, found := strings.CutSuffix(line, ":"); found && !strings.Contains(label, " ") {
			if p.fn.BlockByLabel(label) != nil {
				return p.errf("duplicate block label %q", label)
			}
			p.block = p.fn.NewBlock(label)
			continue
		}
		if p.block == nil {
			return p.errf("instruction before first block label: %q", line)
		}
		if err := p.parseInstr(line); err != nil {
			return err
		}
	}

	for _, fx := range p.fixups {
		b := p.fn.BlockByLabel(fx.label)
		if b == nil {
			return &ParseError{Line: fx.line, Msg: fmt.Sprintf("branch to unknown label %q", fx.label)}
		}
		fx.instr.Args[fx.arg] = Blk(b.ID)
	}
	for _, fx := range p.vfixups {
		id, ok := p.values[fx.name]
		if !ok {
			return &ParseError{Line: fx.line, Msg: fmt.Sprintf("use of undefined value %s", fx.name)}
		}
		fx.instr.Args[fx.arg] = Val(id)
	}
	p.mod.AddFunc(p.fn)
	return nil
}

func (p *parser) parseInstr(line string) error {
	var resultName string
	if strings.HasPrefix(line, "%") {
		lhs, rhs, found := strings.Cut(line, "=")
		if !found {
			return p.errf("malformed instruction %q", line)
		}
		resultName = strings.TrimSpace(lhs)
		line = strings.TrimSpace(rhs)
	}

	opTok, rest, _ := strings.Cut(line, " ")
	op, ok := opcodesByName[opTok]
	if !ok {
		return p.errf("unknown opcode %q", opTok)
	}
	if op.HasResult() != (resultName != "") {
		return p.errf("opcode %s result mismatch in %q", op, line)
	}

	var args []Operand
	rest = strings.TrimSpace(rest)
	if rest != "" {
		for _, tok := range strings.Split(rest, ",") {
			tok = strings.TrimSpace(tok)
			arg, fixupLabel, fixupValue, err := p.parseOperand(op, tok)
			if err != nil {
				return err
			}
			args = append(args, arg)
			if fixupLabel != "" {
				p.fixups = append(p.fixups, blockFixup{arg: len(args) - 1, label: fixupLabel, line: p.line})
			}
			if fixupValue != "" {
				p.vfixups = append(p.vfixups, valueFixup{arg: len(args) - 1, name: fixupValue, line: p.line})
			}
		}
	}

	in := p.fn.NewInstr(op, args...)
	for i := range p.fixups {
		if p.fixups[i].instr == nil {
			p.fixups[i].instr = in
		}
	}
	for i := range p.vfixups {
		if p.vfixups[i].instr == nil {
			p.vfixups[i].instr = in
		}
	}
	p.block.Append(in.ID)
	if resultName != "" {
		if _, dup := p.values[resultName]; dup {
			return p.errf("value %s redefined", resultName)
		}
		p.values[resultName] = in.ID
	}
	return nil
}

// parseOperand decodes one operand token. Branch labels and value names may
// be forward references; those come back as fixup label/name strings and are
// patched at the end of the function body.
func (p *parser) parseOperand(op Opcode, tok string) (Operand, string, string, error) {
	switch {
	case strings.HasPrefix(tok, "%"):
		if id, ok := p.values[tok]; ok {
			return Val(id), "", "", nil
		}
		return Val(0), "", tok, nil
	case strings.HasPrefix(tok, "@"):
		name := tok[1:]
		if name == "" {
			return Operand{}, "", "", p.errf("empty reference %q", tok)
		}
		if op == OpCall {
			return Fn(name), "", "", nil
		}
		return Glob(name), "", "", nil
	}
	if n, err := strconv.ParseInt(tok, 10, 64); err == nil {
		return Imm(n), "", "", nil
	}
	if !op.IsTerminator() {
		return Operand{}, "", "", p.errf("unexpected operand %q for %s", tok, op)
	}
	return Blk(0), tok, "", nil
}
