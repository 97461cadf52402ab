// Package vm implements the bytecode filter engine: a 16-bit instruction
// set evaluated against a decoded BGP message, with a 256-slot constant
// pool holding compiled matchers (prefix tries, AS-path regexes,
// community sets) installed at compile time.
package vm

import (
	"github.com/netsentries/routescope/attrs"
	"github.com/netsentries/routescope/msg"
)

func attrsCode(b byte) attrs.Code { return attrs.Code(b) }

// Op is the low byte of an instruction word: the opcode. The high byte
// is the immediate, interpreted per-opcode (literal, constant-pool
// index, function-table index, or domain selector).
type Op byte

const (
	NOP Op = iota

	LOAD  // push ConstPool[imm]
	LOADU // push imm as a literal integer
	LOADN // push null

	NOT // pop v, push !v (v coerced to bool)
	JNZ // relative skip of imm instructions if top is truthy (does not pop)

	CHKT // push (msg.Type == imm)
	CHKA // push (msg carries attribute code imm)

	EXCT // domain imm: exact-match quantifier
	SUBN // domain imm: subnet quantifier
	SUPN // domain imm: supernet quantifier
	RELT // domain imm: related (subnet or supernet) quantifier

	FASMTC // AS-path regex match, constant-pool[imm] is the compiled NFA
	COMTCH // community any-in-set match, constant-pool[imm] is the set
	ACOMTC // community all-in-set match, constant-pool[imm] is the set

	CALL // invoke host intrinsic Funcs[imm], pushing its bool result

	BLK    // push a block frame
	ENDBLK // pop the current block frame

	CPASS // pop v; true -> short-circuit success (or halt PASS at outermost)
	CFAIL // pop v; true -> short-circuit failure (or halt FAIL at outermost)

	END // halt evaluation with the current result
)

// String converts Op to its mnemonic, as used by the --dump-bytecode
// disassembly.
func (o Op) String() string {
	switch o {
	case NOP:
		return "NOP"
	case LOAD:
		return "LOAD"
	case LOADU:
		return "LOADU"
	case LOADN:
		return "LOADN"
	case NOT:
		return "NOT"
	case JNZ:
		return "JNZ"
	case CHKT:
		return "CHKT"
	case CHKA:
		return "CHKA"
	case EXCT:
		return "EXCT"
	case SUBN:
		return "SUBN"
	case SUPN:
		return "SUPN"
	case RELT:
		return "RELT"
	case FASMTC:
		return "FASMTC"
	case COMTCH:
		return "COMTCH"
	case ACOMTC:
		return "ACOMTC"
	case CALL:
		return "CALL"
	case BLK:
		return "BLK"
	case ENDBLK:
		return "ENDBLK"
	case CPASS:
		return "CPASS"
	case CFAIL:
		return "CFAIL"
	case END:
		return "END"
	default:
		return "?"
	}
}

// Domain selects which set of prefixes an EXCT/SUBN/SUPN/RELT
// instruction quantifies over.
type Domain byte

const (
	ALL_NLRI      Domain = 0
	ALL_WITHDRAWN Domain = 1
)

// Instr is one decoded bytecode instruction: opcode plus 8-bit immediate.
type Instr struct {
	Op  Op
	Imm byte
}

// Encode packs i into its 16-bit wire form (opcode in the low byte,
// immediate in the high byte), matching the program's on-disk/in-memory
// layout used by Program.Instrs.
func (i Instr) Encode() uint16 {
	return uint16(i.Op) | uint16(i.Imm)<<8
}

// Decode unpacks a 16-bit instruction word.
func Decode(word uint16) Instr {
	return Instr{Op: Op(word & 0xff), Imm: byte(word >> 8)}
}

// Program is a compiled filter expression: a flat instruction stream
// plus the constant pool it references.
type Program struct {
	Instrs []uint16
	Consts *ConstPool
}

// Result is the terminal verdict of a Program evaluation.
type Result byte

const (
	FAIL Result = iota
	PASS
)

// Eval holds all per-evaluation state for running a Program against one
// BGP message: the value stack, the block-frame stack, and the error
// code set on a VM-internal failure. A single Eval may be reused across
// many messages via Run, which resets this state on entry.
type Eval struct {
	stack  []value
	blocks []blockFrame
	Err    error
}

type kind byte

const (
	kindBool kind = iota
	kindConst
)

type value struct {
	kind  kind
	b     bool
	const_ *constSlot
}

// blockFrame tracks the short-circuit edges of one BLK/ENDBLK region.
// The compiler emits CPASS/CFAIL unwinds that target the nearest
// enclosing block; at the outermost scope (no blocks open) the same
// instructions set the final Result and halt.
type blockFrame struct{}

// NewEval returns a fresh Eval ready to run any Program.
func NewEval() *Eval {
	return &Eval{}
}

func (e *Eval) reset() {
	e.stack = e.stack[:0]
	e.blocks = e.blocks[:0]
	e.Err = nil
}

func (e *Eval) push(v value) { e.stack = append(e.stack, v) }

func (e *Eval) pop() (value, error) {
	if len(e.stack) == 0 {
		return value{}, ErrStackUnderflow
	}
	v := e.stack[len(e.stack)-1]
	e.stack = e.stack[:len(e.stack)-1]
	return v, nil
}

func (e *Eval) popBool() (bool, error) {
	v, err := e.pop()
	if err != nil {
		return false, err
	}
	switch v.kind {
	case kindBool:
		return v.b, nil
	default:
		return v.const_ != nil, nil
	}
}

func (e *Eval) top() (value, error) {
	if len(e.stack) == 0 {
		return value{}, ErrStackUnderflow
	}
	return e.stack[len(e.stack)-1], nil
}

// Run evaluates p against m, returning the terminal Result. Per spec,
// any internal VM error (bad constant reference, stack misuse, unknown
// opcode, matcher failure) is treated as fatal by the caller, not a
// per-message failure — Run reports it via Eval.Err and returns FAIL.
func (e *Eval) Run(p *Program, m *msg.Msg) Result {
	e.reset()

	pc := 0
	for pc < len(p.Instrs) {
		instr := Decode(p.Instrs[pc])
		pc++

		switch instr.Op {
		case NOP:
			// no-op

		case LOAD:
			cs, err := p.Consts.get(instr.Imm)
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindConst, const_: cs})

		case LOADU:
			e.push(value{kind: kindBool, b: instr.Imm != 0})

		case LOADN:
			e.push(value{kind: kindConst, const_: nil})

		case NOT:
			b, err := e.popBool()
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindBool, b: !b})

		case JNZ:
			v, err := e.top()
			if err != nil {
				return e.fail(err)
			}
			truthy := v.kind == kindBool && v.b || v.kind == kindConst && v.const_ != nil
			if truthy {
				pc += int(instr.Imm)
			}

		case CHKT:
			e.push(value{kind: kindBool, b: byte(m.Type) == instr.Imm})

		case CHKA:
			e.push(value{kind: kindBool, b: chkAttr(m, instr.Imm)})

		case EXCT, SUBN, SUPN, RELT:
			b, err := e.evalPrefixMatch(instr, m)
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindBool, b: b})

		case FASMTC:
			b, err := e.evalAsRegex(p, instr, m)
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindBool, b: b})

		case COMTCH, ACOMTC:
			b, err := e.evalCommunity(p, instr, m)
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindBool, b: b})

		case CALL:
			b, err := e.evalCall(instr, m)
			if err != nil {
				return e.fail(err)
			}
			e.push(value{kind: kindBool, b: b})

		case BLK:
			e.blocks = append(e.blocks, blockFrame{})

		case ENDBLK:
			if len(e.blocks) == 0 {
				return e.fail(ErrBlockUnderflow)
			}
			e.blocks = e.blocks[:len(e.blocks)-1]

		case CPASS:
			b, err := e.popBool()
			if err != nil {
				return e.fail(err)
			}
			if b {
				if len(e.blocks) == 0 {
					return PASS
				}
				pc = e.unwindBlock(p, pc)
				// The enclosing block (one level up) sees this nested
				// block as a single child that evaluated true.
				e.push(value{kind: kindBool, b: true})
			}

		case CFAIL:
			b, err := e.popBool()
			if err != nil {
				return e.fail(err)
			}
			if b {
				if len(e.blocks) == 0 {
					return FAIL
				}
				pc = e.unwindBlock(p, pc)
				e.push(value{kind: kindBool, b: false})
			}

		case END:
			return FAIL

		default:
			return e.fail(ErrBadOpcode)
		}
	}

	return FAIL
}

func (e *Eval) fail(err error) Result {
	e.Err = err
	return FAIL
}

// unwindBlock scans forward from pc for the matching ENDBLK, accounting
// for nested BLK/ENDBLK pairs, and pops the current block frame. The
// compiler guarantees every BLK is eventually closed by an ENDBLK
// reachable by linear scan, so an unterminated block here is itself an
// ErrBlockUnderflow-worthy compiler bug, but Run degrades to "skip to
// end" rather than panicking.
func (e *Eval) unwindBlock(p *Program, pc int) int {
	e.blocks = e.blocks[:len(e.blocks)-1]
	depth := 0
	for pc < len(p.Instrs) {
		instr := Decode(p.Instrs[pc])
		pc++
		switch instr.Op {
		case BLK:
			depth++
		case ENDBLK:
			if depth == 0 {
				return pc
			}
			depth--
		}
	}
	return pc
}

func chkAttr(m *msg.Msg, code byte) bool {
	if m.Upper != msg.UPDATE {
		return false
	}
	return m.Update.Attrs.Has(attrsCode(code))
}
