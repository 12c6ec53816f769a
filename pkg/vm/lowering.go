package vm

import (
	"fmt"
	"sort"

	"nand2tetris.dev/toolchain/pkg/asm"
)

// Maps the four "pointer" backed segments to the Hack symbol holding their base address.
var segmentBase = map[SegmentType]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// Maps each binary arithmetic/logic op to the 'comp' bit-code computing 'op1 <op> op2'
// once op2 is in D and op1 is addressed directly through M. Add/and/or are commutative, so
// they use the 'D+M'/'D&M'/'D|M' spellings, the only ones the Hack comp table defines.
var binaryComp = map[ArithOpType]string{
	Add: "D+M",
	Sub: "M-D",
	And: "D&M",
	Or:  "D|M",
}

// Maps each unary arithmetic/logic op to the 'comp' bit-code computing '<op> op1' in place.
var unaryComp = map[ArithOpType]string{
	Neg: "-M",
	Not: "!M",
}

// Maps each comparison op to the jump directive that should fire when 'op1 <op> op2' holds.
var comparisonJump = map[ArithOpType]string{
	Eq: "JEQ",
	Gt: "JGT",
	Lt: "JLT",
}

// ----------------------------------------------------------------------------
// Vm Translator

// The Translator takes a whole 'vm.Program' (one Module per .vm file/namespace) and produces
// its 'asm.Program' counterpart, implementing both the segment/arithmetic model and the full
// call/function/return calling convention.
//
// Unlike the bare combinator Lowerer this struct carries explicit, per-translation state: the
// namespace of the file currently being lowered (for 'static' segment resolution), the name of
// the function currently being lowered (to scope branch labels and return addresses) and the
// counters used to keep every generated label unique. None of this lives in a package global,
// so running multiple Translators concurrently (e.g. one per worker in a pool) is safe.
type Translator struct {
	currentFileNamespace string
	currentFunction      string
	returnCounter        int
	labelCounter         int
}

// Initializes and returns to the caller a brand new 'Translator' struct, seeded with the
// synthetic "Bootstrap" function context the emitted bootstrap 'call Sys.init 0' runs in.
func NewTranslator() *Translator {
	return &Translator{currentFunction: "Bootstrap"}
}

// Translates a whole Program to its Asm counterpart, prefixing the mandatory bootstrap
// sequence and appending the mandatory infinite-loop epilogue. Modules are visited in sorted
// namespace order so that, static segment allocation aside, lowering is fully deterministic.
func (t *Translator) Translate(program Program) (asm.Program, error) {
	out := asm.Program{}
	out = append(out, t.bootstrap()...)

	namespaces := make([]string, 0, len(program))
	for namespace := range program {
		namespaces = append(namespaces, namespace)
	}
	sort.Strings(namespaces)

	for _, namespace := range namespaces {
		t.currentFileNamespace = namespace
		for _, operation := range program[namespace] {
			instructions, err := t.translateOp(operation)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", namespace, err)
			}
			out = append(out, instructions...)
		}
	}

	out = append(out, t.epilogue()...)
	return out, nil
}

func (t *Translator) translateOp(operation Operation) ([]asm.Instruction, error) {
	switch op := operation.(type) {
	case MemoryOp:
		return t.translateMemoryOp(op)
	case ArithmeticOp:
		return t.translateArithmeticOp(op)
	case LabelDecl:
		return t.translateLabelDecl(op), nil
	case GotoOp:
		return t.translateGotoOp(op), nil
	case FuncDecl:
		return t.translateFuncDecl(op), nil
	case FuncCallOp:
		return t.translateFuncCallOp(op), nil
	case ReturnOp:
		return t.translateReturnOp(), nil
	default:
		return nil, fmt.Errorf("unrecognized operation '%T'", operation)
	}
}

// ----------------------------------------------------------------------------
// Stack helpers

// Pushes the value currently held in D onto the stack and advances SP.
func (Translator) pushD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Pops the stack's top into D, leaving SP pointing at the now-free slot.
func (Translator) popD() []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M-1"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "D", Comp: "M"},
	}
}

// Generates a fresh, globally unique anonymous label (used by comparison lowering).
func (t *Translator) genLabel() string {
	label := fmt.Sprintf("LABEL_%d", t.labelCounter)
	t.labelCounter++
	return label
}

// ----------------------------------------------------------------------------
// Memory Ops

func (t *Translator) translateMemoryOp(op MemoryOp) ([]asm.Instruction, error) {
	if op.Segment == Pointer && op.Offset > 1 {
		return nil, fmt.Errorf("invalid 'pointer' offset, got %d", op.Offset)
	}
	if op.Segment == Temp && op.Offset > 7 {
		return nil, fmt.Errorf("invalid 'temp' offset, got %d", op.Offset)
	}

	switch op.Operation {
	case Push:
		return t.translatePush(op)
	case Pop:
		return t.translatePop(op)
	default:
		return nil, fmt.Errorf("unrecognized OperationType '%s'", op.Operation)
	}
}

func (t *Translator) translatePush(op MemoryOp) ([]asm.Instruction, error) {
	var load []asm.Instruction

	switch op.Segment {
	case Constant:
		load = []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
		}
	case Local, Argument, This, That:
		load = []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentBase[op.Segment]},
			asm.CInstruction{Dest: "A", Comp: "D+M"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Temp:
		load = []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(5 + op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Pointer:
		load = []asm.Instruction{
			asm.AInstruction{Location: t.pointerSymbol(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	case Static:
		load = []asm.Instruction{
			asm.AInstruction{Location: t.staticSymbol(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	default:
		return nil, fmt.Errorf("unrecognized SegmentType '%s'", op.Segment)
	}

	return append(load, t.pushD()...), nil
}

func (t *Translator) translatePop(op MemoryOp) ([]asm.Instruction, error) {
	switch op.Segment {
	case Local, Argument, This, That:
		out := []asm.Instruction{
			asm.AInstruction{Location: fmt.Sprint(op.Offset)},
			asm.CInstruction{Dest: "D", Comp: "A"},
			asm.AInstruction{Location: segmentBase[op.Segment]},
			asm.CInstruction{Dest: "D", Comp: "D+M"},
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		}
		out = append(out, t.popD()...)
		out = append(out,
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "A", Comp: "M"},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		return out, nil

	case Temp:
		out := t.popD()
		out = append(out,
			asm.AInstruction{Location: fmt.Sprint(5 + op.Offset)},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		return out, nil

	case Pointer:
		out := t.popD()
		out = append(out,
			asm.AInstruction{Location: t.pointerSymbol(op.Offset)},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		return out, nil

	case Static:
		out := t.popD()
		out = append(out,
			asm.AInstruction{Location: t.staticSymbol(op.Offset)},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
		return out, nil

	default:
		return nil, fmt.Errorf("segment '%s' cannot be the target of a pop", op.Segment)
	}
}

func (Translator) pointerSymbol(offset uint16) string {
	if offset == 0 {
		return "THIS"
	}
	return "THAT"
}

// The 'static' segment has no dedicated Hack memory range: each VM file gets its own pool of
// variables, namespaced by the file's basename so that 'Foo.vm's 'static 3' never collides
// with 'Bar.vm's. The resulting label is left for the Assembler's SymbolTable to allocate a
// real address for, lazily, exactly like any other user-defined variable.
func (t *Translator) staticSymbol(offset uint16) string {
	return fmt.Sprintf("%s.%d", t.currentFileNamespace, offset)
}

// ----------------------------------------------------------------------------
// Arithmetic Ops

func (t *Translator) translateArithmeticOp(op ArithmeticOp) ([]asm.Instruction, error) {
	if comp, found := binaryComp[op.Operation]; found {
		return t.arithBinary(comp), nil
	}
	if comp, found := unaryComp[op.Operation]; found {
		return t.arithUnary(comp), nil
	}
	if jump, found := comparisonJump[op.Operation]; found {
		return t.arithComparison(jump), nil
	}
	return nil, fmt.Errorf("unrecognized ArithOpType '%s'", op.Operation)
}

// Pops op2 into D, then computes 'comp' (op1 <op> op2) in place on op1 (now the stack's top) and
// advances SP back over it: the same SP-juggling trick the original VM translator uses to
// avoid a full push/pop round trip per operand.
func (t *Translator) arithBinary(comp string) []asm.Instruction {
	out := t.popD()
	out = append(out,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M-1"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: comp},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	)
	return out
}

func (Translator) arithUnary(comp string) []asm.Instruction {
	return []asm.Instruction{
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M-1"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: comp},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	}
}

// Pops both operands, compares them and pushes -1 (true) or 0 (false) depending on the given
// jump directive. Each call allocates two fresh anonymous labels off the shared counter.
func (t *Translator) arithComparison(jump string) []asm.Instruction {
	isTrue, end := t.genLabel(), t.genLabel()

	out := t.popD()
	out = append(out,
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M-1"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "MD", Comp: "M-D"},
		asm.AInstruction{Location: isTrue},
		asm.CInstruction{Comp: "D", Jump: jump},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "0"},
		asm.AInstruction{Location: end},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		asm.LabelDecl{Name: isTrue},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "-1"},
		asm.LabelDecl{Name: end},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "M+1"},
	)
	return out
}

// ----------------------------------------------------------------------------
// Branching Ops

// Branch labels are scoped to the function they're declared in ('f.label'): two different
// functions may freely reuse the same label name without their jump targets colliding.
func (t *Translator) scopedLabel(label string) string {
	return fmt.Sprintf("%s.%s", t.currentFunction, label)
}

func (t *Translator) translateLabelDecl(op LabelDecl) []asm.Instruction {
	return []asm.Instruction{asm.LabelDecl{Name: t.scopedLabel(op.Name)}}
}

func (t *Translator) translateGotoOp(op GotoOp) []asm.Instruction {
	if op.Jump == IfGoto {
		out := t.popD()
		out = append(out,
			asm.AInstruction{Location: t.scopedLabel(op.Label)},
			asm.CInstruction{Comp: "D", Jump: "JNE"},
		)
		return out
	}
	return []asm.Instruction{
		asm.AInstruction{Location: t.scopedLabel(op.Label)},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
}

// ----------------------------------------------------------------------------
// Function related Ops

func (t *Translator) translateFuncDecl(op FuncDecl) []asm.Instruction {
	t.currentFunction = op.Name
	t.returnCounter = 0

	out := []asm.Instruction{asm.LabelDecl{Name: op.Name}}
	for i := uint8(0); i < op.NLocals; i++ {
		out = append(out, asm.CInstruction{Dest: "D", Comp: "0"})
		out = append(out, t.pushD()...)
	}
	return out
}

// Grounded on 'original_source/08/VMTranslator.py's 'calltoasm': saves the return address and
// the caller's four segment pointers, repositions ARG to the start of the pushed arguments,
// repositions LCL to the current stack top and jumps into the callee.
func (t *Translator) translateFuncCallOp(op FuncCallOp) []asm.Instruction {
	retLabel := fmt.Sprintf("%s$ret.%d", t.currentFunction, t.returnCounter)
	t.returnCounter++

	out := []asm.Instruction{
		asm.AInstruction{Location: retLabel},
		asm.CInstruction{Dest: "D", Comp: "A"},
	}
	out = append(out, t.pushD()...)
	for _, segment := range []string{"LCL", "ARG", "THIS", "THAT"} {
		out = append(out,
			asm.AInstruction{Location: segment},
			asm.CInstruction{Dest: "D", Comp: "M"},
		)
		out = append(out, t.pushD()...)
	}

	out = append(out,
		// ARG = SP - 5 - nArgs
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: fmt.Sprint(5 + int(op.NArgs))},
		asm.CInstruction{Dest: "D", Comp: "D-A"},
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// LCL = SP
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// goto callee
		asm.AInstruction{Location: op.Name},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
		// return label
		asm.LabelDecl{Name: retLabel},
	)
	return out
}

// Grounded on 'original_source/08/VMTranslator.py's 'returntoasm': tears down the current
// frame using R13/R14 as scratch registers (the frame pointer and the saved return address
// respectively) so that reusing the caller's own ARG/LCL while unwinding is never required.
func (t *Translator) translateReturnOp() []asm.Instruction {
	frameMinus := func(n int) []asm.Instruction {
		return []asm.Instruction{
			asm.AInstruction{Location: "R13"},
			asm.CInstruction{Dest: "D", Comp: "M"},
			asm.AInstruction{Location: fmt.Sprint(n)},
			asm.CInstruction{Dest: "A", Comp: "D-A"},
			asm.CInstruction{Dest: "D", Comp: "M"},
		}
	}

	out := []asm.Instruction{
		// R13 (frame) = LCL
		asm.AInstruction{Location: "LCL"},
		asm.CInstruction{Dest: "D", Comp: "M"},
		asm.AInstruction{Location: "R13"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	// R14 (retAddr) = *(frame - 5)
	out = append(out, frameMinus(5)...)
	out = append(out,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)
	// *ARG = pop()
	out = append(out, t.popD()...)
	out = append(out,
		asm.AInstruction{Location: "ARG"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Dest: "M", Comp: "D"},
		// SP = ARG + 1
		asm.CInstruction{Dest: "D", Comp: "A+1"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	)

	for i, segment := range []string{"THAT", "THIS", "ARG", "LCL"} {
		out = append(out, frameMinus(i+1)...)
		out = append(out,
			asm.AInstruction{Location: segment},
			asm.CInstruction{Dest: "M", Comp: "D"},
		)
	}

	out = append(out,
		asm.AInstruction{Location: "R14"},
		asm.CInstruction{Dest: "A", Comp: "M"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	)
	return out
}

// ----------------------------------------------------------------------------
// Bootstrap and epilogue

// Sets SP to 256 and calls Sys.init, as every Hack program must do before anything else runs.
func (t *Translator) bootstrap() []asm.Instruction {
	out := []asm.Instruction{
		asm.AInstruction{Location: "256"},
		asm.CInstruction{Dest: "D", Comp: "A"},
		asm.AInstruction{Location: "SP"},
		asm.CInstruction{Dest: "M", Comp: "D"},
	}
	return append(out, t.translateFuncCallOp(FuncCallOp{Name: "Sys.init", NArgs: 0})...)
}

// Every compiled program ends in a tight infinite loop: the Hack computer has no notion of
// "process exit", so once Sys.init returns execution must just park here forever.
func (Translator) epilogue() []asm.Instruction {
	return []asm.Instruction{
		asm.LabelDecl{Name: "INFINITE_LOOP"},
		asm.AInstruction{Location: "INFINITE_LOOP"},
		asm.CInstruction{Comp: "0", Jump: "JMP"},
	}
}
