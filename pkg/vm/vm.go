package vm

// ----------------------------------------------------------------------------
// General information

// This section contains some general information about the VM intermediate language.
//
// We declare a shared 'Operation' interface for every macro operation available for the
// language and we define some other useful top-level struct such as Program and Module.
// Is important to note that a VM program can be composed of multiple translation units
// that can be also referenced as file or modules or also classes.

// A VM Program is just a set of multiple modules/files, in the VM spec each Jack class is
// translated to its own .vm file (just like Java .class file) that can be handled as its
// own translation unit during the compilation or lowering phases. Keyed by file namespace
// (the .vm file's basename without extension) since that's also the 'static' segment prefix.
type Program map[string]Module

// A VM Module is just a linear list of VM operations/instructions
type Module []Operation

// Used to put together all operation in the VM language (Memory, Arithmetic, ... ops).
type Operation interface{}

// ----------------------------------------------------------------------------
// Memory Op

// In memory representation of a Memory operation for the VM language.
//
// In the VM intermediate language there are only two possible memory operation on the stack.
// We could either push a new value taken from the specified segment location on the stack's
// top or take the stack's top and saves its value at the specified segment location.
type MemoryOp struct {
	Operation OperationType // The type of operation, either 'push' or 'pop'
	Segment   SegmentType   // The named memory segment to use (this, that, temp, ...)
	Offset    uint16        // The specific location/offset inside of the memory segment
}

type OperationType string // Enum to manage the operation allowed for a MemoryOp

const (
	Push OperationType = "push"
	Pop  OperationType = "pop"
)

type SegmentType string // Enum to manage the segment accessible for a MemoryOp

const (
	Temp     SegmentType = "temp"     // Real segment used to store intermediate computations
	Constant SegmentType = "constant" // Virtual segment used to access numeric constant

	Local    SegmentType = "local"    // Real segment used to store local function variables
	Static   SegmentType = "static"   // Real segment used to store shared/static variables
	Argument SegmentType = "argument" // Real segment used to store function's argument

	This    SegmentType = "this"    // Virtual segment used to point to a specific memory location
	That    SegmentType = "that"    // Virtual segment used to point to a specific memory location
	Pointer SegmentType = "pointer" // Real segment w/ 2 location used to set the 'this' and 'that' pointers
)

// ----------------------------------------------------------------------------
// Arithmetic Op

// In memory representation of a Arithmetic operation for the VM language.
//
// In the VM intermediate language there are just a handful of operation available.
// In particular each operation acts directly on the top of the stack, of course we have both unary
// and binary operation, the specific management of each op will be handled in the codegen phase.
type ArithmeticOp struct{ Operation ArithOpType }

type ArithOpType string // Enum to manage the operation allowed for an ArithmeticOp

const (
	Eq ArithOpType = "eq" // Comparison operations
	Gt ArithOpType = "gt"
	Lt ArithOpType = "lt"

	Add ArithOpType = "add" // Arithmetic operations
	Sub ArithOpType = "sub"
	Neg ArithOpType = "neg"

	Not ArithOpType = "not" // Bitwise operations
	And ArithOpType = "and"
	Or  ArithOpType = "or"
)

// ----------------------------------------------------------------------------
// Branching Ops

// In memory representation of a label declaration statement for the VM language.
//
// Just like 'asm.LabelDecl' this introduces a named jump target, scoped to the function
// it's declared in (two different functions may freely reuse the same label name).
type LabelDecl struct {
	Name string // The symbol/ident chosen by the user for the label
}

type JumpType string // Enum to manage the jump condition of a GotoOp

const (
	Goto   JumpType = "goto"    // Unconditional jump to the named label
	IfGoto JumpType = "if-goto" // Jumps to the named label if the popped value is not zero
)

// In memory representation of a jump statement for the VM language, either conditional
// (pops the stack's top and jumps only if that value isn't zero) or unconditional.
type GotoOp struct {
	Jump  JumpType // Whether the jump is conditional ('if-goto') or not ('goto')
	Label string   // The target label, scoped to the enclosing function
}

// ----------------------------------------------------------------------------
// Function related Ops

// In memory representation of a function declaration for the VM language.
//
// Declares the entrypoint label for a function as well as how many local variables
// it needs, these are zero-initialized as part of the function's own prologue.
type FuncDecl struct {
	Name    string // Fully qualified name (e.g. 'Math.sqrt', 'Screen.init')
	NLocals uint8  // Number of local variables to zero-initialize on entry
}

// In memory representation of a function call for the VM language.
//
// Calling a function pushes a fresh stack frame (return address and the caller's
// segment pointers) before transferring control, per the nand2tetris calling convention.
type FuncCallOp struct {
	Name  string // Fully qualified name of the callee
	NArgs uint8  // Number of arguments the caller has already pushed onto the stack
}

// In memory representation of a function return for the VM language.
//
// Tears down the current stack frame, restores the caller's segment pointers and
// jumps back to the return address saved by the corresponding FuncCallOp.
type ReturnOp struct{}
