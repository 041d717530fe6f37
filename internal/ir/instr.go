package ir

// Code is either a Label or an Instr; the two are interleaved in a
// function's instruction stream exactly as they are in the textual/JSON
// form, per the toolkit's data model.
type Code interface {
	isCode()
	Pos() *Position
}

// Label names a program point that begins a basic block.
type Label struct {
	Name     string
	Position *Position
}

func (*Label) isCode()        {}
func (l *Label) Pos() *Position { return l.Position }

// Instr is the uniform facade (component A) over the three instruction
// families: Constant, Value, and Effect. It gives pass code a single
// read/write surface regardless of which concrete shape an instruction
// has, the way the spec's "tagged variant" would in a language with
// sum types.
type Instr interface {
	Code

	// Dest returns the instruction's destination name, if it produces a
	// value (Constant and Value instructions only).
	Dest() (string, bool)
	SetDest(name string)

	// Type returns the instruction's declared result type, if it has one.
	Type() (Type, bool)

	// Args returns the instruction's argument names in order.
	Args() []string
	SetArgs(args []string)

	// Funcs returns the names of functions this instruction references
	// (call targets).
	Funcs() []string

	// Labels returns the names of labels this instruction references
	// (jump/branch/guard targets).
	Labels() []string

	// Opcode is the operation name ("add", "br", "const", ...).
	Opcode() string

	// IsPure reports whether this instruction's result depends only on
	// its arguments, with no observable side effect.
	IsPure() bool

	// IsCommutative reports whether swapping this instruction's two
	// arguments does not change its result.
	IsCommutative() bool

	// IsTerminator reports whether this instruction ends a basic block.
	IsTerminator() bool

	Clone() Instr
}

// ConstInstr assigns a literal value to a destination: dest: type = const lit.
type ConstInstr struct {
	DestName string
	DeclType Type
	Value    Literal
	Position *Position
}

// ValueInstr computes a value from arguments: dest: type = op args...
type ValueInstr struct {
	DestName string
	DeclType Type
	Op       string
	ArgNames []string
	FuncRefs []string
	LabelRefs []string
	Position *Position
}

// EffectInstr performs a side effect or controls flow: op args...
type EffectInstr struct {
	Op        string
	ArgNames  []string
	FuncRefs  []string
	LabelRefs []string
	Position  *Position
}

func (*ConstInstr) isCode() {}
func (*ValueInstr) isCode() {}
func (*EffectInstr) isCode() {}

func (i *ConstInstr) Pos() *Position { return i.Position }
func (i *ValueInstr) Pos() *Position { return i.Position }
func (i *EffectInstr) Pos() *Position { return i.Position }

func (i *ConstInstr) Dest() (string, bool) { return i.DestName, true }
func (i *ValueInstr) Dest() (string, bool) { return i.DestName, true }
func (i *EffectInstr) Dest() (string, bool) { return "", false }

func (i *ConstInstr) SetDest(name string) { i.DestName = name }
func (i *ValueInstr) SetDest(name string) { i.DestName = name }
func (i *EffectInstr) SetDest(string)     {}

func (i *ConstInstr) Type() (Type, bool) { return i.DeclType, i.DeclType != nil }
func (i *ValueInstr) Type() (Type, bool) { return i.DeclType, i.DeclType != nil }
func (i *EffectInstr) Type() (Type, bool) { return nil, false }

func (i *ConstInstr) Args() []string { return nil }
func (i *ValueInstr) Args() []string { return i.ArgNames }
func (i *EffectInstr) Args() []string { return i.ArgNames }

func (i *ConstInstr) SetArgs([]string)       {}
func (i *ValueInstr) SetArgs(args []string)  { i.ArgNames = args }
func (i *EffectInstr) SetArgs(args []string) { i.ArgNames = args }

func (i *ConstInstr) Funcs() []string { return nil }
func (i *ValueInstr) Funcs() []string { return i.FuncRefs }
func (i *EffectInstr) Funcs() []string { return i.FuncRefs }

func (i *ConstInstr) Labels() []string { return nil }
func (i *ValueInstr) Labels() []string { return i.LabelRefs }
func (i *EffectInstr) Labels() []string { return i.LabelRefs }

func (i *ConstInstr) Opcode() string { return "const" }
func (i *ValueInstr) Opcode() string { return i.Op }
func (i *EffectInstr) Opcode() string { return i.Op }

func (i *ConstInstr) IsPure() bool { return true }
func (i *ValueInstr) IsPure() bool { return IsPureOp(i.Op) }
func (i *EffectInstr) IsPure() bool { return false }

func (i *ConstInstr) IsCommutative() bool { return false }
func (i *ValueInstr) IsCommutative() bool { return IsCommutativeOp(i.Op) }
func (i *EffectInstr) IsCommutative() bool { return false }

func (i *ConstInstr) IsTerminator() bool { return false }
func (i *ValueInstr) IsTerminator() bool { return false }
func (i *EffectInstr) IsTerminator() bool { return IsTerminatorOp(i.Op) }

func (i *ConstInstr) Clone() Instr {
	c := *i
	return &c
}

func (i *ValueInstr) Clone() Instr {
	c := *i
	c.ArgNames = append([]string(nil), i.ArgNames...)
	c.FuncRefs = append([]string(nil), i.FuncRefs...)
	c.LabelRefs = append([]string(nil), i.LabelRefs...)
	return &c
}

func (i *EffectInstr) Clone() Instr {
	c := *i
	c.ArgNames = append([]string(nil), i.ArgNames...)
	c.FuncRefs = append([]string(nil), i.FuncRefs...)
	c.LabelRefs = append([]string(nil), i.LabelRefs...)
	return &c
}

// Opcode name constants for the families that core passes reason about
// structurally (terminators, id, get/set, speculation).
const (
	OpID        = "id"
	OpNop       = "nop"
	OpNot       = "not"
	OpJump      = "jmp"
	OpBranch    = "br"
	OpReturn    = "ret"
	OpCall      = "call"
	OpPrint     = "print"
	OpStore     = "store"
	OpLoad      = "load"
	OpAlloc     = "alloc"
	OpFree      = "free"
	OpPtrAdd    = "ptradd"
	OpSpeculate = "speculate"
	OpCommit    = "commit"
	OpGuard     = "guard"
	OpGet       = "get"
	OpSet       = "set"
)

// commutativeOps are opcodes for which swapping the two operands never
// changes the result: integer and float add/mul, boolean and/or, and
// integer/float/char equality.
var commutativeOps = map[string]bool{
	"add": true, "fadd": true,
	"mul": true, "fmul": true,
	"and": true, "or": true,
	"eq": true, "feq": true, "ceq": true,
}

// impureValueOps are ValueInstr opcodes whose result is not a pure
// function of their arguments: pure-call is the only Value-family
// instruction with an observable side effect (it may itself call an
// impure function), and address arithmetic that touches memory is
// opaque rather than reasoned-about.
var impureValueOps = map[string]bool{
	OpCall: true,
	OpLoad: true, // may observe a prior store; treated as impure for LVN/CSE
}

func IsPureOp(op string) bool {
	return !impureValueOps[op]
}

func IsCommutativeOp(op string) bool {
	return commutativeOps[op]
}

var terminatorOps = map[string]bool{
	OpJump: true, OpBranch: true, OpReturn: true,
}

func IsTerminatorOp(op string) bool {
	return terminatorOps[op]
}
