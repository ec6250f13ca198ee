package frontend

// ListKind tags a ListExpr as a list literal, a tuple literal, or the
// key/value body of a map literal.
type ListKind int

const (
	ListKindList ListKind = iota
	ListKindTuple
	ListKindMap
)

func (k ListKind) String() string {
	switch k {
	case ListKindTuple:
		return "tuple"
	case ListKindMap:
		return "map"
	default:
		return "list"
	}
}

// Op identifies the operator of a UnaryExpr or BinaryExpr.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpShl
	OpShr
	OpBitOr
	OpLt
	OpLe
	OpEq
	OpGe
	OpGt
	OpNe
	OpIn
	OpNotIn
	OpAnd
	OpOr
	OpNot
	OpAssign
	OpDot
)

var opText = map[Op]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpIDiv: "//", OpMod: "%",
	OpShl: "<<", OpShr: ">>", OpBitOr: "|",
	OpLt: "<", OpLe: "<=", OpEq: "==", OpGe: ">=", OpGt: ">", OpNe: "!=",
	OpIn: "in", OpNotIn: "not in", OpAnd: "and", OpOr: "or", OpNot: "not",
	OpAssign: "=", OpDot: ".",
}

func (o Op) String() string { return opText[o] }

// Node is the sum type for the starlark-subset AST. No variant
// stores an explicit location: the text span of the token recorded in its
// Anchor is the location key, resolved against the project's RangeMap.
type Node interface {
	node()
	// Anchor is the token text this node is defined by.
	Anchor() []byte
}

// Identifier is a bare name reference.
type Identifier struct {
	Name string
	Tok  Token
}

func (*Identifier) node()            {}
func (n *Identifier) Anchor() []byte { return n.Tok.Text }

// IntScalar is an integer literal, already parsed from decimal/octal/hex.
type IntScalar struct {
	Value int64
	Tok   Token
}

func (*IntScalar) node()            {}
func (n *IntScalar) Anchor() []byte { return n.Tok.Text }

// StringScalar is a string literal or a value synthesized by the
// elaborator (string concatenation, glob() results, macro substitution).
// Content is either a sub-slice of a registered NamedSource, or an
// arena-owned buffer registered as a synthetic range pointing at a
// FixedLocator.
type StringScalar struct {
	Content        []byte
	IsRaw          bool
	IsTripleQuoted bool
	Tok            Token
}

func (*StringScalar) node()            {}
func (n *StringScalar) Anchor() []byte { return n.Tok.Text }

// ListExpr is a list, tuple, or map literal. For ListKindMap, Elements
// holds alternating key, value pairs in source/insertion order.
type ListExpr struct {
	Kind     ListKind
	Elements []Node
	Tok      Token // the opening bracket/paren/brace
}

func (*ListExpr) node()            {}
func (n *ListExpr) Anchor() []byte { return n.Tok.Text }

// UnaryExpr is `-x` or `not x`.
type UnaryExpr struct {
	Op  Op
	X   Node
	Tok Token
}

func (*UnaryExpr) node()            {}
func (n *UnaryExpr) Anchor() []byte { return n.Tok.Text }

// BinaryExpr covers every two-operand operator, including member access
// (Op == OpDot) and top-level assignment (Op == OpAssign): assignment is
// structurally a BinOp with op = '=' rather than a distinct variant.
type BinaryExpr struct {
	Op          Op
	Left, Right Node
	Tok         Token // the operator token
}

func (*BinaryExpr) node()            {}
func (n *BinaryExpr) Anchor() []byte { return n.Tok.Text }

// IndexExpr is `x[e]`.
type IndexExpr struct {
	X, Index Node
	Tok      Token // the '['
}

func (*IndexExpr) node()            {}
func (n *IndexExpr) Anchor() []byte { return n.Tok.Text }

// SliceExpr is `x[a:b]`; Lo and/or Hi may be nil (either bound optional).
type SliceExpr struct {
	X, Lo, Hi Node
	Tok       Token // the '['
}

func (*SliceExpr) node()            {}
func (n *SliceExpr) Anchor() []byte { return n.Tok.Text }

// FuncCall is `fn(args...)`. Keyword arguments appear in Args as
// BinaryExpr{Op: OpAssign, Left: *Identifier}.
type FuncCall struct {
	Fn   Node
	Args []Node
	Tok  Token // the '('
}

func (*FuncCall) node()            {}
func (n *FuncCall) Anchor() []byte { return n.Tok.Text }

// CompClause is one `for x in y [if cond]*` clause of a comprehension.
type CompClause struct {
	Vars []Node // loop variables (identifiers, or a tuple-unpack list)
	Iter Node
	Ifs  []Node
}

// ListComprehension is `[body for x in y if cond]` (or tuple/map bodied).
// Multiple Clauses model chained `for`; this is a documented deviation —
// the evaluator currently produces a nested list for multi-clause
// comprehensions rather than flattening.
type ListComprehension struct {
	Kind    ListKind
	Body    Node
	Clauses []CompClause
	Tok     Token
}

func (*ListComprehension) node()            {}
func (n *ListComprehension) Anchor() []byte { return n.Tok.Text }

// Ternary is `yes if cond else no`.
type Ternary struct {
	Cond, Yes, No Node
	Tok           Token // the 'if'
}

func (*Ternary) node()            {}
func (n *Ternary) Anchor() []byte { return n.Tok.Text }

// DefBlock is an opaque, unparsed `def ...:` body: the front end never
// parses function definitions, it only remembers the span
// so pretty-printing can round-trip it verbatim.
type DefBlock struct {
	Raw []byte
	Tok Token
}

func (*DefBlock) node()            {}
func (n *DefBlock) Anchor() []byte { return n.Tok.Text }

// IsAssignment reports whether n is a top-level `lhs = rhs` statement.
func IsAssignment(n Node) (*BinaryExpr, bool) {
	b, ok := n.(*BinaryExpr)
	return b, ok && b.Op == OpAssign
}
