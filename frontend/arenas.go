package frontend

// Arenas bundles one Arena per AST node variant. A ParsedFile's Arenas
// outlives every Node it hands out; nodes are never freed individually.
type Arenas struct {
	idents  *Arena[Identifier]
	ints    *Arena[IntScalar]
	strings *Arena[StringScalar]
	lists   *Arena[ListExpr]
	unary   *Arena[UnaryExpr]
	binary  *Arena[BinaryExpr]
	index   *Arena[IndexExpr]
	slice   *Arena[SliceExpr]
	calls   *Arena[FuncCall]
	compr   *Arena[ListComprehension]
	ternary *Arena[Ternary]
	defs    *Arena[DefBlock]
}

// NewArenas returns a fresh, empty Arenas bundle.
func NewArenas() *Arenas {
	return &Arenas{
		idents:  NewArena[Identifier](),
		ints:    NewArena[IntScalar](),
		strings: NewArena[StringScalar](),
		lists:   NewArena[ListExpr](),
		unary:   NewArena[UnaryExpr](),
		binary:  NewArena[BinaryExpr](),
		index:   NewArena[IndexExpr](),
		slice:   NewArena[SliceExpr](),
		calls:   NewArena[FuncCall](),
		compr:   NewArena[ListComprehension](),
		ternary: NewArena[Ternary](),
		defs:    NewArena[DefBlock](),
	}
}

func (a *Arenas) NewIdentifier(tok Token) *Identifier {
	n := a.idents.New()
	n.Name, n.Tok = string(tok.Text), tok
	return n
}

func (a *Arenas) NewIntScalar(value int64, tok Token) *IntScalar {
	n := a.ints.New()
	n.Value, n.Tok = value, tok
	return n
}

func (a *Arenas) NewStringScalar(content []byte, isRaw, isTriple bool, tok Token) *StringScalar {
	n := a.strings.New()
	n.Content, n.IsRaw, n.IsTripleQuoted, n.Tok = content, isRaw, isTriple, tok
	return n
}

func (a *Arenas) NewListExpr(kind ListKind, elems []Node, tok Token) *ListExpr {
	n := a.lists.New()
	n.Kind, n.Elements, n.Tok = kind, elems, tok
	return n
}

func (a *Arenas) NewUnaryExpr(op Op, x Node, tok Token) *UnaryExpr {
	n := a.unary.New()
	n.Op, n.X, n.Tok = op, x, tok
	return n
}

func (a *Arenas) NewBinaryExpr(op Op, left, right Node, tok Token) *BinaryExpr {
	n := a.binary.New()
	n.Op, n.Left, n.Right, n.Tok = op, left, right, tok
	return n
}

func (a *Arenas) NewIndexExpr(x, idx Node, tok Token) *IndexExpr {
	n := a.index.New()
	n.X, n.Index, n.Tok = x, idx, tok
	return n
}

func (a *Arenas) NewSliceExpr(x, lo, hi Node, tok Token) *SliceExpr {
	n := a.slice.New()
	n.X, n.Lo, n.Hi, n.Tok = x, lo, hi, tok
	return n
}

func (a *Arenas) NewFuncCall(fn Node, args []Node, tok Token) *FuncCall {
	n := a.calls.New()
	n.Fn, n.Args, n.Tok = fn, args, tok
	return n
}

func (a *Arenas) NewListComprehension(kind ListKind, body Node, clauses []CompClause, tok Token) *ListComprehension {
	n := a.compr.New()
	n.Kind, n.Body, n.Clauses, n.Tok = kind, body, clauses, tok
	return n
}

func (a *Arenas) NewTernary(cond, yes, no Node, tok Token) *Ternary {
	n := a.ternary.New()
	n.Cond, n.Yes, n.No, n.Tok = cond, yes, no, tok
	return n
}

func (a *Arenas) NewDefBlock(raw []byte, tok Token) *DefBlock {
	n := a.defs.New()
	n.Raw, n.Tok = raw, tok
	return n
}
