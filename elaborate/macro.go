package elaborate

import "github.com/buildaudit/buildaudit/frontend"

// MacroLibrary holds the `name = body` templates a separately loaded macro
// file supplies: a call `name(k=v,...)` is
// replaced by a deep copy of body with every free occurrence of k bound to
// v. Loading is structural, not evaluated — a macro body is ordinary AST,
// not a compiled closure.
type MacroLibrary struct {
	bodies map[string]frontend.Node
}

// LoadMacroLibrary collects every top-level `name = body` assignment in
// stmts into a MacroLibrary. Non-assignment statements are ignored.
func LoadMacroLibrary(stmts []frontend.Node) *MacroLibrary {
	lib := &MacroLibrary{bodies: map[string]frontend.Node{}}
	for _, stmt := range stmts {
		asn, ok := frontend.IsAssignment(stmt)
		if !ok {
			continue
		}
		id, ok := asn.Left.(*frontend.Identifier)
		if !ok {
			continue
		}
		lib.bodies[id.Name] = asn.Right
	}
	return lib
}

// forwardSentinel is the builtin macro bodies use to splice a macro call's
// own kw-args into an inner call, rather than simply substituting them by
// name.
const forwardSentinel = "bant_forward_args"

// Expand replaces a call to name(kwargs) with a deep copy of its
// registered body, substituting each parameter identifier with its bound
// argument node. ok is false if name is not a known macro.
func (lib *MacroLibrary) Expand(arenas *frontend.Arenas, name string, kwargs map[string]frontend.Node, tok frontend.Token) ([]frontend.Node, bool) {
	if lib == nil {
		return nil, false
	}
	body, ok := lib.bodies[name]
	if !ok {
		return nil, false
	}

	if call, isCall := body.(*frontend.FuncCall); isCall {
		if id, ok := call.Fn.(*frontend.Identifier); ok && id.Name == forwardSentinel {
			return expandForward(arenas, call, kwargs, tok), true
		}
	}

	copied := substitute(arenas, body, kwargs, tok)
	return []frontend.Node{copied}, true
}

// expandForward implements `bant_forward_args(inner_call(...))`: the
// macro's own kwargs are prepended (as bound literal args, not
// identifiers) to every call found one level inside the sentinel's sole
// argument, which may itself be a single call or a tuple of calls.
func expandForward(arenas *frontend.Arenas, sentinel *frontend.FuncCall, kwargs map[string]frontend.Node, tok frontend.Token) []frontend.Node {
	if len(sentinel.Args) == 0 {
		return nil
	}
	inner := sentinel.Args[0]

	forwardOne := func(call *frontend.FuncCall) *frontend.FuncCall {
		prepended := make([]frontend.Node, 0, len(kwargs)+len(call.Args))
		for k, v := range kwargs {
			prepended = append(prepended, arenas.NewBinaryExpr(frontend.OpAssign, arenas.NewIdentifier(frontend.Token{Text: []byte(k)}), v, tok))
		}
		prepended = append(prepended, call.Args...)
		return arenas.NewFuncCall(call.Fn, prepended, call.Tok)
	}

	switch v := inner.(type) {
	case *frontend.FuncCall:
		return []frontend.Node{forwardOne(v)}
	case *frontend.ListExpr:
		if v.Kind != frontend.ListKindTuple {
			return nil
		}
		out := make([]frontend.Node, 0, len(v.Elements))
		for _, e := range v.Elements {
			if c, ok := e.(*frontend.FuncCall); ok {
				out = append(out, forwardOne(c))
			} else {
				out = append(out, e)
			}
		}
		return out
	}
	return nil
}

// substitute deep-copies n, replacing every Identifier whose name is a key
// of bindings with the bound node (shared, not re-copied — the bound
// value is already finalized AST).
func substitute(arenas *frontend.Arenas, n frontend.Node, bindings map[string]frontend.Node, tok frontend.Token) frontend.Node {
	switch v := n.(type) {
	case *frontend.Identifier:
		if bound, ok := bindings[v.Name]; ok {
			return bound
		}
		return v
	case *frontend.IntScalar, *frontend.StringScalar:
		return v
	case *frontend.ListExpr:
		elems := make([]frontend.Node, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = substitute(arenas, e, bindings, tok)
		}
		return arenas.NewListExpr(v.Kind, elems, v.Tok)
	case *frontend.UnaryExpr:
		return arenas.NewUnaryExpr(v.Op, substitute(arenas, v.X, bindings, tok), v.Tok)
	case *frontend.BinaryExpr:
		// A keyword name (left of `=`) and a member name (right of `.`) are
		// not free occurrences and are kept as written.
		left, right := v.Left, v.Right
		if v.Op != frontend.OpAssign {
			left = substitute(arenas, v.Left, bindings, tok)
		}
		if v.Op != frontend.OpDot {
			right = substitute(arenas, v.Right, bindings, tok)
		}
		return arenas.NewBinaryExpr(v.Op, left, right, v.Tok)
	case *frontend.IndexExpr:
		return arenas.NewIndexExpr(substitute(arenas, v.X, bindings, tok), substitute(arenas, v.Index, bindings, tok), v.Tok)
	case *frontend.SliceExpr:
		var lo, hi frontend.Node
		if v.Lo != nil {
			lo = substitute(arenas, v.Lo, bindings, tok)
		}
		if v.Hi != nil {
			hi = substitute(arenas, v.Hi, bindings, tok)
		}
		return arenas.NewSliceExpr(substitute(arenas, v.X, bindings, tok), lo, hi, v.Tok)
	case *frontend.FuncCall:
		args := make([]frontend.Node, len(v.Args))
		for i, a := range v.Args {
			args[i] = substitute(arenas, a, bindings, tok)
		}
		return arenas.NewFuncCall(substitute(arenas, v.Fn, bindings, tok), args, v.Tok)
	case *frontend.Ternary:
		return arenas.NewTernary(
			substitute(arenas, v.Cond, bindings, tok),
			substitute(arenas, v.Yes, bindings, tok),
			substitute(arenas, v.No, bindings, tok), v.Tok)
	default:
		return n
	}
}
