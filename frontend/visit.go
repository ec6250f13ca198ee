package frontend

// Walk visits n and every descendant in a pre-order traversal, calling fn
// on each. If fn returns false, Walk does not descend into that node's
// children (but continues with siblings).
func Walk(n Node, fn func(Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	switch v := n.(type) {
	case *Identifier, *IntScalar, *StringScalar, *DefBlock:
		// leaves
	case *ListExpr:
		for _, e := range v.Elements {
			Walk(e, fn)
		}
	case *UnaryExpr:
		Walk(v.X, fn)
	case *BinaryExpr:
		Walk(v.Left, fn)
		Walk(v.Right, fn)
	case *IndexExpr:
		Walk(v.X, fn)
		Walk(v.Index, fn)
	case *SliceExpr:
		Walk(v.X, fn)
		Walk(v.Lo, fn)
		Walk(v.Hi, fn)
	case *FuncCall:
		Walk(v.Fn, fn)
		for _, a := range v.Args {
			Walk(a, fn)
		}
	case *ListComprehension:
		Walk(v.Body, fn)
		for _, c := range v.Clauses {
			for _, vr := range c.Vars {
				Walk(vr, fn)
			}
			Walk(c.Iter, fn)
			for _, cond := range c.Ifs {
				Walk(cond, fn)
			}
		}
	case *Ternary:
		Walk(v.Cond, fn)
		Walk(v.Yes, fn)
		Walk(v.No, fn)
	}
}

// FuncCalls returns every FuncCall node reachable from stmts whose callee
// is a bare identifier equal to one of names.
func FuncCalls(stmts []Node, names ...string) []*FuncCall {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []*FuncCall
	for _, stmt := range stmts {
		Walk(stmt, func(n Node) bool {
			call, ok := n.(*FuncCall)
			if !ok {
				return true
			}
			if id, ok := call.Fn.(*Identifier); ok && (len(want) == 0 || want[id.Name]) {
				out = append(out, call)
			}
			return true
		})
	}
	return out
}

// Kwargs extracts a FuncCall's keyword arguments into a name→value map,
// skipping positional arguments. Later duplicate keys win, matching plain
// left-to-right assignment semantics.
func Kwargs(call *FuncCall) map[string]Node {
	out := map[string]Node{}
	for _, a := range call.Args {
		if b, ok := a.(*BinaryExpr); ok && b.Op == OpAssign {
			if id, ok := b.Left.(*Identifier); ok {
				out[id.Name] = b.Right
			}
		}
	}
	return out
}

// PositionalArgs returns a FuncCall's non-keyword arguments in order.
func PositionalArgs(call *FuncCall) []Node {
	var out []Node
	for _, a := range call.Args {
		if b, ok := a.(*BinaryExpr); ok && b.Op == OpAssign {
			continue
		}
		out = append(out, a)
	}
	return out
}

// StringValue returns a's literal string content if it is (or trivially
// reduces to) a StringScalar.
func StringValue(n Node) (string, bool) {
	if s, ok := n.(*StringScalar); ok {
		return string(s.Content), true
	}
	return "", false
}

// StringListValue returns every StringScalar element of a fully-literal
// ListExpr (list or tuple); ok is false if any element is not a literal
// string, mirroring the elaborator's "fully constant" requirement for
// operations like `.join`.
func StringListValue(n Node) ([]string, bool) {
	list, ok := n.(*ListExpr)
	if !ok || list.Kind == ListKindMap {
		return nil, false
	}
	out := make([]string, 0, len(list.Elements))
	for _, e := range list.Elements {
		s, ok := StringValue(e)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}
