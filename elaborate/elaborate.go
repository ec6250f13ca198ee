// Package elaborate performs a const-expression evaluation pass over a
// BUILD file's AST: variable substitution, string/list/map operations,
// format strings, ternaries, indexing/slicing, select(), glob(), and
// user-macro expansion. Only constant-reducible sub-expressions are
// folded; everything else is left as residual AST, unchanged.
package elaborate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/query"
)

// GlobFS abstracts the filesystem walk glob() needs so the elaborator
// stays unit-testable without touching disk.
type GlobFS interface {
	// Walk calls fn once for every regular file's slash-separated path
	// relative to pkgDir, under pkgDir.
	Walk(pkgDir string, fn func(relPath string)) error
}

// Registrar reports a newly synthesized byte range (string concatenation,
// glob() results, macro expansion, format()) back to the project's
// source-locator registry, and returns a Token identifying it.
type Registrar interface {
	RegisterSynthetic(content []byte, at *frontend.Location) frontend.Token
}

// Context carries everything one file's elaboration pass needs.
type Context struct {
	Pkg     query.Package
	PkgDir  string
	Arenas  *frontend.Arenas
	Flags   map[string]string
	Macros  *MacroLibrary
	Globber GlobFS
	Reg     Registrar

	vars  map[string]frontend.Node
	stats Stats
}

// Stats counts elaborator events for diagnostics.
type Stats struct {
	GlobFailures    int
	MacroExpansions int
}

// NewContext returns a fresh per-file elaboration Context.
func NewContext(pkg query.Package, pkgDir string, arenas *frontend.Arenas, flags map[string]string, macros *MacroLibrary, globber GlobFS, reg Registrar) *Context {
	return &Context{
		Pkg: pkg, PkgDir: pkgDir, Arenas: arenas, Flags: flags,
		Macros: macros, Globber: globber, Reg: reg, vars: map[string]frontend.Node{},
	}
}

// File elaborates every top-level statement in stmts, in source order,
// returning the (possibly rewritten) statement list. Statements are
// rewritten copy-on-write: a statement containing no elaborable construct
// comes back as the exact same pointer.
func File(ctx *Context, stmts []frontend.Node) []frontend.Node {
	out := make([]frontend.Node, len(stmts))
	for i, stmt := range stmts {
		folded := ctx.fold(stmt)
		out[i] = folded

		if asn, ok := frontend.IsAssignment(folded); ok {
			ctx.bindLHS(asn.Left, asn.Right)
		}
	}
	return out
}

// bindLHS records top-level assignment targets (including tuple-unpack)
// so later statements in the same file can substitute them.
func (ctx *Context) bindLHS(lhs, rhs frontend.Node) {
	if id, ok := lhs.(*frontend.Identifier); ok {
		ctx.vars[id.Name] = rhs
		return
	}
	lt, lok := lhs.(*frontend.ListExpr)
	rt, rok := rhs.(*frontend.ListExpr)
	if lok && rok && lt.Kind == frontend.ListKindTuple && rt.Kind == frontend.ListKindTuple {
		for i := 0; i < len(lt.Elements) && i < len(rt.Elements); i++ {
			ctx.bindLHS(lt.Elements[i], rt.Elements[i])
		}
	}
}

// fold is the single recursive entry point dispatching on the Node sum
// type, replacing the visitor-class-hierarchy pattern with a plain
// type switch.
func (ctx *Context) fold(n frontend.Node) frontend.Node {
	switch v := n.(type) {
	case *frontend.Identifier:
		return ctx.foldIdentifier(v)
	case *frontend.UnaryExpr:
		return ctx.foldUnary(v)
	case *frontend.BinaryExpr:
		return ctx.foldBinary(v)
	case *frontend.IndexExpr:
		return ctx.foldIndex(v)
	case *frontend.SliceExpr:
		return ctx.foldSlice(v)
	case *frontend.ListExpr:
		return ctx.foldList(v)
	case *frontend.FuncCall:
		return ctx.foldCall(v)
	case *frontend.Ternary:
		return ctx.foldTernary(v)
	case *frontend.ListComprehension:
		return ctx.foldComprehension(v)
	default:
		return n // IntScalar, StringScalar, DefBlock are already leaves
	}
}

// foldIdentifier substitutes an identifier used as a value with the RHS of
// a prior top-level assignment, if any. Keyword names inside a call
// (the left side of `k = v`) never reach here, and an identifier with no
// prior binding (e.g. `baz = name`) is left as written.
func (ctx *Context) foldIdentifier(v *frontend.Identifier) frontend.Node {
	if val, ok := ctx.vars[v.Name]; ok {
		return val
	}
	return v
}

func (ctx *Context) foldUnary(v *frontend.UnaryExpr) frontend.Node {
	x := ctx.fold(v.X)
	switch v.Op {
	case frontend.OpSub:
		if i, ok := x.(*frontend.IntScalar); ok {
			return ctx.Arenas.NewIntScalar(-i.Value, v.Tok)
		}
	}
	if x == v.X {
		return v
	}
	return ctx.Arenas.NewUnaryExpr(v.Op, x, v.Tok)
}

func (ctx *Context) foldList(v *frontend.ListExpr) frontend.Node {
	changed := false
	elems := make([]frontend.Node, len(v.Elements))
	for i, e := range v.Elements {
		elems[i] = ctx.fold(e)
		if elems[i] != e {
			changed = true
		}
	}
	if v.Kind == frontend.ListKindMap {
		elems = dedupMapInsertionOrder(elems)
	}
	if !changed {
		return v
	}
	return ctx.Arenas.NewListExpr(v.Kind, elems, v.Tok)
}

// dedupMapInsertionOrder keeps only the last value for each literal-string
// key, preserving the key's first-occurrence position — the same rule
// `m1 | m2` uses.
func dedupMapInsertionOrder(elems []frontend.Node) []frontend.Node {
	order := []string{}
	vals := map[string]frontend.Node{}
	nonLiteral := []frontend.Node{} // keys we can't dedup by value
	for i := 0; i+1 < len(elems); i += 2 {
		k, v := elems[i], elems[i+1]
		ks, ok := frontend.StringValue(k)
		if !ok {
			nonLiteral = append(nonLiteral, k, v)
			continue
		}
		if _, seen := vals[ks]; !seen {
			order = append(order, ks)
		}
		vals[ks] = v
	}
	if len(vals) == 0 {
		return elems
	}
	out := make([]frontend.Node, 0, len(elems))
	keyNode := map[string]frontend.Node{}
	for i := 0; i+1 < len(elems); i += 2 {
		if ks, ok := frontend.StringValue(elems[i]); ok {
			keyNode[ks] = elems[i]
		}
	}
	for _, k := range order {
		out = append(out, keyNode[k], vals[k])
	}
	out = append(out, nonLiteral...)
	return out
}

func (ctx *Context) foldTernary(v *frontend.Ternary) frontend.Node {
	cond := ctx.fold(v.Cond)
	if b, ok := constBool(cond); ok {
		if b {
			return ctx.fold(v.Yes)
		}
		return ctx.fold(v.No)
	}
	yes, no := ctx.fold(v.Yes), ctx.fold(v.No)
	if cond == v.Cond && yes == v.Yes && no == v.No {
		return v
	}
	return ctx.Arenas.NewTernary(cond, yes, no, v.Tok)
}

func constBool(n frontend.Node) (bool, bool) {
	switch v := n.(type) {
	case *frontend.IntScalar:
		return v.Value != 0, true
	case *frontend.StringScalar:
		return len(v.Content) != 0, true
	case *frontend.ListExpr:
		return len(v.Elements) != 0, true
	}
	return false, false
}

func (ctx *Context) foldComprehension(v *frontend.ListComprehension) frontend.Node {
	// List comprehensions are evaluated inside-out once every clause's
	// Iter is constant; a non-constant Iter leaves the node as residual.
	// Multiple clauses produce a *nested* list per clause — a documented
	// deviation rather than flattened
	// output.
	if len(v.Clauses) == 0 {
		return v
	}
	return ctx.evalCompClauses(v, 0, nil)
}

func (ctx *Context) evalCompClauses(v *frontend.ListComprehension, ci int, bindings map[string]frontend.Node) frontend.Node {
	if ci == len(v.Clauses) {
		saved := ctx.vars
		ctx.vars = mergeVars(saved, bindings)
		body := ctx.fold(v.Body)
		ctx.vars = saved
		return body
	}
	clause := v.Clauses[ci]
	iter := ctx.fold(clause.Iter)
	list, ok := iter.(*frontend.ListExpr)
	if !ok {
		return v // residual: non-constant iterable
	}
	var results []frontend.Node
	for _, item := range list.Elements {
		b2 := mergeVars(bindings, bindOne(clause.Vars, item))
		saved := ctx.vars
		ctx.vars = mergeVars(saved, b2)
		skip := false
		for _, cond := range clause.Ifs {
			res := ctx.fold(cond)
			if bv, ok := constBool(res); ok && !bv {
				skip = true
				break
			}
		}
		ctx.vars = saved
		if skip {
			continue
		}
		results = append(results, ctx.evalCompClauses(v, ci+1, b2))
	}
	return ctx.Arenas.NewListExpr(v.Kind, results, v.Tok)
}

func bindOne(vars []frontend.Node, item frontend.Node) map[string]frontend.Node {
	out := map[string]frontend.Node{}
	if len(vars) == 1 {
		if id, ok := vars[0].(*frontend.Identifier); ok {
			out[id.Name] = item
		}
		return out
	}
	tup, ok := item.(*frontend.ListExpr)
	if !ok {
		return out
	}
	for i, vr := range vars {
		if id, ok := vr.(*frontend.Identifier); ok && i < len(tup.Elements) {
			out[id.Name] = tup.Elements[i]
		}
	}
	return out
}

func mergeVars(a, b map[string]frontend.Node) map[string]frontend.Node {
	out := make(map[string]frontend.Node, len(a)+len(b))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range b {
		out[k] = v
	}
	return out
}

// --- string helpers -------------------------------------------------

func (ctx *Context) synthString(content []byte, at *frontend.Location) *frontend.StringScalar {
	tok := ctx.Reg.RegisterSynthetic(content, at)
	return ctx.Arenas.NewStringScalar(content, false, false, tok)
}

func formatScalar(n frontend.Node) (string, bool) {
	switch v := n.(type) {
	case *frontend.StringScalar:
		return string(v.Content), true
	case *frontend.IntScalar:
		return strconv.FormatInt(v.Value, 10), true
	}
	return "", false
}

// formatString implements "fmt".format(args): positional {}, indexed {n}, named
// {k}; missing args are left symbolic (the literal `{...}` substring is
// kept verbatim).
func formatString(tmpl string, positional []frontend.Node, named map[string]frontend.Node) string {
	var b strings.Builder
	pos := 0
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end < 0 {
				b.WriteString(tmpl[i:])
				break
			}
			key := tmpl[i+1 : i+end]
			i += end + 1
			var val frontend.Node
			switch {
			case key == "":
				if pos < len(positional) {
					val = positional[pos]
					pos++
				}
			default:
				if n, err := strconv.Atoi(key); err == nil {
					if n >= 0 && n < len(positional) {
						val = positional[n]
					}
				} else if v, ok := named[key]; ok {
					val = v
				}
			}
			if val == nil {
				fmt.Fprintf(&b, "{%s}", key)
				continue
			}
			if s, ok := formatScalar(val); ok {
				b.WriteString(s)
			} else {
				fmt.Fprintf(&b, "{%s}", key)
			}
			continue
		}
		b.WriteByte(tmpl[i])
		i++
	}
	return b.String()
}

// --- binary / index / slice / call -----------------------------------

func (ctx *Context) foldBinary(v *frontend.BinaryExpr) frontend.Node {
	if v.Op == frontend.OpDot {
		left := ctx.fold(v.Left)
		if left == v.Left {
			return v
		}
		return ctx.Arenas.NewBinaryExpr(frontend.OpDot, left, v.Right, v.Tok)
	}
	if v.Op == frontend.OpAssign {
		right := ctx.fold(v.Right)
		if right == v.Right {
			return v
		}
		return ctx.Arenas.NewBinaryExpr(frontend.OpAssign, v.Left, right, v.Tok)
	}

	left := ctx.fold(v.Left)
	right := ctx.fold(v.Right)

	if folded, ok := ctx.constFoldBinary(v.Op, left, right, v.Tok); ok {
		return folded
	}
	if left == v.Left && right == v.Right {
		return v
	}
	return ctx.Arenas.NewBinaryExpr(v.Op, left, right, v.Tok)
}

func (ctx *Context) constFoldBinary(op frontend.Op, left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	switch op {
	case frontend.OpAdd:
		return ctx.foldAdd(left, right, tok)
	case frontend.OpMod:
		// "%s" % (...) is printf-style string formatting, spelled with the
		// same operator as arithmetic modulo.
		if _, ok := left.(*frontend.StringScalar); ok {
			return ctx.foldPercentFormat(left, right, tok)
		}
		fallthrough
	case frontend.OpSub, frontend.OpMul, frontend.OpDiv, frontend.OpIDiv:
		li, lok := left.(*frontend.IntScalar)
		ri, rok := right.(*frontend.IntScalar)
		if !lok || !rok {
			return nil, false
		}
		var result int64
		switch op {
		case frontend.OpSub:
			result = li.Value - ri.Value
		case frontend.OpMul:
			result = li.Value * ri.Value
		case frontend.OpDiv, frontend.OpIDiv:
			if ri.Value == 0 {
				return nil, false
			}
			result = li.Value / ri.Value
		case frontend.OpMod:
			if ri.Value == 0 {
				return nil, false
			}
			result = li.Value % ri.Value
		}
		return ctx.Arenas.NewIntScalar(result, tok), true
	case frontend.OpBitOr:
		return ctx.foldMapMerge(left, right, tok)
	case frontend.OpIn, frontend.OpNotIn:
		return ctx.foldIn(op, left, right, tok)
	case frontend.OpAnd:
		if b, ok := constBool(left); ok {
			if !b {
				return left, true
			}
			return right, true
		}
	case frontend.OpOr:
		if b, ok := constBool(left); ok {
			if b {
				return left, true
			}
			return right, true
		}
	case frontend.OpEq, frontend.OpNe, frontend.OpLt, frontend.OpLe, frontend.OpGt, frontend.OpGe:
		return ctx.foldComparison(op, left, right, tok)
	}
	return nil, false
}

func (ctx *Context) foldAdd(left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	ll, lok := left.(*frontend.ListExpr)
	rl, rok := right.(*frontend.ListExpr)
	if lok && rok && ll.Kind == rl.Kind {
		return ctx.Arenas.NewListExpr(ll.Kind, append(append([]frontend.Node{}, ll.Elements...), rl.Elements...), tok), true
	}
	if lok && !rok {
		return left, true // unknown side: return the known side
	}
	if rok && !lok {
		return right, true
	}
	ls, lsOk := frontend.StringValue(left)
	rs, rsOk := frontend.StringValue(right)
	if lsOk && rsOk {
		return ctx.synthString([]byte(ls+rs), nil), true
	}
	li, liOk := left.(*frontend.IntScalar)
	ri, riOk := right.(*frontend.IntScalar)
	if liOk && riOk {
		return ctx.Arenas.NewIntScalar(li.Value+ri.Value, tok), true
	}
	return nil, false
}

// foldMapMerge implements `m1 | m2`: right-wins, with the winning value
// kept at its first-occurrence key position.
func (ctx *Context) foldMapMerge(left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	lm, lok := left.(*frontend.ListExpr)
	rm, rok := right.(*frontend.ListExpr)
	if !lok || !rok || lm.Kind != frontend.ListKindMap || rm.Kind != frontend.ListKindMap {
		return nil, false
	}
	merged := append(append([]frontend.Node{}, lm.Elements...), rm.Elements...)
	return ctx.Arenas.NewListExpr(frontend.ListKindMap, dedupMapInsertionOrder(merged), tok), true
}

func (ctx *Context) foldComparison(op frontend.Op, left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	ls, lok := frontend.StringValue(left)
	rs, rok := frontend.StringValue(right)
	var cmp int
	switch {
	case lok && rok:
		cmp = strings.Compare(ls, rs)
	default:
		li, liok := left.(*frontend.IntScalar)
		ri, riok := right.(*frontend.IntScalar)
		if !liok || !riok {
			return nil, false
		}
		switch {
		case li.Value < ri.Value:
			cmp = -1
		case li.Value > ri.Value:
			cmp = 1
		}
	}
	var result bool
	switch op {
	case frontend.OpEq:
		result = cmp == 0
	case frontend.OpNe:
		result = cmp != 0
	case frontend.OpLt:
		result = cmp < 0
	case frontend.OpLe:
		result = cmp <= 0
	case frontend.OpGt:
		result = cmp > 0
	case frontend.OpGe:
		result = cmp >= 0
	}
	return ctx.Arenas.NewIntScalar(boolToInt(result), tok), true
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// foldIn implements `x in y` / `x not in y` over lists and strings; a
// non-const container with any non-literal element leaves a symbolic
// residual rather than guessing.
func (ctx *Context) foldIn(op frontend.Op, left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	needle, ok := frontend.StringValue(left)
	if !ok {
		if i, ok := left.(*frontend.IntScalar); ok {
			needle = strconv.FormatInt(i.Value, 10)
		} else {
			return nil, false
		}
	}
	switch v := right.(type) {
	case *frontend.StringScalar:
		found := strings.Contains(string(v.Content), needle)
		return ctx.Arenas.NewIntScalar(boolToInt(found != (op == frontend.OpNotIn)), tok), true
	case *frontend.ListExpr:
		found := false
		for _, e := range v.Elements {
			if s, ok := frontend.StringValue(e); ok && s == needle {
				found = true
				break
			}
			if !isLiteral(e) {
				return nil, false // residual: non-const element could change the answer
			}
		}
		return ctx.Arenas.NewIntScalar(boolToInt(found != (op == frontend.OpNotIn)), tok), true
	}
	return nil, false
}

func isLiteral(n frontend.Node) bool {
	switch n.(type) {
	case *frontend.StringScalar, *frontend.IntScalar:
		return true
	}
	return false
}

// foldPercentFormat implements "%" doubling as string formatting,
// `"%s" % (a, b)` / `"%s" % a`.
func (ctx *Context) foldPercentFormat(left, right frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	tmpl, ok := frontend.StringValue(left)
	if !ok {
		return nil, false
	}
	var args []frontend.Node
	if tup, ok := right.(*frontend.ListExpr); ok && tup.Kind == frontend.ListKindTuple {
		args = tup.Elements
	} else {
		args = []frontend.Node{right}
	}
	var b strings.Builder
	ai := 0
	for i := 0; i < len(tmpl); i++ {
		if tmpl[i] == '%' && i+1 < len(tmpl) && (tmpl[i+1] == 's' || tmpl[i+1] == 'd') {
			if ai >= len(args) {
				return nil, false
			}
			s, ok := formatScalar(args[ai])
			if !ok {
				return nil, false
			}
			b.WriteString(s)
			ai++
			i++
			continue
		}
		b.WriteByte(tmpl[i])
	}
	return ctx.synthString([]byte(b.String()), nil), true
}

func (ctx *Context) foldIndex(v *frontend.IndexExpr) frontend.Node {
	x := ctx.fold(v.X)
	idx := ctx.fold(v.Index)
	i, iok := idx.(*frontend.IntScalar)
	if !iok {
		if x == v.X && idx == v.Index {
			return v
		}
		return ctx.Arenas.NewIndexExpr(x, idx, v.Tok)
	}
	switch c := x.(type) {
	case *frontend.StringScalar:
		n := int64(len(c.Content))
		pos := i.Value
		if pos < 0 {
			pos += n
		}
		if pos < 0 || pos >= n {
			return ctx.synthString(nil, nil)
		}
		return ctx.synthString(c.Content[pos:pos+1], nil)
	case *frontend.ListExpr:
		n := int64(len(c.Elements))
		pos := i.Value
		if pos < 0 {
			pos += n
		}
		if pos < 0 || pos >= n {
			return v // residual: out-of-range list index
		}
		return c.Elements[pos]
	}
	if x == v.X && idx == v.Index {
		return v
	}
	return ctx.Arenas.NewIndexExpr(x, idx, v.Tok)
}

func (ctx *Context) foldSlice(v *frontend.SliceExpr) frontend.Node {
	x := ctx.fold(v.X)
	var lo, hi frontend.Node
	if v.Lo != nil {
		lo = ctx.fold(v.Lo)
	}
	if v.Hi != nil {
		hi = ctx.fold(v.Hi)
	}
	loI, loOk := asInt(lo, v.Lo == nil)
	hiI, hiOk := asInt(hi, v.Hi == nil)
	if !loOk || !hiOk {
		if x == v.X && lo == v.Lo && hi == v.Hi {
			return v
		}
		return ctx.Arenas.NewSliceExpr(x, lo, hi, v.Tok)
	}
	clamp := func(i, n int64) int64 {
		if i < 0 {
			i += n
		}
		if i < 0 {
			i = 0
		}
		if i > n {
			i = n
		}
		return i
	}
	switch c := x.(type) {
	case *frontend.StringScalar:
		n := int64(len(c.Content))
		l, h := resolveSliceBounds(loI, hiI, v.Lo == nil, v.Hi == nil, n)
		l, h = clamp(l, n), clamp(h, n)
		if h < l {
			h = l
		}
		return ctx.synthString(c.Content[l:h], nil)
	case *frontend.ListExpr:
		n := int64(len(c.Elements))
		l, h := resolveSliceBounds(loI, hiI, v.Lo == nil, v.Hi == nil, n)
		l, h = clamp(l, n), clamp(h, n)
		if h < l {
			h = l
		}
		return ctx.Arenas.NewListExpr(c.Kind, append([]frontend.Node{}, c.Elements[l:h]...), v.Tok)
	}
	return v
}

func asInt(n frontend.Node, missingOK bool) (int64, bool) {
	if n == nil {
		return 0, missingOK
	}
	i, ok := n.(*frontend.IntScalar)
	if !ok {
		return 0, false
	}
	return i.Value, true
}

func resolveSliceBounds(lo, hi int64, loMissing, hiMissing bool, n int64) (int64, int64) {
	if loMissing {
		lo = 0
	}
	if hiMissing {
		hi = n
	}
	return lo, hi
}

// foldCall dispatches a call expression: builtins (len, select, glob),
// string/list/map methods (`.format`, `.join`, `.split`, `.rsplit`,
// `.get`, `.keys`, `.values`, `.items`), and user-macro expansion. Any
// call that doesn't resolve to one of these is left as residual AST —
// the elaborator is not a general interpreter.
func (ctx *Context) foldCall(v *frontend.FuncCall) frontend.Node {
	args := make([]frontend.Node, len(v.Args))
	changed := false
	for i, a := range v.Args {
		args[i] = ctx.fold(a)
		if args[i] != a {
			changed = true
		}
	}

	if bin, ok := v.Fn.(*frontend.BinaryExpr); ok && bin.Op == frontend.OpDot {
		recv := ctx.fold(bin.Left)
		if recv != bin.Left {
			changed = true
		}
		member, ok := bin.Right.(*frontend.Identifier)
		if ok {
			if folded, ok := ctx.foldMethodCall(recv, member.Name, args, v.Tok); ok {
				return folded
			}
		}
		if !changed {
			return v
		}
		fn := ctx.Arenas.NewBinaryExpr(frontend.OpDot, recv, bin.Right, bin.Tok)
		return ctx.Arenas.NewFuncCall(fn, args, v.Tok)
	}

	if id, ok := v.Fn.(*frontend.Identifier); ok {
		if folded, ok := ctx.foldBuiltinCall(id.Name, args, v.Tok); ok {
			return folded
		}
		if ctx.Macros != nil {
			if expanded, ok := ctx.Macros.Expand(ctx.Arenas, id.Name, frontend.Kwargs(&frontend.FuncCall{Args: args}), v.Tok); ok {
				ctx.stats.MacroExpansions++
				if len(expanded) == 1 {
					return expanded[0]
				}
				return ctx.Arenas.NewListExpr(frontend.ListKindTuple, expanded, v.Tok)
			}
		}
	}

	if !changed {
		return v
	}
	return ctx.Arenas.NewFuncCall(v.Fn, args, v.Tok)
}

func (ctx *Context) foldBuiltinCall(name string, args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	switch name {
	case "len":
		if len(args) != 1 {
			return nil, false
		}
		switch c := args[0].(type) {
		case *frontend.StringScalar:
			return ctx.Arenas.NewIntScalar(int64(len(c.Content)), tok), true
		case *frontend.ListExpr:
			return ctx.Arenas.NewIntScalar(int64(len(c.Elements)), tok), true
		}
		return nil, false
	case "select":
		return ctx.foldSelect(args, tok)
	case "glob":
		return ctx.foldGlob(args, tok)
	}
	return nil, false
}

// foldSelect implements `select({cond: value, ...}, no_match_error=...)`
// against ctx.Flags: the raw flag-set only, with no config_setting
// evaluation.
func (ctx *Context) foldSelect(args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	if len(args) == 0 {
		return nil, false
	}
	dict, ok := args[0].(*frontend.ListExpr)
	if !ok || dict.Kind != frontend.ListKindMap {
		return nil, false
	}
	var fallback frontend.Node
	for i := 0; i+1 < len(dict.Elements); i += 2 {
		k, val := dict.Elements[i], dict.Elements[i+1]
		ks, ok := frontend.StringValue(k)
		if !ok {
			return nil, false // a non-literal key could be the one that matches
		}
		if ks == "//conditions:default" {
			fallback = val
			continue
		}
		if _, ok := ctx.Flags[ks]; ok {
			return val, true
		}
	}
	if fallback != nil {
		return fallback, true
	}
	return nil, false
}

// foldGlob implements `glob(include=[...], exclude=[...])`: patterns
// compiled `**` -> any depth, `*` -> one path segment, matched against a
// single walk of the package directory.
func (ctx *Context) foldGlob(args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	kw := frontend.Kwargs(&frontend.FuncCall{Args: args})
	pos := frontend.PositionalArgs(&frontend.FuncCall{Args: args})

	var includePatterns, excludePatterns []string
	if n, ok := kw["include"]; ok {
		includePatterns, _ = frontend.StringListValue(n)
	} else if len(pos) > 0 {
		includePatterns, _ = frontend.StringListValue(pos[0])
	}
	if n, ok := kw["exclude"]; ok {
		excludePatterns, _ = frontend.StringListValue(n)
	}
	if includePatterns == nil || ctx.Globber == nil {
		ctx.stats.GlobFailures++
		return nil, false
	}

	matcher, err := compileGlobSet(includePatterns, excludePatterns)
	if err != nil {
		ctx.stats.GlobFailures++
		return ctx.Arenas.NewListExpr(frontend.ListKindList, nil, tok), true
	}

	var matches []string
	walkErr := ctx.Globber.Walk(ctx.PkgDir, func(relPath string) {
		if matcher.Match(relPath) {
			matches = append(matches, relPath)
		}
	})
	if walkErr != nil {
		ctx.stats.GlobFailures++
		return ctx.Arenas.NewListExpr(frontend.ListKindList, nil, tok), true
	}

	sort.Strings(matches)
	elems := make([]frontend.Node, len(matches))
	for i, m := range matches {
		elems[i] = ctx.synthString([]byte(m), nil)
	}
	return ctx.Arenas.NewListExpr(frontend.ListKindList, elems, tok), true
}

// foldMethodCall implements string/list/map method calls on an already-
// folded receiver.
func (ctx *Context) foldMethodCall(recv frontend.Node, method string, args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	switch r := recv.(type) {
	case *frontend.StringScalar:
		return ctx.foldStringMethod(r, method, args, tok)
	case *frontend.ListExpr:
		if r.Kind == frontend.ListKindMap {
			return ctx.foldMapMethod(r, method, args, tok)
		}
	}
	return nil, false
}

func (ctx *Context) foldStringMethod(s *frontend.StringScalar, method string, args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	switch method {
	case "format":
		positional := frontend.PositionalArgs(&frontend.FuncCall{Args: args})
		named := frontend.Kwargs(&frontend.FuncCall{Args: args})
		return ctx.synthString([]byte(formatString(string(s.Content), positional, named)), nil), true
	case "join":
		if len(args) != 1 {
			return nil, false
		}
		parts, ok := frontend.StringListValue(args[0])
		if !ok {
			return nil, false
		}
		return ctx.synthString([]byte(strings.Join(parts, string(s.Content))), nil), true
	case "split", "rsplit":
		sep := " "
		n := -1
		if len(args) > 0 {
			sv, ok := frontend.StringValue(args[0])
			if !ok {
				return nil, false
			}
			sep = sv
		}
		if len(args) > 1 {
			iv, ok := args[1].(*frontend.IntScalar)
			if !ok {
				return nil, false
			}
			n = int(iv.Value)
		}
		var parts []string
		if n < 0 {
			parts = strings.Split(string(s.Content), sep)
		} else if method == "split" {
			parts = strings.SplitN(string(s.Content), sep, n+1)
		} else {
			parts = rsplitN(string(s.Content), sep, n+1)
		}
		elems := make([]frontend.Node, len(parts))
		for i, p := range parts {
			elems[i] = ctx.synthString([]byte(p), nil)
		}
		return ctx.Arenas.NewListExpr(frontend.ListKindList, elems, tok), true
	case "strip", "lstrip", "rstrip":
		cutset := " \t\r\n"
		if len(args) > 0 {
			if cv, ok := frontend.StringValue(args[0]); ok {
				cutset = cv
			}
		}
		var out string
		switch method {
		case "strip":
			out = strings.Trim(string(s.Content), cutset)
		case "lstrip":
			out = strings.TrimLeft(string(s.Content), cutset)
		case "rstrip":
			out = strings.TrimRight(string(s.Content), cutset)
		}
		return ctx.synthString([]byte(out), nil), true
	case "startswith":
		if len(args) != 1 {
			return nil, false
		}
		prefix, ok := frontend.StringValue(args[0])
		if !ok {
			return nil, false
		}
		return ctx.Arenas.NewIntScalar(boolToInt(strings.HasPrefix(string(s.Content), prefix)), tok), true
	case "endswith":
		if len(args) != 1 {
			return nil, false
		}
		suffix, ok := frontend.StringValue(args[0])
		if !ok {
			return nil, false
		}
		return ctx.Arenas.NewIntScalar(boolToInt(strings.HasSuffix(string(s.Content), suffix)), tok), true
	}
	return nil, false
}

// rsplitN splits s on sep from the right into at most n parts (Python's
// str.rsplit(sep, n-1)); n <= 0 means no limit.
func rsplitN(s, sep string, n int) []string {
	all := strings.Split(s, sep)
	if n <= 0 || len(all) <= n {
		return all
	}
	head := strings.Join(all[:len(all)-n+1], sep)
	return append([]string{head}, all[len(all)-n+1:]...)
}

func (ctx *Context) foldMapMethod(m *frontend.ListExpr, method string, args []frontend.Node, tok frontend.Token) (frontend.Node, bool) {
	pairs := m.Elements
	switch method {
	case "get":
		if len(args) == 0 {
			return nil, false
		}
		key, ok := frontend.StringValue(args[0])
		if !ok {
			return nil, false
		}
		for i := 0; i+1 < len(pairs); i += 2 {
			if k, ok := frontend.StringValue(pairs[i]); ok && k == key {
				return pairs[i+1], true
			}
		}
		if len(args) > 1 {
			return args[1], true
		}
		return ctx.synthString(nil, nil), true
	case "keys":
		var keys []frontend.Node
		for i := 0; i+1 < len(pairs); i += 2 {
			keys = append(keys, pairs[i])
		}
		return ctx.Arenas.NewListExpr(frontend.ListKindList, keys, tok), true
	case "values":
		var vals []frontend.Node
		for i := 0; i+1 < len(pairs); i += 2 {
			vals = append(vals, pairs[i+1])
		}
		return ctx.Arenas.NewListExpr(frontend.ListKindList, vals, tok), true
	case "items":
		var items []frontend.Node
		for i := 0; i+1 < len(pairs); i += 2 {
			items = append(items, ctx.Arenas.NewListExpr(frontend.ListKindTuple, []frontend.Node{pairs[i], pairs[i+1]}, tok))
		}
		return ctx.Arenas.NewListExpr(frontend.ListKindList, items, tok), true
	}
	return nil, false
}
