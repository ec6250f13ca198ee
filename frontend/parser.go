package frontend

// Parser is a Pratt-style recursive-descent parser over the
// starlark-subset BUILD-file grammar. Parse errors are
// collected, not fatal: on failure, Parser skips to what looks like the
// next top-level statement and keeps going, so ParseFile always returns
// its best-effort partial statement list.
type Parser struct {
	arenas *Arenas
	src    *NamedSource
	scan   *Scanner
	tok    Token
	errs   Errors
}

// NewParser returns a Parser over src, allocating nodes from arenas.
func NewParser(src *NamedSource, arenas *Arenas) *Parser {
	p := &Parser{arenas: arenas, src: src, scan: NewScanner(src)}
	p.advance()
	return p
}

func (p *Parser) advance() {
	p.tok = p.scan.Next()
}

func (p *Parser) loc(tok Token) *Location {
	row, col := p.src.RowCol(tok.Offset)
	return NewLocation(tok.Text, p.src.Name, row, col)
}

func (p *Parser) errorf(tok Token, format string, args ...interface{}) {
	p.errs = append(p.errs, NewError(ParseErr, p.loc(tok), format, args...))
}

// ParseFile parses every top-level statement in src, returning the
// best-effort list and any collected diagnostics (scanner + parser).
func ParseFile(src *NamedSource, arenas *Arenas) ([]Node, Errors) {
	p := NewParser(src, arenas)
	var stmts []Node
	for p.tok.Kind != KindEOF {
		start := p.tok
		n, ok := p.parseTopLevelStatement()
		if ok {
			stmts = append(stmts, n)
			continue
		}
		// Resume at the next top-level statement: skip tokens until we
		// cross a newline (or hit EOF), so one bad statement doesn't
		// poison the rest of the file.
		if p.tok.Offset == start.Offset && p.tok.Kind != KindEOF {
			p.advance()
		}
		for p.tok.Kind != KindEOF && !p.tok.NewlineBefore {
			p.advance()
		}
	}
	errs := append(Errors{}, p.scan.Errors()...)
	errs = append(errs, p.errs...)
	return stmts, errs
}

// parseTopLevelStatement parses one of: assignment (incl. tuple-unpack),
// bare call, bare string (docstring), bare list, or a skipped def block.
func (p *Parser) parseTopLevelStatement() (Node, bool) {
	if p.tok.Kind == KindDefBlock {
		tok := p.tok
		n := p.arenas.NewDefBlock(tok.Text, tok)
		p.advance()
		return n, true
	}

	lhs, ok := p.parseExprList()
	if !ok {
		return nil, false
	}
	if p.tok.Kind == '=' {
		eqTok := p.tok
		p.advance()
		rhs, ok := p.parseExprList()
		if !ok {
			p.errorf(eqTok, "expected expression after '='")
			return nil, false
		}
		return p.arenas.NewBinaryExpr(OpAssign, lhs, rhs, eqTok), true
	}
	return lhs, true
}

// parseExprList parses a comma-separated list of expressions at statement
// level (used for bare tuples and for both sides of an assignment). A
// single expression with no trailing comma is returned unwrapped.
func (p *Parser) parseExprList() (Node, bool) {
	first, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind != ',' {
		return first, true
	}
	tok := p.tok
	elems := []Node{first}
	for p.tok.Kind == ',' {
		p.advance()
		if p.tok.Kind == KindEOF || p.tok.Kind == '=' {
			break
		}
		n, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, n)
	}
	return p.arenas.NewListExpr(ListKindTuple, elems, tok), true
}

// parseExpr is the full expression grammar entry point: ternary, which in
// turn chains down through or/and/comparisons/... to atoms.
func (p *Parser) parseExpr() (Node, bool) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (Node, bool) {
	yes, ok := p.parseOr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind == KindIf {
		tok := p.tok
		p.advance()
		cond, ok := p.parseOr()
		if !ok {
			p.errorf(tok, "expected condition after 'if'")
			return nil, false
		}
		if p.tok.Kind != KindElse {
			p.errorf(p.tok, "expected 'else' in conditional expression")
			return nil, false
		}
		p.advance()
		no, ok := p.parseTernary()
		if !ok {
			return nil, false
		}
		return p.arenas.NewTernary(cond, yes, no, tok), true
	}
	return yes, true
}

func (p *Parser) parseOr() (Node, bool) {
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == KindOr {
		tok := p.tok
		p.advance()
		right, ok := p.parseAnd()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(OpOr, left, right, tok)
	}
	return left, true
}

func (p *Parser) parseAnd() (Node, bool) {
	left, ok := p.parseComparison()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == KindAnd {
		tok := p.tok
		p.advance()
		right, ok := p.parseComparison()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(OpAnd, left, right, tok)
	}
	return left, true
}

var comparisonOps = map[Kind]Op{
	'<': OpLt, KindLe: OpLe, KindEq: OpEq, KindGe: OpGe, '>': OpGt, KindNe: OpNe,
	KindIn: OpIn, KindNotIn: OpNotIn,
}

func (p *Parser) parseComparison() (Node, bool) {
	left, ok := p.parseBitOr()
	if !ok {
		return nil, false
	}
	for {
		op, isCmp := comparisonOps[p.tok.Kind]
		if !isCmp {
			return left, true
		}
		tok := p.tok
		p.advance()
		right, ok := p.parseBitOr()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(op, left, right, tok)
	}
}

func (p *Parser) parseBitOr() (Node, bool) {
	left, ok := p.parseShift()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == '|' {
		tok := p.tok
		p.advance()
		right, ok := p.parseShift()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(OpBitOr, left, right, tok)
	}
	return left, true
}

func (p *Parser) parseShift() (Node, bool) {
	left, ok := p.parseAddSub()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == KindShl || p.tok.Kind == KindShr {
		op := OpShl
		if p.tok.Kind == KindShr {
			op = OpShr
		}
		tok := p.tok
		p.advance()
		right, ok := p.parseAddSub()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(op, left, right, tok)
	}
	return left, true
}

func (p *Parser) parseAddSub() (Node, bool) {
	left, ok := p.parseMulDiv()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == '+' || p.tok.Kind == '-' {
		op := OpAdd
		if p.tok.Kind == '-' {
			op = OpSub
		}
		tok := p.tok
		p.advance()
		right, ok := p.parseMulDiv()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(op, left, right, tok)
	}
	return left, true
}

func (p *Parser) parseMulDiv() (Node, bool) {
	left, ok := p.parseUnary()
	if !ok {
		return nil, false
	}
	for p.tok.Kind == '*' || p.tok.Kind == '/' || p.tok.Kind == KindIDiv || p.tok.Kind == '%' {
		var op Op
		switch p.tok.Kind {
		case '*':
			op = OpMul
		case '/':
			op = OpDiv
		case KindIDiv:
			op = OpIDiv
		case '%':
			op = OpMod
		}
		tok := p.tok
		p.advance()
		right, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		left = p.arenas.NewBinaryExpr(op, left, right, tok)
	}
	return left, true
}

func (p *Parser) parseUnary() (Node, bool) {
	if p.tok.Kind == '-' {
		tok := p.tok
		p.advance()
		x, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return p.arenas.NewUnaryExpr(OpSub, x, tok), true
	}
	if p.tok.Kind == KindNot {
		tok := p.tok
		p.advance()
		x, ok := p.parseUnary()
		if !ok {
			return nil, false
		}
		return p.arenas.NewUnaryExpr(OpNot, x, tok), true
	}
	return p.parsePostfix()
}

// parsePostfix parses an atom followed by any chain of `.member`, `[idx]`,
// `[lo:hi]`, `(args)`. The chain does not continue across a line break —
// this is a preserved, not fixed, quirk.
func (p *Parser) parsePostfix() (Node, bool) {
	x, ok := p.parseAtom()
	if !ok {
		return nil, false
	}
	for {
		if p.tok.NewlineBefore {
			return x, true
		}
		switch p.tok.Kind {
		case '.':
			tok := p.tok
			p.advance()
			if p.tok.Kind != KindIdent {
				p.errorf(p.tok, "expected identifier after '.'")
				return nil, false
			}
			member := p.arenas.NewIdentifier(p.tok)
			p.advance()
			x = p.arenas.NewBinaryExpr(OpDot, x, member, tok)
		case '(':
			tok := p.tok
			args, ok := p.parseArgs()
			if !ok {
				return nil, false
			}
			x = p.arenas.NewFuncCall(x, args, tok)
		case '[':
			n, ok := p.parseIndexOrSlice(x)
			if !ok {
				return nil, false
			}
			x = n
		default:
			return x, true
		}
	}
}

func (p *Parser) parseArgs() ([]Node, bool) {
	open := p.tok // '('
	p.advance()
	var args []Node
	for p.tok.Kind != ')' {
		if p.tok.Kind == KindEOF {
			p.errorf(open, "unterminated argument list")
			return nil, false
		}
		// keyword argument: ident '=' expr. Peek past the identifier by
		// snapshotting the scanner; if it isn't followed by '=', rewind
		// and fall through to ordinary expression parsing so `foo` and
		// `foo.bar` remain valid positional arguments too.
		if p.tok.Kind == KindIdent {
			savedScan := *p.scan
			savedTok := p.tok
			ident := p.arenas.NewIdentifier(p.tok)
			p.advance()
			if p.tok.Kind == '=' {
				eq := p.tok
				p.advance()
				val, ok := p.parseExpr()
				if !ok {
					return nil, false
				}
				args = append(args, p.arenas.NewBinaryExpr(OpAssign, ident, val, eq))
				if p.tok.Kind == ',' {
					p.advance()
				}
				continue
			}
			*p.scan = savedScan
			p.tok = savedTok
		}
		val, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, val)
		if p.tok.Kind == ',' {
			p.advance()
		}
	}
	p.advance() // consume ')'
	return args, true
}

func (p *Parser) parseIndexOrSlice(x Node) (Node, bool) {
	tok := p.tok // '['
	p.advance()
	var lo Node
	if p.tok.Kind != ':' {
		var ok bool
		lo, ok = p.parseExpr()
		if !ok {
			return nil, false
		}
	}
	if p.tok.Kind == ':' {
		p.advance()
		var hi Node
		if p.tok.Kind != ']' {
			var ok bool
			hi, ok = p.parseExpr()
			if !ok {
				return nil, false
			}
		}
		if p.tok.Kind != ']' {
			p.errorf(p.tok, "expected ']' to close slice")
			return nil, false
		}
		p.advance()
		return p.arenas.NewSliceExpr(x, lo, hi, tok), true
	}
	if p.tok.Kind != ']' {
		p.errorf(p.tok, "expected ']' to close index")
		return nil, false
	}
	p.advance()
	return p.arenas.NewIndexExpr(x, lo, tok), true
}

// parseAtom parses literals, identifiers, parenthesized expr/tuple,
// list/tuple/map literals (plain or comprehensions).
func (p *Parser) parseAtom() (Node, bool) {
	tok := p.tok
	switch tok.Kind {
	case KindIdent:
		p.advance()
		return p.arenas.NewIdentifier(tok), true
	case KindInt:
		v, err := ParseIntLiteral(tok.Text)
		if err != nil {
			p.errorf(tok, "invalid integer literal %q", string(tok.Text))
			p.advance()
			return nil, false
		}
		p.advance()
		return p.arenas.NewIntScalar(v, tok), true
	case KindString:
		p.advance()
		content := stringContent(tok)
		return p.arenas.NewStringScalar(content, tok.IsRaw, tok.IsTriple, tok), true
	case '(':
		return p.parseParenOrTuple()
	case '[':
		return p.parseListLiteral()
	case '{':
		return p.parseMapLiteral()
	default:
		p.errorf(tok, "unexpected token %q", tok.Kind.String())
		return nil, false
	}
}

// stringContent strips quote delimiters (and the r/R prefix) from a
// scanned string token, returning the payload sub-slice in place — it
// remains a view into the same backing blob so the source locator can
// still place it.
func stringContent(tok Token) []byte {
	text := tok.Text
	if tok.IsRaw {
		text = text[1:]
	}
	n := 1
	if tok.IsTriple {
		n = 3
	}
	if len(text) >= 2*n {
		return text[n : len(text)-n]
	}
	return text
}

func (p *Parser) parseParenOrTuple() (Node, bool) {
	open := p.tok
	p.advance()
	if p.tok.Kind == ')' {
		p.advance()
		return p.arenas.NewListExpr(ListKindTuple, nil, open), true
	}
	first, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind == KindFor {
		return p.parseComprehensionTail(ListKindList, first, open, ')')
	}
	if p.tok.Kind != ',' {
		if p.tok.Kind != ')' {
			p.errorf(p.tok, "expected ')'")
			return nil, false
		}
		p.advance()
		return first, true
	}
	elems := []Node{first}
	for p.tok.Kind == ',' {
		p.advance()
		if p.tok.Kind == ')' {
			break
		}
		n, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, n)
	}
	if p.tok.Kind != ')' {
		p.errorf(p.tok, "expected ')'")
		return nil, false
	}
	p.advance()
	return p.arenas.NewListExpr(ListKindTuple, elems, open), true
}

func (p *Parser) parseListLiteral() (Node, bool) {
	open := p.tok
	p.advance()
	if p.tok.Kind == ']' {
		p.advance()
		return p.arenas.NewListExpr(ListKindList, nil, open), true
	}
	first, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind == KindFor {
		return p.parseComprehensionTail(ListKindList, first, open, ']')
	}
	elems := []Node{first}
	for p.tok.Kind == ',' {
		p.advance()
		if p.tok.Kind == ']' {
			break
		}
		n, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, n)
	}
	if p.tok.Kind != ']' {
		p.errorf(p.tok, "expected ']'")
		return nil, false
	}
	p.advance()
	return p.arenas.NewListExpr(ListKindList, elems, open), true
}

func (p *Parser) parseMapLiteral() (Node, bool) {
	open := p.tok
	p.advance()
	if p.tok.Kind == '}' {
		p.advance()
		return p.arenas.NewListExpr(ListKindMap, nil, open), true
	}
	firstKey, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind != ':' {
		p.errorf(p.tok, "expected ':' in map literal")
		return nil, false
	}
	p.advance()
	firstVal, ok := p.parseExpr()
	if !ok {
		return nil, false
	}
	if p.tok.Kind == KindFor {
		pair := p.arenas.NewListExpr(ListKindTuple, []Node{firstKey, firstVal}, open)
		return p.parseComprehensionTail(ListKindMap, pair, open, '}')
	}
	elems := []Node{firstKey, firstVal}
	for p.tok.Kind == ',' {
		p.advance()
		if p.tok.Kind == '}' {
			break
		}
		k, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if p.tok.Kind != ':' {
			p.errorf(p.tok, "expected ':' in map literal")
			return nil, false
		}
		p.advance()
		v, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		elems = append(elems, k, v)
	}
	if p.tok.Kind != '}' {
		p.errorf(p.tok, "expected '}'")
		return nil, false
	}
	p.advance()
	return p.arenas.NewListExpr(ListKindMap, elems, open), true
}

// parseComprehensionTail parses the `for x in y [if c]* [for ...]*` clauses
// following a comprehension's body expression. Multiple `for` clauses are
// represented as multiple CompClauses — the documented nested-list
// evaluation deviation lives in the elaborator, not here.
func (p *Parser) parseComprehensionTail(kind ListKind, body Node, tok Token, closer Kind) (Node, bool) {
	var clauses []CompClause
	for p.tok.Kind == KindFor {
		p.advance()
		vars, ok := p.parseCompTargets()
		if !ok {
			return nil, false
		}
		if p.tok.Kind != KindIn {
			p.errorf(p.tok, "expected 'in' in comprehension")
			return nil, false
		}
		p.advance()
		iter, ok := p.parseOr()
		if !ok {
			return nil, false
		}
		var ifs []Node
		for p.tok.Kind == KindIf {
			p.advance()
			c, ok := p.parseOr()
			if !ok {
				return nil, false
			}
			ifs = append(ifs, c)
		}
		clauses = append(clauses, CompClause{Vars: vars, Iter: iter, Ifs: ifs})
	}
	if p.tok.Kind != closer {
		p.errorf(p.tok, "expected %q to close comprehension", closer.String())
		return nil, false
	}
	p.advance()
	return p.arenas.NewListComprehension(kind, body, clauses, tok), true
}

func (p *Parser) parseCompTargets() ([]Node, bool) {
	first, ok := p.parseAtom()
	if !ok {
		return nil, false
	}
	vars := []Node{first}
	for p.tok.Kind == ',' {
		p.advance()
		n, ok := p.parseAtom()
		if !ok {
			return nil, false
		}
		vars = append(vars, n)
	}
	return vars, true
}
