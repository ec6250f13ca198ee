package frontend

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a Node back to source text. It is deliberately minimal —
// just enough that parse(Print(ast)) re-produces an equal AST for any
// parser-produced ast — not a
// style-preserving formatter. String literals are always written with
// double quotes, so a single-quoted literal whose text holds a bare `"`
// re-parses with that quote escaped in its Content.
func Print(n Node) string {
	var b strings.Builder
	printNode(&b, n)
	return b.String()
}

func printNode(b *strings.Builder, n Node) {
	switch v := n.(type) {
	case nil:
		return
	case *Identifier:
		b.WriteString(v.Name)
	case *IntScalar:
		b.WriteString(strconv.FormatInt(v.Value, 10))
	case *StringScalar:
		quote := `"`
		if v.IsTripleQuoted {
			quote = `"""`
		}
		if v.IsRaw {
			b.WriteByte('r')
		}
		b.WriteString(quote)
		if v.IsRaw || v.IsTripleQuoted {
			b.Write(v.Content)
		} else {
			b.Write(escapeString(v.Content))
		}
		b.WriteString(quote)
	case *ListExpr:
		printListExpr(b, v)
	case *UnaryExpr:
		switch v.Op {
		case OpNot:
			b.WriteString("not ")
		default:
			b.WriteString(v.Op.String())
		}
		printNode(b, v.X)
	case *BinaryExpr:
		if v.Op == OpDot {
			printNode(b, v.Left)
			b.WriteByte('.')
			printNode(b, v.Right)
			return
		}
		printNode(b, v.Left)
		if v.Op == OpAssign {
			b.WriteString(" = ")
		} else {
			fmt.Fprintf(b, " %s ", v.Op.String())
		}
		printNode(b, v.Right)
	case *IndexExpr:
		printNode(b, v.X)
		b.WriteByte('[')
		printNode(b, v.Index)
		b.WriteByte(']')
	case *SliceExpr:
		printNode(b, v.X)
		b.WriteByte('[')
		printNode(b, v.Lo)
		b.WriteByte(':')
		printNode(b, v.Hi)
		b.WriteByte(']')
	case *FuncCall:
		printNode(b, v.Fn)
		b.WriteByte('(')
		for i, a := range v.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, a)
		}
		b.WriteByte(')')
	case *ListComprehension:
		printComprehension(b, v)
	case *Ternary:
		printNode(b, v.Yes)
		b.WriteString(" if ")
		printNode(b, v.Cond)
		b.WriteString(" else ")
		printNode(b, v.No)
	case *DefBlock:
		b.Write(v.Raw)
	default:
		b.WriteString(fmt.Sprintf("<?%T>", v))
	}
}

func printListExpr(b *strings.Builder, v *ListExpr) {
	open, close := "[", "]"
	switch v.Kind {
	case ListKindTuple:
		open, close = "(", ")"
	case ListKindMap:
		open, close = "{", "}"
	}
	b.WriteString(open)
	if v.Kind == ListKindMap {
		for i := 0; i+1 < len(v.Elements); i += 2 {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, v.Elements[i])
			b.WriteByte(':')
			printNode(b, v.Elements[i+1])
		}
	} else {
		for i, e := range v.Elements {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, e)
		}
		if v.Kind == ListKindTuple && len(v.Elements) == 1 {
			b.WriteByte(',')
		}
	}
	b.WriteString(close)
}

func printComprehension(b *strings.Builder, v *ListComprehension) {
	open, close := "[", "]"
	switch v.Kind {
	case ListKindMap:
		open, close = "{", "}"
	}
	b.WriteString(open)
	printNode(b, v.Body)
	for _, c := range v.Clauses {
		b.WriteString(" for ")
		for i, vr := range c.Vars {
			if i > 0 {
				b.WriteString(", ")
			}
			printNode(b, vr)
		}
		b.WriteString(" in ")
		printNode(b, c.Iter)
		for _, cond := range c.Ifs {
			b.WriteString(" if ")
			printNode(b, cond)
		}
	}
	b.WriteString(close)
}

// escapeString prepares Content for a double-quoted literal. Content keeps
// the source's escape sequences as written, so a backslash and the byte
// after it are copied unchanged; only a bare '"' is escaped.
func escapeString(content []byte) []byte {
	out := make([]byte, 0, len(content))
	for i := 0; i < len(content); i++ {
		c := content[i]
		switch {
		case c == '\\' && i+1 < len(content):
			out = append(out, c, content[i+1])
			i++
		case c == '"':
			out = append(out, '\\', '"')
		default:
			out = append(out, c)
		}
	}
	return out
}
