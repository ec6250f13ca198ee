package frontend

import (
	"strconv"
)

// Scanner turns a NamedSource into a stream of Tokens whose Text is always
// a sub-slice of the source blob. It is not safe for
// concurrent use; each ParsedFile owns one.
type Scanner struct {
	src  *NamedSource
	pos  int
	errs Errors

	pendingNewline bool
}

// NewScanner returns a Scanner positioned at the start of src.
func NewScanner(src *NamedSource) *Scanner {
	return &Scanner{src: src}
}

func (s *Scanner) Errors() Errors { return s.errs }

func (s *Scanner) byteAt(i int) byte {
	if i < 0 || i >= len(s.src.Content) {
		return 0
	}
	return s.src.Content[i]
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// skipWhitespaceAndComments advances past spaces, tabs, CRs, comments, and
// records whether a newline was crossed so the parser can stop `x[...]`
// chains across a line break.
func (s *Scanner) skipWhitespaceAndComments() {
	for s.pos < len(s.src.Content) {
		b := s.src.Content[s.pos]
		switch {
		case b == '\n':
			s.pendingNewline = true
			s.pos++
		case b == ' ' || b == '\t' || b == '\r':
			s.pos++
		case b == '#':
			for s.pos < len(s.src.Content) && s.src.Content[s.pos] != '\n' {
				s.pos++
			}
		default:
			return
		}
	}
}

// Next scans and returns the next token.
func (s *Scanner) Next() Token {
	s.skipWhitespaceAndComments()
	newline := s.pendingNewline
	s.pendingNewline = false

	if s.pos >= len(s.src.Content) {
		return Token{Kind: KindEOF, Offset: s.pos, NewlineBefore: newline}
	}

	start := s.pos
	b := s.src.Content[s.pos]

	switch {
	case isIdentStart(b):
		return s.scanIdentOrStringPrefix(start, newline)
	case isDigit(b):
		return s.scanNumber(start, newline)
	case b == '"' || b == '\'':
		return s.scanString(start, newline, false)
	default:
		return s.scanPunct(start, newline)
	}
}

func (s *Scanner) scanIdentOrStringPrefix(start int, newline bool) Token {
	// r"..." / R"..." raw-string prefix.
	if (s.src.Content[start] == 'r' || s.src.Content[start] == 'R') &&
		start+1 < len(s.src.Content) &&
		(s.src.Content[start+1] == '"' || s.src.Content[start+1] == '\'') {
		s.pos = start + 1
		return s.scanString(start, newline, true)
	}

	s.pos = start
	for s.pos < len(s.src.Content) && isIdentCont(s.src.Content[s.pos]) {
		s.pos++
	}
	text := s.src.Content[start:s.pos]
	word := string(text)

	if word == "def" {
		return s.scanDefBlock(start, newline)
	}
	if word == "not" {
		save := s.pos
		savedPending := s.pendingNewline
		s.skipWhitespaceAndComments()
		if s.matchWord("in") {
			return Token{Kind: KindNotIn, Text: s.src.Content[start:s.pos], Offset: start, NewlineBefore: newline}
		}
		s.pos = save
		s.pendingNewline = savedPending
		return Token{Kind: KindNot, Text: text, Offset: start, NewlineBefore: newline}
	}
	if kind, ok := keywords[word]; ok {
		return Token{Kind: kind, Text: text, Offset: start, NewlineBefore: newline}
	}
	return Token{Kind: KindIdent, Text: text, Offset: start, NewlineBefore: newline}
}

// matchWord consumes word at the current position if present as a whole
// identifier, returning true and advancing past it on success.
func (s *Scanner) matchWord(word string) bool {
	end := s.pos + len(word)
	if end > len(s.src.Content) || string(s.src.Content[s.pos:end]) != word {
		return false
	}
	if end < len(s.src.Content) && isIdentCont(s.src.Content[end]) {
		return false
	}
	s.pos = end
	return true
}

func (s *Scanner) scanNumber(start int, newline bool) Token {
	s.pos = start
	if s.byteAt(s.pos) == '0' && (s.byteAt(s.pos+1) == 'x' || s.byteAt(s.pos+1) == 'X') {
		s.pos += 2
		for isHex(s.byteAt(s.pos)) {
			s.pos++
		}
	} else if s.byteAt(s.pos) == '0' && (s.byteAt(s.pos+1) == 'o' || s.byteAt(s.pos+1) == 'O') {
		s.pos += 2
		for s.byteAt(s.pos) >= '0' && s.byteAt(s.pos) <= '7' {
			s.pos++
		}
	} else {
		for isDigit(s.byteAt(s.pos)) {
			s.pos++
		}
	}
	// Trailing identifier characters after a number are scanned into the
	// same token as an "invalid identifier/number"; the parser rejects it
	// downstream.
	for isIdentCont(s.byteAt(s.pos)) || s.byteAt(s.pos) == '.' {
		s.pos++
	}
	text := s.src.Content[start:s.pos]
	return Token{Kind: KindInt, Text: text, Offset: start, NewlineBefore: newline}
}

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

// ParseIntLiteral converts scanned integer text (decimal/octal 0o/hex 0x)
// into an int64, mirroring the elaborator's integer arithmetic needs.
func ParseIntLiteral(text []byte) (int64, error) {
	s := string(text)
	switch {
	case len(s) > 2 && (s[0:2] == "0x" || s[0:2] == "0X"):
		return strconv.ParseInt(s[2:], 16, 64)
	case len(s) > 2 && (s[0:2] == "0o" || s[0:2] == "0O"):
		return strconv.ParseInt(s[2:], 8, 64)
	default:
		return strconv.ParseInt(s, 10, 64)
	}
}

func (s *Scanner) scanString(start int, newline bool, raw bool) Token {
	quote := s.src.Content[s.pos]
	triple := s.byteAt(s.pos+1) == quote && s.byteAt(s.pos+2) == quote
	if triple {
		s.pos += 3
		for s.pos < len(s.src.Content) {
			if s.src.Content[s.pos] == quote && s.byteAt(s.pos+1) == quote && s.byteAt(s.pos+2) == quote {
				s.pos += 3
				break
			}
			if !raw && s.src.Content[s.pos] == '\\' {
				s.pos++
			}
			s.pos++
		}
	} else {
		s.pos++
		for s.pos < len(s.src.Content) && s.src.Content[s.pos] != quote {
			if !raw && s.src.Content[s.pos] == '\\' {
				s.pos++
			}
			if s.src.Content[s.pos] == '\n' {
				break
			}
			s.pos++
		}
		if s.pos < len(s.src.Content) && s.src.Content[s.pos] == quote {
			s.pos++
		} else {
			loc := NewLocation(s.src.Content[start:s.pos], s.src.Name, 0, 0)
			row, col := s.src.RowCol(start)
			loc.Row, loc.Col = row, col
			s.errs = append(s.errs, NewError(LexErr, loc, "unterminated string literal"))
		}
	}
	return Token{Kind: KindString, Text: s.src.Content[start:s.pos], Offset: start, IsRaw: raw, IsTriple: triple, NewlineBefore: newline}
}

// scanDefBlock swallows a `def name(...):` body up to (not including) the
// next non-indented line, since the front end never parses function
// bodies.
func (s *Scanner) scanDefBlock(start int, newline bool) Token {
	// consume to end of the `def ...:` line first
	for s.pos < len(s.src.Content) && s.src.Content[s.pos] != '\n' {
		s.pos++
	}
	for s.pos < len(s.src.Content) {
		lineStart := s.pos + 1
		if lineStart >= len(s.src.Content) {
			s.pos = len(s.src.Content)
			break
		}
		nextNL := lineStart
		for nextNL < len(s.src.Content) && s.src.Content[nextNL] != '\n' {
			nextNL++
		}
		line := s.src.Content[lineStart:nextNL]
		if len(line) > 0 && line[0] != ' ' && line[0] != '\t' && line[0] != '\n' {
			s.pos = lineStart
			break
		}
		s.pos = nextNL
		if s.pos >= len(s.src.Content) {
			break
		}
	}
	return Token{Kind: KindDefBlock, Text: s.src.Content[start:s.pos], Offset: start, NewlineBefore: newline}
}

func (s *Scanner) scanPunct(start int, newline bool) Token {
	two := func(k Kind) Token {
		s.pos += 2
		return Token{Kind: k, Text: s.src.Content[start:s.pos], Offset: start, NewlineBefore: newline}
	}
	one := func() Token {
		s.pos++
		return Token{Kind: Kind(s.src.Content[start]), Text: s.src.Content[start : start+1], Offset: start, NewlineBefore: newline}
	}

	b := s.src.Content[start]
	next := s.byteAt(start + 1)
	switch b {
	case '=':
		if next == '=' {
			return two(KindEq)
		}
	case '!':
		if next == '=' {
			return two(KindNe)
		}
	case '<':
		if next == '=' {
			return two(KindLe)
		}
		if next == '<' {
			return two(KindShl)
		}
	case '>':
		if next == '=' {
			return two(KindGe)
		}
		if next == '>' {
			return two(KindShr)
		}
	case '/':
		if next == '/' {
			return two(KindIDiv)
		}
	}
	return one()
}
