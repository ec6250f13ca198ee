package frontend

import "sort"

// Location records a position in BUILD-file source: a 1-based
// (row, col) plus the owning file name and the text span the location
// was derived from.
type Location struct {
	File string
	Row  int
	Col  int
	Text []byte
}

// NewLocation returns a new Location.
func NewLocation(text []byte, file string, row, col int) *Location {
	return &Location{File: file, Row: row, Col: col, Text: text}
}

func (l *Location) String() string {
	if l == nil {
		return "<unknown>"
	}
	if l.File != "" {
		return l.File + ":" + itoa(l.Row) + ":" + itoa(l.Col)
	}
	return itoa(l.Row) + ":" + itoa(l.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// NamedSource is an immutable byte blob with a name and a lazily-built
// newline index, enabling O(log n) (line, column) recovery for any byte
// offset into the blob.
type NamedSource struct {
	Name    string
	Content []byte

	newlines []int // byte offsets of each '\n', built on first use
	built    bool
}

// NewNamedSource wraps content under name. The blob's address is pinned
// for the source's lifetime: token and AST Text slices borrow from it.
func NewNamedSource(name string, content []byte) *NamedSource {
	return &NamedSource{Name: name, Content: content}
}

func (s *NamedSource) ensureIndex() {
	if s.built {
		return
	}
	s.newlines = s.newlines[:0]
	for i, b := range s.Content {
		if b == '\n' {
			s.newlines = append(s.newlines, i)
		}
	}
	s.built = true
}

// RowCol converts a byte offset into a 1-based (row, col) pair.
func (s *NamedSource) RowCol(offset int) (row, col int) {
	s.ensureIndex()
	// row = number of newlines strictly before offset, plus one.
	idx := sort.SearchInts(s.newlines, offset)
	row = idx + 1
	lineStart := 0
	if idx > 0 {
		lineStart = s.newlines[idx-1] + 1
	}
	col = offset - lineStart + 1
	return row, col
}

// SourceLocator answers "where did this byte range come from" for a span
// of bytes that may or may not be a direct sub-slice of an original file.
type SourceLocator interface {
	// Locate returns the Location of the given sub-range, described by its
	// begin/end byte offsets relative to whatever blob the locator owns.
	Locate(begin, end int) *Location
}

// FileLocator is the SourceLocator for bytes that are a literal sub-slice
// of a real, on-disk BUILD file.
type FileLocator struct {
	Source *NamedSource
}

func NewFileLocator(src *NamedSource) *FileLocator {
	return &FileLocator{Source: src}
}

func (f *FileLocator) Locate(begin, end int) *Location {
	row, col := f.Source.RowCol(begin)
	text := f.Source.Content[begin:end]
	return NewLocation(text, f.Source.Name, row, col)
}

// FixedLocator is used for a *new* string or list synthesized by
// evaluation (concatenation, glob(), format(), ...): every sub-range
// registered against it reports the same, fixed location At. The
// elaborator registers its values with a nil At, so for those Locate
// returns nil rather than the operator or call that produced the value.
type FixedLocator struct {
	At *Location
}

func NewFixedLocator(at *Location) *FixedLocator {
	return &FixedLocator{At: at}
}

func (f *FixedLocator) Locate(int, int) *Location {
	return f.At
}
