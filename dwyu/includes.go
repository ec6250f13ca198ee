package dwyu

import "regexp"

// includeRe is deliberately best-effort about quoted strings inside C++
// source: it matches either a bare `"` (used only to toggle the "inside a
// nested string literal" state) or a `#include "path"` line.
var includeRe = regexp.MustCompile(`(?m)("|^[ \t]*#include[ \t]+"([0-9a-zA-Z_/]+(?:\.[a-zA-Z]+)*)")`)

// ExtractIncludes returns every quoted #include path found in content,
// in order. Angle-bracket includes are ignored entirely. The toggle
// state is a deliberate simplification: any bare `"` anywhere in the
// file (not just ones opening/closing a string literal) flips whether
// subsequent #include matches are believed.
func ExtractIncludes(content []byte) []string {
	matches := includeRe.FindAllSubmatch(content, -1)
	inNestedQuote := false
	var out []string
	for _, m := range matches {
		outer := string(m[1])
		if outer == `"` {
			inNestedQuote = !inNestedQuote
			continue
		}
		if !inNestedQuote {
			out = append(out, string(m[2]))
		}
	}
	return out
}
