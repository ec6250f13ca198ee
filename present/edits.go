package present

import (
	"fmt"
	"io"

	"github.com/buildaudit/buildaudit/query"
)

// EditRequest classifies the one mechanical edit a buildozer-style BUILD
// editor is asked to perform on a target's `deps` attribute.
type EditRequest int

const (
	EditRemove EditRequest = iota
	EditAdd
	EditRename
)

// EditCallback receives one edit at a time: remove sets before (the
// existing dep string), add sets after (the new dep string relative to
// the target's package), rename sets both.
type EditCallback func(op EditRequest, target query.Target, before, after string)

// NewBuildozerEditCallback returns an EditCallback that writes
// shell-quoted buildozer command lines to w, one per edit, consumable by
// the external BUILD-editor process.
func NewBuildozerEditCallback(w io.Writer) EditCallback {
	return func(op EditRequest, target query.Target, before, after string) {
		var verb string
		switch op {
		case EditRemove:
			verb = "remove deps " + before
		case EditAdd:
			verb = "add deps " + after
		case EditRename:
			verb = "replace deps " + before + " " + after
		}
		fmt.Fprintf(w, "%s %s\n", ShellQuote(verb), target.String())
	}
}
