// Package canon implements the canonicalizer: purely syntactic rewriting
// of a target's deps strings into the form they would canonically take
// if written relative to their declaring package.
package canon

import (
	"github.com/buildaudit/buildaudit/log"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

// Loader is the project-store surface canonicalization needs.
type Loader interface {
	LoadedPackages() []query.Package
	Targets(pkg query.Package) (calls []query.RuleCall, ok bool)
}

// CreateEdits walks every target in-pattern across loader's loaded
// packages and, for each deps string that does not already equal its
// own canonical, package-relative rendering, emits a rename edit. It
// returns the number of edits emitted.
func CreateEdits(loader Loader, pattern query.Pattern, emit present.EditCallback) int {
	edits := 0
	entry := log.WithPhase("canon")

	for _, pkg := range loader.LoadedPackages() {
		if !pattern.MatchesPackage(pkg) {
			continue
		}
		calls, ok := loader.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			name, ok := query.NameOf(call.Kwargs)
			if !ok {
				continue
			}
			self := query.Target{Pkg: pkg, Name: name}
			if !pattern.Match(self) {
				continue
			}

			deps, _ := query.StringListAttr(call.Kwargs, "deps")
			for _, depStr := range deps {
				depTarget, err := query.ParseTarget(depStr, pkg)
				if err != nil {
					entry.Warnf("%s: invalid target name %q", self, depStr)
					continue
				}
				canonical := depTarget.StringRelativeTo(pkg)
				if depStr != canonical {
					edits++
					emit(present.EditRename, self, depStr, canonical)
				}
			}
		}
	}
	return edits
}
