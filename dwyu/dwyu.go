// Package dwyu implements the "depend on what you use" analysis: for each
// cc_library/cc_binary/cc_test target, grep its sources for #include
// directives, resolve each included header to its providing target(s)
// via the headers index, and compare that against the target's declared
// deps to propose remove/add edits.
package dwyu

import (
	"sort"

	"github.com/buildaudit/buildaudit/headers"
	"github.com/buildaudit/buildaudit/log"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

// ccRuleKinds are the rule kinds this analysis applies to; anything else
// (proto_library, genrule, ...) is a dependency source but never a
// dependency consumer DWYU edits.
var ccRuleKinds = map[string]bool{
	"cc_library": true,
	"cc_binary":  true,
	"cc_test":    true,
}

// Analyzer bundles the pieces of project state a DWYU pass needs: the
// loaded packages and their rule call-sites, the header-provider index,
// a way to read source file content, and the alias edges a dependency
// graph pass discovered (so an alias's real provider checks off the
// alias too).
type Analyzer struct {
	Loader    Loader
	Index     *headers.Index
	Opener    FileOpener
	AliasedBy map[query.Target][]query.Target

	known *KnownTargets
}

// NewAnalyzer builds an Analyzer over an already-loaded project. AliasedBy
// may be nil if no alias() targets were found.
func NewAnalyzer(loader Loader, idx *headers.Index, opener FileOpener, aliasedBy map[query.Target][]query.Target) *Analyzer {
	return &Analyzer{
		Loader:    loader,
		Index:     idx,
		Opener:    opener,
		AliasedBy: aliasedBy,
		known:     buildKnownTargets(loader),
	}
}

// CreateEditsForPattern runs the analysis over every cc_library/cc_binary/
// cc_test target matched by pattern, emitting edits through emit with
// packages visited in (project, path) order. It returns the number of
// targets inspected.
func (a *Analyzer) CreateEditsForPattern(pattern query.Pattern, emit present.EditCallback) int {
	inspected := 0
	packages := a.Loader.LoadedPackages()
	sort.Slice(packages, func(i, j int) bool {
		if packages[i].Project != packages[j].Project {
			return packages[i].Project < packages[j].Project
		}
		return packages[i].Path < packages[j].Path
	})
	for _, pkg := range packages {
		if !pattern.MatchesPackage(pkg) {
			continue
		}
		calls, ok := a.Loader.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			if !ccRuleKinds[call.Kind] {
				continue
			}
			name, ok := query.NameOf(call.Kwargs)
			if !ok {
				continue
			}
			target := query.Target{Pkg: pkg, Name: name}
			if !pattern.Match(target) {
				continue
			}
			inspected++
			a.createEditsForTarget(target, call, emit)
		}
	}
	return inspected
}

// CreateEditsForTarget runs the analysis for a single already-resolved
// target, looking up its call-site in loader. It returns false if target
// has no call-site or is not a cc_library/cc_binary/cc_test.
func (a *Analyzer) CreateEditsForTarget(target query.Target, emit present.EditCallback) bool {
	calls, ok := a.Loader.Targets(target.Pkg)
	if !ok {
		return false
	}
	for _, call := range calls {
		if !ccRuleKinds[call.Kind] {
			continue
		}
		name, ok := query.NameOf(call.Kwargs)
		if !ok || name != target.Name {
			continue
		}
		a.createEditsForTarget(target, call, emit)
		return true
	}
	return false
}

// needGroup is one header's set of acceptable providers: the header
// itself may be exported by more than one library (an alias, or two
// libraries that both happen to re-export it), any one of which would
// satisfy the dependency.
type needGroup []query.Target

func (a *Analyzer) createEditsForTarget(target query.Target, call query.RuleCall, emit present.EditCallback) {
	entry := log.WithPhase("dwyu").WithField("target", target.String())

	srcs, _ := query.StringListAttr(call.Kwargs, "srcs")
	hdrs, _ := query.StringListAttr(call.Kwargs, "hdrs")
	sources := append(append([]string{}, srcs...), hdrs...)

	allHeadersAccountedFor := true
	alreadyProvided := map[query.Target]bool{target: true}
	var needed []needGroup

	for _, src := range sources {
		qualified := headers.QualifiedFile(target.Pkg, src)
		content, _, found := a.Opener.Open(qualified)
		if !found {
			// Generated or otherwise unreadable; can't grep it, so we
			// can no longer be sure every header use is accounted for.
			allHeadersAccountedFor = false
			continue
		}
		for _, inc := range ExtractIncludes(content) {
			if isHeaderInList(inc, sources, target.Pkg.Path) || isHeaderInList(inc, sources, "") {
				continue // own header, not a dependency
			}
			providers, ok := a.Index.HeaderToTargets[inc]
			if !ok {
				// Try once more as a package-qualified path, in case the
				// source used a path relative to the project root that
				// happens to already be qualified.
				providers, ok = a.Index.HeaderToTargets[headers.QualifiedFile(target.Pkg, inc)]
			}
			if !ok {
				entry.Debugf("no known provider for included header %q", inc)
				allHeadersAccountedFor = false
				continue
			}
			a.addToNeeded(target, inc, alreadyProvided, &needed, providers)
		}
	}

	deps, _ := query.StringListAttr(call.Kwargs, "deps")
	checkedOffBy := map[query.Target]query.Target{}
	var keep []string
	for _, depStr := range deps {
		depTarget, err := query.ParseTarget(depStr, target.Pkg)
		if err != nil {
			entry.Warnf("could not parse dep %q: %v", depStr, err)
			keep = append(keep, depStr)
			continue
		}

		if satisfiedBy, ok := checkedOffBy[depTarget]; ok {
			entry.Debugf("dep %s redundant with %s, already satisfied", depStr, satisfiedBy)
			continue
		}

		if a.satisfyNeeded(depTarget, &needed, checkedOffBy) {
			keep = append(keep, depStr)
			continue
		}

		if !allHeadersAccountedFor || a.known.AlwaysLink(depTarget) {
			keep = append(keep, depStr)
			continue
		}

		emit(present.EditRemove, target, depStr, "")
	}

	for _, group := range needed {
		visible := visibleCandidates(a.known, target, group)
		switch len(visible) {
		case 0:
			entry.Warnf("no visible provider among %d candidate(s) for a used header; add manually", len(group))
		case 1:
			rel := visible[0].StringRelativeTo(target.Pkg)
			emit(present.EditAdd, target, "", rel)
		default:
			entry.Infof("header used by %s has %d equally visible providers; pick one manually", target, len(visible))
		}
	}
}

// addToNeeded folds one included header's provider set into needed,
// skipping it entirely if any provider (or one of its aliases) is
// already accounted for by an earlier header's group — the common case
// of a library whose public headers #include each other.
func (a *Analyzer) addToNeeded(from query.Target, header string, alreadyProvided map[query.Target]bool, needed *[]needGroup, providers []query.Target) {
	anyAlreadyProvided := false
	for _, p := range providers {
		if alreadyProvided[p] {
			anyAlreadyProvided = true
		}
	}
	for _, p := range providers {
		alreadyProvided[p] = true
		for _, alias := range a.AliasedBy[p] {
			alreadyProvided[alias] = true
		}
	}
	if anyAlreadyProvided {
		return
	}

	var group needGroup
	seen := map[query.Target]bool{}
	for _, p := range providers {
		if p == from {
			continue
		}
		if !seen[p] {
			seen[p] = true
			group = append(group, p)
		}
		for _, alias := range a.AliasedBy[p] {
			if !seen[alias] {
				seen[alias] = true
				group = append(group, alias)
			}
		}
	}
	if len(group) > 0 {
		*needed = append(*needed, group)
	}
}

// visibleCandidates filters group down to the providers actually visible
// from target's package.
func visibleCandidates(known *KnownTargets, target query.Target, group needGroup) needGroup {
	var out needGroup
	for _, cand := range group {
		if known.Visible(target, cand) {
			out = append(out, cand)
		}
	}
	return out
}

// satisfyNeeded checks depTarget off against needed's groups: if it (or
// an aliased form already folded into a group) is a member of some
// group, that whole group is considered satisfied and removed, and every
// member is recorded in checkedOffBy so a later duplicate dep string
// pointing at the same group is recognized as redundant rather than
// proposed for removal independently.
func (a *Analyzer) satisfyNeeded(depTarget query.Target, needed *[]needGroup, checkedOffBy map[query.Target]query.Target) bool {
	for i, group := range *needed {
		for _, member := range group {
			if member == depTarget {
				for _, m := range group {
					checkedOffBy[m] = depTarget
				}
				*needed = append((*needed)[:i], (*needed)[i+1:]...)
				return true
			}
		}
	}
	return false
}

// isHeaderInList reports whether inc names one of sources' own entries,
// qualified by prefixPath (the owning package's path, or "" to match a
// path written relative to the including file itself).
func isHeaderInList(inc string, sources []string, prefixPath string) bool {
	for _, item := range sources {
		item = trimColon(item)
		qualified := item
		if prefixPath != "" {
			qualified = prefixPath + "/" + item
		}
		if qualified == inc {
			return true
		}
	}
	return false
}

func trimColon(s string) string {
	if len(s) > 0 && s[0] == ':' {
		return s[1:]
	}
	return s
}
