package dwyu

import (
	"github.com/buildaudit/buildaudit/query"
)

// Loader is the project-store surface the analyzer needs: every loaded
// package and its rule call-sites, shared with the headers/graph
// packages' identically-shaped interface.
type Loader interface {
	LoadedPackages() []query.Package
	Targets(pkg query.Package) (calls []query.RuleCall, ok bool)
}

// KnownTargets records the subset of a loaded project's targets that can
// provide headers (cc_library, cc_proto_library), their declared
// visibility, and each package's default_visibility, so
// visibility/alwayslink decisions don't need to re-walk the project.
type KnownTargets struct {
	libs              map[query.Target]query.RuleCall
	packageDefaultVis map[query.Package][]string
}

func buildKnownTargets(loader Loader) *KnownTargets {
	k := &KnownTargets{
		libs:              map[query.Target]query.RuleCall{},
		packageDefaultVis: map[query.Package][]string{},
	}
	for _, pkg := range loader.LoadedPackages() {
		calls, ok := loader.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			if call.Kind == "package" {
				if vis, ok := query.StringListAttr(call.Kwargs, "default_visibility"); ok {
					k.packageDefaultVis[pkg] = vis
				}
				continue
			}
			if call.Kind != "cc_library" && call.Kind != "cc_proto_library" {
				continue
			}
			name, ok := query.NameOf(call.Kwargs)
			if !ok {
				continue
			}
			k.libs[query.Target{Pkg: pkg, Name: name}] = call
		}
	}
	return k
}

// Visible reports whether dep is visible from a target in from's
// package: same package always is; otherwise dep's own (or its
// package's default) visibility list must contain a pattern matching
// from. An entirely unknown target (not a cc_library/cc_proto_library
// this project loaded) is treated as visible — "unknown? be bold".
func (k *KnownTargets) Visible(from, dep query.Target) bool {
	if from.Pkg == dep.Pkg {
		return true
	}
	call, ok := k.libs[dep]
	if !ok {
		return true
	}
	vis, hasVis := query.StringListAttr(call.Kwargs, "visibility")
	if !hasVis {
		vis = k.packageDefaultVis[dep.Pkg]
	}
	if len(vis) == 0 {
		return false
	}
	for _, v := range vis {
		pat, err := query.ParseVisibility(v, dep.Pkg)
		if err != nil {
			continue
		}
		if pat.Match(from) {
			return true
		}
	}
	return false
}

// AlwaysLink reports whether target must never be dropped from a deps
// list even if no visible header use is found: an unknown target is
// conservatively treated as alwayslink, as is any known library that
// declares `alwayslink = True` or exports no headers at all (a
// source-only / link-time-effects-only library).
func (k *KnownTargets) AlwaysLink(target query.Target) bool {
	call, ok := k.libs[target]
	if !ok {
		return true
	}
	if always, ok := query.BoolAttr(call.Kwargs, "alwayslink"); ok && always {
		return true
	}
	hdrs, _ := query.StringListAttr(call.Kwargs, "hdrs")
	return len(hdrs) == 0
}
