// Package graph builds the forward/reverse dependency adjacency maps by
// fixpoint-expanding packages on demand from a starting target pattern.
package graph

import (
	"github.com/buildaudit/buildaudit/query"
)

// Graph holds the two adjacency maps plus the alias reverse map.
type Graph struct {
	DependsOn     map[query.Target][]query.Target
	HasDependents map[query.Target][]query.Target
	AliasedBy     map[query.Target][]query.Target
}

func newGraph() *Graph {
	return &Graph{
		DependsOn:     map[query.Target][]query.Target{},
		HasDependents: map[query.Target][]query.Target{},
		AliasedBy:     map[query.Target][]query.Target{},
	}
}

func (g *Graph) addEdge(from, to query.Target) {
	for _, existing := range g.DependsOn[from] {
		if existing == to {
			return
		}
	}
	g.DependsOn[from] = append(g.DependsOn[from], to)
	g.HasDependents[to] = append(g.HasDependents[to], from)
}

func (g *Graph) addAlias(alias, actual query.Target) {
	g.addEdge(alias, actual)
	g.AliasedBy[actual] = append(g.AliasedBy[actual], alias)
}

// Loader is the project-store surface the graph builder needs: load any
// packages it hasn't seen yet, and list the rule call-sites already known
// for one it has.
type Loader interface {
	// EnsurePackages loads and elaborates every package in pkgs that isn't
	// already loaded. Failures are swallowed here — an unresolved package
	// just means its targets stay unresolved.
	EnsurePackages(pkgs []query.Package)
	// Targets returns every rule call-site in pkg, or ok=false if pkg was
	// never successfully loaded.
	Targets(pkg query.Package) (calls []query.RuleCall, ok bool)
	// LoadedPackages lists every package currently loaded (seeded by the
	// project store's FillFromPattern before Build runs).
	LoadedPackages() []query.Package
}

// Build runs a breadth-first fixpoint expansion starting from pattern.
// maxDepth is the round budget: 0 means "seed targets only", a negative
// value means unbounded (exhaustive). unresolved collects every
// referenced target whose package never successfully loaded.
func Build(loader Loader, pattern query.Pattern, maxDepth int) (g *Graph, unresolved []query.Target) {
	g = newGraph()
	seen := map[query.Target]bool{}
	unresolvedSeen := map[query.Target]bool{}

	todo := seedTargets(loader, pattern)
	for _, t := range todo {
		seen[t] = true
	}

	for round := 0; len(todo) > 0; round++ {
		if maxDepth >= 0 && round >= maxDepth {
			break
		}

		pkgs := packagesOf(todo)
		loader.EnsurePackages(pkgs)

		genrules := buildGenruleIndex(loader, pkgs)

		var next []query.Target
		for _, t := range todo {
			calls, ok := loader.Targets(t.Pkg)
			if !ok {
				if !unresolvedSeen[t] {
					unresolvedSeen[t] = true
					unresolved = append(unresolved, t)
				}
				continue
			}
			call, ok := findCall(calls, t.Name)
			if !ok {
				if !unresolvedSeen[t] {
					unresolvedSeen[t] = true
					unresolved = append(unresolved, t)
				}
				continue
			}

			for _, dep := range outgoingEdges(t, call, genrules) {
				g.addEdge(t, dep)
				if !seen[dep] {
					seen[dep] = true
					next = append(next, dep)
				}
			}
			if actual, ok := query.StringAttr(call.Kwargs, "actual"); ok {
				at, err := query.ParseTarget(actual, t.Pkg)
				if err == nil {
					g.addAlias(t, at)
					if !seen[at] {
						seen[at] = true
						next = append(next, at)
					}
				}
			}
		}
		todo = next
	}

	return g, unresolved
}

// seedTargets returns every target in an already-loaded package that
// matches pattern. The project store is expected to
// have already populated the pattern's starting packages via
// FillFromPattern; Build only grows the set from there.
func seedTargets(loader Loader, pattern query.Pattern) []query.Target {
	var seeds []query.Target
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
			t := query.Target{Pkg: pkg, Name: name}
			if pattern.Match(t) {
				seeds = append(seeds, t)
			}
		}
	}
	return seeds
}

func findCall(calls []query.RuleCall, name string) (query.RuleCall, bool) {
	for _, c := range calls {
		if n, ok := query.NameOf(c.Kwargs); ok && n == name {
			return c, true
		}
	}
	return query.RuleCall{}, false
}

func packagesOf(targets []query.Target) []query.Package {
	seen := map[query.Package]bool{}
	var out []query.Package
	for _, t := range targets {
		if !seen[t.Pkg] {
			seen[t.Pkg] = true
			out = append(out, t.Pkg)
		}
	}
	return out
}

// buildGenruleIndex maps a package-relative output filename to the target
// that produces it, scanning every rule call-site's `outs` attribute.
// Kept rule-kind agnostic since any rule exposing `outs` can produce a
// file another target consumes.
func buildGenruleIndex(loader Loader, pkgs []query.Package) map[query.Package]map[string]query.Target {
	idx := map[query.Package]map[string]query.Target{}
	for _, pkg := range pkgs {
		calls, ok := loader.Targets(pkg)
		if !ok {
			continue
		}
		perPkg := map[string]query.Target{}
		for _, call := range calls {
			name, ok := query.NameOf(call.Kwargs)
			if !ok {
				continue
			}
			outs, ok := query.StringListAttr(call.Kwargs, "outs")
			if !ok {
				continue
			}
			t := query.Target{Pkg: pkg, Name: name}
			for _, out := range outs {
				perPkg[out] = t
			}
		}
		idx[pkg] = perPkg
	}
	return idx
}

// outgoingEdges unions deps, hdrs/srcs (genrule-index fallback only),
// and data/tools (genrule-index fallback, then treated as target
// labels).
func outgoingEdges(t query.Target, call query.RuleCall, genrules map[query.Package]map[string]query.Target) []query.Target {
	var out []query.Target
	add := func(s string, fallbackIsTarget bool) {
		if resolved, ok := resolveEntry(t.Pkg, s, genrules, fallbackIsTarget); ok {
			out = append(out, resolved)
		}
	}

	if deps, ok := query.StringListAttr(call.Kwargs, "deps"); ok {
		for _, d := range deps {
			// deps entries are labels by definition, bare names included.
			if dep, err := query.ParseTarget(d, t.Pkg); err == nil {
				out = append(out, dep)
			}
		}
	}
	for _, attr := range []string{"hdrs", "srcs"} {
		if entries, ok := query.StringListAttr(call.Kwargs, attr); ok {
			for _, e := range entries {
				add(e, false)
			}
		}
	}
	for _, attr := range []string{"data", "tools"} {
		if entries, ok := query.StringListAttr(call.Kwargs, attr); ok {
			for _, e := range entries {
				add(e, true)
			}
		}
	}
	return out
}

func isLabelSyntax(s string) bool {
	return len(s) > 0 && (s[0] == ':' || s[0] == '@') ||
		(len(s) > 1 && s[0] == '/' && s[1] == '/')
}

// resolveEntry resolves one attribute string: explicit label syntax
// parses directly; otherwise consult the genrule index. What a bare
// string that is neither means depends on the attribute:
// for hdrs/srcs it is an ordinary file reference and yields no edge
// (fallbackIsTarget=false); for deps/data/tools it is still a target
// label at the current package (fallbackIsTarget=true).
func resolveEntry(pkg query.Package, s string, genrules map[query.Package]map[string]query.Target, fallbackIsTarget bool) (query.Target, bool) {
	if isLabelSyntax(s) {
		t, err := query.ParseTarget(s, pkg)
		return t, err == nil
	}
	if producer, ok := genrules[pkg][s]; ok {
		return producer, true
	}
	if fallbackIsTarget {
		t, err := query.ParseTarget(s, pkg)
		return t, err == nil
	}
	return query.Target{}, false
}
