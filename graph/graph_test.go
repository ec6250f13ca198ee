package graph_test

import (
	"testing"

	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/graph"
	"github.com/buildaudit/buildaudit/query"
)

// fakeLoader implements graph.Loader over an in-memory package->source map,
// parsed on first EnsurePackages call, so tests can focus on BFS behavior
// rather than real file I/O.
type fakeLoader struct {
	sources map[query.Package]string
	loaded  map[query.Package][]query.RuleCall
}

func newFakeLoader(sources map[query.Package]string) *fakeLoader {
	return &fakeLoader{sources: sources, loaded: map[query.Package][]query.RuleCall{}}
}

func (l *fakeLoader) EnsurePackages(pkgs []query.Package) {
	for _, pkg := range pkgs {
		if _, ok := l.loaded[pkg]; ok {
			continue
		}
		src, ok := l.sources[pkg]
		if !ok {
			continue
		}
		pf := frontend.Parse(0, pkg.String()+"/BUILD", []byte(src))
		l.loaded[pkg] = query.FindRuleCallsites(pf.Stmts)
	}
}

func (l *fakeLoader) Targets(pkg query.Package) ([]query.RuleCall, bool) {
	calls, ok := l.loaded[pkg]
	return calls, ok
}

func (l *fakeLoader) LoadedPackages() []query.Package {
	var pkgs []query.Package
	for pkg := range l.loaded {
		pkgs = append(pkgs, pkg)
	}
	return pkgs
}

func mustPattern(t *testing.T, s string) query.Pattern {
	t.Helper()
	p, err := query.ParsePattern(s, query.Package{})
	if err != nil {
		t.Fatalf("ParsePattern(%q): %v", s, err)
	}
	return p
}

// TestDepthBudget: //a:x -> //b:y -> //c:z, depth
// 1 stops after one hop, depth -1 (unbounded) reaches both.
func TestDepthBudget(t *testing.T) {
	sources := map[query.Package]string{
		{Path: "a"}: `cc_library(name = "x", deps = ["//b:y"])`,
		{Path: "b"}: `cc_library(name = "y", deps = ["//c:z"])`,
		{Path: "c"}: `cc_library(name = "z")`,
	}
	loader := newFakeLoader(sources)
	loader.EnsurePackages([]query.Package{{Path: "a"}})

	x := query.Target{Pkg: query.Package{Path: "a"}, Name: "x"}
	y := query.Target{Pkg: query.Package{Path: "b"}, Name: "y"}
	z := query.Target{Pkg: query.Package{Path: "c"}, Name: "z"}

	pattern := mustPattern(t, "//a:x")

	g1, _ := graph.Build(loader, pattern, 1)
	if !containsTarget(g1.DependsOn[x], y) {
		t.Errorf("depth 1: x should depend on y")
	}
	if containsTarget(g1.DependsOn[y], z) {
		t.Errorf("depth 1: y->z should not be reached")
	}

	loader2 := newFakeLoader(sources)
	loader2.EnsurePackages([]query.Package{{Path: "a"}})
	gAll, _ := graph.Build(loader2, pattern, -1)
	if !containsTarget(gAll.DependsOn[x], y) {
		t.Errorf("depth -1: x should depend on y")
	}
	if !containsTarget(gAll.DependsOn[y], z) {
		t.Errorf("depth -1: y should depend on z")
	}
}

// TestGraphSymmetry checks the testable property A in DependsOn[B] iff B
// in HasDependents[A].
func TestGraphSymmetry(t *testing.T) {
	sources := map[query.Package]string{
		{Path: "a"}: `cc_library(name = "x", deps = ["//b:y", "//c:z"])`,
		{Path: "b"}: `cc_library(name = "y")`,
		{Path: "c"}: `cc_library(name = "z")`,
	}
	loader := newFakeLoader(sources)
	loader.EnsurePackages([]query.Package{{Path: "a"}})
	g, _ := graph.Build(loader, mustPattern(t, "//a:x"), -1)

	for from, tos := range g.DependsOn {
		for _, to := range tos {
			if !containsTarget(g.HasDependents[to], from) {
				t.Errorf("DependsOn[%v] has %v, but HasDependents[%v] missing %v", from, to, to, from)
			}
		}
	}
	for to, froms := range g.HasDependents {
		for _, from := range froms {
			if !containsTarget(g.DependsOn[from], to) {
				t.Errorf("HasDependents[%v] has %v, but DependsOn[%v] missing %v", to, from, from, to)
			}
		}
	}
}

// TestAliasEdges checks that an `actual` field produces both a DependsOn
// edge and an AliasedBy reverse entry.
func TestAliasEdges(t *testing.T) {
	sources := map[query.Package]string{
		{Path: "a"}: `alias(name = "x", actual = "//b:y")`,
		{Path: "b"}: `cc_library(name = "y")`,
	}
	loader := newFakeLoader(sources)
	loader.EnsurePackages([]query.Package{{Path: "a"}})
	g, _ := graph.Build(loader, mustPattern(t, "//a:x"), -1)

	x := query.Target{Pkg: query.Package{Path: "a"}, Name: "x"}
	y := query.Target{Pkg: query.Package{Path: "b"}, Name: "y"}
	if !containsTarget(g.DependsOn[x], y) {
		t.Errorf("alias x should depend on actual y")
	}
	if !containsTarget(g.AliasedBy[y], x) {
		t.Errorf("y should be aliased by x")
	}
}

// TestDataAndToolsEdges checks the per-attribute fallback rules: a bare
// srcs entry that is not a genrule output is a plain file (no edge),
// while bare data/tools entries fall back to same-package target labels
// after the genrule index misses.
func TestDataAndToolsEdges(t *testing.T) {
	sources := map[query.Package]string{
		{Path: "a"}: `
genrule(name = "gen", outs = ["generated.txt"])
cc_binary(
    name = "x",
    srcs = ["main.cc", "generated.txt"],
    data = ["config.json", "generated.txt", "//b:cfg"],
    tools = ["mktool"],
)
cc_library(name = "mktool")
`,
	}
	loader := newFakeLoader(sources)
	loader.EnsurePackages([]query.Package{{Path: "a"}})
	g, _ := graph.Build(loader, mustPattern(t, "//a:x"), -1)

	a := query.Package{Path: "a"}
	x := query.Target{Pkg: a, Name: "x"}
	for _, want := range []query.Target{
		{Pkg: a, Name: "gen"},         // generated.txt, via the genrule index
		{Pkg: a, Name: "config.json"}, // bare data entry, target-label fallback
		{Pkg: a, Name: "mktool"},      // bare tools entry, target-label fallback
		{Pkg: query.Package{Path: "b"}, Name: "cfg"},
	} {
		if !containsTarget(g.DependsOn[x], want) {
			t.Errorf("x should depend on %v; got %v", want, g.DependsOn[x])
		}
	}
	if containsTarget(g.DependsOn[x], query.Target{Pkg: a, Name: "main.cc"}) {
		t.Errorf("a bare srcs file must not become a target edge")
	}
}

// TestUnresolvedTarget checks that a dep on a package that never loads is
// reported in unresolved rather than causing a failure.
func TestUnresolvedTarget(t *testing.T) {
	sources := map[query.Package]string{
		{Path: "a"}: `cc_library(name = "x", deps = ["//missing:y"])`,
	}
	loader := newFakeLoader(sources)
	loader.EnsurePackages([]query.Package{{Path: "a"}})
	_, unresolved := graph.Build(loader, mustPattern(t, "//a:x"), -1)

	want := query.Target{Pkg: query.Package{Path: "missing"}, Name: "y"}
	if !containsTarget(unresolved, want) {
		t.Errorf("unresolved = %v, want to contain %v", unresolved, want)
	}
}

func containsTarget(ts []query.Target, t query.Target) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
