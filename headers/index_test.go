package headers_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/headers"
	"github.com/buildaudit/buildaudit/query"
)

// fakeLoader implements headers.Loader over an in-memory set of
// already-parsed packages, so tests don't need a real filesystem.
type fakeLoader struct {
	calls map[query.Package][]query.RuleCall
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{calls: map[query.Package][]query.RuleCall{}}
}

func (f *fakeLoader) add(pkgPath, buildFile string) {
	pkg := query.Package{Path: pkgPath}
	pf := frontend.Parse(len(f.calls), pkgPath+"/BUILD", []byte(buildFile))
	f.calls[pkg] = append(f.calls[pkg], query.FindRuleCallsites(pf.Stmts)...)
}

func (f *fakeLoader) LoadedPackages() []query.Package {
	var out []query.Package
	for pkg := range f.calls {
		out = append(out, pkg)
	}
	return out
}

func (f *fakeLoader) Targets(pkg query.Package) ([]query.RuleCall, bool) {
	calls, ok := f.calls[pkg]
	return calls, ok
}

func target(pkgPath, name string) query.Target {
	return query.Target{Pkg: query.Package{Path: pkgPath}, Name: name}
}

func TestBuildCCLibraryHeaders(t *testing.T) {
	loader := newFakeLoader()
	loader.add("lib/foo", `
cc_library(
    name = "foo",
    hdrs = ["foo.h", "detail/foo_impl.h"],
    includes = ["detail"],
)
`)

	idx := headers.Build(loader)

	want := []query.Target{target("lib/foo", "foo")}
	if got := idx.HeaderToTargets["lib/foo/foo.h"]; !cmp.Equal(got, want) {
		t.Errorf("lib/foo/foo.h providers = %v, want %v", got, want)
	}
	if got := idx.HeaderToTargets["lib/foo/detail/foo_impl.h"]; !cmp.Equal(got, want) {
		t.Errorf("lib/foo/detail/foo_impl.h providers = %v, want %v", got, want)
	}
	// includes = ["detail"] puts lib/foo/detail on the search path, so an
	// includer reaches the header as a bare "foo_impl.h".
	if got := idx.HeaderToTargets["foo_impl.h"]; !cmp.Equal(got, want) {
		t.Errorf("includes-aliased foo_impl.h providers = %v, want %v", got, want)
	}
}

func TestBuildCCLibraryIncludePrefix(t *testing.T) {
	loader := newFakeLoader()
	loader.add("third_party/foo", `
cc_library(
    name = "foo",
    hdrs = ["foo.h"],
    include_prefix = "foo",
)
`)

	idx := headers.Build(loader)

	want := []query.Target{target("third_party/foo", "foo")}
	if got := idx.HeaderToTargets["foo/foo.h"]; !cmp.Equal(got, want) {
		t.Errorf("foo/foo.h providers = %v, want %v", got, want)
	}
	if _, ok := idx.HeaderToTargets["third_party/foo/foo.h"]; ok {
		t.Errorf("include_prefix should suppress the plain qualified path")
	}
}

func TestBuildCCLibraryStripIncludePrefix(t *testing.T) {
	loader := newFakeLoader()
	loader.add("third_party/foo/include", `
cc_library(
    name = "foo",
    hdrs = ["foo/foo.h"],
    strip_include_prefix = "/third_party/foo/include",
)
`)

	idx := headers.Build(loader)
	want := []query.Target{target("third_party/foo/include", "foo")}
	if got := idx.HeaderToTargets["foo/foo.h"]; !cmp.Equal(got, want) {
		t.Errorf("foo/foo.h providers = %v, want %v", got, want)
	}
}

func TestBuildGenruleOutputs(t *testing.T) {
	loader := newFakeLoader()
	loader.add("gen", `
genrule(
    name = "gen_version",
    outs = ["version.h"],
)
`)

	idx := headers.Build(loader)
	want := target("gen", "gen_version")
	if got, ok := idx.GenfileToTarget["gen/version.h"]; !ok || got != want {
		t.Errorf("gen/version.h producer = %v, %v, want %v", got, ok, want)
	}
}

func TestBuildProtoLibraryHeadersAttributedToCCWrapper(t *testing.T) {
	loader := newFakeLoader()
	loader.add("proto/foo", `
proto_library(
    name = "foo_proto",
    srcs = ["foo.proto"],
)

cc_proto_library(
    name = "foo_cc_proto",
    deps = [":foo_proto"],
)
`)

	idx := headers.Build(loader)
	want := []query.Target{target("proto/foo", "foo_cc_proto")}
	if got := idx.HeaderToTargets["proto/foo/foo.pb.h"]; !cmp.Equal(got, want) {
		t.Errorf("foo.pb.h providers = %v, want %v", got, want)
	}
	if _, ok := idx.HeaderToTargets["proto/foo/foo_proto"]; ok {
		t.Errorf("proto_library itself should not be recorded as a header provider")
	}
}

func TestFindBySuffixFuzzyMatch(t *testing.T) {
	loader := newFakeLoader()
	loader.add("lib/widgets", `
cc_library(
    name = "widgets",
    hdrs = ["widget.h"],
)
`)

	idx := headers.Build(loader)
	best, targets, score := idx.EnsureSuffixIndex().Query("widget.h")
	if best != "lib/widgets/widget.h" {
		t.Errorf("best = %q, want lib/widgets/widget.h", best)
	}
	if score == 0 {
		t.Errorf("score = 0, want a positive match score")
	}
	want := []query.Target{target("lib/widgets", "widgets")}
	if !cmp.Equal(targets, want) {
		t.Errorf("targets = %v, want %v", targets, want)
	}
}

func TestFindBySuffixTieUnionsProviders(t *testing.T) {
	loader := newFakeLoader()
	loader.add("red/a", `
cc_library(
    name = "a",
    hdrs = ["widget.h"],
)
`)
	loader.add("red/b", `
cc_library(
    name = "b",
    hdrs = ["widget.h"],
)
`)

	idx := headers.Build(loader)
	best, targets, score := idx.EnsureSuffixIndex().Query("widget.h")
	if score == 0 {
		t.Fatal("score = 0, want a positive match score")
	}
	if best != "red/a/widget.h" && best != "red/b/widget.h" {
		t.Errorf("best = %q, want one of the tied headers", best)
	}
	for _, want := range []query.Target{target("red/a", "a"), target("red/b", "b")} {
		found := false
		for _, got := range targets {
			if got == want {
				found = true
			}
		}
		if !found {
			t.Errorf("targets = %v, missing tied provider %v", targets, want)
		}
	}
}
