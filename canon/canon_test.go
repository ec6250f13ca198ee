package canon_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/buildaudit/buildaudit/canon"
	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

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

type rename struct {
	target string
	before string
	after  string
}

func TestCreateEditsRenamesNonCanonicalDeps(t *testing.T) {
	loader := newFakeLoader()
	loader.add("some/path", `
cc_library(
    name = "bar",
    deps = [
        "//some/path:bar",
        ":baz",
        "//other:other",
        "@foo//:foo",
    ],
)
`)

	pattern, err := query.ParsePattern("//...", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	var got []rename
	emit := func(op present.EditRequest, target query.Target, before, after string) {
		if op != present.EditRename {
			t.Errorf("unexpected op %v", op)
		}
		got = append(got, rename{target.String(), before, after})
	}

	n := canon.CreateEdits(loader, pattern, emit)
	if n != 3 {
		t.Fatalf("CreateEdits returned %d, want 3", n)
	}

	want := []rename{
		{"//some/path:bar", "//some/path:bar", ":bar"},
		{"//some/path:bar", "//other:other", "//other"},
		{"//some/path:bar", "@foo//:foo", "@foo"},
	}
	if !cmp.Equal(got, want, cmp.AllowUnexported(rename{})) {
		t.Errorf("edits = %+v, want %+v", got, want)
	}
}

func TestCreateEditsSkipsAlreadyCanonical(t *testing.T) {
	loader := newFakeLoader()
	loader.add("some/path", `
cc_library(
    name = "bar",
    deps = [":baz", "//other"],
)
`)

	pattern, err := query.ParsePattern("//...", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	n := canon.CreateEdits(loader, pattern, func(present.EditRequest, query.Target, string, string) {
		t.Error("unexpected edit for already-canonical deps")
	})
	if n != 0 {
		t.Errorf("CreateEdits returned %d, want 0", n)
	}
}
