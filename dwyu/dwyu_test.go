package dwyu_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/buildaudit/buildaudit/dwyu"
	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/headers"
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

// fakeOpener resolves package-qualified paths against an in-memory file
// map instead of a real filesystem.
type fakeOpener struct {
	files map[string]string
}

func (o fakeOpener) Open(path string) ([]byte, bool, bool) {
	content, ok := o.files[path]
	if !ok {
		return nil, false, false
	}
	return []byte(content), false, true
}

type edit struct {
	op     present.EditRequest
	target string
	before string
	after  string
}

func collectEdits(t *testing.T, fn func(emit present.EditCallback)) []edit {
	t.Helper()
	var got []edit
	fn(func(op present.EditRequest, target query.Target, before, after string) {
		got = append(got, edit{op, target.String(), before, after})
	})
	return got
}

func TestDWYURemovesUnusedDep(t *testing.T) {
	loader := newFakeLoader()
	loader.add("app", `
cc_library(
    name = "app",
    srcs = ["app.cc"],
    deps = ["//lib/unused"],
)
`)
	loader.add("lib/unused", `
cc_library(
    name = "unused",
    hdrs = ["unused.h"],
)
`)

	opener := fakeOpener{files: map[string]string{
		"app/app.cc": `int main() { return 0; }`,
	}}

	idx := headers.Build(loader)
	analyzer := dwyu.NewAnalyzer(loader, idx, opener, nil)

	pattern, err := query.ParsePattern("//app", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	got := collectEdits(t, func(emit present.EditCallback) {
		analyzer.CreateEditsForPattern(pattern, emit)
	})

	want := []edit{{present.EditRemove, "//app", "//lib/unused", ""}}
	if !cmp.Equal(got, want, cmp.AllowUnexported(edit{})) {
		t.Errorf("edits = %+v, want %+v", got, want)
	}
}

func TestDWYUAddsMissingDep(t *testing.T) {
	loader := newFakeLoader()
	loader.add("app", `
cc_library(
    name = "app",
    srcs = ["app.cc"],
)
`)
	loader.add("lib/widget", `
cc_library(
    name = "widget",
    hdrs = ["widget.h"],
    visibility = ["//visibility:public"],
)
`)

	opener := fakeOpener{files: map[string]string{
		"app/app.cc": `#include "lib/widget/widget.h"` + "\n",
	}}

	idx := headers.Build(loader)
	analyzer := dwyu.NewAnalyzer(loader, idx, opener, nil)

	pattern, err := query.ParsePattern("//app", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	got := collectEdits(t, func(emit present.EditCallback) {
		analyzer.CreateEditsForPattern(pattern, emit)
	})

	want := []edit{{present.EditAdd, "//app", "", "//lib/widget"}}
	if !cmp.Equal(got, want, cmp.AllowUnexported(edit{})) {
		t.Errorf("edits = %+v, want %+v", got, want)
	}
}

func TestDWYUKeepsDepWhenHeaderIsUsed(t *testing.T) {
	loader := newFakeLoader()
	loader.add("app", `
cc_library(
    name = "app",
    srcs = ["app.cc"],
    deps = ["//lib/widget"],
)
`)
	loader.add("lib/widget", `
cc_library(
    name = "widget",
    hdrs = ["widget.h"],
)
`)

	opener := fakeOpener{files: map[string]string{
		"app/app.cc": `#include "lib/widget/widget.h"` + "\n",
	}}

	idx := headers.Build(loader)
	analyzer := dwyu.NewAnalyzer(loader, idx, opener, nil)

	pattern, err := query.ParsePattern("//app", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	got := collectEdits(t, func(emit present.EditCallback) {
		analyzer.CreateEditsForPattern(pattern, emit)
	})

	if len(got) != 0 {
		t.Errorf("edits = %+v, want none", got)
	}
}

func TestDWYUConservativeWhenSourceUnreadable(t *testing.T) {
	loader := newFakeLoader()
	loader.add("app", `
cc_library(
    name = "app",
    srcs = ["app.cc"],
    deps = ["//lib/unused"],
)
`)
	loader.add("lib/unused", `
cc_library(
    name = "unused",
    hdrs = ["unused.h"],
)
`)

	opener := fakeOpener{files: map[string]string{}} // app.cc can't be opened

	idx := headers.Build(loader)
	analyzer := dwyu.NewAnalyzer(loader, idx, opener, nil)

	pattern, err := query.ParsePattern("//app", query.Package{})
	if err != nil {
		t.Fatal(err)
	}

	got := collectEdits(t, func(emit present.EditCallback) {
		analyzer.CreateEditsForPattern(pattern, emit)
	})

	if len(got) != 0 {
		t.Errorf("edits = %+v, want none (source unreadable suppresses removal)", got)
	}
}
