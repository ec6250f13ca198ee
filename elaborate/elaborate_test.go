package elaborate_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/buildaudit/buildaudit/elaborate"
	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/query"
)

// fakeRegistrar hands out synthetic tokens without touching a real
// project.Store's RangeMap, enough for the elaborator's own tests.
type fakeRegistrar struct{ n int }

func (r *fakeRegistrar) RegisterSynthetic(content []byte, at *frontend.Location) frontend.Token {
	r.n++
	return frontend.Token{Text: content}
}

// fakeGlobFS lists a fixed set of relative paths under any pkgDir, enough
// to exercise glob() without touching disk.
type fakeGlobFS struct{ files []string }

func (g fakeGlobFS) Walk(pkgDir string, fn func(relPath string)) error {
	for _, f := range g.files {
		fn(f)
	}
	return nil
}

func elaborateSource(t *testing.T, src string) []frontend.Node {
	t.Helper()
	pf := frontend.Parse(0, "pkg/BUILD", []byte(src))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	pkg := query.Package{Path: "pkg"}
	ctx := elaborate.NewContext(pkg, "pkg", pf.Arenas, nil, nil, nil, &fakeRegistrar{})
	return elaborate.File(ctx, pf.Stmts)
}

func findCall(stmts []frontend.Node, name string) *frontend.FuncCall {
	for _, s := range stmts {
		if c, ok := s.(*frontend.FuncCall); ok {
			if id, ok := c.Fn.(*frontend.Identifier); ok && id.Name == name {
				return c
			}
		}
	}
	return nil
}

// TestVariableExpansion: a prior top-level
// assignment substitutes into a later list, but an identifier used as a
// call argument (not bound as a top-level assignment) is left alone.
func TestVariableExpansion(t *testing.T) {
	stmts := elaborateSource(t, `
BAR = "bar.cc"
SRCS = ["foo.cc", BAR]
cc_library(name = "foo", srcs = SRCS, baz = name)
`)
	call := findCall(stmts, "cc_library")
	if call == nil {
		t.Fatal("cc_library call not found")
	}
	kwargs := frontend.Kwargs(call)

	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok {
		t.Fatalf("srcs did not fold to a literal string list: %v", kwargs["srcs"])
	}
	if want := []string{"foo.cc", "bar.cc"}; !cmp.Equal(srcs, want) {
		t.Errorf("srcs = %v, want %v", srcs, want)
	}

	baz := kwargs["baz"]
	id, ok := baz.(*frontend.Identifier)
	if !ok || id.Name != "name" {
		t.Errorf("baz = %v, want unsubstituted identifier `name`", baz)
	}
}

func TestTupleUnpack(t *testing.T) {
	stmts := elaborateSource(t, `
a, b = "x", "y"
cc_library(name = a, srcs = [b])
`)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	name, ok := frontend.StringValue(kwargs["name"])
	if !ok || name != "x" {
		t.Errorf("name = %q, %v, want \"x\", true", name, ok)
	}
	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok || !cmp.Equal(srcs, []string{"y"}) {
		t.Errorf("srcs = %v, %v, want [y], true", srcs, ok)
	}
}

func TestStringConcatAndFormat(t *testing.T) {
	stmts := elaborateSource(t, `
cc_library(
    name = "foo",
    hdrs = ["a" + "/" + "b.h"],
    srcs = ["{}.cc".format("foo")],
)
`)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	hdrs, ok := frontend.StringListValue(kwargs["hdrs"])
	if !ok || !cmp.Equal(hdrs, []string{"a/b.h"}) {
		t.Errorf("hdrs = %v, %v, want [a/b.h], true", hdrs, ok)
	}
	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok || !cmp.Equal(srcs, []string{"foo.cc"}) {
		t.Errorf("srcs = %v, %v, want [foo.cc], true", srcs, ok)
	}
}

func TestTernary(t *testing.T) {
	stmts := elaborateSource(t, `
cc_library(name = "foo", srcs = ["a.cc"] if 1 else ["b.cc"])
`)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok || !cmp.Equal(srcs, []string{"a.cc"}) {
		t.Errorf("srcs = %v, %v, want [a.cc], true", srcs, ok)
	}
}

func TestIndexAndSlice(t *testing.T) {
	stmts := elaborateSource(t, `
L = ["a", "b", "c"]
cc_library(name = "foo", srcs = L[1:], hdrs = [L[-1]])
`)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok || !cmp.Equal(srcs, []string{"b", "c"}) {
		t.Errorf("srcs = %v, %v, want [b c], true", srcs, ok)
	}
	hdrs, ok := frontend.StringListValue(kwargs["hdrs"])
	if !ok || !cmp.Equal(hdrs, []string{"c"}) {
		t.Errorf("hdrs = %v, %v, want [c], true", hdrs, ok)
	}
}

func TestSelectWithDefault(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`
cc_library(name = "foo", deps = select({
    "//conditions:linux": ["//a:linux"],
    "//conditions:default": ["//a:generic"],
}))
`))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	pkg := query.Package{Path: "pkg"}
	ctx := elaborate.NewContext(pkg, "pkg", pf.Arenas, map[string]string{}, nil, nil, &fakeRegistrar{})
	stmts := elaborate.File(ctx, pf.Stmts)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	deps, ok := frontend.StringListValue(kwargs["deps"])
	if !ok || !cmp.Equal(deps, []string{"//a:generic"}) {
		t.Errorf("deps = %v, %v, want default branch [//a:generic], true", deps, ok)
	}
}

func TestSelectMatchingFlag(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`
cc_library(name = "foo", deps = select({
    "//conditions:linux": ["//a:linux"],
    "//conditions:default": ["//a:generic"],
}))
`))
	pkg := query.Package{Path: "pkg"}
	ctx := elaborate.NewContext(pkg, "pkg", pf.Arenas, map[string]string{"//conditions:linux": "1"}, nil, nil, &fakeRegistrar{})
	stmts := elaborate.File(ctx, pf.Stmts)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	deps, ok := frontend.StringListValue(kwargs["deps"])
	if !ok || !cmp.Equal(deps, []string{"//a:linux"}) {
		t.Errorf("deps = %v, %v, want matched branch [//a:linux], true", deps, ok)
	}
}

func TestGlob(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`
cc_library(name = "foo", srcs = glob(["*.cc"], exclude = ["skip.cc"]))
`))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	pkg := query.Package{Path: "pkg"}
	fs := fakeGlobFS{files: []string{"a.cc", "b.cc", "skip.cc", "sub/c.cc"}}
	ctx := elaborate.NewContext(pkg, "pkg", pf.Arenas, nil, nil, fs, &fakeRegistrar{})
	stmts := elaborate.File(ctx, pf.Stmts)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	srcs, ok := frontend.StringListValue(kwargs["srcs"])
	if !ok || !cmp.Equal(srcs, []string{"a.cc", "b.cc"}) {
		t.Errorf("srcs = %v, %v, want [a.cc b.cc] (excluded & non-matching dropped, sorted)", srcs, ok)
	}
}

// TestElaborationIdempotence checks the testable property that folding an
// already-elaborated statement list produces a structurally identical
// result.
func TestElaborationIdempotence(t *testing.T) {
	stmts := elaborateSource(t, `
BAR = "bar.cc"
SRCS = ["foo.cc", BAR]
cc_library(name = "foo", srcs = SRCS, deps = ["//a:b"] if 1 else ["//c:d"])
`)

	pkg := query.Package{Path: "pkg"}
	arenas := frontend.NewArenas()
	ctx := elaborate.NewContext(pkg, "pkg", arenas, nil, nil, nil, &fakeRegistrar{})
	again := elaborate.File(ctx, stmts)

	call1 := findCall(stmts, "cc_library")
	call2 := findCall(again, "cc_library")
	kw1, kw2 := frontend.Kwargs(call1), frontend.Kwargs(call2)

	srcs1, _ := frontend.StringListValue(kw1["srcs"])
	srcs2, _ := frontend.StringListValue(kw2["srcs"])
	if !cmp.Equal(srcs1, srcs2) {
		t.Errorf("re-elaboration changed srcs: %v -> %v", srcs1, srcs2)
	}
	deps1, _ := frontend.StringListValue(kw1["deps"])
	deps2, _ := frontend.StringListValue(kw2["deps"])
	if !cmp.Equal(deps1, deps2) {
		t.Errorf("re-elaboration changed deps: %v -> %v", deps1, deps2)
	}
}

// TestCopyOnWriteIdentity checks that a statement with nothing to fold
// comes back as the exact same node pointer, not merely an equal one.
func TestCopyOnWriteIdentity(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`
cc_library(name = "foo", srcs = ["a.cc", "b.cc"])
`))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	pkg := query.Package{Path: "pkg"}
	ctx := elaborate.NewContext(pkg, "pkg", pf.Arenas, nil, nil, nil, &fakeRegistrar{})
	out := elaborate.File(ctx, pf.Stmts)
	if out[0] != pf.Stmts[0] {
		t.Errorf("fully-constant statement with no elaborable construct was not returned by identity")
	}
}

func TestMapMerge(t *testing.T) {
	stmts := elaborateSource(t, `
cc_library(name = "foo", tags = {"a": "1", "b": "2"} | {"b": "3", "c": "4"})
`)
	call := findCall(stmts, "cc_library")
	kwargs := frontend.Kwargs(call)
	m, ok := kwargs["tags"].(*frontend.ListExpr)
	if !ok || m.Kind != frontend.ListKindMap {
		t.Fatalf("tags did not fold to a map literal: %v", kwargs["tags"])
	}
	var got []string
	for i := 0; i+1 < len(m.Elements); i += 2 {
		k, _ := frontend.StringValue(m.Elements[i])
		v, _ := frontend.StringValue(m.Elements[i+1])
		got = append(got, k+"="+v)
	}
	want := []string{"a=1", "b=3", "c=4"}
	if !cmp.Equal(got, want) {
		t.Errorf("merged map = %v, want %v", got, want)
	}
}
