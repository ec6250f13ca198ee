package query

import "testing"

func TestTargetStringCompaction(t *testing.T) {
	cases := []struct {
		name string
		t    Target
		want string
	}{
		{
			name: "external project self-target compacts to @p",
			t:    Target{Pkg: Package{Project: "foo"}, Name: "foo"},
			want: "@foo",
		},
		{
			name: "package-named target compacts to //x",
			t:    Target{Pkg: Package{Path: "some/path"}, Name: "path"},
			want: "//some/path",
		},
		{
			name: "ordinary target keeps its name",
			t:    Target{Pkg: Package{Path: "some/path"}, Name: "bar"},
			want: "//some/path:bar",
		},
		{
			name: "root package target",
			t:    Target{Pkg: Package{}, Name: "root_lib"},
			want: "//:root_lib",
		},
		{
			name: "external project, non-self target",
			t:    Target{Pkg: Package{Project: "foo", Path: "sub"}, Name: "sub"},
			want: "@foo//sub",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.t.String(); got != c.want {
				t.Errorf("String() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestTargetStringRelativeTo(t *testing.T) {
	pkg := Package{Path: "some/path"}
	cases := []struct {
		name string
		t    Target
		rel  Package
		want string
	}{
		{"same package", Target{Pkg: pkg, Name: "bar"}, pkg, ":bar"},
		{"same project, different package", Target{Pkg: Package{Path: "other"}, Name: "baz"}, pkg, "//other:baz"},
		{"same project, package-named target", Target{Pkg: Package{Path: "other"}, Name: "other"}, pkg, "//other"},
		{"different project", Target{Pkg: Package{Project: "ext", Path: "x"}, Name: "y"}, pkg, "@ext//x:y"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.t.StringRelativeTo(c.rel); got != c.want {
				t.Errorf("StringRelativeTo() = %q, want %q", got, c.want)
			}
		})
	}
}

func TestParseTargetRoundTrip(t *testing.T) {
	pkg := Package{Path: "some/path"}
	inputs := []Target{
		{Pkg: pkg, Name: "bar"},
		{Pkg: Package{}, Name: "root_lib"},
		{Pkg: Package{Project: "foo"}, Name: "foo"},
		{Pkg: Package{Project: "foo", Path: "sub/dir"}, Name: "baz"},
	}
	for _, want := range inputs {
		s := want.String()
		got, err := ParseTarget(s, want.Pkg)
		if err != nil {
			t.Fatalf("ParseTarget(%q): %v", s, err)
		}
		if got != want {
			t.Errorf("ParseTarget(String(%v)) = %v, want %v", want, got, want)
		}
	}
}

func TestParseTargetRelativeForms(t *testing.T) {
	pkg := Package{Path: "some/path"}
	cases := []struct {
		s    string
		want Target
	}{
		{":bar", Target{Pkg: pkg, Name: "bar"}},
		{"bar", Target{Pkg: pkg, Name: "bar"}},
		{"//other:baz", Target{Pkg: Package{Path: "other"}, Name: "baz"}},
		{"//other", Target{Pkg: Package{Path: "other"}, Name: "other"}},
		{"@foo//sub:baz", Target{Pkg: Package{Project: "foo", Path: "sub"}, Name: "baz"}},
		{"@foo", Target{Pkg: Package{Project: "foo"}, Name: "foo"}},
	}
	for _, c := range cases {
		t.Run(c.s, func(t *testing.T) {
			got, err := ParseTarget(c.s, pkg)
			if err != nil {
				t.Fatalf("ParseTarget(%q): %v", c.s, err)
			}
			if got != c.want {
				t.Errorf("ParseTarget(%q) = %+v, want %+v", c.s, got, c.want)
			}
		})
	}
}
