package present_test

import (
	"bytes"
	"testing"

	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

func TestBuildozerEditCallbackFormatting(t *testing.T) {
	target := query.Target{Pkg: query.Package{Path: "some/path"}, Name: "bar"}

	cases := []struct {
		name       string
		op         present.EditRequest
		before     string
		after      string
		wantSuffix string
	}{
		{"remove", present.EditRemove, "//lib/unused", "", `'remove deps //lib/unused' //some/path:bar`},
		{"add", present.EditAdd, "", "//lib/widget", `'add deps //lib/widget' //some/path:bar`},
		{"rename", present.EditRename, "//a:a", "//a", `'replace deps //a:a //a' //some/path:bar`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			emit := present.NewBuildozerEditCallback(&buf)
			emit(c.op, target, c.before, c.after)
			got := buf.String()
			want := c.wantSuffix + "\n"
			if got != want {
				t.Errorf("emitted %q, want %q", got, want)
			}
		})
	}
}

func TestShellQuoteEscapesSingleQuotes(t *testing.T) {
	got := present.ShellQuote(`remove deps it's:here`)
	want := `'remove deps it'\''s:here'`
	if got != want {
		t.Errorf("ShellQuote = %q, want %q", got, want)
	}
}
