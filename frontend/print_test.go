package frontend_test

import (
	"testing"

	"github.com/buildaudit/buildaudit/frontend"
)

func TestPrintRoundTripsCall(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`cc_library(name = "foo", hdrs = ["foo.h", "bar.h"])`))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	if len(pf.Stmts) != 1 {
		t.Fatalf("got %d stmts, want 1", len(pf.Stmts))
	}

	printed := frontend.Print(pf.Stmts[0])
	want := `cc_library(name = "foo", hdrs = ["foo.h", "bar.h"])`
	if printed != want {
		t.Errorf("Print() = %q, want %q", printed, want)
	}

	reparsed := frontend.Parse(1, "pkg/BUILD", []byte(printed))
	if len(reparsed.Errors) != 0 {
		t.Fatalf("unexpected reparse errors: %v", reparsed.Errors)
	}
	if len(reparsed.Stmts) != 1 {
		t.Fatalf("reparse got %d stmts, want 1", len(reparsed.Stmts))
	}
}

func TestPrintEscapesEmbeddedQuote(t *testing.T) {
	pf := frontend.Parse(0, "pkg/BUILD", []byte(`x = "a\"b"`))
	if len(pf.Errors) != 0 {
		t.Fatalf("unexpected parse errors: %v", pf.Errors)
	}
	bin, ok := frontend.IsAssignment(pf.Stmts[0])
	if !ok {
		t.Fatalf("stmts[0] is not an assignment: %T", pf.Stmts[0])
	}
	printed := frontend.Print(bin.Right)
	want := `"a\"b"`
	if printed != want {
		t.Errorf("Print() = %q, want %q", printed, want)
	}
}
