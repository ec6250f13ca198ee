package cmd

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/buildaudit/buildaudit/query"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// chroot points every subcommand at dir for the duration of one test.
func chroot(t *testing.T, dir string) {
	t.Helper()
	prev := rootDir
	rootDir = dir
	t.Cleanup(func() { rootDir = prev })
}

// captureStdout runs fn with os.Stdout redirected into a pipe and
// returns everything it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	prev := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = prev }()

	fn()
	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

func TestListTargets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "lib", "BUILD"), `
cc_library(name = "util", hdrs = ["util.h"])
cc_binary(name = "tool", srcs = ["tool.cc"], deps = [":util"])
`)
	chroot(t, root)

	var code int
	out := captureStdout(t, func() {
		code = runListTargets(nil, NewFlags())
	})
	if code != exitSuccess {
		t.Fatalf("exit = %d, want %d", code, exitSuccess)
	}
	for _, want := range []string{"//lib:util", "//lib:tool", "cc_library", "cc_binary"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestDWYURemovesUnusedDep(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "BUILD"), `
cc_library(name = "unused", hdrs = ["unused.h"])
cc_binary(name = "tool", srcs = ["tool.cc"], deps = [":unused"])
`)
	writeFile(t, filepath.Join(root, "unused.h"), "")
	writeFile(t, filepath.Join(root, "tool.cc"), "int main() { return 0; }\n")
	chroot(t, root)

	var code int
	out := captureStdout(t, func() {
		code = runDWYU(nil, NewFlags())
	})
	if code != exitEditsEmitted {
		t.Fatalf("exit = %d, want %d", code, exitEditsEmitted)
	}
	if !strings.Contains(out, "'remove deps :unused'") {
		t.Errorf("expected a remove edit, got:\n%s", out)
	}
}

func TestCanonicalizeEmitsRenames(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "some", "path", "BUILD"), `
cc_library(name = "bar")
cc_library(name = "foo", deps = ["//some/path:bar"])
`)
	chroot(t, root)

	var code int
	out := captureStdout(t, func() {
		code = runCanonicalize(nil, NewFlags())
	})
	if code != exitEditsEmitted {
		t.Fatalf("exit = %d, want %d", code, exitEditsEmitted)
	}
	if !strings.Contains(out, "'replace deps //some/path:bar :bar'") {
		t.Errorf("expected a rename edit, got:\n%s", out)
	}
}

func TestPrintGrepFilter(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "BUILD"), `
cc_library(name = "alpha")
cc_library(name = "beta")
`)
	chroot(t, root)

	flags := NewFlags()
	flags.GrepRegex = "ALPHA"
	flags.CaseInsensitive = true
	var code int
	out := captureStdout(t, func() {
		code = runPrint(nil, flags)
	})
	if code != exitSuccess {
		t.Fatalf("exit = %d, want %d", code, exitSuccess)
	}
	if !strings.Contains(out, "alpha") || strings.Contains(out, "beta") {
		t.Errorf("grep should keep alpha and drop beta:\n%s", out)
	}
}

func TestCompileFlags(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "lib", "BUILD"), `
cc_library(name = "util", hdrs = ["inc/util.h"], includes = ["inc"])
`)
	chroot(t, root)

	var code int
	out := captureStdout(t, func() {
		code = runCompileFlags(nil, NewFlags())
	})
	if code != exitSuccess {
		t.Fatalf("exit = %d, want %d", code, exitSuccess)
	}
	for _, want := range []string{"-I.\n", "-Ibazel-bin\n", "-Ilib/inc\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCompilationDB(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "WORKSPACE"), "")
	writeFile(t, filepath.Join(root, "lib", "BUILD"), `
cc_binary(name = "tool", srcs = ["tool.cc", "data.txt"])
`)
	chroot(t, root)

	var code int
	out := captureStdout(t, func() {
		code = runCompilationDB(nil, NewFlags())
	})
	if code != exitSuccess {
		t.Fatalf("exit = %d, want %d", code, exitSuccess)
	}
	if !strings.Contains(out, `"file": "lib/tool.cc"`) {
		t.Errorf("expected a compile command for lib/tool.cc:\n%s", out)
	}
	if strings.Contains(out, "data.txt") {
		t.Errorf("non-source srcs entry should be skipped:\n%s", out)
	}
}

func TestRepeatedAndKeyValueFlags(t *testing.T) {
	var rep repeatedStringFlag
	if err := rep.Set("//a/..."); err != nil {
		t.Fatal(err)
	}
	if err := rep.Set("//b:c"); err != nil {
		t.Fatal(err)
	}
	if got := rep.String(); got != "//a/...,//b:c" {
		t.Errorf("String() = %q", got)
	}

	var kv keyValueFlag
	if err := kv.Set("//flag:x=on"); err != nil {
		t.Fatal(err)
	}
	if kv.m["//flag:x"] != "on" {
		t.Errorf("kv.m = %v", kv.m)
	}

	e := newEnumFlag("warn", "debug", "info", "warn", "error")
	if err := e.Set("loud"); err == nil {
		t.Error("Set(loud) should fail")
	}
	if err := e.Set("debug"); err != nil || e.value != "debug" {
		t.Errorf("Set(debug): err=%v value=%q", err, e.value)
	}
}

func TestQualifyDir(t *testing.T) {
	for _, tc := range []struct {
		pkg  string
		dir  string
		want string
	}{
		{"lib", "inc", "lib/inc"},
		{"lib", "", "lib"},
		{"lib", ".", "lib"},
		{"", "inc", "inc"},
		{"", "", "."},
		{"lib", "../lib2", "lib/lib2"},
	} {
		got := qualifyDir(query.Package{Path: tc.pkg}, tc.dir)
		if got != tc.want {
			t.Errorf("qualifyDir(%q, %q) = %q, want %q", tc.pkg, tc.dir, got, tc.want)
		}
	}
}
