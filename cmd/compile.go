package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/project"
	"github.com/buildaudit/buildaudit/query"
	"github.com/buildaudit/buildaudit/workspace"
)

func initCompileFlags(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "compile-flags [pattern...]",
		Short: "Print the -I flags a clang tool needs to resolve this workspace's includes",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runCompileFlags(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runCompileFlags(args []string, flags *Flags) int {
	if len(args) > 0 {
		flags.Patterns.v = append(flags.Patterns.v, args...)
	}
	ws, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if _, err := loadPatterns(store, flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	for _, flag := range collectIncludeFlags(ws, store) {
		fmt.Println(flag)
	}
	return exitSuccess
}

// collectIncludeFlags derives one -I flag per include root a compiler
// would need: the workspace itself, the generated-output roots, every
// extracted external project, and every `includes`/`strip_include_prefix`
// directory declared by a loaded cc_library.
func collectIncludeFlags(ws *workspace.Workspace, store *project.Store) []string {
	base := []string{"-I.", "-Ibazel-bin", "-Ibazel-genfiles"}

	extra := map[string]bool{}
	for _, ep := range ws.Declared {
		if ep.Dir != "" {
			extra["-I"+ep.Dir] = true
		}
	}
	for _, pkg := range store.LoadedPackages() {
		calls, ok := store.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			if call.Kind != "cc_library" {
				continue
			}
			if dirs, ok := query.StringListAttr(call.Kwargs, "includes"); ok {
				for _, d := range dirs {
					extra["-I"+qualifyDir(pkg, d)] = true
				}
			}
			if strip, ok := query.StringAttr(call.Kwargs, "strip_include_prefix"); ok {
				extra["-I"+qualifyDir(pkg, strip)] = true
			}
		}
	}

	sorted := make([]string, 0, len(extra))
	for f := range extra {
		sorted = append(sorted, f)
	}
	sort.Strings(sorted)
	return append(base, sorted...)
}

func qualifyDir(pkg query.Package, dir string) string {
	dir = filepath.ToSlash(filepath.Clean("/" + dir))[1:]
	if dir == "" || dir == "." {
		if pkg.Path == "" {
			return "."
		}
		return pkg.Path
	}
	if pkg.Path == "" {
		return dir
	}
	return pkg.Path + "/" + dir
}

// compileCommand is one entry of a clang compilation database
// (compile_commands.json); the field names and shape are fixed by the
// consuming tools, hence direct JSON marshalling rather than a TableSink.
type compileCommand struct {
	Directory string   `json:"directory"`
	File      string   `json:"file"`
	Arguments []string `json:"arguments"`
}

func initCompilationDB(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "compilation-db [pattern...]",
		Short: "Emit a clang compile_commands.json for matched cc targets",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runCompilationDB(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

// ccRuleKinds are the rule kinds whose srcs end up in front of a C++
// compiler.
var ccRuleKinds = map[string]bool{
	"cc_library": true, "cc_binary": true, "cc_test": true,
}

func runCompilationDB(args []string, flags *Flags) int {
	if len(args) > 0 {
		flags.Patterns.v = append(flags.Patterns.v, args...)
	}
	ws, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	patterns, err := loadPatterns(store, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	absRoot, err := filepath.Abs(ws.RootDir)
	if err != nil {
		absRoot = ws.RootDir
	}
	includeFlags := collectIncludeFlags(ws, store)

	var db []compileCommand
	for _, pkg := range store.LoadedPackages() {
		if !matchesAny(patterns, pkg) {
			continue
		}
		calls, ok := store.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			if !ccRuleKinds[call.Kind] {
				continue
			}
			srcs, _ := query.StringListAttr(call.Kwargs, "srcs")
			for _, src := range srcs {
				if !isCCSource(src) {
					continue
				}
				file := src
				if pkg.Path != "" {
					file = pkg.Path + "/" + src
				}
				arguments := append([]string{"cc", "-xc++"}, includeFlags...)
				arguments = append(arguments, "-c", file)
				db = append(db, compileCommand{
					Directory: absRoot,
					File:      file,
					Arguments: arguments,
				})
			}
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(db); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitSuccess
}

func isCCSource(name string) bool {
	for _, suffix := range []string{".cc", ".cpp", ".cxx", ".c"} {
		if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}
