package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/query"
)

// initParse wires the `parse` verb: load every package matched by the
// given pattern(s) and pretty-print each rule call-site found.
func initParse(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "parse [pattern...]",
		Short: "Parse BUILD files matched by pattern and print their rule call-sites",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runParse(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runParse(args []string, flags *Flags) int {
	if len(args) > 0 {
		flags.Patterns.v = append(flags.Patterns.v, args...)
	}
	_, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	patterns, err := loadPatterns(store, flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	failed := false
	for _, pkg := range store.LoadedPackages() {
		if !matchesAny(patterns, pkg) {
			continue
		}
		calls, ok := store.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			name, _ := query.NameOf(call.Kwargs)
			target := query.Target{Pkg: pkg, Name: name}
			args := make([]string, len(call.Call.Args))
			for i, a := range call.Call.Args {
				args[i] = frontend.Print(a)
			}
			fmt.Printf("# %s\n%s(%s)\n", target, call.Kind, strings.Join(args, ", "))
		}
	}
	if store.Stats.ParseErrors > 0 {
		failed = true
	}
	if failed {
		return exitFailure
	}
	return exitSuccess
}
