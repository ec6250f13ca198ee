package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

// The target-hdrs/target-srcs/target-data verbs all share one shape:
// per matched target, list the entries of a single string-list
// attribute, package-qualified so the output lines up with what the
// header index and DWYU see.
func initTargetAttrs(root *cobra.Command) {
	for verb, attr := range map[string]string{
		"target-hdrs": "hdrs",
		"target-srcs": "srcs",
		"target-data": "data",
	} {
		attr := attr
		flags := NewFlags()
		command := &cobra.Command{
			Use:   verb + " [pattern...]",
			Short: "List each matched target's " + attr + " entries",
			RunE: func(_ *cobra.Command, args []string) error {
				os.Exit(runTargetAttr(args, flags, attr))
				return nil
			},
		}
		command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
		addSelectFlag(command, flags)
		root.AddCommand(command)
	}
}

func runTargetAttr(args []string, flags *Flags, attr string) int {
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

	sink := present.NewAlignedTableSink(os.Stdout, []string{"target", attr})
	for _, pkg := range store.LoadedPackages() {
		if !matchesAny(patterns, pkg) {
			continue
		}
		calls, ok := store.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			name, ok := query.NameOf(call.Kwargs)
			if !ok {
				continue
			}
			t := query.Target{Pkg: pkg, Name: name}
			entries, ok := query.StringListAttr(call.Kwargs, attr)
			if !ok || len(entries) == 0 {
				continue
			}
			sink.AddRowWithRepeatedLastColumn([]string{t.String()}, entries)
		}
	}
	sink.Finish()
	return exitSuccess
}
