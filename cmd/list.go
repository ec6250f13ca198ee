package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/graph"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

func initListPackages(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "list-packages [pattern...]",
		Short: "List every package matched by pattern",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runListPackages(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runListPackages(args []string, flags *Flags) int {
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

	sink := present.NewAlignedTableSink(os.Stdout, []string{"package"})
	for _, pkg := range store.LoadedPackages() {
		if matchesAny(patterns, pkg) {
			sink.AddRow([]string{pkg.String()})
		}
	}
	sink.Finish()
	return exitSuccess
}

func initListTargets(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "list-targets [pattern...]",
		Short: "List every target matched by pattern, with its rule kind",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runListTargets(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runListTargets(args []string, flags *Flags) int {
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

	sink := present.NewAlignedTableSink(os.Stdout, []string{"target", "kind"})
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
			target := query.Target{Pkg: pkg, Name: name}
			sink.AddRow([]string{target.String(), call.Kind})
		}
	}
	sink.Finish()
	return exitSuccess
}

// initListLeafs wires `list-leafs`: targets matched by pattern that no
// other target in the expanded graph depends on. Useful as a "what can
// be deleted or is an entry point" probe.
func initListLeafs(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "list-leafs [pattern...]",
		Short: "List matched targets nothing else depends on",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runListLeafs(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runListLeafs(args []string, flags *Flags) int {
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

	g, _ := graph.Build(store, query.Always(), -1)

	sink := present.NewAlignedTableSink(os.Stdout, []string{"leaf", "kind"})
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
			if len(g.HasDependents[t]) > 0 {
				continue
			}
			sink.AddRow([]string{t.String(), call.Kind})
		}
	}
	sink.Finish()
	return exitSuccess
}
