package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/graph"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

func initDependsOn(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "depends-on <pattern>",
		Short: "List every target pattern's transitive dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runGraphQuery(args[0], flags, false))
			return nil
		},
	}
	command.Flags().IntVar(&flags.RecurseDepth, "depth", -1, "BFS round budget; -1 for unbounded")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func initHasDependents(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "has-dependents <pattern>",
		Short: "List every target that (transitively) depends on pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runGraphQuery(args[0], flags, true))
			return nil
		},
	}
	command.Flags().IntVar(&flags.RecurseDepth, "depth", -1, "BFS round budget; -1 for unbounded")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runGraphQuery(patternStr string, flags *Flags, reverse bool) int {
	_, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	pattern, err := query.ParsePattern(patternStr, query.Package{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitNeedsClarification
	}
	if err := store.FillFromPattern(pattern); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	g, unresolved := graph.Build(store, pattern, flags.RecurseDepth)
	for _, u := range unresolved {
		fmt.Fprintf(os.Stderr, "unresolved target: %s\n", u)
	}

	adjacency := g.DependsOn
	columns := []string{"target", "dependency"}
	if reverse {
		adjacency = g.HasDependents
		columns = []string{"target", "dependent"}
	}

	sink := present.NewAlignedTableSink(os.Stdout, columns)
	for _, pkg := range store.LoadedPackages() {
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
			if !pattern.Match(t) {
				continue
			}
			var rows []string
			for _, d := range adjacency[t] {
				rows = append(rows, d.String())
			}
			sink.AddRowWithRepeatedLastColumn([]string{t.String()}, rows)
		}
	}
	sink.Finish()
	return exitSuccess
}

func initAliasedBy(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "aliased-by <pattern>",
		Short: "List every alias pointing at targets matched by pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runAliasedBy(args[0], flags))
			return nil
		},
	}
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runAliasedBy(patternStr string, flags *Flags) int {
	_, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	pattern, err := query.ParsePattern(patternStr, query.Package{})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitNeedsClarification
	}
	if err := store.FillFromPattern(pattern); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	g, _ := graph.Build(store, query.Always(), -1)

	sink := present.NewAlignedTableSink(os.Stdout, []string{"target", "aliased-by"})
	for _, pkg := range store.LoadedPackages() {
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
			if !pattern.Match(t) {
				continue
			}
			aliases := g.AliasedBy[t]
			if len(aliases) == 0 {
				continue
			}
			var rows []string
			for _, a := range aliases {
				rows = append(rows, a.String())
			}
			sink.AddRowWithRepeatedLastColumn([]string{t.String()}, rows)
		}
	}
	sink.Finish()
	return exitSuccess
}
