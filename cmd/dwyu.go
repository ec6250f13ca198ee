package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/dwyu"
	"github.com/buildaudit/buildaudit/graph"
	"github.com/buildaudit/buildaudit/headers"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

func initDWYU(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "dwyu [pattern]",
		Short: "Propose deps edits so each target depends on exactly what it #includes",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runDWYU(args, flags))
			return nil
		},
	}
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runDWYU(args []string, flags *Flags) int {
	patternStr := "//..."
	if len(args) > 0 {
		patternStr = args[0]
	}
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

	g, _ := graph.Build(store, pattern, -1)
	idx := headers.Build(store)
	opener := dwyu.OSFileOpener{Root: rootDir}
	analyzer := dwyu.NewAnalyzer(store, idx, opener, g.AliasedBy)

	edits := 0
	write := present.NewBuildozerEditCallback(os.Stdout)
	emit := func(op present.EditRequest, target query.Target, before, after string) {
		edits++
		write(op, target, before, after)
	}
	analyzer.CreateEditsForPattern(pattern, emit)

	if edits > 0 {
		return exitEditsEmitted
	}
	return exitSuccess
}
