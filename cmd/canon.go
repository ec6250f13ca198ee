package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/canon"
	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/query"
)

func initCanonicalize(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "canonicalize [pattern]",
		Short: "Propose rename edits for deps strings not already in canonical form",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runCanonicalize(args, flags))
			return nil
		},
	}
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runCanonicalize(args []string, flags *Flags) int {
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

	write := present.NewBuildozerEditCallback(os.Stdout)
	edits := canon.CreateEdits(store, pattern, write)

	if edits > 0 {
		return exitEditsEmitted
	}
	return exitSuccess
}
