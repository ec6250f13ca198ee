package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/headers"
	"github.com/buildaudit/buildaudit/present"
)

// initLibHeaders wires `lib-headers <header-path>`: resolve a header path
// (or suffix of one) to its providing target(s), falling back to
// suffix-matching when there's no exact hit.
func initLibHeaders(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "lib-headers <header-path> [pattern...]",
		Short: "Resolve a header path to the target(s) that export it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runLibHeaders(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runLibHeaders(args []string, flags *Flags) int {
	header := args[0]
	if len(args) > 1 {
		flags.Patterns.v = append(flags.Patterns.v, args[1:]...)
	}
	_, store, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if _, err := loadPatterns(store, flags); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	idx := headers.Build(store)
	sink := present.NewAlignedTableSink(os.Stdout, []string{"header", "provider"})

	if providers, ok := idx.HeaderToTargets[header]; ok {
		var rows []string
		for _, t := range providers {
			rows = append(rows, t.String())
		}
		sink.AddRowWithRepeatedLastColumn([]string{header}, rows)
		sink.Finish()
		return exitSuccess
	}

	best, targets, score := idx.EnsureSuffixIndex().Query(header)
	if score == 0 {
		fmt.Fprintf(os.Stderr, "no known provider for %q\n", header)
		return exitNeedsClarification
	}
	var rows []string
	for _, t := range targets {
		rows = append(rows, t.String())
	}
	sink.AddRowWithRepeatedLastColumn([]string{best + " (closest match)"}, rows)
	sink.Finish()
	return exitSuccess
}
