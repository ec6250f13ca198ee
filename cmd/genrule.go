package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/headers"
	"github.com/buildaudit/buildaudit/present"
)

func initGenruleOutputs(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "genrule-outputs [pattern...]",
		Short: "List every generated file and the rule that produces it",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runGenruleOutputs(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runGenruleOutputs(args []string, flags *Flags) int {
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

	idx := headers.Build(store)
	outs := make([]string, 0, len(idx.GenfileToTarget))
	for out := range idx.GenfileToTarget {
		outs = append(outs, out)
	}
	sort.Strings(outs)

	sink := present.NewAlignedTableSink(os.Stdout, []string{"generated-file", "by-rule"})
	for _, out := range outs {
		producer := idx.GenfileToTarget[out]
		if !matchesAny(patterns, producer.Pkg) {
			continue
		}
		sink.AddRow([]string{out, producer.String()})
	}
	sink.Finish()
	return exitSuccess
}
