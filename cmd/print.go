package cmd

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/frontend"
)

// initPrint wires the `print` verb: re-render every elaborated top-level
// statement of each matched package, optionally filtered by a regex so
// the output can serve as a quick "what does this attribute expand to"
// probe.
func initPrint(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "print [pattern...]",
		Short: "Print the elaborated form of matched BUILD files",
		RunE: func(_ *cobra.Command, args []string) error {
			os.Exit(runPrint(args, flags))
			return nil
		},
	}
	command.Flags().VarP(&flags.Patterns, "pattern", "p", "target pattern (repeatable)")
	command.Flags().StringVarP(&flags.GrepRegex, "grep", "g", "", "only print statements matching this regex")
	command.Flags().BoolVarP(&flags.CaseInsensitive, "ignore-case", "i", false, "case-insensitive grep")
	addSelectFlag(command, flags)
	root.AddCommand(command)
}

func runPrint(args []string, flags *Flags) int {
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

	var grep *regexp.Regexp
	if flags.GrepRegex != "" {
		expr := flags.GrepRegex
		if flags.CaseInsensitive {
			expr = "(?i)" + expr
		}
		grep, err = regexp.Compile(expr)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitNeedsClarification
		}
	}

	for _, pkg := range store.LoadedPackages() {
		if !matchesAny(patterns, pkg) {
			continue
		}
		rec, ok := store.Package(pkg)
		if !ok {
			continue
		}
		for _, file := range rec.Files {
			for _, stmt := range file.Stmts {
				rendered := frontend.Print(stmt)
				if grep != nil && !grep.MatchString(rendered) {
					continue
				}
				fmt.Printf("# %s\n%s\n", pkg, rendered)
			}
		}
	}
	if store.Stats.ParseErrors > 0 {
		return exitFailure
	}
	return exitSuccess
}
