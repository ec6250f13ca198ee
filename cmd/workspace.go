package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/present"
	"github.com/buildaudit/buildaudit/workspace"
)

func initWorkspace(root *cobra.Command) {
	flags := NewFlags()
	command := &cobra.Command{
		Use:   "workspace",
		Short: "List declared external projects and their resolved directories",
		RunE: func(_ *cobra.Command, _ []string) error {
			os.Exit(runWorkspace(flags))
			return nil
		},
	}
	root.AddCommand(command)
}

func runWorkspace(flags *Flags) int {
	ws, _, err := newSession(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	names := make([]string, 0, len(ws.Declared))
	for name := range ws.Declared {
		names = append(names, name)
	}
	sort.Strings(names)

	sink := present.NewAlignedTableSink(os.Stdout, []string{"project", "version", "found-by", "directory"})
	for _, name := range names {
		ep := ws.Declared[name]
		dir := ep.Dir
		if dir == "" {
			dir = "<not extracted>"
		}
		version := ep.Version
		if version == "" {
			version = "-"
		}
		sink.AddRow([]string{"@" + name, version, stratumName(ep.Stratum), dir})
	}
	sink.Finish()
	return exitSuccess
}

func stratumName(s workspace.Stratum) string {
	switch s {
	case workspace.StratumRoot:
		return "root"
	case workspace.StratumDeclared:
		return "declared"
	case workspace.StratumDirFound:
		return "dir-only"
	}
	return "unknown"
}
