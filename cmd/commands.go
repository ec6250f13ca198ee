package cmd

import (
	"github.com/spf13/cobra"

	"github.com/buildaudit/buildaudit/log"
)

// Command builds the root cobra.Command with every subcommand attached.
func Command() *cobra.Command {
	verbosity := newEnumFlag("warn", "debug", "info", "warn", "error")
	root := &cobra.Command{
		Use:   "buildaudit",
		Short: "A read-only navigation and refactoring assistant for BUILD files",
		Long:  "buildaudit parses, indexes and cross-references Bazel-like BUILD files without ever invoking a build.",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return log.SetLevel(verbosity.value)
		},
	}
	root.PersistentFlags().StringVar(&rootDir, "root", rootDir, "workspace root directory")
	root.PersistentFlags().Var(verbosity, "verbosity", "log level: debug, info, warn, error")

	initParse(root)
	initPrint(root)
	initListPackages(root)
	initListTargets(root)
	initListLeafs(root)
	initWorkspace(root)
	initLibHeaders(root)
	initTargetAttrs(root)
	initAliasedBy(root)
	initDependsOn(root)
	initHasDependents(root)
	initGenruleOutputs(root)
	initDWYU(root)
	initCanonicalize(root)
	initCompileFlags(root)
	initCompilationDB(root)

	return root
}
