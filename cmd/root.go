// Package cmd wires the core evaluation pipeline onto a cobra command
// tree: one subcommand per verb, each parsing flags into a cmd.Flags,
// resolving a workspace and project store, and pushing rows or edits to
// stdout.
package cmd

import (
	"github.com/buildaudit/buildaudit/elaborate"
	"github.com/buildaudit/buildaudit/log"
	"github.com/buildaudit/buildaudit/project"
	"github.com/buildaudit/buildaudit/query"
	"github.com/buildaudit/buildaudit/workspace"
)

// exit codes returned to the OS, per the error-handling design: 0
// success, 1 failure, 2 needs-clarification, 3 non-empty edit script.
const (
	exitSuccess            = 0
	exitFailure            = 1
	exitNeedsClarification = 2
	exitEditsEmitted       = 3
)

// rootDir defaults to the current working directory; exposed as a
// package var rather than threaded through every function since every
// subcommand needs it and it never varies within one invocation.
var rootDir = "."

// newSession resolves the workspace at rootDir and returns a fresh
// project.Store with flags.SelectFlags threaded in as the elaborator's
// select()-resolution flags.
func newSession(flags *Flags) (*workspace.Workspace, *project.Store, error) {
	ws, err := workspace.Resolve(rootDir)
	if err != nil {
		return nil, nil, err
	}
	selectFlags := map[string]string{}
	for k, v := range flags.SelectFlags.m {
		selectFlags[k] = v
	}
	store := project.NewStore(ws, selectFlags, &elaborate.MacroLibrary{})
	return ws, store, nil
}

// loadPatterns parses every flags.patternsOrDefault() string relative to
// the root package, and fills store from each via FillFromPattern.
func loadPatterns(store *project.Store, flags *Flags) ([]query.Pattern, error) {
	root := query.Package{}
	var patterns []query.Pattern
	for _, s := range flags.patternsOrDefault() {
		p, err := query.ParsePattern(s, root)
		if err != nil {
			return nil, err
		}
		if err := store.FillFromPattern(p); err != nil {
			log.WithPhase("cmd").Warnf("%s: %v", s, err)
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

// matchesAny reports whether pkg falls within any of patterns.
func matchesAny(patterns []query.Pattern, pkg query.Package) bool {
	for _, p := range patterns {
		if p.MatchesPackage(pkg) {
			return true
		}
	}
	return false
}
