package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// repeatedStringFlag implements pflag.Value for a flag that can be given
// more than once on the command line, each occurrence appending to the
// slice instead of replacing it (used for `--pattern`, which commonly
// takes several target patterns in one invocation).
type repeatedStringFlag struct {
	v []string
}

func (f *repeatedStringFlag) Type() string { return "string" }

func (f *repeatedStringFlag) String() string { return strings.Join(f.v, ",") }

func (f *repeatedStringFlag) Set(s string) error {
	f.v = append(f.v, s)
	return nil
}

// keyValueFlag implements pflag.Value for the custom `select()` flag set
// (`--select name=value`, repeatable), collecting string-valued flags the
// elaborator substitutes into `select({...})` expressions.
type keyValueFlag struct {
	m map[string]string
}

func (f *keyValueFlag) Type() string { return "stringToString" }

func (f *keyValueFlag) String() string {
	var parts []string
	for k, v := range f.m {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (f *keyValueFlag) Set(s string) error {
	if f.m == nil {
		f.m = map[string]string{}
	}
	k, v, _ := strings.Cut(s, "=")
	f.m[k] = v
	return nil
}

// enumFlag implements pflag.Value for a flag restricted to one of a
// fixed set of values, holding defaultValue until set.
type enumFlag struct {
	value   string
	allowed []string
}

func newEnumFlag(defaultValue string, allowed ...string) *enumFlag {
	return &enumFlag{value: defaultValue, allowed: allowed}
}

func (f *enumFlag) Type() string { return "string" }

func (f *enumFlag) String() string { return f.value }

func (f *enumFlag) Set(s string) error {
	for _, a := range f.allowed {
		if a == s {
			f.value = s
			return nil
		}
	}
	return &unrecognizedEnumError{value: s, allowed: f.allowed}
}

type unrecognizedEnumError struct {
	value   string
	allowed []string
}

func (e *unrecognizedEnumError) Error() string {
	return "unrecognized value " + e.value + ", expected one of " + strings.Join(e.allowed, ", ")
}

// Flags bundles the flag set every wired subcommand shares: the target
// pattern(s) to operate over, recursion depth for the dependency graph,
// a statement-grep filter, and the select()-flag set consulted during
// elaboration. Verbosity lives on the root command's persistent flags
// since it configures the process-wide logger, not one verb.
type Flags struct {
	Patterns        repeatedStringFlag
	RecurseDepth    int
	GrepRegex       string
	CaseInsensitive bool
	SelectFlags     keyValueFlag
}

// NewFlags returns a Flags with the depth budget defaulted to unbounded.
func NewFlags() *Flags {
	return &Flags{RecurseDepth: -1}
}

// patternsOrDefault returns f.Patterns.v, or the all-packages recursive
// pattern ("//...") if none were given, so bulk commands operate on
// everything when unspecified.
func (f *Flags) patternsOrDefault() []string {
	if len(f.Patterns.v) > 0 {
		return f.Patterns.v
	}
	return []string{"//..."}
}

// addSelectFlag binds the select()-resolution flag set onto a command
// that loads and elaborates packages.
func addSelectFlag(command *cobra.Command, flags *Flags) {
	command.Flags().Var(&flags.SelectFlags, "select", "select() resolution flag as name=value (repeatable)")
}
