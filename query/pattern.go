package query

import (
	"strings"

	"github.com/gobwas/glob"
)

// PatternClass identifies which of the five shapes a Pattern compiles
// down to.
type PatternClass int

const (
	ClassExact PatternClass = iota
	ClassAllInPackage
	ClassRecursive
	ClassGlobOnTarget
	ClassAlways
)

// Pattern matches packages and/or targets the way a Bazel target pattern
// does: `//pkg:name` (exact), `//pkg:all` / `//pkg` (all-in-pkg),
// `//pkg/...` (recursive), `//pkg:*foo*` (glob-on-target), or the special
// "always" pattern used by `//visibility:public`.
type Pattern struct {
	Class   PatternClass
	Pkg     Package // the pattern's root package
	Target  string  // for ClassExact
	GlobStr string  // for ClassGlobOnTarget, the original glob text
	re      glob.Glob
}

// ParsePattern parses a target pattern string relative to relativeTo (used
// to resolve a bare `...` or `:all`).
func ParsePattern(s string, relativeTo Package) (Pattern, error) {
	if s == "//..." || s == "..." {
		return Pattern{Class: ClassRecursive, Pkg: Package{Project: relativeTo.Project, Path: ""}}, nil
	}

	project := relativeTo.Project
	rest := s
	if strings.HasPrefix(rest, "@") {
		rest = rest[1:]
		if i := strings.Index(rest, "//"); i >= 0 {
			project = rest[:i]
			rest = rest[i:]
		}
	}

	if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
	}

	pkgPath := rest
	target := ""
	if i := strings.IndexByte(rest, ':'); i >= 0 {
		pkgPath, target = rest[:i], rest[i+1:]
	}

	if strings.HasSuffix(pkgPath, "/...") {
		return Pattern{Class: ClassRecursive, Pkg: Package{Project: project, Path: strings.TrimSuffix(pkgPath, "/...")}}, nil
	}
	if pkgPath == "..." {
		return Pattern{Class: ClassRecursive, Pkg: Package{Project: project, Path: ""}}, nil
	}

	pkg := Package{Project: project, Path: pkgPath}

	switch {
	case target == "" || target == "all":
		return Pattern{Class: ClassAllInPackage, Pkg: pkg}, nil
	case strings.ContainsAny(target, "*?"):
		g, err := glob.Compile(target)
		if err != nil {
			return Pattern{}, err
		}
		return Pattern{Class: ClassGlobOnTarget, Pkg: pkg, GlobStr: target, re: g}, nil
	default:
		return Pattern{Class: ClassExact, Pkg: pkg, Target: target}, nil
	}
}

// Always returns the "always matches" pattern used for
// `//visibility:public`.
func Always() Pattern { return Pattern{Class: ClassAlways} }

// MatchesPackage reports whether pkg falls within the pattern's scope,
// ignoring target name.
func (p Pattern) MatchesPackage(pkg Package) bool {
	switch p.Class {
	case ClassAlways:
		return true
	case ClassRecursive:
		if p.Pkg.Project != pkg.Project {
			return false
		}
		if p.Pkg.Path == "" {
			return true
		}
		return pkg.Path == p.Pkg.Path || strings.HasPrefix(pkg.Path, p.Pkg.Path+"/")
	default:
		return p.Pkg.Project == pkg.Project && p.Pkg.Path == pkg.Path
	}
}

// Match reports whether t falls within the pattern. pattern.match(pkg)
// implies pattern.match(t) for every t in pkg iff the pattern is `...`
// or `:all`.
func (p Pattern) Match(t Target) bool {
	switch p.Class {
	case ClassAlways:
		return true
	case ClassRecursive:
		return p.MatchesPackage(t.Pkg)
	case ClassAllInPackage:
		return p.Pkg == t.Pkg
	case ClassExact:
		return p.Pkg == t.Pkg && p.Target == t.Name
	case ClassGlobOnTarget:
		return p.Pkg == t.Pkg && p.re.Match(t.Name)
	default:
		return false
	}
}

// ParseVisibility parses a `visibility` attribute entry
// (`//visibility:public`, `//visibility:private`, `__pkg__`,
// `__subpackages__`, or an ordinary label) relative to the declaring
// package, reusing the same Pattern machinery as target patterns.
func ParseVisibility(s string, declaringPkg Package) (Pattern, error) {
	switch s {
	case "//visibility:public":
		return Always(), nil
	case "//visibility:private":
		return Pattern{Class: ClassAllInPackage, Pkg: declaringPkg}, nil
	case "__pkg__":
		return Pattern{Class: ClassAllInPackage, Pkg: declaringPkg}, nil
	case "__subpackages__":
		return Pattern{Class: ClassRecursive, Pkg: declaringPkg}, nil
	default:
		return ParsePattern(s, declaringPkg)
	}
}
