// Package query defines the label space (Package, Target, Pattern) and
// small helpers for reading rule call-sites, shared by every higher-level
// package.
package query

import (
	"strings"
)

// Package is (project, path): project is "" for the root workspace or
// "name" (without the leading '@') for an external project; path is a
// slash-separated directory with no leading/trailing slash.
type Package struct {
	Project string
	Path    string
}

// String renders a package as `@project//path` (or `//path` for the root
// workspace).
func (p Package) String() string {
	prefix := "//"
	if p.Project != "" {
		prefix = "@" + p.Project + "//"
	}
	return prefix + p.Path
}

// stripVersionQualifier removes a trailing `~v...` or `+` version
// qualifier from a project name.
func stripVersionQualifier(project string) string {
	project = strings.TrimSuffix(project, "+")
	if i := strings.Index(project, "~"); i >= 0 {
		project = project[:i]
	}
	return project
}

// Target is (package, name). String() implements the compaction rules:
// `@p//x:x` -> `@p//x`, `@p//:p` -> `@p`, `//x:x` -> `//x`.
type Target struct {
	Pkg  Package
	Name string
}

func lastPathElement(path string) string {
	if path == "" {
		return ""
	}
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}

// String renders the canonical compacted form of t.
func (t Target) String() string {
	if t.Pkg.Path == "" && t.Pkg.Project != "" && t.Name == t.Pkg.Project {
		// @p//:p -> @p, not @p// (Package.String()'s trailing "//" is only
		// meaningful when Path is non-empty).
		return "@" + t.Pkg.Project
	}
	base := t.Pkg.String()
	if t.Name == lastPathElement(t.Pkg.Path) {
		return base
	}
	return base + ":" + t.Name
}

// StringRelativeTo renders t the way it would canonically be written
// inside a BUILD file belonging to relativeTo: same package compacts to
// `:name` (even when name matches the package), same project drops the
// `@project` prefix, otherwise the full label.
func (t Target) StringRelativeTo(relativeTo Package) string {
	if t.Pkg == relativeTo {
		return ":" + t.Name
	}
	if t.Pkg.Project == relativeTo.Project {
		short := Target{Pkg: Package{Path: t.Pkg.Path}, Name: t.Name}
		return short.String()
	}
	return t.String()
}

// ParseTarget parses s as a label, resolving package-relative forms
// (`:foo`, `foo`, `//other:bar`, `@proj//pkg:rule`) relative to relativeTo.
// ParseTarget(t.String(), t.Pkg) == t for every valid Target t.
func ParseTarget(s string, relativeTo Package) (Target, error) {
	rest := s
	project := relativeTo.Project
	hasProject := false
	if strings.HasPrefix(rest, "@") {
		hasProject = true
		rest = rest[1:]
		if i := strings.Index(rest, "//"); i >= 0 {
			project = stripVersionQualifier(rest[:i])
			rest = rest[i:]
		} else {
			// bare `@name` compacts to `@name//:name`
			project = stripVersionQualifier(rest)
			return Target{Pkg: Package{Project: project, Path: ""}, Name: project}, nil
		}
	}

	pkgPath := relativeTo.Path
	name := ""
	switch {
	case strings.HasPrefix(rest, "//"):
		rest = rest[2:]
		if i := strings.IndexByte(rest, ':'); i >= 0 {
			pkgPath, name = rest[:i], rest[i+1:]
		} else {
			pkgPath, name = rest, lastPathElement(rest)
		}
	case strings.HasPrefix(rest, ":"):
		name = rest[1:]
	default:
		// bare `foo` at the current package: a file or target reference.
		name = rest
	}

	if !hasProject && !strings.HasPrefix(s, "@") {
		// project stays relativeTo.Project
		project = relativeTo.Project
	}

	return Target{Pkg: Package{Project: project, Path: pkgPath}, Name: name}, nil
}
