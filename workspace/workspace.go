// Package workspace resolves a Bazel-like workspace's external-project
// declarations from WORKSPACE/MODULE.bazel files, parsed
// with the same scanner/parser as BUILD files.
package workspace

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/log"
)

// Stratum classifies how confidently a Workspace located an external
// project's extracted directory.
type Stratum int

const (
	// StratumRoot is the root workspace itself.
	StratumRoot Stratum = iota
	// StratumDeclared means the project was declared in WORKSPACE/MODULE.bazel
	// and its extracted directory was found under the external root.
	StratumDeclared
	// StratumDirFound means a directory was found under the external root
	// with no corresponding declaration (best-effort glob match only).
	StratumDirFound
)

// ExternalProject is one `http_archive`/`bazel_dep` declaration.
type ExternalProject struct {
	Name     string // the `@name` used in labels
	RepoName string
	Version  string
	Dir      string // resolved extracted directory, or "" if not found
	Stratum  Stratum
}

// Workspace maps `@project` names to resolved directories, plus the root
// workspace directory itself.
type Workspace struct {
	RootDir   string
	Declared  map[string]*ExternalProject
	candidate string // external root: bazel-out/../../../external
}

// candidateSuffixes are tried, in order, for each external project name
// under the external root.
var candidateSuffixes = []string{"", "~%s", "~override", "+"}

// Resolve locates and parses whichever of WORKSPACE, WORKSPACE.bazel,
// WORKSPACE.bzlmod, MODULE.bazel exist in rootDir (every one found is
// parsed, in that order; a later declaration of the same name replaces
// an earlier one).
// Absence of any such file is not an error: the Workspace is still usable
// for a root-only query, just with no Declared entries.
func Resolve(rootDir string) (*Workspace, error) {
	w := &Workspace{
		RootDir:   rootDir,
		Declared:  map[string]*ExternalProject{},
		candidate: filepath.Join(rootDir, "bazel-out", "..", "..", "..", "external"),
	}

	candidates := []string{"WORKSPACE", "WORKSPACE.bazel", "WORKSPACE.bzlmod", "MODULE.bazel"}
	for _, name := range candidates {
		path := filepath.Join(rootDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.Wrapf(err, "reading %s", path)
		}
		w.parse(name, content)
	}
	w.resolveDirs()
	return w, nil
}

func (w *Workspace) parse(name string, content []byte) {
	file := frontend.Parse(0, name, content)
	if len(file.Errors) > 0 {
		log.WithPhase("workspace").Warnf("%s: %v", name, file.Errors)
	}
	for _, call := range frontend.FuncCalls(file.Stmts, "http_archive", "bazel_dep") {
		kw := frontend.Kwargs(call)
		ep := &ExternalProject{}
		if n, ok := kw["name"]; ok {
			ep.Name, _ = frontend.StringValue(n)
		}
		if n, ok := kw["repo_name"]; ok {
			ep.RepoName, _ = frontend.StringValue(n)
		}
		if n, ok := kw["version"]; ok {
			ep.Version, _ = frontend.StringValue(n)
		}
		if ep.Name == "" {
			continue
		}
		ep.Stratum = StratumDeclared
		w.Declared[ep.Name] = ep
	}
}

// resolveDirs probes the well-known external-packages root for each
// declared project's extracted directory, trying `name`, `name~version`,
// `name~override`, `name+`, then a `name~*` glob fallback.
func (w *Workspace) resolveDirs() {
	for _, ep := range w.Declared {
		for _, suffix := range candidateSuffixes {
			s := suffix
			if s == "~%s" {
				if ep.Version == "" {
					continue
				}
				s = "~" + ep.Version
			}
			dir := filepath.Join(w.candidate, ep.Name+s)
			if info, err := os.Stat(dir); err == nil && info.IsDir() {
				ep.Dir = dir
				break
			}
		}
		if ep.Dir == "" {
			matches, _ := filepath.Glob(filepath.Join(w.candidate, ep.Name+"~*"))
			if len(matches) > 0 {
				ep.Dir = matches[0]
			}
		}
	}
}

// Lookup returns the resolved directory for project name (without the
// leading '@'), its Stratum, and whether anything is known about it at
// all. An unresolved-but-declared project returns ok=true, dir="".
func (w *Workspace) Lookup(name string) (dir string, stratum Stratum, ok bool) {
	if name == "" {
		return w.RootDir, StratumRoot, true
	}
	ep, ok := w.Declared[name]
	if !ok {
		return "", StratumDirFound, false
	}
	return ep.Dir, ep.Stratum, true
}

// PackageDir resolves a query.Package-shaped (project, path) pair to an
// on-disk directory. project == "" means the root workspace.
func (w *Workspace) PackageDir(project, path string) (string, bool) {
	base := w.RootDir
	if project != "" {
		dir, _, ok := w.Lookup(project)
		if !ok || dir == "" {
			return "", false
		}
		base = dir
	}
	return filepath.Join(base, filepath.FromSlash(path)), true
}
