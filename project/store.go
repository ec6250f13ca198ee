// Package project owns the lazy, per-package file map a build-file
// evaluation session pulls packages into: BUILD/BUILD.bazel discovery,
// parsing, source-locator registration, and elaboration, all driven
// on-demand from a target pattern.
package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/buildaudit/buildaudit/elaborate"
	"github.com/buildaudit/buildaudit/frontend"
	"github.com/buildaudit/buildaudit/log"
	"github.com/buildaudit/buildaudit/query"
	"github.com/buildaudit/buildaudit/workspace"
)

// buildFileNames are the filenames recognized as one package's BUILD file,
// tried in this order.
var buildFileNames = []string{"BUILD.bazel", "BUILD"}

// Package holds everything known about one loaded package: its on-disk
// directory, every parsed BUILD file found there (ordinarily just one),
// and the rule call-sites collected from their elaborated statements.
type Package struct {
	Pkg   query.Package
	Dir   string
	Files []*frontend.ParsedFile
	Calls []query.RuleCall
}

// Stats counts store-wide events that must not abort a load:
// nothing here is fatal, counters just accumulate.
type Stats struct {
	FilesNotFound   int
	UnknownProjects int
	ParseErrors     int
}

// Store is the project-wide, single-threaded owner of the arena-backed
// parse results: a package -> file map, the resolved workspace, the
// compiled-in macro library, and the disjoint range map every
// source-locator query answers through.
type Store struct {
	WS      *workspace.Workspace
	Flags   map[string]string
	Macros  *elaborate.MacroLibrary
	Globber elaborate.GlobFS

	// OnFileAccess/OnDirRead notify an external prewarm collaborator
	// of filesystem activity; nil means "nobody is listening".
	OnFileAccess func(path string)
	OnDirRead    func(path string)

	Stats Stats

	packages map[query.Package]*Package
	ranges   *frontend.RangeMap
	nextFile int
	visited  map[string]bool // realpaths of directories already walked
}

// NewStore returns an empty Store bound to ws, ready to load packages via
// FillFromPattern/AddBuildFile.
func NewStore(ws *workspace.Workspace, flags map[string]string, macros *elaborate.MacroLibrary) *Store {
	if macros == nil {
		macros = &elaborate.MacroLibrary{}
	}
	return &Store{
		WS:       ws,
		Flags:    flags,
		Macros:   macros,
		Globber:  elaborate.NewOSGlobFS(),
		packages: map[query.Package]*Package{},
		ranges:   frontend.NewRangeMap(),
		visited:  map[string]bool{},
	}
}

// RangeMap returns the project's disjoint source-locator range map,
// shared by every loaded file and every synthetic value the elaborator
// registers.
func (s *Store) RangeMap() *frontend.RangeMap { return s.ranges }

// Package returns the loaded Package record for pkg, or ok=false if it
// was never successfully loaded.
func (s *Store) Package(pkg query.Package) (*Package, bool) {
	p, ok := s.packages[pkg]
	return p, ok
}

// LoadedPackages lists every package currently loaded, satisfying
// graph.Loader.
func (s *Store) LoadedPackages() []query.Package {
	out := make([]query.Package, 0, len(s.packages))
	for pkg := range s.packages {
		out = append(out, pkg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Targets returns every rule call-site loaded for pkg, satisfying
// graph.Loader.
func (s *Store) Targets(pkg query.Package) ([]query.RuleCall, bool) {
	p, ok := s.packages[pkg]
	if !ok {
		return nil, false
	}
	return p.Calls, true
}

// EnsurePackages loads (and elaborates) every package in pkgs not already
// present, satisfying graph.Loader. Failures are swallowed into Stats;
// an unresolved package is simply absent from LoadedPackages afterward.
func (s *Store) EnsurePackages(pkgs []query.Package) {
	for _, pkg := range pkgs {
		if _, ok := s.packages[pkg]; ok {
			continue
		}
		if err := s.AddBuildFile(pkg); err != nil {
			log.WithPhase("project").WithField("package", pkg.String()).Debugf("%v", err)
		}
	}
}

// FindAndParseMissingPackages is another name for EnsurePackages; the
// graph builder itself calls EnsurePackages through graph.Loader.
func (s *Store) FindAndParseMissingPackages(pkgs []query.Package) {
	s.EnsurePackages(pkgs)
}

// AddBuildFile resolves pkg to an on-disk directory via the workspace,
// reads whichever of BUILD.bazel/BUILD exists there, parses, registers,
// and elaborates it into s.packages[pkg]. A package with no BUILD file
// at all is an error: callers loading a pattern's seed set should expect
// some misses (a directory without a BUILD file is not a package).
func (s *Store) AddBuildFile(pkg query.Package) error {
	dir, ok := s.WS.PackageDir(pkg.Project, pkg.Path)
	if !ok {
		s.Stats.UnknownProjects++
		return errors.Errorf("unknown project %q", pkg.Project)
	}

	if s.OnDirRead != nil {
		s.OnDirRead(dir)
	}

	for _, name := range buildFileNames {
		path := filepath.Join(dir, name)
		if s.OnFileAccess != nil {
			s.OnFileAccess(path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.Stats.FilesNotFound++
			return errors.Wrapf(err, "reading %s", path)
		}
		s.loadFile(pkg, dir, path, content)
		return nil
	}

	s.Stats.FilesNotFound++
	return errors.Errorf("no BUILD file found in %s", dir)
}

// loadFile parses content, registers its byte ranges and any synthetic
// ranges the elaborator creates, elaborates it, and collects its rule
// call-sites into pkg's Package record. Re-loading an already-registered
// package is idempotent: the prior record is simply replaced.
func (s *Store) loadFile(pkg query.Package, dir, path string, content []byte) {
	fileID := s.nextFile
	s.nextFile++

	pf := frontend.Parse(fileID, path, content)
	if len(pf.Errors) > 0 {
		s.Stats.ParseErrors += len(pf.Errors)
		log.WithPhase("project").WithField("file", path).Warnf("%v", pf.Errors)
	}
	s.ranges.Register(fileID, 0, len(content), pf.Locator())

	reg := &fileRegistrar{fileID: fileID, next: len(content) + syntheticGap, ranges: s.ranges}
	ctx := elaborate.NewContext(pkg, dir, pf.Arenas, s.Flags, s.Macros, s.Globber, reg)
	pf.Stmts = elaborate.File(ctx, pf.Stmts)

	s.packages[pkg] = &Package{
		Pkg:   pkg,
		Dir:   dir,
		Files: []*frontend.ParsedFile{pf},
		Calls: query.FindRuleCallsites(pf.Stmts),
	}
}

// syntheticGap separates a file's real byte-offset space from the
// pseudo-offsets fileRegistrar hands out for elaborator-synthesized
// content, so the two never collide in the RangeMap.
const syntheticGap = 1 << 20

// fileRegistrar implements elaborate.Registrar for one file, handing out
// disjoint pseudo-byte-ranges for every synthesized value (string
// concatenation, glob() results, format()) and registering each against
// a FixedLocator built from the location it is given. The elaborator
// passes a nil location, so these ranges do not record the operator or
// call that produced them.
type fileRegistrar struct {
	fileID int
	next   int
	ranges *frontend.RangeMap
}

func (r *fileRegistrar) RegisterSynthetic(content []byte, at *frontend.Location) frontend.Token {
	begin := r.next
	end := begin + len(content)
	r.next = end
	r.ranges.Register(r.fileID, begin, end, frontend.NewFixedLocator(at))
	return frontend.Token{Kind: frontend.KindString, Text: content, Offset: begin}
}

// FillFromPattern walks the filesystem from pattern's root package
// (recursively if pattern is a `.../...`-shaped ClassRecursive pattern),
// collecting and loading every BUILD/BUILD.bazel file found, following
// symlinked directories once (loop-avoided via a visited-realpath set).
func (s *Store) FillFromPattern(pattern query.Pattern) error {
	root, ok := s.WS.PackageDir(pattern.Pkg.Project, pattern.Pkg.Path)
	if !ok {
		s.Stats.UnknownProjects++
		return errors.Errorf("unknown project %q", pattern.Pkg.Project)
	}

	recursive := pattern.Class == query.ClassRecursive
	return s.walk(pattern.Pkg.Project, root, pattern.Pkg.Path, recursive)
}

// walk collects BUILD files under dir (the on-disk directory for
// (project, pkgPath)), descending into subdirectories only if recursive,
// and only once per distinct realpath.
func (s *Store) walk(project, dir, pkgPath string, recursive bool) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil // missing directory: nothing to collect, not fatal
	}
	if s.visited[real] {
		return nil
	}
	s.visited[real] = true

	if s.OnDirRead != nil {
		s.OnDirRead(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrapf(err, "reading directory %s", dir)
	}

	hasBuildFile := false
	for _, name := range buildFileNames {
		for _, e := range entries {
			if e.Name() == name && !e.IsDir() {
				hasBuildFile = true
				pkg := query.Package{Project: project, Path: pkgPath}
				path := filepath.Join(dir, name)
				if s.OnFileAccess != nil {
					s.OnFileAccess(path)
				}
				content, rerr := os.ReadFile(path)
				if rerr != nil {
					s.Stats.FilesNotFound++
					continue
				}
				s.loadFile(pkg, dir, path, content)
			}
		}
		if hasBuildFile {
			break
		}
	}

	if !recursive {
		return nil
	}

	for _, e := range entries {
		if !e.IsDir() && e.Type()&fs.ModeSymlink == 0 {
			continue
		}
		if e.Name() == ".git" || e.Name() == "_tmp" || e.Name() == "bazel-out" {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, e.Name()))
		if err != nil || !info.IsDir() {
			continue
		}
		childPath := e.Name()
		if pkgPath != "" {
			childPath = pkgPath + "/" + e.Name()
		}
		if err := s.walk(project, filepath.Join(dir, e.Name()), childPath, recursive); err != nil {
			log.WithPhase("project").Debugf("%v", err)
		}
	}
	return nil
}
