package elaborate

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// osGlobFS walks a real directory on disk, the default GlobFS used outside
// of tests.
type osGlobFS struct{}

// NewOSGlobFS returns the default, filesystem-backed GlobFS.
func NewOSGlobFS() GlobFS { return osGlobFS{} }

func (osGlobFS) Walk(pkgDir string, fn func(relPath string)) error {
	return filepath.WalkDir(pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// glob() never descends into a nested package: subpackage
			// boundaries are opaque to the walk.
			if path != pkgDir {
				if _, err := os.Stat(filepath.Join(path, "BUILD")); err == nil {
					return filepath.SkipDir
				}
				if _, err := os.Stat(filepath.Join(path, "BUILD.bazel")); err == nil {
					return filepath.SkipDir
				}
			}
			return nil
		}
		rel, err := filepath.Rel(pkgDir, path)
		if err != nil {
			return err
		}
		fn(filepath.ToSlash(rel))
		return nil
	})
}

// globSet matches a relative path against an include set with exclusions
// subtracted, compiling Bazel-style glob patterns (`**` crosses directory
// separators, `*` does not) via gobwas/glob.
type globSet struct {
	include []glob.Glob
	exclude []glob.Glob
}

func compileGlobSet(includePatterns, excludePatterns []string) (*globSet, error) {
	gs := &globSet{}
	for _, p := range includePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "compiling glob include pattern %q", p)
		}
		gs.include = append(gs.include, g)
	}
	for _, p := range excludePatterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "compiling glob exclude pattern %q", p)
		}
		gs.exclude = append(gs.exclude, g)
	}
	return gs, nil
}

func (gs *globSet) Match(relPath string) bool {
	matched := false
	for _, g := range gs.include {
		if g.Match(relPath) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	for _, g := range gs.exclude {
		if g.Match(relPath) {
			return false
		}
	}
	return true
}
