package dwyu

import (
	"os"
	"path/filepath"
)

// sourceLocations are tried, in order, when resolving a srcs/hdrs entry
// to on-disk content: the source tree itself, then the well-known
// generated-output roots Bazel symlinks into the workspace.
var sourceLocations = []string{
	"",
	"bazel-bin/",
	"bazel-genfiles/",
	"bazel-out/host/bin/",
}

// FileOpener resolves a package-qualified source path to its content,
// trying the physical source tree first and generated-output roots
// after. Abstracted so the analyzer stays unit-testable without disk.
type FileOpener interface {
	// Open returns content and whether it came from a generated-output
	// root rather than the primary source tree, or found=false if no
	// candidate location had the file.
	Open(qualifiedPath string) (content []byte, isGenerated bool, found bool)
}

// OSFileOpener is the default, filesystem-backed FileOpener, rooted at
// the workspace directory.
type OSFileOpener struct {
	Root string
}

func (o OSFileOpener) Open(qualifiedPath string) ([]byte, bool, bool) {
	for i, prefix := range sourceLocations {
		path := filepath.Join(o.Root, prefix, qualifiedPath)
		content, err := os.ReadFile(path)
		if err == nil {
			return content, i > 0, true
		}
	}
	return nil, false, false
}
