// Package headers builds the header-provider index: which library (or
// libraries) export a given #include-able header path, and which rule
// produces a given genrule output file.
package headers

import (
	"strings"

	"github.com/buildaudit/buildaudit/log"
	"github.com/buildaudit/buildaudit/query"
)

// Index maps header paths to the targets that export them, and genrule
// output paths to the producing target.
type Index struct {
	HeaderToTargets map[string][]query.Target
	GenfileToTarget map[string]query.Target

	suffix *FindBySuffix
}

// Loader is the project-store surface the index needs: every loaded
// package, and its rule call-sites.
type Loader interface {
	LoadedPackages() []query.Package
	Targets(pkg query.Package) (calls []query.RuleCall, ok bool)
}

// Build performs one pass over every loaded package in loader, producing
// the header and genfile maps. In-project header collisions (both
// providers rooted at project == "") are logged as errors; external
// collisions are info-only.
func Build(loader Loader) *Index {
	idx := &Index{
		HeaderToTargets: map[string][]query.Target{},
		GenfileToTarget: map[string]query.Target{},
	}

	var protoLibToCCProto []protoDep
	for _, pkg := range loader.LoadedPackages() {
		calls, ok := loader.Targets(pkg)
		if !ok {
			continue
		}
		protoLibToCCProto = append(protoLibToCCProto, collectCCProtoDeps(pkg, calls)...)
	}
	ccProtoOf := map[query.Target]query.Target{}
	for _, d := range protoLibToCCProto {
		ccProtoOf[d.protoLib] = d.ccProtoLib
	}

	for _, pkg := range loader.LoadedPackages() {
		calls, ok := loader.Targets(pkg)
		if !ok {
			continue
		}
		for _, call := range calls {
			switch call.Kind {
			case "cc_library":
				idx.addCCLibraryHeaders(pkg, call)
			case "proto_library":
				idx.addProtoLibraryHeaders(pkg, call, ccProtoOf)
			case "genrule":
				idx.addGenruleOutputs(pkg, call)
			}
		}
	}
	return idx
}

type protoDep struct {
	protoLib   query.Target
	ccProtoLib query.Target
}

// collectCCProtoDeps finds every cc_proto_library/cc_grpc_library in pkg
// and records which proto_library(s) it depends on, so the header for a
// .proto file can later be attributed to the wrapping cc rule instead of
// the proto_library itself.
func collectCCProtoDeps(pkg query.Package, calls []query.RuleCall) []protoDep {
	var out []protoDep
	for _, call := range calls {
		if call.Kind != "cc_proto_library" && call.Kind != "cc_grpc_library" {
			continue
		}
		name, ok := query.NameOf(call.Kwargs)
		if !ok {
			continue
		}
		self := query.Target{Pkg: pkg, Name: name}
		deps, _ := query.StringListAttr(call.Kwargs, "deps")
		for _, d := range deps {
			t, err := query.ParseTarget(d, pkg)
			if err != nil {
				continue
			}
			out = append(out, protoDep{protoLib: t, ccProtoLib: self})
		}
	}
	return out
}

func (idx *Index) insert(header string, target query.Target) {
	existing := idx.HeaderToTargets[header]
	for _, e := range existing {
		if e == target {
			return
		}
	}
	if len(existing) > 0 {
		first := existing[0]
		isError := target.Pkg.Project == "" && first.Pkg.Project == ""
		entry := log.WithPhase("headers").WithField("header", header)
		if isError {
			entry.Errorf("%s also provided by %s", target, first)
		} else {
			entry.Infof("%s also provided by %s", target, first)
		}
	}
	idx.HeaderToTargets[header] = append(existing, target)
}

// addCCLibraryHeaders implements the cc_library header aliasing
// rules: include_prefix wins exclusively; otherwise the package-qualified
// path, its strip_include_prefix-trimmed form, and one alias per includes
// entry that is a proper directory-prefix of the qualified path.
func (idx *Index) addCCLibraryHeaders(pkg query.Package, call query.RuleCall) {
	name, ok := query.NameOf(call.Kwargs)
	if !ok {
		return
	}
	target := query.Target{Pkg: pkg, Name: name}

	hdrs, _ := query.StringListAttr(call.Kwargs, "hdrs")
	includePrefix, hasIncludePrefix := query.StringAttr(call.Kwargs, "include_prefix")
	stripPrefix, _ := query.StringAttr(call.Kwargs, "strip_include_prefix")
	stripPrefix = strings.Trim(stripPrefix, "/")
	incdirs, _ := query.StringListAttr(call.Kwargs, "includes")

	for _, hdr := range hdrs {
		if hasIncludePrefix {
			idx.insert(includePrefix+"/"+hdr, target)
			continue
		}

		qualified := QualifiedFile(pkg, hdr)
		if stripPrefix != "" && strings.HasPrefix(qualified, stripPrefix+"/") {
			idx.insert(strings.TrimPrefix(qualified, stripPrefix+"/"), target)
		} else {
			idx.insert(qualified, target)
		}

		for _, dir := range incdirs {
			qualifiedDir := QualifiedFile(pkg, strings.TrimSuffix(dir, "/"))
			prefix := qualifiedDir + "/"
			if strings.HasPrefix(qualified, prefix) {
				idx.insert(strings.TrimPrefix(qualified, prefix), target)
			}
		}
	}
}

// addProtoLibraryHeaders attributes the synthetic *.pb.h/.grpc.pb.h
// headers a proto_library's sources imply to the wrapping
// cc_proto_library/cc_grpc_library, not the proto_library itself.
func (idx *Index) addProtoLibraryHeaders(pkg query.Package, call query.RuleCall, ccProtoOf map[query.Target]query.Target) {
	name, ok := query.NameOf(call.Kwargs)
	if !ok {
		return
	}
	self := query.Target{Pkg: pkg, Name: name}
	owner, ok := ccProtoOf[self]
	if !ok {
		return // no cc_proto_library/cc_grpc_library wraps this one
	}

	srcs, _ := query.StringListAttr(call.Kwargs, "srcs")
	for _, src := range srcs {
		if !strings.HasSuffix(src, ".proto") {
			continue
		}
		src = strings.TrimPrefix(src, ":")
		stem := strings.TrimSuffix(src, ".proto")
		idx.insert(QualifiedFile(pkg, stem+".pb.h"), owner)
		idx.insert(QualifiedFile(pkg, stem+".grpc.pb.h"), owner)
	}
}

func (idx *Index) addGenruleOutputs(pkg query.Package, call query.RuleCall) {
	name, ok := query.NameOf(call.Kwargs)
	if !ok {
		return
	}
	target := query.Target{Pkg: pkg, Name: name}
	outs, _ := query.StringListAttr(call.Kwargs, "outs")
	for _, out := range outs {
		qualified := QualifiedFile(pkg, out)
		if existing, ok := idx.GenfileToTarget[qualified]; ok && existing != target {
			isError := pkg.Project == ""
			entry := log.WithPhase("headers").WithField("genfile", qualified)
			if isError {
				entry.Errorf("also created by %s", existing)
			} else {
				entry.Infof("also created by %s", existing)
			}
			continue
		}
		idx.GenfileToTarget[qualified] = target
	}
}

func QualifiedFile(pkg query.Package, relName string) string {
	relName = strings.TrimPrefix(relName, ":")
	if pkg.Path == "" {
		return relName
	}
	return pkg.Path + "/" + relName
}

// EnsureSuffixIndex lazily builds the FindBySuffix structure over the
// current header set.
func (idx *Index) EnsureSuffixIndex() *FindBySuffix {
	if idx.suffix == nil {
		idx.suffix = newFindBySuffix(idx.HeaderToTargets)
	}
	return idx.suffix
}
