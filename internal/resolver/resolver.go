// Package resolver maps import specifiers to concrete files within the
// discovered file set. The graph builder and the call resolver both depend on
// this one routine so their views of an import can never disagree.
package resolver

import (
	"path"
	"sort"
	"strings"

	"github.com/codegraph-hq/codegraph/internal/extractor"
)

// probeExtensions is the order in which extensions are tried when the
// specifier omits one
var probeExtensions = []string{".ts", ".tsx", ".js", ".jsx", ".py"}

// aliasPrefixes maps conventional shorthand prefixes to the assumed source
// root. Overridable per resolver.
var defaultAliases = map[string]string{
	"@/": "src/",
	"~/": "src/",
}

// FileSet is the membership index of discovered files, keyed by relative
// slash-separated path
type FileSet struct {
	paths map[string]struct{}
	list  []string
}

// NewFileSet builds a set from relative paths
func NewFileSet(paths []string) *FileSet {
	s := &FileSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		p = strings.TrimPrefix(path.Clean(p), "./")
		if _, ok := s.paths[p]; !ok {
			s.paths[p] = struct{}{}
			s.list = append(s.list, p)
		}
	}
	sort.Strings(s.list)
	return s
}

// Contains reports membership of a relative path
func (s *FileSet) Contains(p string) bool {
	_, ok := s.paths[p]
	return ok
}

// Paths returns the sorted member paths
func (s *FileSet) Paths() []string {
	return s.list
}

// Len returns the number of files in the set
func (s *FileSet) Len() int {
	return len(s.paths)
}

// Resolver applies specifier-to-path rules against one file set
type Resolver struct {
	set     *FileSet
	aliases map[string]string
}

// Option configures a Resolver
type Option func(*Resolver)

// WithSourceRoot changes the directory the alias prefixes expand to
func WithSourceRoot(root string) Option {
	return func(r *Resolver) {
		root = strings.TrimSuffix(path.Clean(root), "/") + "/"
		r.aliases = map[string]string{"@/": root, "~/": root}
	}
}

// New creates a resolver over the discovered file set
func New(set *FileSet, opts ...Option) *Resolver {
	r := &Resolver{set: set, aliases: defaultAliases}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps an import to the relative path of its target file. Specifiers
// that are neither relative nor alias-prefixed are assumed third-party and
// return ok=false immediately; so does any probe miss. Resolution is
// best-effort by design and a miss is never an error.
func (r *Resolver) Resolve(imp extractor.ImportRecord, importerRel string) (string, bool) {
	spec := imp.Specifier
	if spec == "" {
		return "", false
	}

	for prefix, root := range r.aliases {
		if strings.HasPrefix(spec, prefix) {
			return r.probe(root + spec[len(prefix):])
		}
	}

	if !strings.HasPrefix(spec, ".") {
		return "", false
	}

	importerDir := path.Dir(importerRel)
	if importerDir == "." {
		importerDir = ""
	}

	var candidate string
	if imp.Kind == extractor.ImportFrom {
		candidate = pythonRelativeTarget(spec, importerDir)
	} else {
		candidate = path.Join(importerDir, spec)
	}
	if candidate == "" || strings.HasPrefix(candidate, "..") {
		return "", false
	}

	return r.probe(candidate)
}

// pythonRelativeTarget turns a dotted relative specifier into a path: one
// leading dot stays in the importer's folder, each further dot ascends one
// level, and the embedded dots of the remaining module path become
// separators.
func pythonRelativeTarget(spec, importerDir string) string {
	dots := 0
	for dots < len(spec) && spec[dots] == '.' {
		dots++
	}
	module := strings.ReplaceAll(spec[dots:], ".", "/")

	dir := importerDir
	for i := 1; i < dots; i++ {
		if dir == "" {
			return ""
		}
		dir = path.Dir(dir)
		if dir == "." {
			dir = ""
		}
	}
	return path.Join(dir, module)
}

// probe tries, in order: the literal path, the path with each supported
// extension appended, then module-root files (index.* and __init__.py).
// First member of the file set wins.
func (r *Resolver) probe(candidate string) (string, bool) {
	candidate = strings.TrimPrefix(path.Clean(candidate), "./")
	if candidate == "" || candidate == "." {
		return "", false
	}

	if r.set.Contains(candidate) {
		return candidate, true
	}
	for _, ext := range probeExtensions {
		if p := candidate + ext; r.set.Contains(p) {
			return p, true
		}
	}
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx"} {
		if p := candidate + "/index" + ext; r.set.Contains(p) {
			return p, true
		}
	}
	if p := candidate + "/__init__.py"; r.set.Contains(p) {
		return p, true
	}
	return "", false
}

// ResolveAll fills ResolvedPath on every import of the given files. This is
// the single pass allowed to mutate import records.
func (r *Resolver) ResolveAll(files []*extractor.FileFacts) {
	for _, f := range files {
		for i := range f.Imports {
			if target, ok := r.Resolve(f.Imports[i], f.Source.RelPath); ok {
				f.Imports[i].ResolvedPath = target
			}
		}
	}
}

// ImportMap builds the bound-name -> target-file map for one file, applying
// the same resolution rules the graph builder uses. Unresolved imports
// contribute nothing.
func (r *Resolver) ImportMap(f *extractor.FileFacts) map[string]string {
	m := make(map[string]string)
	for _, imp := range f.Imports {
		target := imp.ResolvedPath
		if target == "" {
			resolved, ok := r.Resolve(imp, f.Source.RelPath)
			if !ok {
				continue
			}
			target = resolved
		}
		for _, name := range imp.Names {
			if name != "" {
				m[name] = target
			}
		}
	}
	return m
}
