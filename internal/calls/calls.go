// Package calls assigns each extracted call site an origin: same-file,
// another file in the analyzed set, or external. Resolution is two-phase:
// extraction produced immutable call-site facts, this package produces
// resolution records keyed by call-site identity and merges them at the end,
// so the pass is retryable and per-site parallelizable.
package calls

import (
	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/resolver"
)

// Resolution is the outcome for one call site
type Resolution struct {
	CallID     string           `json:"call_id"`
	Origin     extractor.Origin `json:"origin"`
	TargetFile string           `json:"target_file,omitempty"`
}

// ResolvedCall is a call site merged with its resolution
type ResolvedCall struct {
	Site       extractor.CallSite `json:"site"`
	Origin     extractor.Origin   `json:"origin"`
	TargetFile string             `json:"target_file,omitempty"`
}

// Resolver links call sites to candidate definitions across the analyzed set
type Resolver struct {
	res *resolver.Resolver

	// localNames[file] holds the simple function names defined in that file
	localNames map[string]map[string]bool

	// globalName maps a simple name to the files defining it; only
	// single-candidate names are usable for the fallback step
	globalName map[string][]string

	// importMaps[file] maps bound import names to resolved target files
	importMaps map[string]map[string]string
}

// NewResolver indexes the analyzed files for call resolution
func NewResolver(files []*extractor.FileFacts, res *resolver.Resolver) *Resolver {
	r := &Resolver{
		res:        res,
		localNames: make(map[string]map[string]bool, len(files)),
		globalName: make(map[string][]string),
		importMaps: make(map[string]map[string]string, len(files)),
	}

	for _, f := range files {
		names := make(map[string]bool, len(f.Functions))
		for _, fn := range f.Functions {
			names[fn.Name] = true
			r.globalName[fn.Name] = append(r.globalName[fn.Name], f.Source.RelPath)
		}
		r.localNames[f.Source.RelPath] = names
		r.importMaps[f.Source.RelPath] = res.ImportMap(f)
	}

	return r
}

// ResolveSite classifies one call site. First match wins: local scope, then
// the file's import map, then a globally unique function name. Everything
// else is assumed external; an unresolved call is never an error.
func (r *Resolver) ResolveSite(site extractor.CallSite) Resolution {
	res := Resolution{CallID: site.ID(), Origin: extractor.OriginExternal}

	if r.localNames[site.File][site.Callee] {
		res.Origin = extractor.OriginLocal
		res.TargetFile = site.File
		return res
	}

	// dotted calls look up the leading qualifier, plain calls the callee
	lookup := site.Callee
	if site.Qualifier != "" {
		lookup = site.Qualifier
	}
	if target, ok := r.importMaps[site.File][lookup]; ok {
		res.Origin = extractor.OriginInternal
		res.TargetFile = target
		return res
	}

	// global fallback only applies to an unambiguous name; two or more
	// candidates mean we skip rather than guess
	if candidates := r.globalName[site.Callee]; len(candidates) == 1 {
		res.Origin = extractor.OriginInternal
		res.TargetFile = candidates[0]
		return res
	}

	return res
}

// ResolveAll resolves every call site of every file and merges the results.
// Output order follows input order, which keeps downstream statistics stable.
func (r *Resolver) ResolveAll(files []*extractor.FileFacts) []ResolvedCall {
	var out []ResolvedCall
	for _, f := range files {
		for _, site := range f.Calls {
			res := r.ResolveSite(site)
			out = append(out, ResolvedCall{
				Site:       site,
				Origin:     res.Origin,
				TargetFile: res.TargetFile,
			})
		}
	}
	return out
}
