// Package graph assembles the deduplicated node/edge dependency graph from
// extracted file facts.
package graph

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/codegraph-hq/codegraph/internal/extractor"
	"github.com/codegraph-hq/codegraph/internal/resolver"
)

// maxEdgeLabelLen suppresses labels for long specifiers; downstream renderers
// choke on them visually
const maxEdgeLabelLen = 30

// nodeIDWidth is the truncated hex width of node ids
const nodeIDWidth = 12

// Node is one file in the dependency graph. Decoration fields come from the
// classifier adapter or its path-heuristic fallback.
type Node struct {
	ID          string             `json:"id"`
	Path        string             `json:"path"`
	Name        string             `json:"name"`
	Folder      string             `json:"folder"`
	Language    extractor.Language `json:"language"`
	Imports     []string           `json:"imports"`
	Size        int64              `json:"size"`
	Lines       int                `json:"lines"`
	Role        string             `json:"role,omitempty"`
	Category    string             `json:"category,omitempty"`
	Description string             `json:"description,omitempty"`
}

// Edge is one provider->consumer dependency. Source is the file being
// imported, target is the importer.
type Edge struct {
	ID     string               `json:"id"`
	Source string               `json:"source"`
	Target string               `json:"target"`
	Kind   extractor.ImportKind `json:"kind"`
	Label  string               `json:"label,omitempty"`
}

// Graph is the assembled node/edge collection
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Decoration carries the classifier's per-file labels
type Decoration struct {
	Role        string
	Category    string
	Description string
}

// NodeID derives the stable node id for a relative path. Pure function of
// the path: identical input always yields the identical id, which is what
// makes persistence upserts idempotent across runs.
func NodeID(relPath string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(relPath))[:nodeIDWidth]
}

// EdgeID derives the stable edge id from the endpoint node ids
func EdgeID(source, target string) string {
	return fmt.Sprintf("e%s-%s", source, target)
}

// Build assembles nodes and edges. One node per file; one edge per resolved
// (source, target) pair no matter how many imports connect them. Imports that
// resolve to nothing contribute no edge. decorations may be nil.
func Build(files []*extractor.FileFacts, res *resolver.Resolver, decorations map[string]Decoration) *Graph {
	g := &Graph{
		Nodes: make([]Node, 0, len(files)),
		Edges: make([]Edge, 0),
	}

	for _, f := range files {
		specs := make([]string, 0, len(f.Imports))
		for _, imp := range f.Imports {
			specs = append(specs, imp.Specifier)
		}
		node := Node{
			ID:       NodeID(f.Source.RelPath),
			Path:     f.Source.RelPath,
			Name:     f.Source.Name,
			Folder:   f.Source.Folder,
			Language: f.Source.Language,
			Imports:  specs,
			Size:     f.Source.Size,
			Lines:    f.Source.Lines,
		}
		if dec, ok := decorations[f.Source.RelPath]; ok {
			node.Role = dec.Role
			node.Category = dec.Category
			node.Description = dec.Description
		}
		g.Nodes = append(g.Nodes, node)
	}

	seen := make(map[string]bool)
	for _, f := range files {
		consumerID := NodeID(f.Source.RelPath)
		for _, imp := range f.Imports {
			target := imp.ResolvedPath
			if target == "" {
				resolved, ok := res.Resolve(imp, f.Source.RelPath)
				if !ok {
					continue
				}
				target = resolved
			}
			providerID := NodeID(target)

			// provider feeds consumer; self-loops are allowed through
			key := providerID + "|" + consumerID
			if seen[key] {
				continue
			}
			seen[key] = true

			edge := Edge{
				ID:     EdgeID(providerID, consumerID),
				Source: providerID,
				Target: consumerID,
				Kind:   imp.Kind,
			}
			if len(imp.Specifier) < maxEdgeLabelLen {
				edge.Label = imp.Specifier
			}
			g.Edges = append(g.Edges, edge)
		}
	}

	return g
}
