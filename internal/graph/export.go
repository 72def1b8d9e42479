package graph

import (
	"math"

	"github.com/codegraph-hq/codegraph/internal/extractor"
)

// The positioned format below is the rendering contract. Field names must
// stay stable for any consuming renderer.

// Position is an initial canvas placement
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeData is the per-node payload handed to the renderer
type NodeData struct {
	Label       string   `json:"label"`
	Path        string   `json:"path"`
	Role        string   `json:"role"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Imports     []string `json:"imports"`
	Size        int64    `json:"size"`
	Lines       int      `json:"lines"`
	Language    string   `json:"language"`
}

// PositionedNode is one renderable node
type PositionedNode struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Position Position `json:"position"`
	Data     NodeData `json:"data"`
}

// EdgeStyle is the visual hint attached to every edge
type EdgeStyle struct {
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// PositionedEdge is one renderable edge
type PositionedEdge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Label    string    `json:"label,omitempty"`
	Animated bool      `json:"animated"`
	Style    EdgeStyle `json:"style"`
}

// PositionedGraph is the user-facing export format
type PositionedGraph struct {
	Nodes []PositionedNode `json:"nodes"`
	Edges []PositionedEdge `json:"edges"`
}

const (
	gridSpacingX = 260.0
	gridSpacingY = 180.0
)

// Export lays the graph out on a square-ish grid. Placement is cosmetic:
// deterministic and non-overlapping is the entire contract, renderers rerun
// their own layout afterwards.
func Export(g *Graph) *PositionedGraph {
	cols := int(math.Ceil(math.Sqrt(float64(len(g.Nodes))))) + 1

	out := &PositionedGraph{
		Nodes: make([]PositionedNode, 0, len(g.Nodes)),
		Edges: make([]PositionedEdge, 0, len(g.Edges)),
	}

	for i, n := range g.Nodes {
		out.Nodes = append(out.Nodes, PositionedNode{
			ID:   n.ID,
			Type: "default",
			Position: Position{
				X: float64(i%cols) * gridSpacingX,
				Y: float64(i/cols) * gridSpacingY,
			},
			Data: NodeData{
				Label:       n.Name,
				Path:        n.Path,
				Role:        n.Role,
				Category:    n.Category,
				Description: n.Description,
				Imports:     n.Imports,
				Size:        n.Size,
				Lines:       n.Lines,
				Language:    string(n.Language),
			},
		})
	}

	for _, e := range g.Edges {
		out.Edges = append(out.Edges, PositionedEdge{
			ID:       e.ID,
			Source:   e.Source,
			Target:   e.Target,
			Label:    e.Label,
			Animated: e.Kind == extractor.ImportDynamic,
			Style:    EdgeStyle{Stroke: "#94a3b8", StrokeWidth: 1.5},
		})
	}

	return out
}
