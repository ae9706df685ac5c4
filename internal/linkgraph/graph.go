// Package linkgraph derives the cross-reference graph of a book: one edge
// per outbound link in a resolved chapter body. The graph is a value the
// validator and publisher read; it holds no pointers back into the tree.
package linkgraph

import (
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// EdgeKind classifies a link edge.
type EdgeKind uint8

const (
	// EdgeInternal points at another chapter in the book.
	EdgeInternal EdgeKind = iota
	// EdgeExternal carries a scheme (https, mailto) and is never checked
	// against the tree.
	EdgeExternal
	// EdgeBroken names a non-URL target that matches no chapter.
	EdgeBroken
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeInternal:
		return "internal"
	case EdgeExternal:
		return "external"
	case EdgeBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Edge is one outbound link from a chapter document.
type Edge struct {
	From outline.NodeID
	// To is the target chapter for internal edges, InvalidNode otherwise.
	To outline.NodeID
	// Target is the destination exactly as written in the document.
	Target string
	// Resolved is the effective ref the target matched, internal edges only.
	Resolved string
	// Anchor is the fragment stripped from the target before matching.
	Anchor string
	Kind   EdgeKind
}

// Graph holds every edge in deterministic order: documents in navigation
// order, links in document order.
type Graph struct {
	edges  []Edge
	byFrom map[outline.NodeID][]int
}

// Edges returns all edges in deterministic order.
func (g *Graph) Edges() []Edge { return g.edges }

// From returns the edges leaving one node, in document order.
func (g *Graph) From(id outline.NodeID) []Edge {
	idxs := g.byFrom[id]
	out := make([]Edge, len(idxs))
	for i, idx := range idxs {
		out[i] = g.edges[idx]
	}
	return out
}

// Broken returns the broken edges in deterministic order.
func (g *Graph) Broken() []Edge {
	return g.filter(EdgeBroken)
}

// External returns the external edges in deterministic order.
func (g *Graph) External() []Edge {
	return g.filter(EdgeExternal)
}

func (g *Graph) filter(kind EdgeKind) []Edge {
	var out []Edge
	for _, e := range g.edges {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the edge count.
func (g *Graph) Len() int { return len(g.edges) }

func (g *Graph) add(e Edge) {
	if g.byFrom == nil {
		g.byFrom = make(map[outline.NodeID][]int)
	}
	g.byFrom[e.From] = append(g.byFrom[e.From], len(g.edges))
	g.edges = append(g.edges, e)
}
