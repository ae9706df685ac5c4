package linkgraph

import (
	"path"
	"regexp"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/markdown"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// schemeRE matches an RFC 3986 scheme prefix. Anything carrying one is an
// external URL and stays out of chapter matching.
var schemeRE = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*:`)

// Builder converts resolved documents into a link graph. Fallback mirrors
// the resolver's path fallback so link matching follows exactly the rule
// document loading used.
type Builder struct {
	Fallback bool
}

// Build walks every document's outbound links and classifies each one.
// Image references are treated as asset links, not chapter links, and are
// not part of the graph.
func (b *Builder) Build(tree *outline.Tree, docs *content.Set) *Graph {
	index := b.refIndex(tree)
	g := &Graph{}

	for _, doc := range docs.InOrder(tree) {
		baseDir := path.Dir(doc.SourcePath)
		for _, link := range doc.OutboundLinks {
			if link.Kind == markdown.LinkKindImage {
				continue
			}
			g.add(b.classify(doc.NodeID, baseDir, link.Destination, index))
		}
	}

	return g
}

// refIndex maps every chapter's effective ref to its node. The first node
// wins on duplicates, matching navigation order.
func (b *Builder) refIndex(tree *outline.Tree) map[string]outline.NodeID {
	index := make(map[string]outline.NodeID)
	for _, id := range tree.Chapters() {
		node := tree.Node(id)
		eff := content.EffectiveRef(node.Ref, b.Fallback)
		if eff == "" {
			continue
		}
		if _, exists := index[eff]; !exists {
			index[eff] = id
		}
	}
	return index
}

func (b *Builder) classify(from outline.NodeID, baseDir, dest string, index map[string]outline.NodeID) Edge {
	dest = strings.TrimSpace(dest)

	if schemeRE.MatchString(dest) || strings.HasPrefix(dest, "//") {
		return Edge{From: from, To: outline.InvalidNode, Target: dest, Kind: EdgeExternal}
	}

	target, anchor := splitFragment(dest)

	// A bare fragment references a section of the same chapter.
	if target == "" && anchor != "" {
		return Edge{From: from, To: from, Target: dest, Anchor: anchor, Kind: EdgeInternal}
	}

	for _, candidate := range matchCandidates(baseDir, target) {
		eff := content.EffectiveRef(candidate, b.Fallback)
		if to, ok := index[eff]; ok {
			return Edge{From: from, To: to, Target: dest, Resolved: eff, Anchor: anchor, Kind: EdgeInternal}
		}
	}

	return Edge{From: from, To: outline.InvalidNode, Target: dest, Anchor: anchor, Kind: EdgeBroken}
}

// matchCandidates lists the forms a relative target may take: resolved
// against the linking document's directory first, then as written from the
// content root. Authors use both conventions.
func matchCandidates(baseDir, target string) []string {
	if target == "" {
		return nil
	}
	if strings.HasPrefix(target, "/") {
		// A leading slash anchors to the content root.
		return []string{strings.TrimPrefix(target, "/")}
	}
	fromDoc := path.Join(baseDir, target)
	if fromDoc == target {
		return []string{target}
	}
	return []string{fromDoc, target}
}

func splitFragment(dest string) (target, anchor string) {
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		return dest[:i], dest[i+1:]
	}
	return dest, ""
}
