// Package content resolves outline references into loaded documents. Loads
// fan out across a bounded worker pool and merge behind a join barrier; the
// resolver never mutates its input tree.
package content

import (
	"github.com/jasongannon/api-docs-book/internal/markdown"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// Document is the loaded body of one chapter reference. Documents are
// immutable once resolution completes; the raw text is exactly the bytes
// on disk.
type Document struct {
	NodeID outline.NodeID
	// Ref is the reference exactly as written in the outline entry that
	// loaded this document.
	Ref string
	// SourcePath is the path that actually loaded, relative to the
	// content root, slash-separated. Differs from Ref when the /md
	// fallback fired.
	SourcePath string
	Raw        []byte
	// OutboundLinks holds every link syntax occurrence in Raw, in
	// document order, unresolved.
	OutboundLinks []markdown.Link
	// Fingerprint is a stable content hash used for no-op change checks.
	Fingerprint string
}

// Set holds the documents of one build keyed by node handle.
type Set struct {
	byNode map[outline.NodeID]*Document
}

// NewSet returns an empty document set.
func NewSet() *Set {
	return &Set{byNode: make(map[outline.NodeID]*Document)}
}

// Add stores a document under its node handle.
func (s *Set) Add(d *Document) {
	s.byNode[d.NodeID] = d
}

// Get returns the document for a node, if one was resolved.
func (s *Set) Get(id outline.NodeID) (*Document, bool) {
	d, ok := s.byNode[id]
	return d, ok
}

// Len returns the number of resolved documents.
func (s *Set) Len() int { return len(s.byNode) }

// InOrder returns the documents in the tree's navigation order. Iteration
// over the set itself would be map-ordered; every consumer that needs
// determinism goes through here.
func (s *Set) InOrder(tree *outline.Tree) []*Document {
	docs := make([]*Document, 0, len(s.byNode))
	tree.Walk(func(n *outline.Node) {
		if d, ok := s.byNode[n.ID]; ok {
			docs = append(docs, d)
		}
	})
	return docs
}
