// Package outline parses a SUMMARY-style markdown outline into an ordered
// tree of chapter nodes. The tree is stored as an arena: nodes live in a
// flat slice, relations are integer handles, and child order is the
// canonical navigation order for every downstream stage.
package outline

import "strconv"

// NodeID is a handle into a Tree's node arena.
type NodeID int32

// InvalidNode marks the absence of a node (a root's parent).
const InvalidNode NodeID = -1

// NodeKind distinguishes content-bearing chapters from grouping dividers.
type NodeKind uint8

const (
	KindChapter NodeKind = iota
	KindDivider
)

func (k NodeKind) String() string {
	switch k {
	case KindChapter:
		return "chapter"
	case KindDivider:
		return "divider"
	default:
		return "unknown"
	}
}

// Status describes the content-resolution state of a node.
type Status uint8

const (
	// StatusNone means there is nothing to resolve yet: dividers, and
	// chapters with a ref that resolution has not visited.
	StatusNone Status = iota
	// StatusResolved means the referenced document loaded successfully.
	StatusResolved
	// StatusMissingFile means the ref resolved to no readable file.
	StatusMissingFile
	// StatusEmptyTarget means the entry carried link syntax whose target
	// names no file (a bare fragment such as "#future").
	StatusEmptyTarget
	// StatusPlaceholder means the entry was declared with no usable link
	// at all: "[Title]()" or a bare-text list item.
	StatusPlaceholder
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "none"
	case StatusResolved:
		return "resolved"
	case StatusMissingFile:
		return "missing_file"
	case StatusEmptyTarget:
		return "empty_target"
	case StatusPlaceholder:
		return "placeholder"
	default:
		return "unknown"
	}
}

// Node is one outline entry. Nodes are owned by their Tree; handles, not
// pointers, express structure so the separate link graph can reference
// nodes without creating ownership cycles.
type Node struct {
	ID     NodeID
	Kind   NodeKind
	Status Status

	Title string
	// Ref is the content reference exactly as written in the outline,
	// minus any fragment. Empty for dividers and placeholders.
	Ref string
	// ResolvedRef is the normalized ref that actually loaded, set during
	// resolution. Equals the cleaned Ref unless the /md fallback fired.
	ResolvedRef string
	// NormalizedRef records that ResolvedRef was reached via the trailing
	// /md -> .md fallback rather than the literal path.
	NormalizedRef bool
	// Anchor holds a fragment attached to the entry's target, if any.
	Anchor string

	Line  int // 1-based line in the outline document
	Depth int // root entries are depth 0
	Path  string

	Parent   NodeID
	Children []NodeID
}

// HasRef reports whether the node references a content document.
func (n *Node) HasRef() bool { return n.Ref != "" }

// Tree is an arena of outline nodes. The zero value is not usable; call
// NewTree.
type Tree struct {
	nodes []Node
	roots []NodeID
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{nodes: make([]Node, 0, 32)}
}

// Add appends a node under parent (InvalidNode for a root entry) and
// returns its handle. Depth and the dotted ordinal path are derived here
// so they are consistent by construction.
func (t *Tree) Add(parent NodeID, n Node) NodeID {
	id := NodeID(len(t.nodes))
	n.ID = id
	n.Parent = parent

	if parent == InvalidNode {
		n.Depth = 0
		n.Path = strconv.Itoa(len(t.roots) + 1)
		t.roots = append(t.roots, id)
	} else {
		p := &t.nodes[parent]
		n.Depth = p.Depth + 1
		n.Path = p.Path + "." + strconv.Itoa(len(p.Children)+1)
		p.Children = append(p.Children, id)
	}

	t.nodes = append(t.nodes, n)
	return id
}

// Node returns the node for a handle. The pointer stays valid until the
// next Add.
func (t *Tree) Node(id NodeID) *Node {
	return &t.nodes[id]
}

// Roots returns the root-level handles in document order.
func (t *Tree) Roots() []NodeID { return t.roots }

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int { return len(t.nodes) }

// Walk visits every node depth-first in navigation order.
func (t *Tree) Walk(visit func(n *Node)) {
	var rec func(id NodeID)
	rec = func(id NodeID) {
		visit(&t.nodes[id])
		for _, c := range t.nodes[id].Children {
			rec(c)
		}
	}
	for _, r := range t.roots {
		rec(r)
	}
}

// Chapters returns the handles of all chapter nodes with a content ref,
// in navigation order.
func (t *Tree) Chapters() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	t.Walk(func(n *Node) {
		if n.Kind == KindChapter && n.HasRef() {
			ids = append(ids, n.ID)
		}
	})
	return ids
}

// Clone returns a deep copy. Stages derive a fresh snapshot instead of
// mutating their input.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		nodes: make([]Node, len(t.nodes)),
		roots: make([]NodeID, len(t.roots)),
	}
	copy(c.roots, t.roots)
	for i, n := range t.nodes {
		children := make([]NodeID, len(n.Children))
		copy(children, n.Children)
		n.Children = children
		c.nodes[i] = n
	}
	return c
}
