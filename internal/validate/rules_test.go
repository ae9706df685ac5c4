package validate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/linkgraph"
	"github.com/jasongannon/api-docs-book/internal/markdown"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

func addChapter(tree *outline.Tree, parent outline.NodeID, title, ref string, status outline.Status) outline.NodeID {
	return tree.Add(parent, outline.Node{
		Kind:   outline.KindChapter,
		Title:  title,
		Ref:    ref,
		Status: status,
	})
}

func emptyInput(tree *outline.Tree) *Input {
	return &Input{
		Tree:     tree,
		Graph:    (&linkgraph.Builder{Fallback: true}).Build(tree, content.NewSet()),
		Fallback: true,
	}
}

func TestRunCleanBook(t *testing.T) {
	tree := outline.NewTree()
	addChapter(tree, outline.InvalidNode, "Intro", "intro.md", outline.StatusResolved)

	report := Run(emptyInput(tree))
	assert.Empty(t, report.Findings)
	assert.False(t, report.HasErrors())
}

func TestEmptyPlaceholderFindings(t *testing.T) {
	tree := outline.NewTree()
	addChapter(tree, outline.InvalidNode, "Future Topics", "", outline.StatusPlaceholder)
	addChapter(tree, outline.InvalidNode, "Anchored", "", outline.StatusEmptyTarget)
	tree.Add(outline.InvalidNode, outline.Node{Kind: outline.KindDivider, Title: "Part One"})

	report := Run(emptyInput(tree))
	found := report.ByKind(KindEmptyPlaceholder)
	require.Len(t, found, 2)
	for _, f := range found {
		assert.Equal(t, SeverityWarning, f.Severity)
	}
	assert.Contains(t, found[0].Message, "no content target")
	assert.Contains(t, found[1].Message, "fragment")
}

func TestMissingFileFinding(t *testing.T) {
	tree := outline.NewTree()
	addChapter(tree, outline.InvalidNode, "Gone", "gone.md", outline.StatusMissingFile)

	report := Run(emptyInput(tree))
	found := report.ByKind(KindMissingFile)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityError, found[0].Severity)
	assert.Contains(t, found[0].Message, `"gone.md"`)
	assert.True(t, report.HasErrors())
}

func TestBrokenLinkFinding(t *testing.T) {
	tree := outline.NewTree()
	id := addChapter(tree, outline.InvalidNode, "Intro", "intro.md", outline.StatusResolved)

	docs := content.NewSet()
	docs.Add(&content.Document{
		NodeID:     id,
		Ref:        "intro.md",
		SourcePath: "intro.md",
		OutboundLinks: []markdown.Link{
			{Kind: markdown.LinkKindInline, Destination: "missing.md"},
		},
	})
	graph := (&linkgraph.Builder{Fallback: true}).Build(tree, docs)

	report := Run(&Input{Tree: tree, Graph: graph, Fallback: true})
	found := report.ByKind(KindBrokenLink)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityError, found[0].Severity)
	assert.Equal(t, "missing.md", found[0].Target)
	assert.Equal(t, "1", found[0].NodePath)
}

func TestDuplicateTitleSiblingsOnly(t *testing.T) {
	tree := outline.NewTree()
	a := addChapter(tree, outline.InvalidNode, "Overview", "a.md", outline.StatusResolved)
	addChapter(tree, outline.InvalidNode, "Overview", "b.md", outline.StatusResolved)
	// Same title one level down is not a sibling collision.
	addChapter(tree, a, "Overview", "c.md", outline.StatusResolved)
	addChapter(tree, a, "Details", "d.md", outline.StatusResolved)
	addChapter(tree, a, "Details", "e.md", outline.StatusResolved)

	report := Run(emptyInput(tree))
	found := report.ByKind(KindDuplicateTitle)
	require.Len(t, found, 2)
	assert.Equal(t, "1.3", found[0].NodePath)
	assert.Contains(t, found[0].Message, "duplicates sibling entry 1.2")
	assert.Equal(t, "2", found[1].NodePath)
	assert.Contains(t, found[1].Message, "duplicates sibling entry 1")
}

func TestOrphanDocumentFinding(t *testing.T) {
	tree := outline.NewTree()
	resolved := addChapter(tree, outline.InvalidNode, "Intro", "intro.md", outline.StatusResolved)
	tree.Node(resolved).ResolvedRef = "intro.md"
	fb := addChapter(tree, outline.InvalidNode, "API", "reference/api/md", outline.StatusResolved)
	tree.Node(fb).ResolvedRef = "reference/api.md"

	in := emptyInput(tree)
	in.OutlinePath = "SUMMARY.md"
	in.Scan = &content.RootScan{
		Markdown: []string{"SUMMARY.md", "intro.md", "reference/api.md", "stray.md"},
	}

	report := Run(in)
	found := report.ByKind(KindOrphanDocument)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityWarning, found[0].Severity)
	assert.Equal(t, "stray.md", found[0].Ref)
	assert.Empty(t, found[0].NodePath)
}

func TestOrphanCheckSkippedWithoutScan(t *testing.T) {
	tree := outline.NewTree()
	addChapter(tree, outline.InvalidNode, "Intro", "intro.md", outline.StatusResolved)

	report := Run(emptyInput(tree))
	assert.Empty(t, report.ByKind(KindOrphanDocument))
}

func TestDuplicateReferenceFinding(t *testing.T) {
	tree := outline.NewTree()
	addChapter(tree, outline.InvalidNode, "First", "shared.md", outline.StatusResolved)
	addChapter(tree, outline.InvalidNode, "Second", "shared.md", outline.StatusResolved)
	// The fallback form collides with the literal form.
	addChapter(tree, outline.InvalidNode, "Third", "shared/md", outline.StatusResolved)

	report := Run(emptyInput(tree))
	found := report.ByKind(KindDuplicateReference)
	require.Len(t, found, 2)
	for _, f := range found {
		assert.Contains(t, f.Message, `"shared.md" already used by entry 1`)
	}
}

func TestNormalizedReferenceFinding(t *testing.T) {
	tree := outline.NewTree()
	id := addChapter(tree, outline.InvalidNode, "API", "reference/api/md", outline.StatusResolved)
	n := tree.Node(id)
	n.ResolvedRef = "reference/api.md"
	n.NormalizedRef = true

	report := Run(emptyInput(tree))
	found := report.ByKind(KindNormalizedReference)
	require.Len(t, found, 1)
	assert.Equal(t, SeverityWarning, found[0].Severity)
	assert.Contains(t, found[0].Message, `"reference/api/md"`)
	assert.Contains(t, found[0].Message, `"reference/api.md"`)
}

func TestFindingsSortedByOrdinalPath(t *testing.T) {
	tree := outline.NewTree()
	for i := 1; i <= 10; i++ {
		status := outline.StatusResolved
		if i == 9 || i == 10 {
			status = outline.StatusMissingFile
		}
		addChapter(tree, outline.InvalidNode, fmt.Sprintf("Ch %d", i), fmt.Sprintf("ch%d.md", i), status)
	}

	report := Run(emptyInput(tree))
	require.Len(t, report.Findings, 2)
	assert.Equal(t, "9", report.Findings[0].NodePath)
	assert.Equal(t, "10", report.Findings[1].NodePath)
}

func TestComparePaths(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "2", 0},
		{"2.9", "2.10", -1},
		{"2.10", "2.9", 1},
		{"2", "2.1", -1},
		{"2.1", "2", 1},
		{"", "5", 1},
		{"5", "", -1},
		{"", "", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, comparePaths(tt.a, tt.b), "comparePaths(%q, %q)", tt.a, tt.b)
	}
}
