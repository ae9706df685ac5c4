package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractLinks_InlineLink(t *testing.T) {
	links := ExtractLinks([]byte("See [Naming](design/naming.md) for details."))
	require.Len(t, links, 1)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "design/naming.md", links[0].Destination)
}

func TestExtractLinks_ImageLink(t *testing.T) {
	links := ExtractLinks([]byte("![Diagram](diagram.png)"))
	require.Len(t, links, 1)
	require.Equal(t, LinkKindImage, links[0].Kind)
	require.Equal(t, "diagram.png", links[0].Destination)
}

func TestExtractLinks_AutoLink(t *testing.T) {
	links := ExtractLinks([]byte("<https://example.com/path>"))
	require.Len(t, links, 1)
	require.Equal(t, LinkKindAuto, links[0].Kind)
	require.Equal(t, "https://example.com/path", links[0].Destination)
}

func TestExtractLinks_AnchoredLink(t *testing.T) {
	links := ExtractLinks([]byte("See [Errors](errors.md#handling)."))
	require.Len(t, links, 1)
	require.Equal(t, "errors.md#handling", links[0].Destination)
}

func TestExtractLinks_ReferenceLinkUsageAndDefinition(t *testing.T) {
	src := []byte("See [Glossary][gloss].\n\n[gloss]: glossary.md\n")
	links := ExtractLinks(src)

	// Goldmark resolves the reference usage to a Link node with a
	// Destination; the definition is reported separately.
	require.Len(t, links, 2)
	require.Equal(t, LinkKindInline, links[0].Kind)
	require.Equal(t, "glossary.md", links[0].Destination)
	require.Equal(t, LinkKindReferenceDefinition, links[1].Kind)
	require.Equal(t, "glossary.md", links[1].Destination)
}

func TestExtractLinks_SkipsInlineCodeAndCodeBlocks(t *testing.T) {
	src := []byte("" +
		"Inline code: `[Link](./ignored-inline.md)`\n" +
		"\n" +
		"```\n" +
		"[Link](./ignored-fence.md)\n" +
		"```\n" +
		"\n" +
		"Real: [OK](./real.md)\n")

	links := ExtractLinks(src)
	require.Len(t, links, 1)
	require.Equal(t, "./real.md", links[0].Destination)
}

func TestExtractLinks_DocumentOrderPreserved(t *testing.T) {
	src := []byte("[A](a.md) then [B](b.md) then [C](c.md)")
	links := ExtractLinks(src)

	require.Len(t, links, 3)
	require.Equal(t, "a.md", links[0].Destination)
	require.Equal(t, "b.md", links[1].Destination)
	require.Equal(t, "c.md", links[2].Destination)
}

func TestExtractLinks_PermissiveWhitespaceTarget(t *testing.T) {
	// CommonMark refuses an unescaped space in a destination; the
	// permissive pass still reports the occurrence.
	links := ExtractLinks([]byte("See [Old Draft](drafts/old draft.md)."))

	require.NotEmpty(t, links)
	found := false
	for _, l := range links {
		if l.Destination == "drafts/old draft.md" {
			found = true
		}
	}
	require.True(t, found, "permissive pass should recover the spaced destination")
}

func TestPermissiveScan_SkipsCodeContexts(t *testing.T) {
	src := []byte("" +
		"`[x](in code.md)`\n" +
		"    [y](indented code.md)\n" +
		"~~~\n" +
		"[z](fenced code.md)\n" +
		"~~~\n")

	require.Empty(t, permissiveScan(src))
}

func TestScanRefDefTarget(t *testing.T) {
	l, ok := scanRefDefTarget("[draft]: notes/design draft.md \"Old notes\"")
	require.True(t, ok)
	require.Equal(t, LinkKindReferenceDefinition, l.Kind)
	require.Equal(t, "notes/design draft.md", l.Destination)

	_, ok = scanRefDefTarget("[^1]: a footnote, not a link")
	require.False(t, ok)

	_, ok = scanRefDefTarget("[clean]: no-spaces.md")
	require.False(t, ok)
}
