package publish

import (
	"html/template"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/outline"
)

// buildNav renders the sidebar list for the whole tree. Hrefs are
// root-relative; the caller's rel prefix is prepended so the same nav works
// at any page depth. Every chapter gets an entry even when its content is a
// stub, so the reader always sees the intended shape of the book.
func buildNav(tree *outline.Tree, fallback bool, rel string) template.HTML {
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, id := range tree.Roots() {
		writeNavNode(&b, tree, tree.Node(id), fallback, rel)
	}
	b.WriteString("</ul>\n")
	return template.HTML(b.String())
}

func writeNavNode(b *strings.Builder, tree *outline.Tree, n *outline.Node, fallback bool, rel string) {
	if n.Kind == outline.KindDivider {
		b.WriteString(`<li class="divider">`)
		b.WriteString(template.HTMLEscapeString(n.Title))
		b.WriteString("</li>\n")
	} else {
		class := ""
		if n.Status != outline.StatusResolved {
			class = ` class="unwritten"`
		}
		b.WriteString("<li><a" + class + ` href="`)
		b.WriteString(rel + template.HTMLEscapeString(pagePath(n, fallback)))
		b.WriteString(`">`)
		b.WriteString(template.HTMLEscapeString(n.Title))
		b.WriteString("</a></li>\n")
	}

	if len(n.Children) > 0 {
		b.WriteString("<li><ul>\n")
		for _, c := range n.Children {
			writeNavNode(b, tree, tree.Node(c), fallback, rel)
		}
		b.WriteString("</ul></li>\n")
	}
}
