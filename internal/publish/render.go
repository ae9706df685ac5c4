package publish

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// pageTemplate is the one layout every page shares. Rel makes asset and
// nav hrefs work from any directory depth without a <base> element.
var pageTemplate = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - {{.Book}}</title>
<link rel="stylesheet" href="{{.Rel}}assets/book.css">
</head>
<body>
<nav class="sidebar">
<p class="book-title"><a href="{{.Rel}}index.html">{{.Book}}</a></p>
{{.Nav}}
</nav>
<main class="chapter">
{{.Content}}
</main>
</body>
</html>
`))

const defaultStylesheet = `body { margin: 0; display: flex; font: 16px/1.6 system-ui, sans-serif; color: #1a1a1a; }
.sidebar { width: 17rem; min-height: 100vh; padding: 1rem 1.25rem; background: #f6f8fa; border-right: 1px solid #d6dade; }
.sidebar ul { list-style: none; padding-left: 1rem; }
.sidebar .book-title { font-weight: 700; }
.sidebar .divider { margin-top: 1rem; font-size: .8rem; text-transform: uppercase; letter-spacing: .04em; color: #57606a; }
.sidebar .unwritten { color: #8c959f; }
.chapter { max-width: 46rem; padding: 2rem 3rem; }
.chapter pre { background: #f6f8fa; padding: .75rem 1rem; overflow-x: auto; }
.chapter code { font-family: ui-monospace, monospace; font-size: .9em; }
.stub { padding: 1rem; border: 1px dashed #d6dade; color: #57606a; }
a { color: #0969da; text-decoration: none; }
a:hover { text-decoration: underline; }
`

type pageData struct {
	Book    string
	Title   string
	Rel     string
	Nav     template.HTML
	Content template.HTML
}

// renderer converts chapter markdown to HTML. Internal .md destinations are
// rewritten to their .html page paths during the AST pass so the published
// site links pages, not sources.
type renderer struct {
	md       goldmark.Markdown
	fallback bool
}

func newRenderer(fallback bool) *renderer {
	rw := &linkRewriter{fallback: fallback}
	return &renderer{
		fallback: fallback,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
				parser.WithASTTransformers(util.Prioritized(rw, 500)),
			),
			goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
		),
	}
}

func (r *renderer) render(raw []byte) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert(raw, &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// linkRewriter swaps markdown destinations for page paths: "guide/api.md"
// becomes "guide/api.html". External URLs and images pass through.
type linkRewriter struct {
	fallback bool
}

func (rw *linkRewriter) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		link, ok := n.(*gmast.Link)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if rewritten, ok := rewriteDestination(string(link.Destination), rw.fallback); ok {
			link.Destination = []byte(rewritten)
		}
		return gmast.WalkContinue, nil
	})
}

// rewriteDestination maps an internal markdown destination to its page
// path, preserving any fragment. Reports false when the destination is
// external or not a markdown reference.
func rewriteDestination(dest string, fallback bool) (string, bool) {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "//") {
		return "", false
	}
	if strings.Contains(dest, ":") {
		return "", false
	}

	target, anchor := dest, ""
	if i := strings.IndexByte(dest, '#'); i >= 0 {
		target, anchor = dest[:i], dest[i:]
	}

	eff := target
	if fallback {
		eff, _ = content.FallbackMD(eff)
	}
	if !strings.HasSuffix(eff, ".md") {
		return "", false
	}
	return strings.TrimSuffix(eff, ".md") + ".html" + anchor, true
}

// pagePath maps a node to its site-relative HTML path. Chapters with an
// unresolved or missing ref still get a page so navigation never dangles.
func pagePath(n *outline.Node, fallback bool) string {
	ref := n.ResolvedRef
	if ref == "" && n.Ref != "" {
		ref = content.EffectiveRef(n.Ref, fallback)
	}
	if ref != "" {
		if strings.HasSuffix(ref, ".md") {
			return strings.TrimSuffix(ref, ".md") + ".html"
		}
		return ref + ".html"
	}
	return "unwritten-" + strings.ReplaceAll(n.Path, ".", "-") + ".html"
}

// relPrefix returns the ../ chain that leads from a page back to the site
// root.
func relPrefix(pagePath string) string {
	return strings.Repeat("../", strings.Count(pagePath, "/"))
}

func stubContent(n *outline.Node) template.HTML {
	var msg string
	switch n.Status {
	case outline.StatusMissingFile:
		msg = fmt.Sprintf("The source document <code>%s</code> does not exist.", template.HTMLEscapeString(n.Ref))
	case outline.StatusEmptyTarget:
		msg = "This entry names a section anchor but no source document."
	default:
		msg = "This chapter has not been written yet."
	}
	return template.HTML(fmt.Sprintf(
		"<h1>%s</h1>\n<div class=\"stub\"><p>%s</p></div>\n",
		template.HTMLEscapeString(n.Title), msg))
}
