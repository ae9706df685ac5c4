package publish

import (
	"encoding/json"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// searchEntry is one chapter in the client-side search index. Text is
// NFC-normalized and case-folded so the browser can match with a plain
// substring test over any script.
type searchEntry struct {
	Title string `json:"title"`
	Path  string `json:"path"`
	Text  string `json:"text"`
}

var searchFolder = cases.Fold()

// buildSearchIndex renders search-index.json content for every resolved
// chapter, in navigation order.
func buildSearchIndex(tree *outline.Tree, docs *content.Set, fallback bool) ([]byte, error) {
	entries := make([]searchEntry, 0, docs.Len())

	tree.Walk(func(n *outline.Node) {
		if n.Kind != outline.KindChapter || n.Status != outline.StatusResolved {
			return
		}
		doc, ok := docs.Get(n.ID)
		if !ok {
			return
		}
		entries = append(entries, searchEntry{
			Title: n.Title,
			Path:  pagePath(n, fallback),
			Text:  foldText(extractPlainText(doc.Raw)),
		})
	})

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func foldText(s string) string {
	return searchFolder.String(norm.NFC.String(s))
}

// extractPlainText walks the markdown AST collecting text segments. Code
// blocks are included: API documentation is searched by identifier as often
// as by prose.
func extractPlainText(raw []byte) string {
	md := goldmark.New()
	reader := text.NewReader(raw)
	doc := md.Parser().Parse(reader)

	var out []byte
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.Text:
			out = appendSegment(out, t.Segment.Value(raw))
		case *gmast.FencedCodeBlock:
			for i := 0; i < t.Lines().Len(); i++ {
				seg := t.Lines().At(i)
				out = appendSegment(out, seg.Value(raw))
			}
		case *gmast.CodeBlock:
			for i := 0; i < t.Lines().Len(); i++ {
				seg := t.Lines().At(i)
				out = appendSegment(out, seg.Value(raw))
			}
		}
		return gmast.WalkContinue, nil
	})
	return string(out)
}

func appendSegment(out, seg []byte) []byte {
	seg = trimSpaceBytes(seg)
	if len(seg) == 0 {
		return out
	}
	if len(out) > 0 {
		out = append(out, ' ')
	}
	return append(out, seg...)
}

func trimSpaceBytes(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == ' ' || b[start] == '\t' || b[start] == '\n' || b[start] == '\r') {
		start++
	}
	for end > start && (b[end-1] == ' ' || b[end-1] == '\t' || b[end-1] == '\n' || b[end-1] == '\r') {
		end--
	}
	return b[start:end]
}
