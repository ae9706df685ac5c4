package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/content"
	errs "github.com/jasongannon/api-docs-book/internal/errors"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// runTree parses and resolves the outline, then prints it. No graph, no
// validation, no publish: this is the fast "what does bookc see" view.
func runTree() error {
	ctx := context.Background()
	cfg, err := loadBook(ctx)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(cfg.OutlinePath())
	if err != nil {
		return errs.WrapError(err, errs.CategoryOutline, "read outline")
	}
	tree, err := outline.Parse(raw)
	if err != nil {
		return errs.WrapError(err, errs.CategoryOutline, "parse outline")
	}

	resolver := content.NewResolver(
		cfg.Book.ContentRoot,
		cfg.PathFallbackEnabled(),
		cfg.Resolver.Workers,
		cfg.Resolver.FileTimeout.Std(),
	)
	res, err := resolver.Resolve(ctx, tree)
	if err != nil {
		return errs.WrapError(err, errs.CategoryContent, "resolve content")
	}

	writeTree(os.Stdout, res.Tree)
	return nil
}

// writeTree prints one line per node: ordinal path, indented title, and
// the reference with its resolution status for chapters.
func writeTree(w io.Writer, tree *outline.Tree) {
	tree.Walk(func(n *outline.Node) {
		indent := strings.Repeat("  ", n.Depth)
		switch {
		case n.Kind == outline.KindDivider:
			fmt.Fprintf(w, "%-8s %s# %s\n", n.Path, indent, n.Title)
		case n.Status == outline.StatusPlaceholder:
			fmt.Fprintf(w, "%-8s %s%s (placeholder)\n", n.Path, indent, n.Title)
		default:
			ref := n.Ref
			if n.ResolvedRef != "" && n.ResolvedRef != n.Ref {
				ref = n.Ref + " -> " + n.ResolvedRef
			}
			fmt.Fprintf(w, "%-8s %s%s [%s] %s\n", n.Path, indent, n.Title, ref, n.Status)
		}
	})

	fmt.Fprintln(w)
	fmt.Fprintln(w, treeSummary(tree))
}

// treeSummary counts chapters by resolution status in a stable order.
func treeSummary(tree *outline.Tree) string {
	counts := make(map[outline.Status]int)
	chapters := 0
	tree.Walk(func(n *outline.Node) {
		if n.Kind != outline.KindChapter {
			return
		}
		chapters++
		counts[n.Status]++
	})

	parts := make([]string, 0, 4)
	for _, st := range []outline.Status{
		outline.StatusResolved,
		outline.StatusMissingFile,
		outline.StatusEmptyTarget,
		outline.StatusPlaceholder,
	} {
		if counts[st] > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", counts[st], st))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("%d chapters", chapters)
	}
	return fmt.Sprintf("%d chapters: %s", chapters, strings.Join(parts, ", "))
}
