// Package publish renders the resolved book into a static HTML site. The
// site is built in a staging directory next to the output and swapped in
// only when complete, so readers and the preview server never observe a
// half-written book.
package publish

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/book"
	"github.com/jasongannon/api-docs-book/internal/logfields"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// SitePublisher implements book.Publisher.
type SitePublisher struct{}

// NewSitePublisher returns the static site publisher.
func NewSitePublisher() *SitePublisher { return &SitePublisher{} }

// Publish renders every chapter (stub pages included), the index page, the
// stylesheet, assets, and the optional search index into a staging
// directory, then swaps it into place.
func (p *SitePublisher) Publish(ctx context.Context, bs *book.BuildState) error {
	cfg := bs.Config
	outDir := cfg.Output.Directory

	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("ensure output parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".bookc-staging-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(staging)

	pages, err := p.renderSite(ctx, bs, staging)
	if err != nil {
		return err
	}
	bs.Report.Pages = pages

	if err := swapDirs(staging, outDir); err != nil {
		return err
	}

	slog.Info("site published",
		logfields.BuildID(bs.BuildID),
		logfields.Path(outDir),
		logfields.Count(pages))
	return nil
}

func (p *SitePublisher) renderSite(ctx context.Context, bs *book.BuildState, staging string) (int, error) {
	cfg := bs.Config
	fallback := cfg.PathFallbackEnabled()
	r := newRenderer(fallback)

	pages := 0
	var renderErr error
	bs.Tree.Walk(func(n *outline.Node) {
		if renderErr != nil || n.Kind != outline.KindChapter {
			return
		}
		select {
		case <-ctx.Done():
			renderErr = ctx.Err()
			return
		default:
		}

		path := pagePath(n, fallback)
		content, err := p.chapterContent(bs, n, r)
		if err != nil {
			renderErr = fmt.Errorf("render %s: %w", path, err)
			return
		}

		rel := relPrefix(path)
		if err := writePage(filepath.Join(staging, filepath.FromSlash(path)), pageData{
			Book:    cfg.Book.Title,
			Title:   n.Title,
			Rel:     rel,
			Nav:     buildNav(bs.Tree, fallback, rel),
			Content: content,
		}); err != nil {
			renderErr = err
			return
		}
		pages++
	})
	if renderErr != nil {
		return 0, renderErr
	}

	if err := p.writeIndex(bs, staging, fallback); err != nil {
		return 0, err
	}
	pages++

	if err := os.MkdirAll(filepath.Join(staging, "assets"), 0o755); err != nil {
		return 0, fmt.Errorf("ensure assets dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(staging, "assets", "book.css"), []byte(defaultStylesheet), 0o644); err != nil {
		return 0, fmt.Errorf("write stylesheet: %w", err)
	}

	if bs.Scan != nil {
		if err := copyAssets(cfg.Book.ContentRoot, staging, bs.Scan.Assets); err != nil {
			return 0, err
		}
	}

	if cfg.SearchIndexEnabled() {
		idx, err := buildSearchIndex(bs.Tree, bs.Docs, fallback)
		if err != nil {
			return 0, fmt.Errorf("build search index: %w", err)
		}
		if err := os.WriteFile(filepath.Join(staging, "search-index.json"), idx, 0o644); err != nil {
			return 0, fmt.Errorf("write search index: %w", err)
		}
	}

	return pages, nil
}

func (p *SitePublisher) chapterContent(bs *book.BuildState, n *outline.Node, r *renderer) (template.HTML, error) {
	if n.Status == outline.StatusResolved {
		if doc, ok := bs.Docs.Get(n.ID); ok {
			return r.render(doc.Raw)
		}
	}
	return stubContent(n), nil
}

// writeIndex emits the landing page: the book title plus the full table of
// contents.
func (p *SitePublisher) writeIndex(bs *book.BuildState, staging string, fallback bool) error {
	cfg := bs.Config
	toc := buildNav(bs.Tree, fallback, "")

	var body strings.Builder
	body.WriteString("<h1>" + template.HTMLEscapeString(cfg.Book.Title) + "</h1>\n")
	if cfg.Book.Description != "" {
		body.WriteString("<p>" + template.HTMLEscapeString(cfg.Book.Description) + "</p>\n")
	}
	body.WriteString(string(toc))

	return writePage(filepath.Join(staging, "index.html"), pageData{
		Book:    cfg.Book.Title,
		Title:   "Contents",
		Rel:     "",
		Nav:     toc,
		Content: template.HTML(body.String()),
	})
}

func writePage(path string, data pageData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure page dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer f.Close()
	if err := pageTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}
	return f.Close()
}

// copyAssets mirrors non-markdown files from the content root into the
// staging directory, preserving relative paths.
func copyAssets(root, staging string, assets []string) error {
	for _, rel := range assets {
		src := filepath.Join(root, filepath.FromSlash(rel))
		dst := filepath.Join(staging, filepath.FromSlash(rel))
		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copy asset %s: %w", rel, err)
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// swapDirs replaces dst with src. The old output is moved aside first so a
// failed rename cannot leave a merged or partial site.
func swapDirs(src, dst string) error {
	old := dst + ".old"
	_ = os.RemoveAll(old)

	if _, err := os.Stat(dst); err == nil {
		if err := os.Rename(dst, old); err != nil {
			return fmt.Errorf("move previous output aside: %w", err)
		}
	}
	if err := os.Rename(src, dst); err != nil {
		// Try to restore the previous output.
		_ = os.Rename(old, dst)
		return fmt.Errorf("install new output: %w", err)
	}
	_ = os.RemoveAll(old)
	return nil
}
