// Package source materializes a book's content for a build. A book lives
// either in a local directory or in a git repository; either way the build
// pipeline only ever sees a content root on disk.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jasongannon/api-docs-book/internal/config"
)

// Source produces a content root for the build pipeline.
type Source interface {
	// Materialize makes the book content available locally and returns
	// the content root path. Git sources fetch on every call so watch
	// mode picks up upstream changes.
	Materialize(ctx context.Context) (string, error)
}

// ForConfig returns the source the configuration describes: a git clone
// when source.git is set, the configured local directory otherwise.
func ForConfig(cfg *config.Config, workspace string) Source {
	if g := cfg.Source.Git; g != nil {
		return &Git{
			url:    g.URL,
			branch: g.Branch,
			token:  g.Token,
			dir:    filepath.Join(workspace, repoDirName(g.URL)),
			sub:    cfg.Book.ContentRoot,
		}
	}
	return &Local{root: cfg.Book.ContentRoot}
}

// Local serves a book that already lives on disk.
type Local struct {
	root string
}

// NewLocal returns a source for an on-disk content root.
func NewLocal(root string) *Local { return &Local{root: root} }

// Materialize verifies the content root exists.
func (l *Local) Materialize(_ context.Context) (string, error) {
	info, err := os.Stat(l.root)
	if err != nil {
		return "", fmt.Errorf("content root %s: %w", l.root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("content root %s is not a directory", l.root)
	}
	return l.root, nil
}

// repoDirName derives a stable workspace directory name from a repository
// URL.
func repoDirName(url string) string {
	name := strings.TrimSuffix(url, ".git")
	name = strings.TrimRight(name, "/")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return "book"
	}
	return name
}
