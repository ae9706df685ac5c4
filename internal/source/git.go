package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/jasongannon/api-docs-book/internal/logfields"
)

// Git serves a book hosted in a git repository. The branch is cloned into
// the workspace and pulled on subsequent materializations; a pull that
// cannot fast-forward falls back to a fresh clone.
type Git struct {
	url    string
	branch string
	token  string
	dir    string
	// sub is the content root relative to the repository root.
	sub string
}

// NewGit returns a git-backed source cloning url into dir. sub is the
// content root inside the repository ("." for the root itself).
func NewGit(url, branch, token, dir, sub string) *Git {
	return &Git{url: url, branch: branch, token: token, dir: dir, sub: sub}
}

// Materialize clones or updates the repository and returns the content
// root inside the working tree.
func (g *Git) Materialize(ctx context.Context) (string, error) {
	if _, err := os.Stat(filepath.Join(g.dir, ".git")); err == nil {
		if err := g.pull(ctx); err != nil {
			slog.Warn("pull failed, recloning",
				logfields.URL(g.url),
				logfields.Error(err))
			if err := os.RemoveAll(g.dir); err != nil {
				return "", fmt.Errorf("remove stale clone: %w", err)
			}
			if err := g.clone(ctx); err != nil {
				return "", err
			}
		}
	} else {
		if err := g.clone(ctx); err != nil {
			return "", err
		}
	}

	root := g.dir
	if g.sub != "" && g.sub != "." {
		root = filepath.Join(g.dir, filepath.FromSlash(g.sub))
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("content root %s not present in %s: %w", g.sub, g.url, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("content root %s in %s is not a directory", g.sub, g.url)
	}
	return root, nil
}

func (g *Git) clone(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(g.dir), 0o755); err != nil {
		return fmt.Errorf("ensure workspace: %w", err)
	}

	opts := &gogit.CloneOptions{
		URL:  g.url,
		Auth: g.auth(),
	}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
		opts.SingleBranch = true
	}

	repo, err := gogit.PlainCloneContext(ctx, g.dir, false, opts)
	if err != nil {
		return fmt.Errorf("clone %s: %w", g.url, err)
	}

	if ref, err := repo.Head(); err == nil {
		slog.Info("book source cloned",
			logfields.URL(g.url),
			logfields.Branch(g.branch),
			slog.String("commit", shortHash(ref.Hash())))
	}
	return nil
}

func (g *Git) pull(ctx context.Context) error {
	repo, err := gogit.PlainOpen(g.dir)
	if err != nil {
		return fmt.Errorf("open clone: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}

	opts := &gogit.PullOptions{
		RemoteName: "origin",
		Auth:       g.auth(),
	}
	if g.branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(g.branch)
		opts.SingleBranch = true
	}

	err = wt.PullContext(ctx, opts)
	switch {
	case err == nil:
		if ref, headErr := repo.Head(); headErr == nil {
			slog.Info("book source updated",
				logfields.URL(g.url),
				slog.String("commit", shortHash(ref.Hash())))
		}
		return nil
	case errors.Is(err, gogit.NoErrAlreadyUpToDate):
		return nil
	default:
		return fmt.Errorf("pull %s: %w", g.url, err)
	}
}

func (g *Git) auth() transport.AuthMethod {
	if g.token == "" {
		return nil
	}
	// Forges accept any username with a token password.
	return &http.BasicAuth{Username: "token", Password: g.token}
}

func shortHash(h plumbing.Hash) string {
	s := h.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
