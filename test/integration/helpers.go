// Package integration runs the build pipeline end to end over fixture books
// and compares the deterministic artifacts against golden files.
package integration

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"

	"github.com/jasongannon/api-docs-book/internal/book"
	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/publish"
)

// loadGoldenConfig loads a test configuration and returns it.
func loadGoldenConfig(t *testing.T, configPath string) *config.Config {
	t.Helper()

	cfg, err := config.Load(configPath)
	require.NoError(t, err, "failed to load test config")

	return cfg
}

// compileBook runs the full pipeline over cfg and publishes into
// cfg.Output.Directory. Diagnostic findings do not fail the run; tests
// assert on them explicitly.
func compileBook(t *testing.T, cfg *config.Config) *book.BuildState {
	t.Helper()

	c := book.New(cfg, book.WithPublisher(publish.NewSitePublisher()))
	bs, err := c.Compile(context.Background(), book.Options{Persist: true})
	require.NoError(t, err, "build pipeline failed")

	return bs
}

// verifyDiagnostics compares the persisted diagnostics document against a
// golden file byte for byte. The document is specified to be stable across
// identical inputs, so no normalization is applied.
func verifyDiagnostics(t *testing.T, outputDir, goldenPath string, updateGolden bool) {
	t.Helper()

	actualPath := filepath.Join(outputDir, "diagnostics.json")
	// #nosec G304 -- test utility reading from test output directory
	actual, err := os.ReadFile(actualPath)
	require.NoError(t, err, "failed to read generated diagnostics.json")

	compareGolden(t, actual, goldenPath, updateGolden)
}

// verifySiteStructure compares the published site's file listing against a
// golden file. Page bodies and the operational report carry volatile fields;
// the listing itself is stable.
func verifySiteStructure(t *testing.T, outputDir, goldenPath string, updateGolden bool) {
	t.Helper()

	var files []string
	err := filepath.Walk(outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(outputDir, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	require.NoError(t, err, "failed to walk output directory")
	sort.Strings(files)

	compareGolden(t, []byte(strings.Join(files, "\n")+"\n"), goldenPath, updateGolden)
}

// compareGolden matches actual against the golden file, rewriting the golden
// when -update-golden is set.
func compareGolden(t *testing.T, actual []byte, goldenPath string, updateGolden bool) {
	t.Helper()

	if updateGolden {
		err := os.MkdirAll(filepath.Dir(goldenPath), 0o750)
		require.NoError(t, err, "failed to create golden directory")

		err = os.WriteFile(goldenPath, actual, 0o600)
		require.NoError(t, err, "failed to write golden file")

		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	// #nosec G304 -- test utility reading golden file from testdata
	expected, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "failed to read golden file: %s", goldenPath)

	require.Equal(t, string(expected), string(actual), "golden mismatch: %s", goldenPath)
}

// setupBookRepo initializes a git repository on the main branch holding the
// fixture book under src/ and returns its path for use as a clone URL.
func setupBookRepo(t *testing.T, fixtureDir string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "upstream")
	repo, err := gogit.PlainInitWithOptions(dir, &gogit.PlainInitOptions{
		InitOptions: gogit.InitOptions{DefaultBranch: plumbing.Main},
	})
	require.NoError(t, err, "failed to init upstream repository")

	err = copyDir(fixtureDir, filepath.Join(dir, "src"))
	require.NoError(t, err, "failed to copy fixture book")

	wt, err := repo.Worktree()
	require.NoError(t, err)

	_, err = wt.AddGlob(".")
	require.NoError(t, err, "failed to stage fixture book")

	_, err = wt.Commit("fixture book", &gogit.CommitOptions{
		Author: &object.Signature{Name: "tester", Email: "tester@example.com", When: time.Now()},
	})
	require.NoError(t, err, "failed to commit fixture book")

	return dir
}

// copyDir copies a directory tree.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

// copyFile copies a single file.
func copyFile(src, dst string) error {
	// #nosec G304 -- test utility with paths from test setup, not user input
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = srcFile.Close() }()

	// #nosec G304 -- test utility with paths from test setup, not user input
	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = dstFile.Close() }()

	_, err = io.Copy(dstFile, srcFile)
	return err
}
