package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasongannon/api-docs-book/internal/config"
)

func TestLocalMaterialize(t *testing.T) {
	dir := t.TempDir()

	root, err := NewLocal(dir).Materialize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, root)
}

func TestLocalMaterializeMissing(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "nope")).Materialize(context.Background())
	assert.Error(t, err)
}

func TestLocalMaterializeNotADirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := NewLocal(file).Materialize(context.Background())
	assert.ErrorContains(t, err, "not a directory")
}

func TestRepoDirName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://github.com/acme/api-book.git", "api-book"},
		{"https://github.com/acme/api-book", "api-book"},
		{"git@github.com:acme/api-book.git", "api-book"},
		{"https://example.com/group/sub/book/", "book"},
		{"", "book"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, repoDirName(tt.url), tt.url)
	}
}

func TestForConfigSelectsSource(t *testing.T) {
	local := &config.Config{
		Book: config.BookConfig{ContentRoot: "/books/api/src"},
	}
	_, ok := ForConfig(local, t.TempDir()).(*Local)
	assert.True(t, ok)

	git := &config.Config{
		Book: config.BookConfig{ContentRoot: "docs"},
		Source: config.SourceConfig{
			Git: &config.GitSource{URL: "https://example.com/acme/book.git", Branch: "main"},
		},
	}
	_, ok = ForConfig(git, t.TempDir()).(*Git)
	assert.True(t, ok)
}
