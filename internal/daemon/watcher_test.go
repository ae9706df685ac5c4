package daemon

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIgnoreEvent(t *testing.T) {
	cases := []struct {
		path    string
		ignored bool
	}{
		{"chapter.md", false},
		{"guide/install.md", false},
		{"/abs/path/notes.md", false},
		{".hidden.md", true},
		{"guide/.install.md.swp", true},
		{"notes.md~", true},
		{"buffer.swp", true},
		{"buffer.swx", true},
		{"scratch.tmp", true},
		{"#lockfile#", true},
		{"Thumbs.db", true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ignored, ignoreEvent(tc.path), "path %q", tc.path)
	}
}

func TestContentWatcherSeesChanges(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "guide")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	watcher, err := newContentWatcher(root)
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	require.NoError(t, os.WriteFile(filepath.Join(sub, "install.md"), []byte("# Install\n"), 0o644))

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-watcher.Events:
			if handleFileEvent(watcher, ev) {
				assert.Contains(t, ev.Name, "install.md")
				return
			}
		case err := <-watcher.Errors:
			t.Fatalf("watcher error: %v", err)
		case <-deadline:
			t.Fatal("timed out waiting for file event")
		}
	}
}

func TestContentWatcherSkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".git")
	require.NoError(t, os.MkdirAll(hidden, 0o755))

	watcher, err := newContentWatcher(root)
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	assert.False(t, slices.Contains(watcher.WatchList(), hidden))
	assert.True(t, slices.Contains(watcher.WatchList(), root))
}

func TestHandleFileEventAddsCreatedDirectories(t *testing.T) {
	root := t.TempDir()

	watcher, err := newContentWatcher(root)
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	created := filepath.Join(root, "reference")
	require.NoError(t, os.Mkdir(created, 0o755))

	ok := handleFileEvent(watcher, fsnotify.Event{Name: created, Op: fsnotify.Create})
	assert.True(t, ok)
	assert.True(t, slices.Contains(watcher.WatchList(), created))
}

func TestHandleFileEventIgnoresEditorDroppings(t *testing.T) {
	root := t.TempDir()

	watcher, err := newContentWatcher(root)
	require.NoError(t, err)
	defer func() { _ = watcher.Close() }()

	ev := fsnotify.Event{Name: filepath.Join(root, ".intro.md.swp"), Op: fsnotify.Write}
	assert.False(t, handleFileEvent(watcher, ev))
}
