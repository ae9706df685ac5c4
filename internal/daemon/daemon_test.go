package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jasongannon/api-docs-book/internal/book"
	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/content"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

func TestBuildEventFlattensReport(t *testing.T) {
	start := time.Now().Add(-2 * time.Second).UTC()
	bs := &book.BuildState{
		BuildID: "b-7",
		Report: &book.BuildReport{
			BuildID:            "b-7",
			Trigger:            "watch",
			Outcome:            book.OutcomeWarning,
			Chapters:           4,
			DiagnosticErrors:   1,
			DiagnosticWarnings: 2,
			Pages:              5,
			Start:              start,
			End:                start.Add(1500 * time.Millisecond),
		},
	}

	ev := buildEvent(bs)
	assert.Equal(t, "b-7", ev.BuildID)
	assert.Equal(t, "watch", ev.Trigger)
	assert.Equal(t, "warning", ev.Outcome)
	assert.Equal(t, 4, ev.Chapters)
	assert.Equal(t, 1, ev.DiagnosticErrors)
	assert.Equal(t, 2, ev.DiagnosticWarnings)
	assert.Equal(t, 5, ev.Pages)
	assert.Equal(t, int64(1500), ev.DurationMS)
	assert.Equal(t, start, ev.StartedAt)
	assert.Empty(t, ev.Fingerprint, "no documents resolved")
}

func TestContentFingerprintIsStableAndOrderSensitive(t *testing.T) {
	tree := outline.NewTree()
	a := tree.Add(outline.InvalidNode, outline.Node{Kind: outline.KindChapter, Title: "A", Ref: "a.md"})
	b := tree.Add(outline.InvalidNode, outline.Node{Kind: outline.KindChapter, Title: "B", Ref: "b.md"})

	docs := content.NewSet()
	docs.Add(&content.Document{NodeID: a, Ref: "a.md", Fingerprint: "fp-a"})
	docs.Add(&content.Document{NodeID: b, Ref: "b.md", Fingerprint: "fp-b"})

	fp := contentFingerprint(&book.BuildState{Tree: tree, Docs: docs})
	require.NotEmpty(t, fp)
	assert.Equal(t, fp, contentFingerprint(&book.BuildState{Tree: tree, Docs: docs}))

	changed := content.NewSet()
	changed.Add(&content.Document{NodeID: a, Ref: "a.md", Fingerprint: "fp-a2"})
	changed.Add(&content.Document{NodeID: b, Ref: "b.md", Fingerprint: "fp-b"})
	assert.NotEqual(t, fp, contentFingerprint(&book.BuildState{Tree: tree, Docs: changed}))

	swapped := outline.NewTree()
	sb := swapped.Add(outline.InvalidNode, outline.Node{Kind: outline.KindChapter, Title: "B", Ref: "b.md"})
	sa := swapped.Add(outline.InvalidNode, outline.Node{Kind: outline.KindChapter, Title: "A", Ref: "a.md"})
	reordered := content.NewSet()
	reordered.Add(&content.Document{NodeID: sb, Ref: "b.md", Fingerprint: "fp-b"})
	reordered.Add(&content.Document{NodeID: sa, Ref: "a.md", Fingerprint: "fp-a"})
	assert.NotEqual(t, fp, contentFingerprint(&book.BuildState{Tree: swapped, Docs: reordered}))
}

func TestContentFingerprintEmptyWhenNothingResolved(t *testing.T) {
	assert.Empty(t, contentFingerprint(&book.BuildState{}))
	assert.Empty(t, contentFingerprint(&book.BuildState{
		Tree: outline.NewTree(),
		Docs: content.NewSet(),
	}))
}

func watchConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")
	require.NoError(t, os.MkdirAll(src, 0o755))

	files := map[string]string{
		"SUMMARY.md": "- [Introduction](intro.md)\n- [Usage](usage.md)\n",
		"intro.md":   "# Introduction\n\nSee [usage](usage.md).\n",
		"usage.md":   "# Usage\n\nRun the thing.\n",
	}
	for rel, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(src, rel), []byte(body), 0o644))
	}

	enabled := true
	return &config.Config{
		Book: config.BookConfig{
			Title:       "Watched Book",
			ContentRoot: src,
			Outline:     "SUMMARY.md",
		},
		Resolver: config.ResolverConfig{
			PathFallback: &enabled,
			Workers:      4,
			FileTimeout:  config.Duration(2 * time.Second),
		},
		Output: config.OutputConfig{
			Directory:   filepath.Join(root, "book"),
			SearchIndex: &enabled,
		},
		Daemon: config.DaemonConfig{
			Listen:          "127.0.0.1:0",
			Debounce:        config.Duration(50 * time.Millisecond),
			RebuildInterval: config.Duration(time.Hour),
			HistoryDB:       filepath.Join(root, "history.db"),
		},
	}
}

func TestRunBuildRecordsHistoryAndPublishes(t *testing.T) {
	cfg := watchConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.store.Close() })

	ctx := t.Context()
	d.runBuild(ctx, "startup")

	require.NotNil(t, d.lastReport())
	assert.Equal(t, "startup", d.lastReport().Trigger)
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Output.Directory, "intro.html"))

	events, err := d.store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "startup", events[0].Trigger)
	assert.Equal(t, "success", events[0].Outcome)
	assert.Equal(t, 2, events[0].Chapters)
	assert.NotEmpty(t, events[0].Fingerprint)
}

func TestRunBuildUnchangedContentKeepsFingerprint(t *testing.T) {
	cfg := watchConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.store.Close() })

	ctx := t.Context()
	d.runBuild(ctx, "startup")
	d.runBuild(ctx, "watch")

	events, err := d.store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, events[0].Fingerprint, events[1].Fingerprint)
	assert.NotEqual(t, events[0].BuildID, events[1].BuildID)
}

func TestRunBuildChangedContentChangesFingerprint(t *testing.T) {
	cfg := watchConfig(t)
	d, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.store.Close() })

	ctx := t.Context()
	d.runBuild(ctx, "startup")

	usage := filepath.Join(cfg.Book.ContentRoot, "usage.md")
	require.NoError(t, os.WriteFile(usage, []byte("# Usage\n\nRun the new thing.\n"), 0o644))
	d.runBuild(ctx, "watch")

	events, err := d.store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.NotEqual(t, events[0].Fingerprint, events[1].Fingerprint)
}
