package content

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/inful/mdfp"

	"github.com/jasongannon/api-docs-book/internal/logfields"
	"github.com/jasongannon/api-docs-book/internal/markdown"
	"github.com/jasongannon/api-docs-book/internal/outline"
)

// Resolver loads the documents an outline references and assigns each
// chapter node its resolution status. Loads run concurrently, bounded by
// Workers, and each individual read is capped at FileTimeout so one slow
// file cannot stall the build.
type Resolver struct {
	Root        string
	Fallback    bool
	Workers     int
	FileTimeout time.Duration

	// readFile is swapped out in tests to simulate slow or failing reads.
	readFile func(path string) ([]byte, error)
}

// Result pairs the resolved tree snapshot with the documents that loaded.
type Result struct {
	Tree *outline.Tree
	Docs *Set
}

// NewResolver returns a resolver over the given content root.
func NewResolver(root string, fallback bool, workers int, fileTimeout time.Duration) *Resolver {
	if workers <= 0 {
		workers = 1
	}
	return &Resolver{
		Root:        root,
		Fallback:    fallback,
		Workers:     workers,
		FileTimeout: fileTimeout,
		readFile:    os.ReadFile,
	}
}

// resolution is one worker's outcome for one node. Workers write disjoint
// slice slots, so no lock is needed; the merge happens after the join.
type resolution struct {
	status     outline.Status
	resolved   string
	normalized bool
	doc        *Document
}

// Resolve loads every chapter document referenced by the tree and returns a
// resolved snapshot. The input tree is not mutated. Per-file failures and
// timeouts surface as MissingFile status on the affected node; only
// cancellation of ctx aborts the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, tree *outline.Tree) (*Result, error) {
	snapshot := tree.Clone()
	results := make([]resolution, snapshot.Len())

	sem := make(chan struct{}, r.Workers)
	var wg sync.WaitGroup

	for _, id := range snapshot.Chapters() {
		node := snapshot.Node(id)
		if node.Status != outline.StatusNone {
			// Placeholder and EmptyTarget are decided at parse time.
			continue
		}

		select {
		case <-ctx.Done():
			wg.Wait()
			return nil, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(id outline.NodeID, ref string) {
			defer wg.Done()
			defer func() { <-sem }()
			results[id] = r.resolveOne(ctx, ref)
		}(id, node.Ref)
	}

	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := NewSet()
	for _, id := range snapshot.Chapters() {
		node := snapshot.Node(id)
		if node.Status != outline.StatusNone {
			continue
		}
		res := results[id]
		node.Status = res.status
		node.ResolvedRef = res.resolved
		node.NormalizedRef = res.normalized
		if res.doc != nil {
			res.doc.NodeID = id
			docs.Add(res.doc)
		}
	}

	slog.Debug("content resolution complete",
		logfields.ContentRoot(r.Root),
		logfields.Count(docs.Len()))

	return &Result{Tree: snapshot, Docs: docs}, nil
}

// resolveOne tries the literal reference first, then the .md fallback when
// enabled. Timeouts count as missing: a file that cannot be read in time is
// treated the same as one that is not there.
func (r *Resolver) resolveOne(ctx context.Context, ref string) resolution {
	literal := Normalize(ref)
	if literal == "" || EscapesRoot(literal) {
		return resolution{status: outline.StatusMissingFile}
	}

	candidates := []string{literal}
	if r.Fallback {
		if fb, rewrote := FallbackMD(literal); rewrote {
			candidates = append(candidates, fb)
		}
	}

	for i, candidate := range candidates {
		raw, err := r.readWithTimeout(ctx, filepath.Join(r.Root, filepath.FromSlash(candidate)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			if errors.Is(err, context.DeadlineExceeded) {
				slog.Warn("document read timed out",
					logfields.Ref(ref),
					logfields.Path(candidate))
			}
			return resolution{status: outline.StatusMissingFile}
		}

		return resolution{
			status:     outline.StatusResolved,
			resolved:   candidate,
			normalized: i > 0,
			doc: &Document{
				Ref:           ref,
				SourcePath:    candidate,
				Raw:           raw,
				OutboundLinks: markdown.ExtractLinks(raw),
				Fingerprint:   mdfp.CalculateFingerprintFromParts("", string(raw)),
			},
		}
	}

	return resolution{status: outline.StatusMissingFile}
}

// readWithTimeout performs one read under the per-file deadline. The read
// itself runs in a goroutine with a buffered result channel, so an abandoned
// slow read cannot leak a blocked sender.
func (r *Resolver) readWithTimeout(ctx context.Context, path string) ([]byte, error) {
	if r.FileTimeout <= 0 {
		return r.readFile(path)
	}

	rctx, cancel := context.WithTimeout(ctx, r.FileTimeout)
	defer cancel()

	type readOutcome struct {
		data []byte
		err  error
	}
	done := make(chan readOutcome, 1)
	go func() {
		data, err := r.readFile(path)
		done <- readOutcome{data: data, err: err}
	}()

	select {
	case <-rctx.Done():
		return nil, rctx.Err()
	case out := <-done:
		return out.data, out.err
	}
}
