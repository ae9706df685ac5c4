// Package daemon runs watch mode: it rebuilds the book when content
// changes, serves the published site with a small operational API, and
// keeps a history of completed builds.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/inful/mdfp"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jasongannon/api-docs-book/internal/book"
	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/eventstore"
	"github.com/jasongannon/api-docs-book/internal/logfields"
	"github.com/jasongannon/api-docs-book/internal/metrics"
	"github.com/jasongannon/api-docs-book/internal/publish"
)

// Daemon owns the rebuild loop and its supporting services. Builds run
// one at a time on the loop goroutine; the queue coalesces requests that
// arrive while one is in flight.
type Daemon struct {
	cfg      *config.Config
	compiler *book.Compiler
	store    *eventstore.Store
	notifier *Notifier
	queue    *rebuildQueue
	registry *prom.Registry
	started  time.Time

	mu   sync.RWMutex
	last *book.BuildState
}

// New assembles a daemon: a compiler wired with the site publisher and
// prometheus metrics, the sqlite build history, and the NATS notifier
// when one is configured.
func New(cfg *config.Config) (*Daemon, error) {
	store, err := eventstore.Open(cfg.Daemon.HistoryDB)
	if err != nil {
		return nil, fmt.Errorf("open build history: %w", err)
	}

	var notifier *Notifier
	if cfg.Daemon.NATS != nil {
		notifier, err = NewNotifier(cfg.Daemon.NATS)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
	}

	registry := prom.NewRegistry()
	return &Daemon{
		cfg: cfg,
		compiler: book.New(cfg,
			book.WithPublisher(publish.NewSitePublisher()),
			book.WithRecorder(metrics.NewPrometheusRecorder(registry))),
		store:    store,
		notifier: notifier,
		queue:    newRebuildQueue(),
		registry: registry,
		started:  time.Now(),
	}, nil
}

// Run builds once, then watches, schedules and serves until ctx is
// canceled.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() { _ = d.store.Close() }()
	if d.notifier != nil {
		defer d.notifier.Close()
	}

	d.runBuild(ctx, "startup")

	watcher, err := newContentWatcher(d.cfg.Book.ContentRoot)
	if err != nil {
		return fmt.Errorf("watch content root: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	trigger := debounced(d.cfg.Daemon.Debounce.Std(), func() {
		d.queue.Request("watch")
	})

	scheduler, err := d.startScheduler()
	if err != nil {
		return err
	}
	if scheduler != nil {
		defer func() { _ = scheduler.Shutdown() }()
	}

	server := newServer(d)
	go server.Start()

	slog.Info("daemon running",
		logfields.ContentRoot(d.cfg.Book.ContentRoot),
		logfields.Addr(d.cfg.Daemon.Listen))

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				slog.Warn("server shutdown", logfields.Error(err))
			}
			slog.Info("daemon stopped")
			return nil

		case trig := <-d.queue.requests:
			d.runBuild(ctx, trig)

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if handleFileEvent(watcher, ev) {
				trigger()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", logfields.Error(err))
		}
	}
}

func (d *Daemon) startScheduler() (gocron.Scheduler, error) {
	interval := d.cfg.Daemon.RebuildInterval.Std()
	if interval <= 0 {
		return nil, nil
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { d.queue.Request("schedule") }),
		gocron.WithName("periodic-rebuild"),
	)
	if err != nil {
		return nil, fmt.Errorf("schedule periodic rebuild: %w", err)
	}
	scheduler.Start()
	return scheduler, nil
}

// runBuild compiles once and records the outcome. Build failures are
// logged, never fatal: the daemon keeps watching.
func (d *Daemon) runBuild(ctx context.Context, trigger string) {
	bs, err := d.compiler.Compile(ctx, book.Options{Trigger: trigger, Persist: true})
	if err != nil {
		slog.Error("build failed", logfields.Trigger(trigger), logfields.Error(err))
	}
	if ctx.Err() != nil {
		return
	}

	d.mu.Lock()
	d.last = bs
	d.mu.Unlock()

	ev := buildEvent(bs)
	if prev, fpErr := d.store.LastFingerprint(ctx); fpErr == nil && prev != "" && prev == ev.Fingerprint {
		slog.Info("content unchanged since previous build",
			logfields.BuildID(bs.BuildID),
			logfields.Trigger(trigger))
	}
	if err := d.store.Record(ctx, ev); err != nil {
		slog.Warn("record build history", logfields.Error(err))
	}
	if d.notifier != nil {
		if err := d.notifier.BuildCompleted(ctx, ev); err != nil {
			slog.Warn("notify build completed", logfields.Error(err))
		}
	}
}

// lastReport returns the report of the most recent build, nil before the
// first one finishes.
func (d *Daemon) lastReport() *book.BuildReport {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.last == nil {
		return nil
	}
	return d.last.Report
}

// buildEvent flattens a finished build into its history row.
func buildEvent(bs *book.BuildState) eventstore.BuildEvent {
	r := bs.Report
	return eventstore.BuildEvent{
		BuildID:            bs.BuildID,
		Trigger:            r.Trigger,
		Outcome:            string(r.Outcome),
		Chapters:           r.Chapters,
		DiagnosticErrors:   r.DiagnosticErrors,
		DiagnosticWarnings: r.DiagnosticWarnings,
		Pages:              r.Pages,
		Fingerprint:        contentFingerprint(bs),
		DurationMS:         r.Duration().Milliseconds(),
		StartedAt:          r.Start,
	}
}

// contentFingerprint combines the document fingerprints in navigation
// order into one book-level hash. Empty when nothing resolved.
func contentFingerprint(bs *book.BuildState) string {
	if bs.Tree == nil || bs.Docs == nil || bs.Docs.Len() == 0 {
		return ""
	}
	docs := bs.Docs.InOrder(bs.Tree)
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Ref+":"+doc.Fingerprint)
	}
	return mdfp.CalculateFingerprintFromParts("", strings.Join(parts, "\n"))
}
