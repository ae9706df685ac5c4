// Package book runs the build pipeline: outline parse, content resolution,
// link graph, validation, publication. Each build is atomic; stages hand a
// fresh snapshot forward and nothing is published until the whole pipeline
// has succeeded.
package book

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/content"
	errs "github.com/jasongannon/api-docs-book/internal/errors"
	"github.com/jasongannon/api-docs-book/internal/linkgraph"
	"github.com/jasongannon/api-docs-book/internal/logfields"
	"github.com/jasongannon/api-docs-book/internal/metrics"
	"github.com/jasongannon/api-docs-book/internal/outline"
	"github.com/jasongannon/api-docs-book/internal/validate"
)

// BuildState carries mutable state across stages.
type BuildState struct {
	Config  *config.Config
	BuildID string

	Tree        *outline.Tree
	Scan        *content.RootScan
	Docs        *content.Set
	Graph       *linkgraph.Graph
	Diagnostics *validate.Report

	Report  *BuildReport
	Timings map[string]time.Duration
}

func newBuildState(cfg *config.Config, buildID string, report *BuildReport) *BuildState {
	return &BuildState{
		Config:  cfg,
		BuildID: buildID,
		Report:  report,
		Timings: make(map[string]time.Duration),
	}
}

// Publisher renders and installs the final artifact. Implementations must
// stage into a temporary location and swap atomically: a failed publish
// leaves the previous output untouched.
type Publisher interface {
	Publish(ctx context.Context, bs *BuildState) error
}

// Options control one Compile run.
type Options struct {
	// Trigger names what started the build: cli, watch, schedule, api.
	Trigger string
	// Persist writes build-report.json/.txt and diagnostics.json into the
	// output directory after the run.
	Persist bool
}

// Compiler orchestrates builds over one configuration.
type Compiler struct {
	cfg       *config.Config
	resolver  *content.Resolver
	publisher Publisher
	recorder  metrics.Recorder
}

// Option customizes a Compiler.
type Option func(*Compiler)

// WithPublisher installs the artifact publisher. Without one the pipeline
// stops after validation (the check path).
func WithPublisher(p Publisher) Option {
	return func(c *Compiler) { c.publisher = p }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Compiler) { c.recorder = r }
}

// New builds a Compiler from configuration.
func New(cfg *config.Config, opts ...Option) *Compiler {
	c := &Compiler{
		cfg: cfg,
		resolver: content.NewResolver(
			cfg.Book.ContentRoot,
			cfg.PathFallbackEnabled(),
			cfg.Resolver.Workers,
			cfg.Resolver.FileTimeout.Std(),
		),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile runs the pipeline once. The returned BuildState always carries a
// finished report; err is the first fatal or canceled stage error, nil when
// the build completed. Diagnostic findings never fail a build here, the
// caller applies the severity policy.
func (c *Compiler) Compile(ctx context.Context, opts Options) (*BuildState, error) {
	if opts.Trigger == "" {
		opts.Trigger = "cli"
	}

	buildID := uuid.NewString()
	report := newBuildReport(buildID, opts.Trigger, c.cfg.OutlinePath())
	bs := newBuildState(c.cfg, buildID, report)

	slog.Info("build started",
		logfields.BuildID(buildID),
		logfields.Trigger(opts.Trigger),
		logfields.Outline(c.cfg.OutlinePath()))

	err := runStages(ctx, bs, c.recorder, []namedStage{
		{"load_outline", c.stageLoadOutline},
		{"scan_root", c.stageScanRoot},
		{"resolve_content", c.stageResolveContent},
		{"build_graph", c.stageBuildGraph},
		{"validate", c.stageValidate},
		{"publish", c.stagePublish},
	})

	report.finish()
	report.deriveOutcome()

	c.recorder.ObserveBuildDuration(report.Duration())
	c.recorder.IncBuildOutcome(string(report.Outcome))
	c.recorder.IncBuildTrigger(opts.Trigger)
	c.recorder.SetChapters(report.Chapters)
	if bs.Diagnostics != nil {
		c.recorder.SetFindings("error", bs.Diagnostics.ErrorCount())
		c.recorder.SetFindings("warning", bs.Diagnostics.WarningCount())
	}

	if opts.Persist {
		c.persistReports(bs)
	}

	slog.Info("build finished",
		logfields.BuildID(buildID),
		logfields.DurationMS(float64(report.Duration().Milliseconds())),
		slog.String("outcome", string(report.Outcome)))

	return bs, err
}

func (c *Compiler) stageLoadOutline(ctx context.Context, bs *BuildState) error {
	raw, err := os.ReadFile(c.cfg.OutlinePath())
	if err != nil {
		return newFatalStageError("load_outline",
			errs.WrapError(err, errs.CategoryOutline, "read outline"))
	}

	tree, err := outline.Parse(raw)
	if err != nil {
		return newFatalStageError("load_outline",
			errs.WrapError(err, errs.CategoryOutline, "parse outline"))
	}

	bs.Tree = tree
	bs.Report.Chapters = len(tree.Chapters())
	slog.Debug("outline loaded",
		logfields.BuildID(bs.BuildID),
		logfields.Count(tree.Len()))
	return nil
}

func (c *Compiler) stageScanRoot(ctx context.Context, bs *BuildState) error {
	scan, err := content.ScanRoot(c.cfg.Book.ContentRoot)
	if err != nil {
		// Orphan detection is skipped; resolution still runs and marks
		// unreadable chapters per node.
		return newWarnStageError("scan_root",
			errs.WrapError(err, errs.CategoryContent, "scan content root"))
	}
	bs.Scan = scan
	return nil
}

func (c *Compiler) stageResolveContent(ctx context.Context, bs *BuildState) error {
	res, err := c.resolver.Resolve(ctx, bs.Tree)
	if err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError("resolve_content", err)
		}
		return newFatalStageError("resolve_content",
			errs.WrapError(err, errs.CategoryContent, "resolve content"))
	}
	bs.Tree = res.Tree
	bs.Docs = res.Docs
	bs.Report.Documents = res.Docs.Len()
	return nil
}

func (c *Compiler) stageBuildGraph(ctx context.Context, bs *BuildState) error {
	builder := &linkgraph.Builder{Fallback: c.cfg.PathFallbackEnabled()}
	bs.Graph = builder.Build(bs.Tree, bs.Docs)
	bs.Report.Edges = bs.Graph.Len()
	return nil
}

func (c *Compiler) stageValidate(ctx context.Context, bs *BuildState) error {
	bs.Diagnostics = validate.Run(&validate.Input{
		Tree:        bs.Tree,
		Graph:       bs.Graph,
		Scan:        bs.Scan,
		OutlinePath: c.cfg.Book.Outline,
		Fallback:    c.cfg.PathFallbackEnabled(),
	})
	bs.Report.DiagnosticErrors = bs.Diagnostics.ErrorCount()
	bs.Report.DiagnosticWarnings = bs.Diagnostics.WarningCount()

	if bs.Report.DiagnosticErrors > 0 || bs.Report.DiagnosticWarnings > 0 {
		slog.Warn("validation found issues",
			logfields.BuildID(bs.BuildID),
			slog.Int("errors", bs.Report.DiagnosticErrors),
			slog.Int("warnings", bs.Report.DiagnosticWarnings))
	}
	return nil
}

func (c *Compiler) stagePublish(ctx context.Context, bs *BuildState) error {
	if c.publisher == nil {
		bs.Report.SkipReason = "check_only"
		return nil
	}
	if err := c.publisher.Publish(ctx, bs); err != nil {
		if ctx.Err() != nil {
			return newCanceledStageError("publish", err)
		}
		return newFatalStageError("publish",
			errs.WrapError(err, errs.CategoryPublish, "publish site"))
	}
	bs.Report.Published = true
	return nil
}

// persistReports writes the operational report and the diagnostics document
// into the output directory. Best effort: failures are logged, never fatal.
func (c *Compiler) persistReports(bs *BuildState) {
	dir := c.cfg.Output.Directory
	if err := bs.Report.Persist(dir); err != nil {
		slog.Warn("persist build report failed",
			logfields.BuildID(bs.BuildID), logfields.Error(err))
	}
	if bs.Diagnostics == nil {
		return
	}
	data, err := validate.EncodeJSON(bs.Diagnostics)
	if err != nil {
		slog.Warn("encode diagnostics failed",
			logfields.BuildID(bs.BuildID), logfields.Error(err))
		return
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("ensure output dir failed",
			logfields.BuildID(bs.BuildID), logfields.Error(err))
		return
	}
	if err := writeFileAtomic(filepath.Join(dir, "diagnostics.json"), data); err != nil {
		slog.Warn("persist diagnostics failed",
			logfields.BuildID(bs.BuildID), logfields.Error(err))
	}
}
