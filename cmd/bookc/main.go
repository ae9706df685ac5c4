package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/jasongannon/api-docs-book/internal/book"
	"github.com/jasongannon/api-docs-book/internal/config"
	"github.com/jasongannon/api-docs-book/internal/daemon"
	errs "github.com/jasongannon/api-docs-book/internal/errors"
	"github.com/jasongannon/api-docs-book/internal/publish"
	"github.com/jasongannon/api-docs-book/internal/source"
	"github.com/jasongannon/api-docs-book/internal/validate"
	"github.com/jasongannon/api-docs-book/internal/version"
)

// sourceWorkspace is where git book sources are cloned, next to the other
// tool state (the daemon's history database defaults to the same dir).
const sourceWorkspace = ".bookc/sources"

var CLI struct {
	Config   string `short:"c" help:"Configuration file path" default:"book.yaml"`
	LogLevel string `name:"log-level" help:"Log level" enum:"debug,info,warn,error" default:"info"`

	Build struct {
		AllowErrors bool `name:"allow-errors" help:"Exit zero even when validation reports error findings"`
		CheckSite   bool `name:"check-site" help:"After publishing, verify rendered pages reference only files present in the output"`
	} `cmd:"" help:"Build the book and publish the HTML site"`

	Check struct {
		AllowErrors bool `name:"allow-errors" help:"Exit zero even when validation reports error findings"`
	} `cmd:"" help:"Run the pipeline without publishing and print findings"`

	Tree struct{} `cmd:"" help:"Print the outline tree with resolution statuses"`

	Init struct {
		Force bool `help:"Overwrite an existing configuration file"`
	} `cmd:"" help:"Initialize a starter book in the current directory"`

	Daemon struct{} `cmd:"" help:"Watch the content root, rebuild on change, and serve the site"`

	Version struct{} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	level := parseLogLevel(CLI.LogLevel)
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	adapter := errs.NewCLIErrorAdapter(level == slog.LevelDebug, nil)

	var err error
	switch ctx.Command() {
	case "build":
		err = runBuild(CLI.Build.AllowErrors, CLI.Build.CheckSite)
	case "check":
		err = runCheck(CLI.Check.AllowErrors)
	case "tree":
		err = runTree()
	case "init":
		err = runInit(CLI.Config, CLI.Init.Force)
	case "daemon":
		err = runDaemon()
	case "version":
		fmt.Printf("bookc %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}

	adapter.HandleError(err)
}

func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadBook loads the configuration and materializes the book source: for a
// git source that clones or updates the working copy and points the content
// root inside it, for a local source it verifies the directory exists.
func loadBook(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, errs.ConfigError(err.Error())
	}

	src := source.ForConfig(cfg, sourceWorkspace)
	root, err := src.Materialize(ctx)
	if err != nil {
		return nil, errs.Wrap(err, errs.CategorySource, errs.SeverityFatal, "materialize book source")
	}
	cfg.Book.ContentRoot = root
	return cfg, nil
}

func runBuild(allowErrors, checkSite bool) error {
	ctx := context.Background()
	cfg, err := loadBook(ctx)
	if err != nil {
		return err
	}

	compiler := book.New(cfg, book.WithPublisher(publish.NewSitePublisher()))
	bs, err := compiler.Compile(ctx, book.Options{Persist: true})
	if err != nil {
		return err
	}

	if bs.Diagnostics != nil && len(bs.Diagnostics.Findings) > 0 {
		if err := validate.WriteText(os.Stdout, bs.Diagnostics); err != nil {
			return errs.WrapError(err, errs.CategoryInternal, "write findings")
		}
	}

	if checkSite {
		if err := runSiteCheck(cfg.Output.Directory); err != nil {
			return err
		}
	}

	fmt.Println(bs.Report.Summary())

	if !allowErrors && bs.Diagnostics != nil && bs.Diagnostics.HasErrors() {
		return errs.DiagnosticsError(bs.Diagnostics.ErrorCount())
	}
	return nil
}

func runCheck(allowErrors bool) error {
	ctx := context.Background()
	cfg, err := loadBook(ctx)
	if err != nil {
		return err
	}

	compiler := book.New(cfg)
	bs, err := compiler.Compile(ctx, book.Options{})
	if err != nil {
		return err
	}

	if bs.Diagnostics != nil && len(bs.Diagnostics.Findings) > 0 {
		if err := validate.WriteText(os.Stdout, bs.Diagnostics); err != nil {
			return errs.WrapError(err, errs.CategoryInternal, "write findings")
		}
	} else {
		fmt.Println("No findings.")
	}

	if !allowErrors && bs.Diagnostics != nil && bs.Diagnostics.HasErrors() {
		return errs.DiagnosticsError(bs.Diagnostics.ErrorCount())
	}
	return nil
}

// runSiteCheck verifies the published output after a build. Dangling
// references fail the run regardless of --allow-errors: they mean the
// artifact itself is broken, not just the manuscript.
func runSiteCheck(dir string) error {
	findings, err := publish.CheckSite(dir)
	if err != nil {
		return errs.WrapError(err, errs.CategoryPublish, "check published site")
	}
	for _, f := range findings {
		fmt.Println(f.String())
	}
	if len(findings) > 0 {
		return errs.New(errs.CategoryPublish, errs.SeverityError,
			fmt.Sprintf("site check found %d dangling reference(s)", len(findings)))
	}
	return nil
}

func runInit(configPath string, force bool) error {
	if err := config.Init(configPath, force); err != nil {
		return errs.ConfigError(err.Error())
	}
	fmt.Printf("Initialized %s with a starter book under ./src. Run 'bookc build' to render it.\n", configPath)
	return nil
}

func runDaemon() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := loadBook(ctx)
	if err != nil {
		return err
	}

	d, err := daemon.New(cfg)
	if err != nil {
		return errs.Wrap(err, errs.CategoryDaemon, errs.SeverityFatal, "start daemon")
	}
	if err := d.Run(ctx); err != nil {
		return errs.Wrap(err, errs.CategoryDaemon, errs.SeverityFatal, "run daemon")
	}
	return nil
}
