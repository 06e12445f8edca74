// Package dirctx provides the public Go library API for dirctx.
//
// dirctx keeps a small YAML context artifact in every source directory of a
// project, describing its files, their exported signatures and its child
// directories, and regenerates them children-first when sources change.
//
// # Basic Usage
//
//	client, err := dirctx.New(dirctx.Options{
//	    ProjectRoot: "/path/to/project",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Rebuild stale artifacts
//	summary, err := client.Regenerate(ctx, dirctx.RegenerateOptions{})
//
//	// Preview what a full rebuild would touch
//	plan, err := client.Plan(ctx, ".", dirctx.ModeAll)
package dirctx

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/builder"
	"github.com/bianoble/dirctx/internal/cache"
	"github.com/bianoble/dirctx/internal/config"
	"github.com/bianoble/dirctx/internal/engine"
	"github.com/bianoble/dirctx/internal/history"
	"github.com/bianoble/dirctx/internal/ignore"
	"github.com/bianoble/dirctx/internal/index"
	"github.com/bianoble/dirctx/internal/lock"
	"github.com/bianoble/dirctx/internal/scan"
	"github.com/bianoble/dirctx/internal/watch"
)

// DefaultLockTimeout is how long Regenerate waits for another run's lock.
const DefaultLockTimeout = 30 * time.Second

// Options configures a dirctx client.
type Options struct {
	// ProjectRoot is the directory to scan. Default: the current directory.
	ProjectRoot string

	// ConfigPath is the project config file. If empty, dirctx.yaml,
	// dirctx.yml or dirctx.toml is looked up in ProjectRoot.
	ConfigPath string

	// NoInherit skips system and user config layers.
	NoInherit bool

	// Overrides carries DIRCTX_* environment values and bound CLI flags.
	// If nil, only the environment is consulted.
	Overrides *viper.Viper

	Log logrus.FieldLogger
}

// RegenerateOptions configures a regenerate run.
type RegenerateOptions struct {
	Scope  string
	Mode   Mode
	DryRun bool
	// Concurrency overrides the configured worker count when positive.
	Concurrency int
	// LockTimeout bounds the wait for another run. Zero uses
	// DefaultLockTimeout; negative fails immediately when locked.
	LockTimeout time.Duration
}

// Client is the main entry point for the dirctx library.
type Client struct {
	root   string
	cfg    *config.Config
	layers []config.ConfigLayerInfo
	log    logrus.FieldLogger
}

// New loads the layered configuration and creates a Client.
func New(opts Options) (*Client, error) {
	root := opts.ProjectRoot
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.FindProjectConfig(abs)
	}

	cfg, layers, err := config.LoadLayered(config.DiscoverOptions{
		ProjectPath: configPath,
		NoInherit:   opts.NoInherit || config.EnvNoInherit(),
	})
	if err != nil {
		return nil, err
	}

	v := opts.Overrides
	if v == nil {
		v = config.NewViper()
	}
	config.ApplyOverrides(cfg, v)
	if errs := config.Validate(cfg); len(errs) > 0 {
		return nil, &config.ValidationError{Errors: errs}
	}

	log := opts.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Client{root: abs, cfg: cfg, layers: layers, log: log}, nil
}

// Root returns the absolute project root.
func (c *Client) Root() string { return c.root }

// Config returns the effective configuration.
func (c *Client) Config() *config.Config { return c.cfg }

// Layers reports which config files were found and loaded.
func (c *Client) Layers() []config.ConfigLayerInfo { return c.layers }

// classifier returns the source-file classifier for the configuration. The
// artifact, config and lock files are never sources.
func (c *Client) classifier() *scan.Classifier {
	excluded := append([]string{c.cfg.ArtifactFile, lock.FileName}, config.ConfigFileNames...)
	return scan.NewClassifier(c.cfg.Extensions, c.cfg.Filenames, excluded)
}

// Scan walks the project and returns the Target tree.
func (c *Client) Scan(ctx context.Context) (*Target, error) {
	lines, err := ignore.LoadFiles(c.root, c.cfg.IgnoreFiles)
	if err != nil {
		return nil, err
	}
	lines = append(lines, c.cfg.Ignore...)

	s := &scan.Scanner{
		Root:         c.root,
		MaxDepth:     c.cfg.MaxDepth,
		Matcher:      ignore.Compile(lines),
		Classifier:   c.classifier(),
		ArtifactFile: c.cfg.ArtifactFile,
		Log:          c.log,
	}
	return s.Scan(ctx)
}

func (c *Client) store() *artifact.Store {
	return artifact.NewStore(c.root, c.cfg.ArtifactFile)
}

func (c *Client) cacheDir() string {
	if c.cfg.Cache.Disabled {
		return ""
	}
	if c.cfg.Cache.Dir != "" {
		return c.cfg.Cache.Dir
	}
	return cache.DefaultDir()
}

func (c *Client) engine() (*engine.Engine, error) {
	b := builder.New(c.cacheDir())
	b.Log = c.log

	e := &engine.Engine{
		Store:   c.store(),
		Action:  b,
		Include: c.classifier().IsSource,
		Log:     c.log,
	}

	if c.cfg.Index.IsEnabled() {
		tm := index.NewToolMap(c.cfg.Index.ToolDefinitions)
		w, err := index.New(c.root, c.cfg.ArtifactFile, c.cfg.Index.Tools, tm, c.cfg.Index.Template)
		if err != nil {
			return nil, fmt.Errorf("configuring index: %w", err)
		}
		w.Log = c.log
		e.Index = w
	}
	return e, nil
}

// IndexFiles returns the index files a run writes, relative to the root.
func (c *Client) IndexFiles() ([]string, error) {
	if !c.cfg.Index.IsEnabled() {
		return nil, nil
	}
	return index.NewToolMap(c.cfg.Index.ToolDefinitions).ResolveAll(c.cfg.Index.Tools)
}

// Regenerate scans the project and rebuilds artifacts under opts.Scope. The
// returned error covers setup problems only; per-Target failures are in
// Summary.Err().
func (c *Client) Regenerate(ctx context.Context, opts RegenerateOptions) (*Summary, error) {
	if !opts.DryRun {
		timeout := opts.LockTimeout
		if timeout == 0 {
			timeout = DefaultLockTimeout
		}
		l, err := lock.Acquire(ctx, filepath.Join(c.root, lock.FileName), max(timeout, 0))
		if err != nil {
			return nil, err
		}
		defer func() {
			if err := l.Release(); err != nil {
				c.log.WithError(err).Warn("releasing run lock")
			}
		}()
	}

	tree, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return c.regenerate(ctx, tree, opts)
}

func (c *Client) regenerate(ctx context.Context, tree *Target, opts RegenerateOptions) (*Summary, error) {
	e, err := c.engine()
	if err != nil {
		return nil, err
	}

	concurrency := c.cfg.Concurrency
	if opts.Concurrency > 0 {
		concurrency = opts.Concurrency
	}

	summary, err := e.Regenerate(ctx, tree, engine.Options{
		Scope:       opts.Scope,
		Mode:        opts.Mode,
		Concurrency: concurrency,
		DryRun:      opts.DryRun,
	})
	if err != nil {
		return nil, err
	}

	if !opts.DryRun {
		c.record(ctx, summary)
	}
	return summary, nil
}

// record appends the run to the history ledger. Ledger problems never fail
// the run.
func (c *Client) record(ctx context.Context, summary *Summary) {
	if !c.cfg.History.IsEnabled() {
		return
	}
	h, err := history.Open(ctx, c.historyPath())
	if err != nil {
		c.log.WithError(err).Warn("run history unavailable")
		return
	}
	defer h.Close()

	id, err := h.Record(ctx, history.FromSummary(c.root, summary))
	if err != nil {
		c.log.WithError(err).Warn("recording run history")
		return
	}
	c.log.WithField("run", id).Debug("recorded run")
}

func (c *Client) historyPath() string {
	if c.cfg.History.Path != "" {
		return c.cfg.History.Path
	}
	return history.DefaultPath()
}

// Plan reports what a run in mode would do under scope, without writing.
func (c *Client) Plan(ctx context.Context, scope string, mode Mode) (*Plan, error) {
	tree, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}
	e, err := c.engine()
	if err != nil {
		return nil, err
	}
	return e.Plan(ctx, tree, engine.Options{Scope: scope, Mode: mode})
}

// Clean removes every artifact under scope.
func (c *Client) Clean(ctx context.Context, scope string, dryRun bool) (*CleanResult, error) {
	tree, err := c.Scan(ctx)
	if err != nil {
		return nil, err
	}
	return engine.Clean(tree, scope, c.store(), dryRun)
}

// History returns the most recent runs for this project, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]Run, error) {
	h, err := history.Open(ctx, c.historyPath())
	if err != nil {
		return nil, err
	}
	defer h.Close()
	return h.List(ctx, c.root, limit)
}

// Watch regenerates stale artifacts after every debounced batch of source
// changes until ctx is done. fn receives each run's summary and the IDs that
// triggered it; an error from fn stops watching.
func (c *Client) Watch(ctx context.Context, debounce time.Duration, fn func(changed []string, s *Summary) error) error {
	tree, err := c.Scan(ctx)
	if err != nil {
		return err
	}

	indexFiles, err := c.IndexFiles()
	if err != nil {
		return err
	}
	own := map[string]bool{c.cfg.ArtifactFile: true}
	for _, f := range indexFiles {
		own[filepath.Base(f)] = true
	}

	w := &watch.Watcher{
		Debounce: debounce,
		Ignored:  func(name string) bool { return own[name] },
		Log:      c.log,
	}
	return w.Run(ctx, tree, func(ctx context.Context, changed []string) (*scan.Target, error) {
		summary, err := c.Regenerate(ctx, RegenerateOptions{Mode: ModeStale})
		if err != nil {
			return nil, err
		}
		if err := fn(changed, summary); err != nil {
			return nil, err
		}
		return c.Scan(ctx)
	})
}
