// Package engine regenerates artifacts for a scanned Target tree. Targets
// are rebuilt wave by wave, children before parents, with a bounded number
// of workers inside each wave. A failing Target never stops the run.
package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/fingerprint"
	"github.com/bianoble/dirctx/internal/scan"
	"github.com/bianoble/dirctx/internal/wave"
)

// ErrUnknownScope is returned when the requested scope names no Target.
var ErrUnknownScope = errors.New("unknown scope")

// Engine orchestrates a regenerate run.
type Engine struct {
	Store  Store
	Action BuildAction
	// Include selects the source files that make up a fingerprint. It must
	// match the scanner's classifier. Nil uses the built-in classifier minus
	// the artifact file.
	Include func(name string) bool
	// Index, when set, is written once after the last wave.
	Index IndexWriter
	Log   logrus.FieldLogger
	Now   func() time.Time
}

// Options configures a regenerate run.
type Options struct {
	// Scope is a Target ID; empty or "." means the whole tree.
	Scope string
	Mode  Mode
	// Concurrency bounds the workers inside one wave. Values below 1 mean 1.
	Concurrency int
	DryRun      bool
}

func (e *Engine) log() logrus.FieldLogger {
	if e.Log == nil {
		return logrus.StandardLogger()
	}
	return e.Log
}

// include returns the fingerprint filter. The artifact file is never part of
// a fingerprint, or every write would leave its Target stale.
func (e *Engine) include() func(name string) bool {
	if e.Include != nil {
		return e.Include
	}
	excluded := []string{artifact.DefaultFileName}
	if s, ok := e.Store.(*artifact.Store); ok && s.FileName != "" {
		excluded = append(excluded, s.FileName)
	}
	return scan.NewClassifier(nil, nil, excluded).IsSource
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// ResolveScope returns the Target a scope string refers to.
func ResolveScope(root *scan.Target, scope string) (*scan.Target, error) {
	id := strings.Trim(filepath.ToSlash(scope), "/")
	id = strings.TrimPrefix(id, "./")
	if id == "" {
		id = "."
	}
	t := root.Find(id)
	if t == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, scope)
	}
	return t, nil
}

// Regenerate rebuilds the Targets selected by opts. Per-Target failures are
// reported in the Summary; the returned error is reserved for caller misuse
// such as an unknown scope, and for a wave partition that fails Validate.
func (e *Engine) Regenerate(ctx context.Context, root *scan.Target, opts Options) (*Summary, error) {
	if opts.DryRun {
		plan, err := e.Plan(ctx, root, opts)
		if err != nil {
			return nil, err
		}
		return &Summary{Scope: plan.Scope, Mode: plan.Mode, Waves: plan.Waves, Plan: plan}, nil
	}

	if e.Store == nil || e.Action == nil {
		return nil, errors.New("engine requires a store and a build action")
	}

	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	scoped, err := ResolveScope(root, opts.Scope)
	if err != nil {
		return nil, err
	}
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}

	waves := wave.Partition(scoped)
	if err := wave.Validate(scoped, waves); err != nil {
		return nil, fmt.Errorf("internal error: %w", err)
	}
	e.log().WithField("waves", wave.IDs(waves)).Debug("partitioned scope")
	summary := &Summary{
		Scope:   scoped.ID,
		Mode:    mode,
		Waves:   len(waves),
		Started: e.now(),
	}

	for i, w := range waves {
		log := e.log().WithFields(logrus.Fields{"wave": i, "targets": len(w)})
		log.Debug("starting wave")

		// Each worker writes only its own slot, so no locking is needed.
		outcomes := make([]outcome, len(w))
		g := new(errgroup.Group)
		g.SetLimit(workers)
		for j, t := range w {
			g.Go(func() error {
				outcomes[j] = e.step(ctx, t, mode)
				return nil
			})
		}
		// Barrier: the next wave reads artifacts written by this one.
		_ = g.Wait()

		for _, o := range outcomes {
			summary.record(o)
		}
	}

	if e.Index != nil {
		summary.IndexErr = e.writeIndex(ctx, root)
	}

	summary.Finished = e.now()
	return summary, nil
}

type result int

const (
	resultUpdated result = iota
	resultSkipped
	resultFailed
)

// outcome is the result of one Target's step.
type outcome struct {
	id     string
	result result
	from   fingerprint.Freshness
	err    error
	// unsupported marks a failure caused by a newer-schema artifact.
	unsupported bool
}

func (s *Summary) record(o outcome) {
	switch o.result {
	case resultUpdated:
		s.Updated = append(s.Updated, o.id)
		s.Transitions = append(s.Transitions, Transition{ID: o.id, From: o.from, To: fingerprint.Fresh})
	case resultSkipped:
		s.Skipped = append(s.Skipped, o.id)
	case resultFailed:
		s.Failed = append(s.Failed, TargetError{ID: o.id, Err: o.err, Unsupported: o.unsupported})
	}
}

// step runs the classify/build/persist sequence for one Target.
func (e *Engine) step(ctx context.Context, t *scan.Target, mode Mode) outcome {
	log := e.log().WithField("target", t.ID)
	fail := func(err error) outcome {
		log.WithError(err).Warn("target failed")
		return outcome{id: t.ID, result: resultFailed, err: err}
	}

	stored, err := e.Store.Read(t.ID)
	if errors.Is(err, artifact.ErrUnsupportedVersion) {
		if mode != ModeForce {
			log.WithError(err).Warn("leaving newer-schema artifact untouched")
			return outcome{id: t.ID, result: resultFailed, err: err, unsupported: true}
		}
		log.WithError(err).Warn("overwriting newer-schema artifact (force)")
		stored, err = nil, nil
	}
	if err != nil {
		return fail(err)
	}

	computed, err := fingerprint.Compute(t.Path, e.include())
	if err != nil {
		return fail(fmt.Errorf("fingerprinting: %w", err))
	}

	var storedFP string
	if stored != nil {
		storedFP = stored.Fingerprint
	}
	state := fingerprint.Classify(storedFP, computed)
	log = log.WithField("state", state.String())

	if mode == ModeStale && state == fingerprint.Fresh {
		log.Debug("fresh, skipping")
		return outcome{id: t.ID, result: resultSkipped, from: state}
	}

	in := BuildInput{Target: t, Children: e.childArtifacts(t)}
	content, err := e.build(ctx, in)
	if err != nil {
		return fail(fmt.Errorf("build action: %w", err))
	}
	if content == nil {
		return fail(errors.New("build action returned no content"))
	}
	if errs := artifact.ValidateContent(content); len(errs) > 0 {
		return fail(&artifact.ValidationError{Errors: errs})
	}

	final, err := fingerprint.Compute(t.Path, e.include())
	if err != nil {
		return fail(fmt.Errorf("fingerprinting: %w", err))
	}

	a := &artifact.Artifact{
		Version:     artifact.CurrentVersion,
		Fingerprint: final,
		LastUpdated: e.now(),
		Content:     *content,
	}
	if err := e.Store.Write(t.ID, a); err != nil {
		return fail(err)
	}

	log.Info("updated")
	return outcome{id: t.ID, result: resultUpdated, from: state}
}

// build invokes the action, converting a panic into an error so one
// misbehaving Target cannot take down the run.
func (e *Engine) build(ctx context.Context, in BuildInput) (content *artifact.Content, err error) {
	defer func() {
		if r := recover(); r != nil {
			content, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.Action.Build(ctx, in)
}

// childArtifacts reads the current artifact of each direct child. Earlier
// waves have fully finished, so these reflect this run's writes.
func (e *Engine) childArtifacts(t *scan.Target) map[string]*artifact.Artifact {
	children := make(map[string]*artifact.Artifact, len(t.Children))
	for _, c := range t.Children {
		a, err := e.Store.Read(c.ID)
		if err != nil {
			e.log().WithField("target", c.ID).WithError(err).Debug("child artifact unavailable")
			a = nil
		}
		children[c.ID] = a
	}
	return children
}

func (e *Engine) writeIndex(ctx context.Context, root *scan.Target) error {
	artifacts := make(map[string]*artifact.Artifact, root.Len())
	root.Walk(func(t *scan.Target) bool {
		a, err := e.Store.Read(t.ID)
		if err != nil {
			a = nil
		}
		artifacts[t.ID] = a
		return true
	})
	if err := e.Index.WriteIndex(ctx, root, artifacts); err != nil {
		e.log().WithError(err).Warn("writing index failed")
		return err
	}
	return nil
}
