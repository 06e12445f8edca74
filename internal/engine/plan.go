package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/fingerprint"
	"github.com/bianoble/dirctx/internal/scan"
	"github.com/bianoble/dirctx/internal/wave"
)

// Plan classifies every Target in scope and reports what Regenerate would do,
// without building or writing anything.
func (e *Engine) Plan(ctx context.Context, root *scan.Target, opts Options) (*Plan, error) {
	if e.Store == nil {
		return nil, errors.New("engine requires a store")
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	scoped, err := ResolveScope(root, opts.Scope)
	if err != nil {
		return nil, err
	}

	waves := wave.Partition(scoped)
	plan := &Plan{Scope: scoped.ID, Mode: mode, Waves: len(waves)}
	for i, w := range waves {
		for _, t := range w {
			plan.Entries = append(plan.Entries, e.planEntry(t, i, mode))
		}
	}
	return plan, nil
}

func (e *Engine) planEntry(t *scan.Target, waveIdx int, mode Mode) PlanEntry {
	entry := PlanEntry{ID: t.ID, Wave: waveIdx, State: fingerprint.Missing}

	stored, err := e.Store.Read(t.ID)
	switch {
	case errors.Is(err, artifact.ErrUnsupportedVersion):
		entry.Unsupported = true
		entry.State = fingerprint.Stale
		entry.Rebuild = mode == ModeForce
		if mode != ModeForce {
			entry.Err = err
		}
		return entry
	case err != nil:
		entry.Err = err
		return entry
	}

	computed, err := fingerprint.Compute(t.Path, e.include())
	if err != nil {
		entry.Err = fmt.Errorf("fingerprinting: %w", err)
		return entry
	}

	var storedFP string
	if stored != nil {
		storedFP = stored.Fingerprint
		entry.LastUpdated = stored.LastUpdated
	}
	entry.State = fingerprint.Classify(storedFP, computed)
	entry.Rebuild = mode != ModeStale || entry.State != fingerprint.Fresh
	return entry
}
