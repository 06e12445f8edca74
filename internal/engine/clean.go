package engine

import (
	"fmt"

	"github.com/bianoble/dirctx/internal/scan"
)

// Remover deletes stored artifacts.
type Remover interface {
	Remove(id string) error
}

// CleanResult lists the artifacts a Clean removed, or would remove on a dry
// run.
type CleanResult struct {
	Removed []string
	Failed  []TargetError
}

// Clean deletes the artifact of every Target under scope that has one. Like
// Regenerate, a failure on one Target does not stop the others.
func Clean(root *scan.Target, scope string, store Remover, dryRun bool) (*CleanResult, error) {
	scoped, err := ResolveScope(root, scope)
	if err != nil {
		return nil, err
	}

	res := &CleanResult{}
	scoped.Walk(func(t *scan.Target) bool {
		if !t.HasArtifact {
			return true
		}
		if !dryRun {
			if err := store.Remove(t.ID); err != nil {
				res.Failed = append(res.Failed, TargetError{ID: t.ID, Err: fmt.Errorf("removing artifact: %w", err)})
				return true
			}
		}
		res.Removed = append(res.Removed, t.ID)
		return true
	})
	return res, nil
}
