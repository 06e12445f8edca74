// Package wave partitions a Target tree into build waves: depth-ordered
// batches in which every Target's children sit in strictly earlier waves and
// no two members of one wave are ancestor and descendant.
package wave

import (
	"errors"
	"fmt"

	"github.com/bianoble/dirctx/internal/scan"
)

// ErrOrdering is returned by Validate when a wave invariant is broken.
var ErrOrdering = errors.New("wave ordering violated")

// Heights returns, for every Target in root's subtree, the length of the
// longest child chain below it. Leaves get 0 regardless of how deep they sit.
func Heights(root *scan.Target) map[*scan.Target]int {
	heights := make(map[*scan.Target]int)
	var height func(t *scan.Target) int
	height = func(t *scan.Target) int {
		h := 0
		for _, c := range t.Children {
			if ch := height(c) + 1; ch > h {
				h = ch
			}
		}
		heights[t] = h
		return h
	}
	if root != nil {
		height(root)
	}
	return heights
}

// Partition groups root's subtree by height, leaves first. Inside a wave,
// Targets keep their pre-order position from the tree.
func Partition(root *scan.Target) [][]*scan.Target {
	if root == nil {
		return nil
	}
	heights := Heights(root)
	waves := make([][]*scan.Target, heights[root]+1)
	root.Walk(func(t *scan.Target) bool {
		h := heights[t]
		waves[h] = append(waves[h], t)
		return true
	})
	return waves
}

// Validate checks both wave invariants for root's subtree.
func Validate(root *scan.Target, waves [][]*scan.Target) error {
	index := make(map[*scan.Target]int)
	for i, w := range waves {
		for _, t := range w {
			if _, dup := index[t]; dup {
				return fmt.Errorf("%w: %s appears in more than one wave", ErrOrdering, t.ID)
			}
			index[t] = i
		}
	}

	var err error
	root.Walk(func(t *scan.Target) bool {
		if err != nil {
			return false
		}
		w, ok := index[t]
		if !ok {
			err = fmt.Errorf("%w: %s is in no wave", ErrOrdering, t.ID)
			return false
		}
		// Every descendant must be in a strictly earlier wave. This covers
		// both the children rule and the no-ancestor-in-same-wave rule.
		for _, c := range t.Children {
			c.Walk(func(d *scan.Target) bool {
				if index[d] >= w {
					err = fmt.Errorf("%w: %s (wave %d) is not before ancestor %s (wave %d)",
						ErrOrdering, d.ID, index[d], t.ID, w)
					return false
				}
				return true
			})
		}
		return err == nil
	})
	return err
}

// IDs returns the Target IDs of each wave.
func IDs(waves [][]*scan.Target) [][]string {
	out := make([][]string, len(waves))
	for i, w := range waves {
		ids := make([]string, len(w))
		for j, t := range w {
			ids[j] = t.ID
		}
		out[i] = ids
	}
	return out
}
