package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/fingerprint"
	"github.com/bianoble/dirctx/internal/scan"
)

// Mode selects which eligible Targets are rebuilt.
type Mode string

const (
	// ModeAll rebuilds every eligible Target.
	ModeAll Mode = "all"
	// ModeStale rebuilds only stale or missing Targets.
	ModeStale Mode = "stale"
	// ModeForce rebuilds every eligible Target, including ones whose stored
	// artifact was written by a newer schema.
	ModeForce Mode = "force"
)

// ParseMode converts a flag value into a Mode. "stale-only" is accepted as an
// alias for "stale".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", string(ModeStale), "stale-only":
		return ModeStale, nil
	case string(ModeAll):
		return ModeAll, nil
	case string(ModeForce):
		return ModeForce, nil
	default:
		return "", fmt.Errorf("invalid mode '%s' — must be one of: all, stale, force", s)
	}
}

// Store is the artifact persistence the engine reads and writes through.
type Store interface {
	Read(id string) (*artifact.Artifact, error)
	Write(id string, a *artifact.Artifact) error
}

// BuildInput is what the build action receives for one Target.
type BuildInput struct {
	Target *scan.Target
	// Children maps each direct child ID to its current artifact, or nil
	// when the child has none (missing, corrupt or unsupported).
	Children map[string]*artifact.Artifact
}

// ReadFile returns the contents of one of the Target's direct files.
func (in BuildInput) ReadFile(name string) ([]byte, error) {
	if !slices.Contains(in.Target.Files, name) {
		return nil, fmt.Errorf("%s is not a file of %s", name, in.Target.ID)
	}
	return os.ReadFile(filepath.Join(in.Target.Path, name))
}

// BuildAction turns a Target's inputs into artifact content.
type BuildAction interface {
	Build(ctx context.Context, in BuildInput) (*artifact.Content, error)
}

// BuildFunc adapts a function to BuildAction.
type BuildFunc func(ctx context.Context, in BuildInput) (*artifact.Content, error)

// Build calls f.
func (f BuildFunc) Build(ctx context.Context, in BuildInput) (*artifact.Content, error) {
	return f(ctx, in)
}

// IndexWriter writes a project-wide index once after the last wave.
// artifacts holds the current artifact of every Target in the tree (nil
// entries for Targets without one).
type IndexWriter interface {
	WriteIndex(ctx context.Context, root *scan.Target, artifacts map[string]*artifact.Artifact) error
}

// TargetError records a failure for one Target.
type TargetError struct {
	ID  string
	Err error
	// Unsupported is set when the Target's stored artifact comes from a
	// newer schema and was left untouched.
	Unsupported bool
}

func (e TargetError) Error() string {
	return e.ID + ": " + e.Err.Error()
}

func (e TargetError) Unwrap() error {
	return e.Err
}

// Transition records a Target's freshness before and after a rebuild.
type Transition struct {
	ID   string
	From fingerprint.Freshness
	To   fingerprint.Freshness
}

func (t Transition) String() string {
	return fmt.Sprintf("%s: %s→%s", t.ID, t.From, t.To)
}

// Summary holds the outcome of a regenerate run.
type Summary struct {
	Scope       string
	Mode        Mode
	Waves       int
	Updated     []string
	Skipped     []string
	Failed      []TargetError
	Transitions []Transition
	// IndexErr is set when the project index could not be written.
	IndexErr error
	// Plan is set instead of the result lists for dry runs.
	Plan     *Plan
	Started  time.Time
	Finished time.Time
}

// Err aggregates all failures, or returns nil when the run was clean.
func (s *Summary) Err() error {
	var result *multierror.Error
	for _, f := range s.Failed {
		result = multierror.Append(result, f)
	}
	if s.IndexErr != nil {
		result = multierror.Append(result, fmt.Errorf("writing index: %w", s.IndexErr))
	}
	return result.ErrorOrNil()
}

// PlanEntry describes what a run would do for one Target.
type PlanEntry struct {
	ID          string
	Wave        int
	State       fingerprint.Freshness
	Rebuild     bool
	Unsupported bool
	LastUpdated time.Time
	Err         error
}

// Plan is the result of a dry run.
type Plan struct {
	Scope   string
	Mode    Mode
	Waves   int
	Entries []PlanEntry
}

// RebuildCount returns how many Targets would be rebuilt.
func (p *Plan) RebuildCount() int {
	n := 0
	for _, e := range p.Entries {
		if e.Rebuild {
			n++
		}
	}
	return n
}

// Counts returns the number of Targets in each freshness state.
func (p *Plan) Counts() map[fingerprint.Freshness]int {
	counts := make(map[fingerprint.Freshness]int, 3)
	for _, e := range p.Entries {
		counts[e.State]++
	}
	return counts
}
