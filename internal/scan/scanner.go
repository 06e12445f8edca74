// Package scan walks a source tree and builds the Target tree: one Target per
// directory that holds source-like files directly or somewhere below it.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bianoble/dirctx/internal/ignore"
)

// DefaultMaxDepth is the default maximum directory depth, inclusive.
const DefaultMaxDepth = 8

// DefaultArtifactFile is the per-directory artifact file name.
const DefaultArtifactFile = ".context.yaml"

// Scanner builds the Target tree for a root directory.
type Scanner struct {
	Root         string
	MaxDepth     *int            // deepest directory level visited, root is 0; nil uses DefaultMaxDepth
	Matcher      *ignore.Matcher // nil ignores nothing
	Classifier   *Classifier     // nil uses the built-in allow-lists
	ArtifactFile string          // default DefaultArtifactFile
	Log          logrus.FieldLogger

	maxDepth int
}

func (s *Scanner) applyDefaults() {
	s.maxDepth = DefaultMaxDepth
	if s.MaxDepth != nil {
		s.maxDepth = *s.MaxDepth
	}
	if s.ArtifactFile == "" {
		s.ArtifactFile = DefaultArtifactFile
	}
	if s.Classifier == nil {
		s.Classifier = NewClassifier(nil, nil, []string{s.ArtifactFile})
	}
	if s.Log == nil {
		s.Log = logrus.StandardLogger()
	}
}

// Scan walks the tree and returns the root Target. The root is always
// returned, even when it holds no source files. Unreadable subdirectories are
// skipped; only an unreadable root is an error.
func (s *Scanner) Scan(ctx context.Context) (*Target, error) {
	s.applyDefaults()

	abs, err := filepath.Abs(s.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving scan root %s: %w", s.Root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("reading scan root %s: %w", abs, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("scan root %s is not a directory", abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("reading scan root %s: %w", abs, err)
	}

	root, _ := s.visit(ctx, abs, ".", 0)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return root, nil
}

// visit builds the Target for dir. keep is false when the directory has no
// source files anywhere below it.
func (s *Scanner) visit(ctx context.Context, dir, id string, depth int) (*Target, bool) {
	t := &Target{Path: dir, ID: id}

	if ctx.Err() != nil {
		return t, false
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.Log.WithField("dir", id).WithError(err).Debug("skipping unreadable directory")
		if len(entries) == 0 {
			return t, false
		}
	}

	var subdirs []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() {
			if s.descend(id, name) {
				subdirs = append(subdirs, name)
			}
			continue
		}
		if name == s.ArtifactFile {
			t.HasArtifact = true
			continue
		}
		if !e.Type().IsRegular() && e.Type()&os.ModeSymlink == 0 {
			continue
		}
		if s.Classifier.IsSource(name) {
			t.Files = append(t.Files, name)
		}
	}
	sort.Strings(t.Files)

	if depth < s.maxDepth {
		sort.Strings(subdirs)
		for _, name := range subdirs {
			childID := joinID(id, name)
			child, keep := s.visit(ctx, filepath.Join(dir, name), childID, depth+1)
			if keep {
				t.Children = append(t.Children, child)
			}
		}
	}

	return t, len(t.Files) > 0 || len(t.Children) > 0
}

// descend reports whether the child directory name under parentID is a
// candidate for recursion.
func (s *Scanner) descend(parentID, name string) bool {
	if strings.HasPrefix(name, ".") || IsDeniedDir(name) {
		return false
	}
	if s.Matcher.Ignored(joinID(parentID, name)) {
		s.Log.WithField("dir", joinID(parentID, name)).Debug("ignored by pattern")
		return false
	}
	return true
}

func joinID(parent, name string) string {
	if parent == "." || parent == "" {
		return name
	}
	return parent + "/" + name
}
