// Package index writes the project-wide markdown index that points agent
// tools at the per-directory context artifacts.
package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/bianoble/dirctx/internal/artifact"
	"github.com/bianoble/dirctx/internal/engine"
	"github.com/bianoble/dirctx/internal/sandbox"
	"github.com/bianoble/dirctx/internal/scan"
)

// Writer renders the index once per run to every configured tool file.
type Writer struct {
	Root         string
	ArtifactFile string
	// Files are index paths relative to Root.
	Files    []string
	Template string
	Log      logrus.FieldLogger
}

var _ engine.IndexWriter = (*Writer)(nil)

// New resolves tools through tm and loads the template.
func New(root, artifactFile string, tools []string, tm *ToolMap, templatePath string) (*Writer, error) {
	files, err := tm.ResolveAll(tools)
	if err != nil {
		return nil, err
	}

	text := DefaultTemplate
	if templatePath != "" {
		path, err := sandbox.Resolve(root, templatePath)
		if err != nil {
			return nil, fmt.Errorf("index template: %w", err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading index template %s: %w", templatePath, err)
		}
		text = string(data)
	}

	return &Writer{
		Root:         root,
		ArtifactFile: artifactFile,
		Files:        files,
		Template:     text,
	}, nil
}

// WriteIndex renders the index from the tree and writes it to every file.
// A failure on one file does not stop the others.
func (w *Writer) WriteIndex(ctx context.Context, root *scan.Target, artifacts map[string]*artifact.Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out, err := Render(w.Template, w.data(root, artifacts))
	if err != nil {
		return err
	}

	var result *multierror.Error
	for _, rel := range w.Files {
		if err := w.write(rel, out); err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", rel, err))
			continue
		}
		if w.Log != nil {
			w.Log.WithField("file", rel).Debug("wrote index")
		}
	}
	return result.ErrorOrNil()
}

func (w *Writer) data(root *scan.Target, artifacts map[string]*artifact.Artifact) Data {
	d := Data{
		Project:      filepath.Base(root.Path),
		ArtifactFile: w.ArtifactFile,
	}
	root.Walk(func(t *scan.Target) bool {
		e := Entry{ID: t.ID, Depth: depth(t.ID), Files: len(t.Files)}
		if a := artifacts[t.ID]; a != nil {
			e.Summary = a.Summary
		} else {
			e.Missing = true
		}
		d.Entries = append(d.Entries, e)
		return true
	})
	return d
}

func (w *Writer) write(rel string, data []byte) error {
	path, err := sandbox.Resolve(w.Root, rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	return sandbox.WriteFile(w.Root, rel, data, 0644)
}

func depth(id string) int {
	if id == "." {
		return 0
	}
	return strings.Count(id, "/") + 1
}
