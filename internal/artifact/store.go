package artifact

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/bianoble/dirctx/internal/sandbox"
)

// DefaultFileName is the artifact file written into each Target directory.
const DefaultFileName = ".context.yaml"

// Store reads and writes artifacts for Targets under a project root.
// Targets are addressed by ID ("." or a "/"-joined relative path).
type Store struct {
	Root     string
	FileName string
}

// NewStore creates a Store rooted at root.
func NewStore(root, fileName string) *Store {
	if fileName == "" {
		fileName = DefaultFileName
	}
	return &Store{Root: root, FileName: fileName}
}

func (s *Store) relPath(id string) string {
	if id == "" {
		id = "."
	}
	return filepath.Join(filepath.FromSlash(id), s.FileName)
}

// Path returns the artifact path for a Target ID.
func (s *Store) Path(id string) string {
	return filepath.Join(s.Root, s.relPath(id))
}

// Read loads the artifact for id. A missing, unparsable or schema-invalid
// file yields (nil, nil). An artifact from a newer schema yields an
// *UnsupportedVersionError. Other I/O failures are returned as errors.
func (s *Store) Read(id string) (*Artifact, error) {
	path := s.Path(id)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact %s: %w", path, err)
	}
	return Decode(path, data)
}

// Decode parses artifact bytes with the same rules as Read. path is used
// only in error messages.
func Decode(path string, data []byte) (*Artifact, error) {
	// Check the version alone first so a newer schema whose other fields no
	// longer decode is still reported as unsupported.
	var header struct {
		Version int `yaml:"version"`
	}
	if err := yaml.Unmarshal(data, &header); err != nil {
		return nil, nil
	}
	if header.Version > CurrentVersion {
		return nil, &UnsupportedVersionError{Path: path, Version: header.Version}
	}

	var a Artifact
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, nil
	}
	if errs := Validate(&a); len(errs) > 0 {
		return nil, nil
	}
	return &a, nil
}

// Write validates a and atomically replaces the artifact for id. Nothing is
// written when validation fails.
func (s *Store) Write(id string, a *Artifact) error {
	if errs := Validate(a); len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}

	stored := *a
	stored.LastUpdated = a.LastUpdated.UTC()
	data, err := yaml.Marshal(&stored)
	if err != nil {
		return fmt.Errorf("marshaling artifact: %w", err)
	}

	if err := sandbox.WriteFile(s.Root, s.relPath(id), data, 0644); err != nil {
		return fmt.Errorf("writing artifact for %s: %w", id, err)
	}
	return nil
}

// Remove deletes the artifact for id. A missing artifact is not an error.
func (s *Store) Remove(id string) error {
	if err := sandbox.Remove(s.Root, s.relPath(id)); err != nil {
		return fmt.Errorf("removing artifact for %s: %w", id, err)
	}
	return nil
}
