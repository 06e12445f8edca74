// Package artifact reads, writes and validates the per-directory
// .context.yaml file.
package artifact

import "time"

const (
	// CurrentVersion is the schema version written by this build.
	CurrentVersion = 1
	// MinVersion is the oldest schema version still accepted on read.
	MinVersion = 1
)

// Artifact is the persisted result of a successful build for one Target.
type Artifact struct {
	Version     int       `yaml:"version"`
	Fingerprint string    `yaml:"fingerprint"`
	LastUpdated time.Time `yaml:"last_updated"`
	Content     `yaml:",inline"`
}

// Content holds the fields produced by the build action. The orchestrator
// treats it as opaque.
type Content struct {
	Summary  string      `yaml:"summary"`
	Files    []FileEntry `yaml:"files,omitempty"`
	Children []ChildRef  `yaml:"children,omitempty"`
}

// FileEntry describes one direct source file.
type FileEntry struct {
	Name       string   `yaml:"name"`
	Language   string   `yaml:"language,omitempty"`
	Signatures []string `yaml:"signatures,omitempty"`
}

// ChildRef links to a child directory's artifact.
type ChildRef struct {
	ID      string `yaml:"id"`
	Summary string `yaml:"summary"`
}
