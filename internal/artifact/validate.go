package artifact

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedVersion matches any UnsupportedVersionError via errors.Is.
var ErrUnsupportedVersion = errors.New("unsupported artifact version")

// UnsupportedVersionError reports an artifact written by a newer schema.
type UnsupportedVersionError struct {
	Path    string
	Version int
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("%s: artifact version %d is newer than supported version %d", e.Path, e.Version, CurrentVersion)
}

// Is lets errors.Is(err, ErrUnsupportedVersion) match.
func (e *UnsupportedVersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// ValidationError holds multiple validation failures.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("artifact validation failed:\n  - %s", strings.Join(e.Errors, "\n  - "))
}

// Validate checks an Artifact against the current schema.
// Returns a list of validation error messages (empty if valid).
func Validate(a *Artifact) []string {
	if a == nil {
		return []string{"artifact is nil"}
	}

	var errs []string

	if a.Version < MinVersion || a.Version > CurrentVersion {
		errs = append(errs, fmt.Sprintf("version %d outside supported range %d..%d", a.Version, MinVersion, CurrentVersion))
	}

	if !isHex(a.Fingerprint) || len(a.Fingerprint) != 16 {
		errs = append(errs, fmt.Sprintf("fingerprint %q must be 16 hex characters", a.Fingerprint))
	}

	if a.LastUpdated.IsZero() {
		errs = append(errs, "'last_updated' is required")
	}

	return append(errs, ValidateContent(&a.Content)...)
}

// ValidateContent checks the build-action fields alone. The orchestrator
// runs it on every build result before stamping.
func ValidateContent(c *Content) []string {
	if c == nil {
		return []string{"content is nil"}
	}

	var errs []string

	if strings.TrimSpace(c.Summary) == "" {
		errs = append(errs, "'summary' is required")
	}

	names := make(map[string]bool, len(c.Files))
	for i, f := range c.Files {
		prefix := fmt.Sprintf("files[%d]", i)
		if f.Name == "" {
			errs = append(errs, fmt.Sprintf("%s: 'name' is required", prefix))
			continue
		}
		if names[f.Name] {
			errs = append(errs, fmt.Sprintf("%s: duplicate file name '%s'", prefix, f.Name))
		}
		names[f.Name] = true
	}

	ids := make(map[string]bool, len(c.Children))
	for i, ch := range c.Children {
		prefix := fmt.Sprintf("children[%d]", i)
		if ch.ID == "" {
			errs = append(errs, fmt.Sprintf("%s: 'id' is required", prefix))
			continue
		}
		if ids[ch.ID] {
			errs = append(errs, fmt.Sprintf("%s: duplicate child id '%s'", prefix, ch.ID))
		}
		ids[ch.ID] = true
	}

	return errs
}

func isHex(s string) bool {
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return s != ""
}
