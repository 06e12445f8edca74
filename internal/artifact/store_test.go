package artifact

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validArtifact() *Artifact {
	return &Artifact{
		Version:     CurrentVersion,
		Fingerprint: "0123456789abcdef",
		LastUpdated: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Content: Content{
			Summary: "2 Go files",
			Files: []FileEntry{
				{Name: "a.go", Language: "Go", Signatures: []string{"func A()"}},
				{Name: "b.go", Language: "Go"},
			},
			Children: []ChildRef{{ID: "src/util", Summary: "helpers"}},
		},
	}
}

func TestStoreWriteAndRead(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "src"), 0755); err != nil {
		t.Fatal(err)
	}
	s := NewStore(root, "")

	want := validArtifact()
	if err := s.Write("src", want); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "src", DefaultFileName)); err != nil {
		t.Fatalf("artifact not at expected path: %v", err)
	}

	got, err := s.Read("src")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got == nil {
		t.Fatal("Read returned absent for a valid artifact")
	}
	if got.Fingerprint != want.Fingerprint {
		t.Errorf("fingerprint = %q, want %q", got.Fingerprint, want.Fingerprint)
	}
	if !got.LastUpdated.Equal(want.LastUpdated) {
		t.Errorf("last_updated = %v, want %v", got.LastUpdated, want.LastUpdated)
	}
	if got.Summary != want.Summary || len(got.Files) != 2 || len(got.Children) != 1 {
		t.Errorf("content mismatch: %+v", got.Content)
	}
}

func TestStoreRootID(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "ctx.yaml")

	if err := s.Write(".", validArtifact()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.Path("") != filepath.Join(root, "ctx.yaml") {
		t.Errorf("Path(\"\") = %q", s.Path(""))
	}
	a, err := s.Read("")
	if err != nil || a == nil {
		t.Fatalf("Read root: %v, %v", a, err)
	}
}

func TestStoreReadMissingIsAbsent(t *testing.T) {
	a, err := NewStore(t.TempDir(), "").Read(".")
	if err != nil || a != nil {
		t.Errorf("Read missing = %v, %v; want nil, nil", a, err)
	}
}

func TestStoreReadCorruptIsAbsent(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"invalid yaml", "{{not yaml"},
		{"empty", ""},
		{"missing fingerprint", "version: 1\nlast_updated: 2024-05-01T12:00:00Z\nsummary: x\n"},
		{"bad fingerprint", "version: 1\nfingerprint: XYZ\nlast_updated: 2024-05-01T12:00:00Z\nsummary: x\n"},
		{"missing summary", "version: 1\nfingerprint: 0123456789abcdef\nlast_updated: 2024-05-01T12:00:00Z\n"},
		{"wrong type", "version: 1\nfingerprint: 0123456789abcdef\nlast_updated: 2024-05-01T12:00:00Z\nsummary: x\nfiles: nope\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			s := NewStore(root, "")
			if err := os.WriteFile(s.Path("."), []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			a, err := s.Read(".")
			if err != nil {
				t.Fatalf("Read should not fail: %v", err)
			}
			if a != nil {
				t.Errorf("Read = %+v, want absent", a)
			}
		})
	}
}

func TestStoreReadNewerVersionIsUnsupported(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")
	data := "version: 2\nfingerprint: 0123456789abcdef\nlast_updated: 2024-05-01T12:00:00Z\nsummary: {nested: true}\n"
	if err := os.WriteFile(s.Path("."), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := s.Read(".")
	if a != nil {
		t.Errorf("Read returned an artifact for unsupported version")
	}
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
	var uv *UnsupportedVersionError
	if !errors.As(err, &uv) || uv.Version != 2 {
		t.Errorf("err = %#v, want version 2", err)
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected message: %v", err)
	}
}

func TestStoreReadOlderVersionIsAbsent(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")
	data := "version: 0\nfingerprint: 0123456789abcdef\nlast_updated: 2024-05-01T12:00:00Z\nsummary: old\n"
	if err := os.WriteFile(s.Path("."), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	a, err := s.Read(".")
	if err != nil {
		t.Fatalf("older version must not raise: %v", err)
	}
	if a != nil {
		t.Error("older version must read as absent")
	}
}

func TestStoreReadIOError(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")
	// A directory where the file should be.
	if err := os.Mkdir(s.Path("."), 0755); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Read("."); err == nil {
		t.Error("expected I/O error")
	}
}

func TestStoreWriteRejectsInvalid(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")

	bad := validArtifact()
	bad.Summary = "  "
	err := s.Write(".", bad)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if _, statErr := os.Stat(s.Path(".")); !os.IsNotExist(statErr) {
		t.Error("invalid artifact must not be written")
	}
}

func TestStoreWriteKeepsPreviousOnInvalid(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")
	if err := s.Write(".", validArtifact()); err != nil {
		t.Fatal(err)
	}
	before, _ := os.ReadFile(s.Path("."))

	bad := validArtifact()
	bad.Version = 9
	if err := s.Write(".", bad); err == nil {
		t.Fatal("expected validation error")
	}
	after, _ := os.ReadFile(s.Path("."))
	if string(before) != string(after) {
		t.Error("existing artifact modified by rejected write")
	}
}

func TestStoreRemove(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, "")
	if err := s.Write(".", validArtifact()); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove("."); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if a, _ := s.Read("."); a != nil {
		t.Error("artifact still readable after Remove")
	}
	if err := s.Remove("."); err != nil {
		t.Errorf("Remove missing: %v", err)
	}
}
