// Package cache stores signature-extraction results on disk, keyed by the
// extractor name and the SHA256 of the source file. Entries record the source
// hash they were computed from and are verified on retrieval.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Entry is one cached extraction result.
type Entry struct {
	SourceSHA256 string   `yaml:"source_sha256"`
	Extractor    string   `yaml:"extractor"`
	Language     string   `yaml:"language,omitempty"`
	Signatures   []string `yaml:"signatures,omitempty"`
}

// Cache provides extraction-result storage under a directory.
type Cache struct {
	dir string
}

// New creates a Cache at the given directory.
// The directory is created if it does not exist.
func New(dir string) (*Cache, error) {
	objDir := filepath.Join(dir, "objects")
	if err := os.MkdirAll(objDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory %s: %w", objDir, err)
	}
	return &Cache{dir: dir}, nil
}

// DefaultDir returns the default cache directory.
// Uses XDG_CACHE_HOME if set, otherwise ~/.cache/dirctx.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "dirctx")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		if runtime.GOOS == "windows" {
			return filepath.Join(os.TempDir(), "dirctx-cache")
		}
		return filepath.Join("/tmp", "dirctx-cache")
	}
	return filepath.Join(home, ".cache", "dirctx")
}

// Key returns the cache key for an extractor applied to a source hash.
func Key(extractor, sourceHash string) string {
	return ComputeHash([]byte(extractor + "\x00" + sourceHash))
}

// Get returns the cached result of extractor over content.
// Returns nil, false if not cached. An entry that does not parse or whose
// recorded source hash disagrees is removed and reported as a miss.
func (c *Cache) Get(extractor string, content []byte) (*Entry, bool, error) {
	sourceHash := ComputeHash(content)
	path := c.objectPath(Key(extractor, sourceHash))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry %s: %w", path, err)
	}

	var e Entry
	if err := yaml.Unmarshal(data, &e); err != nil || e.SourceSHA256 != sourceHash || e.Extractor != extractor {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return &e, true, nil
}

// Put stores the result of extractor over content. The source hash and
// extractor fields of e are filled in from the arguments. Existing entries
// are left alone.
func (c *Cache) Put(extractor string, content []byte, e Entry) error {
	e.SourceSHA256 = ComputeHash(content)
	e.Extractor = extractor

	path := c.objectPath(Key(extractor, e.SourceSHA256))
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	data, err := yaml.Marshal(&e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache subdirectory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating cache temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing cache temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing cache temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming cache temp file: %w", err)
	}

	success = true
	return nil
}

// Has reports whether a result for extractor over content is stored,
// without verifying it.
func (c *Cache) Has(extractor string, content []byte) bool {
	_, err := os.Stat(c.objectPath(Key(extractor, ComputeHash(content))))
	return err == nil
}

// Size returns the total size of the cache in bytes and the entry count.
func (c *Cache) Size() (int64, int, error) {
	var total int64
	var count int
	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
			count++
		}
		return nil
	})
	return total, count, err
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	objDir := filepath.Join(c.dir, "objects")
	if err := os.RemoveAll(objDir); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return os.MkdirAll(objDir, 0755)
}

// Path returns the cache directory path.
func (c *Cache) Path() string {
	return c.dir
}

func (c *Cache) objectPath(key string) string {
	if len(key) < 2 {
		return filepath.Join(c.dir, "objects", key)
	}
	return filepath.Join(c.dir, "objects", key[:2], key+".yaml")
}

// ComputeHash computes the SHA256 hash of content and returns the hex string.
func ComputeHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
