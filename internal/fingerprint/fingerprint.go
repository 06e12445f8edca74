// Package fingerprint computes cheap content signatures for Targets and
// classifies them against a previously stored signature.
//
// A fingerprint covers only the files directly inside a directory and only
// their stat metadata (name, modification time, size). File contents are
// never read.
package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Width is the length of a fingerprint in hex characters.
const Width = 16

// Freshness is the classification of a Target against its stored fingerprint.
type Freshness int

const (
	// Missing means no fingerprint was stored.
	Missing Freshness = iota
	// Stale means the stored fingerprint differs from the computed one.
	Stale
	// Fresh means the stored fingerprint matches.
	Fresh
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	default:
		return "missing"
	}
}

// Classify compares a stored fingerprint (empty when absent) with a
// computed one.
func Classify(stored, computed string) Freshness {
	switch {
	case stored == "":
		return Missing
	case stored == computed:
		return Fresh
	default:
		return Stale
	}
}

// Entry is the metadata of one file included in a fingerprint.
type Entry struct {
	Name    string
	MtimeMs int64
	Size    int64
}

func (e Entry) line() string {
	return e.Name + ":" + strconv.FormatInt(e.MtimeMs, 10) + ":" + strconv.FormatInt(e.Size, 10)
}

// Sum hashes a set of entries. The result does not depend on entry order.
func Sum(entries []Entry) string {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	lines := make([]string, len(sorted))
	for i, e := range sorted {
		lines[i] = e.line()
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.Join(lines, "\n")))
}

// Entries lists the files directly in dir accepted by include, with their
// stat metadata. Files that cannot be stat'ed are left out.
func Entries(dir string, include func(name string) bool) ([]Entry, error) {
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if include != nil && !include(name) {
			continue
		}
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, Entry{
			Name:    name,
			MtimeMs: info.ModTime().UnixMilli(),
			Size:    info.Size(),
		})
	}
	return entries, nil
}

// Compute returns the fingerprint of the files directly in dir accepted by
// include.
func Compute(dir string, include func(name string) bool) (string, error) {
	entries, err := Entries(dir, include)
	if err != nil {
		return "", err
	}
	return Sum(entries), nil
}
