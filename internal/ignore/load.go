package ignore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// LoadFiles reads the named ignore files from root, in order, and returns
// their concatenated lines. Missing files are skipped.
func LoadFiles(root string, names []string) ([]string, error) {
	var lines []string
	for _, name := range names {
		fileLines, err := readLines(filepath.Join(root, name))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading ignore file %s: %w", name, err)
		}
		lines = append(lines, fileLines...)
	}
	return lines, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
