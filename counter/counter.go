// Package counter counts the non-hidden files of a
// repository checkout and maintains the tracked count
// file at its root.
package counter

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultCountFile is the tracked file holding the count.
const DefaultCountFile = "file_count"

// DefaultExcludedDirs are directory names skipped during
// the walk in addition to hidden entries: version-control
// metadata, dependency and virtualenv directories, and
// bytecode caches.
var DefaultExcludedDirs = []string{
	".git",
	"node_modules",
	"venv",
	".venv",
	"__pycache__",
}

// Count returns the number of regular files under root
// whose path contains no component starting with "." and
// no component named in excluded. The result does not
// depend on traversal order.
func Count(
	root string,
	excluded []string,
) (int, error) {
	const errCtx = "counting files"

	skip := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		skip[name] = struct{}{}
	}

	total := 0

	err := filepath.WalkDir(
		root,
		func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			// The root itself is never filtered.
			if path == root {
				return nil
			}

			name := d.Name()

			if d.IsDir() {
				if isHidden(name) {
					return fs.SkipDir
				}

				if _, ok := skip[name]; ok {
					return fs.SkipDir
				}

				return nil
			}

			if isHidden(name) {
				return nil
			}

			if d.Type().IsRegular() {
				total++
			}

			return nil
		},
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", errCtx, err)
	}

	return total, nil
}

// WriteCountFile writes the decimal count followed by a
// newline to the named file at root, creating it if absent
// and overwriting it if present. It reports whether the
// file contents changed.
func WriteCountFile(
	root string,
	count int,
	name string,
) (string, bool, error) {
	const errCtx = "writing count file"

	target := filepath.Join(root, name)
	data := []byte(strconv.Itoa(count) + "\n")

	prev, err := os.ReadFile(target) //nolint:gosec // path is config-provided
	if err == nil && bytes.Equal(prev, data) {
		return target, false, nil
	}

	//nolint:gosec // tracked repo file, mode 0644 is intentional
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return target, true, nil
}

// isHidden reports whether a path component should be
// considered hidden.
func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
