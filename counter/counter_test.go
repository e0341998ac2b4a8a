package counter_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nemo-docs/autodocs/counter"
)

// writeTree creates the given relative files under root,
// creating parent directories as needed.
func writeTree(tb testing.TB, root string, files ...string) {
	tb.Helper()

	for _, f := range files {
		fp := filepath.Join(root, f)

		err := os.MkdirAll(filepath.Dir(fp), 0o750)
		require.NoError(tb, err)

		err = os.WriteFile(fp, []byte("x\n"), 0o600)
		require.NoError(tb, err)
	}
}

func TestCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		files []string
		want  int
	}{
		{
			name: "hidden and vendored excluded",
			files: []string{
				"a.txt",
				".hidden",
				"node_modules/x.js",
				"src/b.py",
			},
			want: 2,
		},
		{
			name:  "empty tree",
			files: nil,
			want:  0,
		},
		{
			name: "nested non-hidden",
			files: []string{
				"a/b/c/d.txt",
				"a/b/e.txt",
				"f.txt",
			},
			want: 3,
		},
		{
			name: "hidden directory prunes subtree",
			files: []string{
				".github/workflows/ci.yml",
				"kept.txt",
			},
			want: 1,
		},
		{
			name: "denylisted directories pruned",
			files: []string{
				"venv/lib/site.py",
				".venv/lib/site.py",
				"__pycache__/mod.pyc",
				"src/__pycache__/mod.pyc",
				"src/mod.py",
			},
			want: 1,
		},
		{
			name: "hidden file in nested dir",
			files: []string{
				"src/.DS_Store",
				"src/main.go",
			},
			want: 1,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			writeTree(t, dir, tt.files...)

			got, err := counter.Count(
				dir, counter.DefaultExcludedDirs,
			)

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCount_custom_denylist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTree(t, dir,
		"vendor/dep.go",
		"node_modules/x.js",
		"main.go",
	)

	got, err := counter.Count(
		dir, []string{"vendor"},
	)

	require.NoError(t, err)
	// Only "vendor" is excluded; node_modules counts.
	assert.Equal(t, 2, got)
}

func TestCount_missing_root(t *testing.T) {
	t.Parallel()

	_, err := counter.Count(
		filepath.Join(t.TempDir(), "nope"),
		counter.DefaultExcludedDirs,
	)

	assert.Error(t, err)
}

func TestWriteCountFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	path, changed, err := counter.WriteCountFile(
		dir, 2, counter.DefaultCountFile,
	)

	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(
		t,
		filepath.Join(dir, "file_count"),
		path,
	)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(raw))
}

func TestWriteCountFile_idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, changed, err := counter.WriteCountFile(
		dir, 2, counter.DefaultCountFile,
	)
	require.NoError(t, err)
	assert.True(t, changed)

	path, changed, err := counter.WriteCountFile(
		dir, 2, counter.DefaultCountFile,
	)
	require.NoError(t, err)
	assert.False(t, changed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "2\n", string(raw))
}

func TestWriteCountFile_overwrites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, _, err := counter.WriteCountFile(
		dir, 2, counter.DefaultCountFile,
	)
	require.NoError(t, err)

	path, changed, err := counter.WriteCountFile(
		dir, 3, counter.DefaultCountFile,
	)
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "3\n", string(raw))
}
