package testutil

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rigup/rigup/pkg/types"
)

// WriteFile creates a file (and its parents) in the given filesystem,
// failing the test on error.
func WriteFile(t *testing.T, fsys types.FS, path, content string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(parentDir(path), 0755))
	require.NoError(t, fsys.WriteFile(path, []byte(content), 0644))
}

// MkdirAll creates a directory tree, failing the test on error.
func MkdirAll(t *testing.T, fsys types.FS, path string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(path, 0755))
}

// ReadFile reads a file's content, failing the test on error.
func ReadFile(t *testing.T, fsys types.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

// Exists reports whether a path exists in the filesystem.
func Exists(fsys types.FS, path string) bool {
	_, err := fsys.Lstat(path)
	return err == nil
}

// IsSymlinkTo asserts that path is a symlink pointing at want.
func IsSymlinkTo(t *testing.T, fsys types.FS, path, want string) {
	t.Helper()
	info, err := fsys.Lstat(path)
	require.NoError(t, err)
	require.NotZero(t, info.Mode()&fs.ModeSymlink, "%s is not a symlink", path)
	dest, err := fsys.Readlink(path)
	require.NoError(t, err)
	require.Equal(t, want, dest)
}

func parentDir(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			if i == 0 {
				return "/"
			}
			return path[:i]
		}
	}
	return "."
}
