package types

import (
	"io/fs"
)

// FS is the filesystem interface required for rigup operations.
// Production code uses the OS implementation in pkg/filesystem;
// tests inject pkg/testutil.MemoryFS.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Other operations
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error

	// Lstat must not follow symlinks; test implementations may fall
	// back to Stat when links are not modeled.
	Lstat(name string) (fs.FileInfo, error)
}

// Runner executes external commands on the host. The installer talks to
// package managers, git, and vendor install scripts through this
// interface so tests can observe invocations without running anything.
type Runner interface {
	// Run executes name with args and returns combined output.
	Run(name string, args ...string) (output string, err error)

	// LookPath reports the absolute path of a binary on PATH, or an
	// error when it is not present.
	LookPath(name string) (string, error)
}
