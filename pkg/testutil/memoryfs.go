package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rigup/rigup/pkg/types"
)

// MemoryFS implements types.FS with in-memory storage. It tracks the
// number of mutating calls so tests can assert an operation was a
// true no-op, and supports per-path error injection.
type MemoryFS struct {
	mu    sync.RWMutex
	nodes map[string]*fileNode

	// Error injection
	errorPaths map[string]error

	// Statistics
	mutations int
}

// fileNode represents a file, directory, or symlink in memory
type fileNode struct {
	mode     fs.FileMode
	modTime  time.Time
	content  []byte
	isDir    bool
	isLink   bool
	linkDest string
}

// NewMemoryFS creates a new in-memory filesystem with a root directory.
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		nodes: map[string]*fileNode{
			"/": {mode: 0755 | fs.ModeDir, modTime: time.Now(), isDir: true},
		},
		errorPaths: make(map[string]error),
	}
}

// InjectError makes every operation on path fail with err.
func (m *MemoryFS) InjectError(path string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorPaths[filepath.Clean(path)] = err
}

// Mutations returns the number of mutating calls made so far.
func (m *MemoryFS) Mutations() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mutations
}

func (m *MemoryFS) checkError(path string) error {
	if err, ok := m.errorPaths[filepath.Clean(path)]; ok {
		return err
	}
	return nil
}

func (m *MemoryFS) getNode(path string) (*fileNode, error) {
	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return nil, err
	}
	node, ok := m.nodes[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return node, nil
}

// resolve follows a symlink chain to its terminal node.
func (m *MemoryFS) resolve(path string) (*fileNode, error) {
	node, err := m.getNode(path)
	if err != nil {
		return nil, err
	}
	for depth := 0; node.isLink; depth++ {
		if depth > 16 {
			return nil, &fs.PathError{Op: "stat", Path: path, Err: fs.ErrInvalid}
		}
		dest := node.linkDest
		if !filepath.IsAbs(dest) {
			dest = filepath.Join(filepath.Dir(path), dest)
		}
		path = dest
		node, err = m.getNode(path)
		if err != nil {
			return nil, err
		}
	}
	return node, nil
}

// Stat returns file info, following symlinks.
func (m *MemoryFS) Stat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	return memFileInfo{name: filepath.Base(name), node: node}, nil
}

// Lstat returns file info without following symlinks.
func (m *MemoryFS) Lstat(name string) (fs.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return nil, err
	}
	return memFileInfo{name: filepath.Base(name), node: node}, nil
}

// ReadFile reads the entire file content, following symlinks.
func (m *MemoryFS) ReadFile(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if node.isDir {
		return nil, &fs.PathError{Op: "read", Path: name, Err: fs.ErrInvalid}
	}
	out := make([]byte, len(node.content))
	copy(out, node.content)
	return out, nil
}

// WriteFile writes content, creating the file if needed. The parent
// directory must exist, matching os.WriteFile semantics.
func (m *MemoryFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if err := m.checkError(name); err != nil {
		return err
	}
	parent, ok := m.nodes[filepath.Dir(name)]
	if !ok || !parent.isDir {
		return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	m.mutations++
	content := make([]byte, len(data))
	copy(content, data)
	m.nodes[name] = &fileNode{mode: perm, modTime: time.Now(), content: content}
	return nil
}

// MkdirAll creates a directory and all missing parents.
func (m *MemoryFS) MkdirAll(path string, perm fs.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return err
	}

	if node, ok := m.nodes[path]; ok {
		if node.isDir {
			return nil
		}
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrExist}
	}

	m.mutations++
	for p := path; ; p = filepath.Dir(p) {
		if node, ok := m.nodes[p]; ok {
			if !node.isDir {
				return &fs.PathError{Op: "mkdir", Path: p, Err: fs.ErrExist}
			}
			break
		}
		m.nodes[p] = &fileNode{mode: perm | fs.ModeDir, modTime: time.Now(), isDir: true}
		if p == filepath.Dir(p) {
			break
		}
	}
	return nil
}

// ReadDir lists a directory's immediate children, sorted by name.
func (m *MemoryFS) ReadDir(name string) ([]fs.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = filepath.Clean(name)
	dir, err := m.resolve(name)
	if err != nil {
		return nil, err
	}
	if !dir.isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrInvalid}
	}

	var entries []fs.DirEntry
	prefix := name
	if prefix != "/" {
		prefix += "/"
	}
	for path, node := range m.nodes {
		if path == name || !strings.HasPrefix(path, prefix) {
			continue
		}
		rel := strings.TrimPrefix(path, prefix)
		if strings.Contains(rel, "/") {
			continue
		}
		entries = append(entries, memDirEntry{name: rel, node: node})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// Symlink creates a symbolic link at newname pointing to oldname.
func (m *MemoryFS) Symlink(oldname, newname string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	newname = filepath.Clean(newname)
	if err := m.checkError(newname); err != nil {
		return err
	}
	if _, ok := m.nodes[newname]; ok {
		return &fs.PathError{Op: "symlink", Path: newname, Err: fs.ErrExist}
	}

	m.mutations++
	m.nodes[newname] = &fileNode{
		mode:     0777 | fs.ModeSymlink,
		modTime:  time.Now(),
		isLink:   true,
		linkDest: oldname,
	}
	return nil
}

// Readlink returns the destination of a symlink.
func (m *MemoryFS) Readlink(name string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	node, err := m.getNode(name)
	if err != nil {
		return "", err
	}
	if !node.isLink {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return node.linkDest, nil
}

// Remove deletes a single file, empty directory, or symlink.
func (m *MemoryFS) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	name = filepath.Clean(name)
	if err := m.checkError(name); err != nil {
		return err
	}
	if _, ok := m.nodes[name]; !ok {
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	}

	m.mutations++
	delete(m.nodes, name)
	return nil
}

// RemoveAll deletes a path and everything below it. A missing path is
// not an error, matching os.RemoveAll.
func (m *MemoryFS) RemoveAll(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	path = filepath.Clean(path)
	if err := m.checkError(path); err != nil {
		return err
	}

	if _, ok := m.nodes[path]; !ok {
		return nil
	}

	m.mutations++
	prefix := path + "/"
	for p := range m.nodes {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(m.nodes, p)
		}
	}
	return nil
}

// Rename moves a file or directory tree.
func (m *MemoryFS) Rename(oldpath, newpath string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	oldpath = filepath.Clean(oldpath)
	newpath = filepath.Clean(newpath)
	if err := m.checkError(oldpath); err != nil {
		return err
	}
	if err := m.checkError(newpath); err != nil {
		return err
	}
	if _, ok := m.nodes[oldpath]; !ok {
		return &fs.PathError{Op: "rename", Path: oldpath, Err: fs.ErrNotExist}
	}

	m.mutations++
	prefix := oldpath + "/"
	moved := make(map[string]*fileNode)
	for p, node := range m.nodes {
		switch {
		case p == oldpath:
			moved[newpath] = node
			delete(m.nodes, p)
		case strings.HasPrefix(p, prefix):
			moved[filepath.Join(newpath, strings.TrimPrefix(p, prefix))] = node
			delete(m.nodes, p)
		}
	}
	for p, node := range moved {
		m.nodes[p] = node
	}
	return nil
}

// Verify interface compliance
var _ types.FS = (*MemoryFS)(nil)

// memFileInfo implements fs.FileInfo for memory nodes
type memFileInfo struct {
	name string
	node *fileNode
}

func (i memFileInfo) Name() string       { return i.name }
func (i memFileInfo) Size() int64        { return int64(len(i.node.content)) }
func (i memFileInfo) Mode() fs.FileMode  { return i.node.mode }
func (i memFileInfo) ModTime() time.Time { return i.node.modTime }
func (i memFileInfo) IsDir() bool        { return i.node.isDir }
func (i memFileInfo) Sys() interface{}   { return nil }

// memDirEntry implements fs.DirEntry for memory nodes
type memDirEntry struct {
	name string
	node *fileNode
}

func (e memDirEntry) Name() string               { return e.name }
func (e memDirEntry) IsDir() bool                { return e.node.isDir }
func (e memDirEntry) Type() fs.FileMode          { return e.node.mode.Type() }
func (e memDirEntry) Info() (fs.FileInfo, error) { return memFileInfo{name: e.name, node: e.node}, nil }
