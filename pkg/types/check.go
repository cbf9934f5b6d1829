package types

// CheckKind enumerates the existence-check predicates the prober
// knows how to evaluate.
type CheckKind string

const (
	// CheckBinary passes when a binary with the given name is on PATH.
	CheckBinary CheckKind = "binary"

	// CheckDir passes when the given directory exists.
	CheckDir CheckKind = "dir"

	// CheckFileContains passes when the given file exists and contains
	// the marker substring verbatim. A missing file is false, never an
	// error.
	CheckFileContains CheckKind = "file-contains"
)

// Check is a side-effect-free predicate describing a desired end state.
// Checks are safe to evaluate any number of times; they are the guard
// for every idempotent apply in the provisioner.
type Check struct {
	Kind   CheckKind
	Name   string // binary name for CheckBinary
	Path   string // target path for CheckDir and CheckFileContains
	Marker string // substring for CheckFileContains
}

// BinaryCheck builds a binary-on-PATH check.
func BinaryCheck(name string) Check {
	return Check{Kind: CheckBinary, Name: name}
}

// DirCheck builds a directory-existence check. Path may start with ~.
func DirCheck(path string) Check {
	return Check{Kind: CheckDir, Path: path}
}

// FileContainsCheck builds a marker-substring check against a file.
func FileContainsCheck(path, marker string) Check {
	return Check{Kind: CheckFileContains, Path: path, Marker: marker}
}
