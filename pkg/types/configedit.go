package types

// ConfigEdit declares an idempotent block insertion into a text
// configuration file. Applying the same edit twice never duplicates
// content: Marker is searched verbatim and the block is appended only
// when it is absent.
type ConfigEdit struct {
	Description string
	File        string // target file, ~ expandable
	Marker      string // uniqueness marker, must appear inside Block
	Block       string // content appended (prefixed by a blank line)
}

// LineEdit declares an idempotent single-line substitution, used for
// settings that live on one line (theme name, plugin list). The
// pattern must match the already-edited line too, so re-applying
// cannot corrupt a prior edit.
type LineEdit struct {
	Description string
	File        string // target file, ~ expandable
	Pattern     string // anchored regular expression
	Replacement string
}

// LinkMode selects how InstallSymlinkOrCopy materializes a config.
type LinkMode string

const (
	// LinkModeSymlink links the live location at the bundled source.
	LinkModeSymlink LinkMode = "symlink"

	// LinkModeCopy copies the source instead, for files that carry
	// per-host customization and must not live in the shared tree.
	LinkModeCopy LinkMode = "copy"
)

// LinkEdit declares a directory- or file-level config installation:
// a symlink (or copy) from a bundled source into the live location.
type LinkEdit struct {
	Description string
	Source      string // bundled source, ~ expandable
	Target      string // live location, ~ expandable
	Mode        LinkMode
}
