package types

// GitClone describes a git-based install: clone RepoURL into Dir.
// The directory's existence is the reinstallation guard.
type GitClone struct {
	RepoURL string
	Dir     string // target directory, ~ expandable
	Depth   int    // 0 means full clone
}

// RemoteScript describes a fetch-and-execute vendor installer.
// GuardDir, when set, skips execution if the directory already exists.
type RemoteScript struct {
	URL      string
	Shell    string // interpreter to pipe into, defaults to sh
	GuardDir string // ~ expandable
}

// ToolSpec declares one external dependency rigup converges: how to
// tell it is already present, and how to install it per platform.
//
// Strategy selection order: a package mapping for the detected
// platform wins; otherwise Clone, then Script; when none applies the
// tool falls to the manual-step path with Manual as the instruction.
type ToolSpec struct {
	Name    string
	Summary string

	// Check is the presence predicate evaluated before any action.
	Check Check

	// Packages maps a platform to the package name its manager
	// installs. Absent platforms fall through to Clone/Script/Manual.
	Packages map[Platform]string

	// Clone is a platform-independent git-based install (plugin
	// managers, theme engines, version managers).
	Clone *GitClone

	// Script is a vendor install script fetched over HTTPS.
	Script *RemoteScript

	// Manual is the human instruction queued when no automated path
	// exists for the platform. Empty means a generic instruction is
	// generated from Name.
	Manual string
}

// HasAutomatedPath reports whether any non-manual strategy exists for
// the given platform.
func (t ToolSpec) HasAutomatedPath(platform Platform) bool {
	if _, ok := t.Packages[platform]; ok {
		return true
	}
	return t.Clone != nil || t.Script != nil
}
