// Package configfile implements the config mutator: idempotent line-
// and block-level edits to persistent text configuration files, plus
// symlink/copy installation of directory-style configs. Every mutation
// is guarded by a content-presence check, and anything about to be
// overwritten is archived into the run's backup directory first.
package configfile
