// Package types defines the core data model shared across rigup:
// the detected Platform, tool and config-edit specifications, run
// outcomes, and the filesystem abstraction every mutating package
// operates against.
package types
