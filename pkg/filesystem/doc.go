// Package filesystem provides the OS-backed implementation of the
// types.FS interface. All mutating code in rigup goes through types.FS
// so the idempotent-apply logic can be tested against an in-memory
// filesystem instead of real I/O.
package filesystem
