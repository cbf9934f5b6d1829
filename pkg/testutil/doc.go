// Package testutil provides test doubles for rigup: an in-memory
// types.FS with error injection and mutation counting, a scripted
// command runner, and filesystem helpers for integration-style tests.
package testutil
