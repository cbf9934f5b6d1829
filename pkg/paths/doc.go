// Package paths provides centralized path handling for rigup.
// It implements XDG Base Directory compliance for rigup's own files
// and resolves the well-known host locations the provisioner touches:
// the shell rc file, the multiplexer config, plugin directories, and
// the backups root.
package paths
