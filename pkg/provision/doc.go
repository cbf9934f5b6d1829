// Package provision runs the full sequential provisioning pass:
// detect the platform, verify the package-manager precondition,
// converge every catalog tool, then apply the config edits. Steps run
// strictly one after another; a failed step is reported and skipped,
// never retried. Re-running the provisioner is the recovery path,
// which is why every step is idempotent.
package provision
