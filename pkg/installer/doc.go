// Package installer implements the action dispatcher: given a tool
// specification and the detected platform it selects and runs the
// correct installation strategy (package manager, git clone, or
// vendor install script), queuing a manual step when no automated
// path exists. Every strategy is guarded by an existence check so the
// whole dispatch is idempotent.
package installer
