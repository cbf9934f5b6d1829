package installer

import (
	"os/exec"
	"strings"

	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/types"
)

// ExecRunner runs commands on the host through os/exec.
type ExecRunner struct{}

// NewExecRunner creates the production runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command and returns its combined output. The
// command inherits the process environment; nothing times out or is
// retried here, a failed step is reported and skipped by the caller.
func (r *ExecRunner) Run(name string, args ...string) (string, error) {
	logging.LogCommand(name, args)
	out, err := exec.Command(name, args...).CombinedOutput()
	return strings.TrimSpace(string(out)), err
}

// LookPath reports the location of a binary on PATH.
func (r *ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Verify interface compliance
var _ types.Runner = (*ExecRunner)(nil)
