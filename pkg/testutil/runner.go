package testutil

import (
	"fmt"
	"strings"

	"github.com/rigup/rigup/pkg/types"
)

// FakeRunner is a scripted types.Runner. It records every invocation
// and answers from configured responses; unconfigured commands succeed
// with empty output.
type FakeRunner struct {
	// Binaries maps binary names to fake PATH locations for LookPath.
	Binaries map[string]string

	// Failures maps command prefixes (joined with spaces) to errors.
	// The longest matching prefix wins.
	Failures map[string]error

	// Outputs maps command prefixes to canned output.
	Outputs map[string]string

	// Commands records every Run invocation in order.
	Commands [][]string

	// OnRun, when set, is called after each recorded invocation so
	// tests can emulate the command's effect on the environment
	// (creating a cloned directory, putting a binary on PATH).
	OnRun func(cmd []string)
}

// NewFakeRunner creates a runner with the given binaries on its fake
// PATH.
func NewFakeRunner(binaries ...string) *FakeRunner {
	r := &FakeRunner{
		Binaries: make(map[string]string),
		Failures: make(map[string]error),
		Outputs:  make(map[string]string),
	}
	for _, b := range binaries {
		r.Binaries[b] = "/usr/bin/" + b
	}
	return r
}

// Run records the invocation and returns the scripted response.
func (r *FakeRunner) Run(name string, args ...string) (string, error) {
	cmd := append([]string{name}, args...)
	r.Commands = append(r.Commands, cmd)
	if r.OnRun != nil {
		r.OnRun(cmd)
	}

	joined := strings.Join(cmd, " ")
	var bestPrefix string
	var bestErr error
	for prefix, err := range r.Failures {
		if strings.HasPrefix(joined, prefix) && len(prefix) > len(bestPrefix) {
			bestPrefix = prefix
			bestErr = err
		}
	}
	out := ""
	for prefix, o := range r.Outputs {
		if strings.HasPrefix(joined, prefix) {
			out = o
			break
		}
	}
	return out, bestErr
}

// LookPath answers from the Binaries map.
func (r *FakeRunner) LookPath(name string) (string, error) {
	if path, ok := r.Binaries[name]; ok {
		return path, nil
	}
	return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
}

// RunCount returns how many commands whose joined form starts with
// prefix were executed.
func (r *FakeRunner) RunCount(prefix string) int {
	n := 0
	for _, cmd := range r.Commands {
		if strings.HasPrefix(strings.Join(cmd, " "), prefix) {
			n++
		}
	}
	return n
}

// Verify interface compliance
var _ types.Runner = (*FakeRunner)(nil)
