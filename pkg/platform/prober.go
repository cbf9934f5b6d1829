package platform

import (
	"strings"

	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/types"
)

// Prober evaluates existence checks without mutating anything, so the
// same check can guard an action before and after it runs.
type Prober struct {
	fs     types.FS
	runner types.Runner
	expand func(string) string
}

// NewProber creates a prober over the given filesystem and runner.
// expand resolves ~ prefixes in check paths; nil means paths are used
// as-is.
func NewProber(fsys types.FS, runner types.Runner, expand func(string) string) *Prober {
	if expand == nil {
		expand = func(s string) string { return s }
	}
	return &Prober{fs: fsys, runner: runner, expand: expand}
}

// Satisfied reports whether the desired end state described by check
// already holds. Missing files and unreadable paths report false,
// never an error.
func (p *Prober) Satisfied(check types.Check) bool {
	logger := logging.GetLogger("platform.prober")

	switch check.Kind {
	case types.CheckBinary:
		_, err := p.runner.LookPath(check.Name)
		return err == nil

	case types.CheckDir:
		info, err := p.fs.Stat(p.expand(check.Path))
		return err == nil && info.IsDir()

	case types.CheckFileContains:
		data, err := p.fs.ReadFile(p.expand(check.Path))
		if err != nil {
			return false
		}
		return strings.Contains(string(data), check.Marker)

	default:
		logger.Warn().Str("kind", string(check.Kind)).Msg("unknown check kind")
		return false
	}
}
