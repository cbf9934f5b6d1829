// Package style renders the end-of-run report: per-step outcome
// lines, the backup directory, and the manual-steps panel.
package style

import (
	"github.com/pterm/pterm"

	"github.com/rigup/rigup/pkg/types"
)

// OutcomeStyle returns the pterm style for an outcome.
func OutcomeStyle(o types.Outcome) *pterm.Style {
	switch o {
	case types.OutcomeInstalled, types.OutcomeApplied:
		return pterm.NewStyle(pterm.FgGreen)
	case types.OutcomeAlreadyPresent, types.OutcomeUnchanged:
		return pterm.NewStyle(pterm.FgGray)
	case types.OutcomeManualQueued:
		return pterm.NewStyle(pterm.FgYellow)
	case types.OutcomePlanned:
		return pterm.NewStyle(pterm.FgCyan)
	case types.OutcomeFailed:
		return pterm.NewStyle(pterm.FgRed, pterm.Bold)
	default:
		return pterm.NewStyle(pterm.FgDefault)
	}
}

// OutcomeLabel returns the short label shown in the report line.
func OutcomeLabel(o types.Outcome) string {
	switch o {
	case types.OutcomeAlreadyPresent:
		return "present"
	case types.OutcomeInstalled:
		return "installed"
	case types.OutcomeApplied:
		return "applied"
	case types.OutcomeUnchanged:
		return "unchanged"
	case types.OutcomeManualQueued:
		return "manual"
	case types.OutcomePlanned:
		return "planned"
	case types.OutcomeFailed:
		return "failed"
	default:
		return string(o)
	}
}
