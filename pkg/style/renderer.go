package style

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rigup/rigup/pkg/types"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).MarginTop(1)
	mutedStyle = lipgloss.NewStyle().Faint(true)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("3")).
			Padding(0, 1).
			MarginTop(1)
)

// RenderReport renders the final human-readable run report.
func RenderReport(report *types.Report) string {
	var sb strings.Builder

	header := fmt.Sprintf("rigup on %s", report.Platform)
	if report.DryRun {
		header += " (dry run)"
	}
	sb.WriteString(titleStyle.Render(header) + "\n\n")

	for _, res := range report.Results {
		sb.WriteString(renderResult(res) + "\n")
	}

	sb.WriteString("\n" + renderSummary(report) + "\n")

	if report.BackupDir != "" && len(report.Backups) > 0 {
		sb.WriteString(mutedStyle.Render(
			fmt.Sprintf("replaced files archived in %s", report.BackupDir)) + "\n")
	}

	if len(report.ManualSteps) > 0 {
		sb.WriteString(renderManualSteps(report.ManualSteps) + "\n")
	}

	return sb.String()
}

func renderResult(res types.StepResult) string {
	label := OutcomeStyle(res.Outcome).Sprintf("%-10s", OutcomeLabel(res.Outcome))
	line := fmt.Sprintf("  %s %s", label, res.Name)
	if res.Detail != "" {
		line += " " + mutedStyle.Render(res.Detail)
	}
	return line
}

func renderSummary(report *types.Report) string {
	parts := []string{}
	add := func(o types.Outcome, noun string) {
		if n := report.CountOutcome(o); n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, noun))
		}
	}
	add(types.OutcomeInstalled, "installed")
	add(types.OutcomeApplied, "applied")
	add(types.OutcomeAlreadyPresent, "already present")
	add(types.OutcomeUnchanged, "unchanged")
	add(types.OutcomePlanned, "planned")
	add(types.OutcomeManualQueued, "manual")
	add(types.OutcomeFailed, "failed")

	if len(parts) == 0 {
		return mutedStyle.Render("nothing to do")
	}
	return strings.Join(parts, ", ")
}

func renderManualSteps(steps []types.ManualStep) string {
	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("Manual follow-ups") + "\n")
	for i, step := range steps {
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, step.Tool, step.Instruction))
	}
	return panelStyle.Render(strings.TrimRight(sb.String(), "\n"))
}
