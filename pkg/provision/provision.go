package provision

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/rigup/rigup/pkg/catalog"
	"github.com/rigup/rigup/pkg/config"
	"github.com/rigup/rigup/pkg/configfile"
	"github.com/rigup/rigup/pkg/installer"
	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/paths"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/types"
)

// Provisioner wires the prober, dispatcher, and mutator together for
// one run.
type Provisioner struct {
	fs       types.FS
	runner   types.Runner
	paths    paths.Paths
	settings *config.Settings
	catalog  *catalog.Catalog
	platform types.Platform

	// envShell is the user's current login shell ($SHELL), consulted
	// for the default-shell follow-up.
	envShell string

	// now stamps the run; split out for tests that pin the backup
	// directory name.
	now func() time.Time
}

// WithClock overrides the run's timestamp source. Tests use it to pin
// the backup directory stamp.
func (p *Provisioner) WithClock(now func() time.Time) *Provisioner {
	p.now = now
	return p
}

// New creates a provisioner for the detected platform.
func New(fsys types.FS, runner types.Runner, p paths.Paths, settings *config.Settings, cat *catalog.Catalog, plat types.Platform, envShell string) *Provisioner {
	return &Provisioner{
		fs:       fsys,
		runner:   runner,
		paths:    p,
		settings: settings,
		catalog:  cat,
		platform: plat,
		envShell: envShell,
		now:      time.Now,
	}
}

// Run executes the whole provisioning sequence and returns the run
// report. The only fatal condition is a missing required package
// manager, surfaced as the returned error before any other step has
// run; everything else is absorbed into the report.
func (p *Provisioner) Run(dryRun bool) (*types.Report, error) {
	logger := logging.GetLogger("provision")
	done := logging.LogOperationStart(logger, "provision run")
	defer done()

	report := types.NewReport(p.platform, dryRun)
	report.StartedAt = p.now()

	prober := platform.NewProber(p.fs, p.runner, p.paths.Expand)
	inst := installer.New(p.fs, p.runner, prober, p.platform, p.paths.Expand, dryRun)

	// Fatal precondition first: without the platform's package manager
	// there is nothing useful a degraded run could do.
	if err := inst.CheckManager(); err != nil {
		logger.Error().Err(err).Msg("package manager precondition failed")
		return report, err
	}

	for _, tool := range p.catalog.Tools {
		inst.EnsureInstalled(tool, report)
	}

	mutator := configfile.NewMutator(p.fs, p.paths.Expand, p.backupDir(report.StartedAt))

	for _, link := range p.catalog.Links {
		p.applyLink(mutator, link, report, dryRun)
	}
	for _, edit := range p.catalog.Appends {
		p.applyAppend(mutator, edit, report, dryRun)
	}
	for _, line := range p.catalog.Lines {
		p.applyLine(mutator, prober, line, report, dryRun)
	}

	p.checkDefaultShell(report)

	logger.Info().
		Int("steps", len(report.Results)).
		Int("manual", len(report.ManualSteps)).
		Int("backups", len(report.Backups)).
		Msg("run complete")

	return report, nil
}

// backupDir resolves the run's backup directory, honoring the
// settings override of the backups root.
func (p *Provisioner) backupDir(startedAt time.Time) string {
	if root := p.settings.Core.BackupsDir; root != "" {
		return filepath.Join(p.paths.Expand(root), startedAt.Format(paths.BackupStampFormat))
	}
	return p.paths.RunBackupDir(startedAt)
}

func (p *Provisioner) applyLink(m *configfile.Mutator, link types.LinkEdit, report *types.Report, dryRun bool) {
	logger := logging.GetLogger("provision")

	if dryRun {
		report.AddResult(types.StepResult{
			Name:    link.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomePlanned,
			Detail:  link.Target + " from " + link.Source,
		})
		return
	}

	outcome, err := m.InstallSymlinkOrCopy(link.Source, link.Target, link.Mode, report)
	if err != nil {
		// Non-fatal: this file's setup is skipped, the run continues.
		logger.Error().Err(err).Str("target", link.Target).Msg("link step failed")
	}
	report.AddResult(types.StepResult{
		Name:    link.Description,
		Kind:    types.StepConfig,
		Outcome: outcome,
		Detail:  link.Target,
		Err:     err,
	})
}

func (p *Provisioner) applyAppend(m *configfile.Mutator, edit types.ConfigEdit, report *types.Report, dryRun bool) {
	logger := logging.GetLogger("provision")

	if dryRun {
		report.AddResult(types.StepResult{
			Name:    edit.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomePlanned,
			Detail:  edit.File,
		})
		return
	}

	changed, err := m.AppendIfAbsent(edit.Marker, edit.Block, edit.File, report)
	outcome := types.OutcomeUnchanged
	switch {
	case err != nil:
		outcome = types.OutcomeFailed
		logger.Error().Err(err).Str("file", edit.File).Msg("append step failed")
	case changed:
		outcome = types.OutcomeApplied
	}
	report.AddResult(types.StepResult{
		Name:    edit.Description,
		Kind:    types.StepConfig,
		Outcome: outcome,
		Detail:  edit.File,
		Err:     err,
	})
}

// applyLine converges a single-line setting. Only single-line
// plugins/theme entries are supported: when the anchored pattern finds
// nothing to rewrite and the desired line is not present either, the
// file is in a shape we refuse to guess at and a manual step is
// queued instead.
func (p *Provisioner) applyLine(m *configfile.Mutator, prober *platform.Prober, line types.LineEdit, report *types.Report, dryRun bool) {
	logger := logging.GetLogger("provision")

	if prober.Satisfied(types.FileContainsCheck(line.File, line.Replacement)) {
		report.AddResult(types.StepResult{
			Name:    line.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomeUnchanged,
			Detail:  line.File,
		})
		return
	}

	if dryRun {
		report.AddResult(types.StepResult{
			Name:    line.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomePlanned,
			Detail:  line.File,
		})
		return
	}

	changed, err := m.ReplaceLineIfMatched(line.Pattern, line.Replacement, line.File, report)
	switch {
	case err != nil:
		logger.Error().Err(err).Str("file", line.File).Msg("line edit failed")
		report.AddResult(types.StepResult{
			Name:    line.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomeFailed,
			Detail:  line.File,
			Err:     err,
		})
	case changed:
		report.AddResult(types.StepResult{
			Name:    line.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomeApplied,
			Detail:  line.File,
		})
	default:
		instruction := "set " + line.Replacement + " in " + line.File + " by hand (no single-line entry found)"
		report.QueueManual(line.Description, instruction)
		report.AddResult(types.StepResult{
			Name:    line.Description,
			Kind:    types.StepConfig,
			Outcome: types.OutcomeManualQueued,
			Detail:  line.File,
		})
	}
}

// checkDefaultShell queues a follow-up when the login shell is not
// zsh. Changing it needs the user's password, so it is never
// automated.
func (p *Provisioner) checkDefaultShell(report *types.Report) {
	if p.envShell == "" || strings.Contains(filepath.Base(p.envShell), "zsh") {
		return
	}
	report.QueueManual("zsh", "make zsh the login shell: chsh -s $(which zsh)")
}
