package installer

import (
	"fmt"

	"github.com/rigup/rigup/pkg/errors"
	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/platform"
	"github.com/rigup/rigup/pkg/types"
)

// Installer dispatches installation actions for one detected platform.
type Installer struct {
	fs       types.FS
	runner   types.Runner
	prober   *platform.Prober
	platform types.Platform
	expand   func(string) string
	dryRun   bool
}

// New creates an installer. expand resolves ~ prefixes in clone and
// guard directories; nil means paths are used as-is.
func New(fsys types.FS, runner types.Runner, prober *platform.Prober, plat types.Platform, expand func(string) string, dryRun bool) *Installer {
	if expand == nil {
		expand = func(s string) string { return s }
	}
	return &Installer{
		fs:       fsys,
		runner:   runner,
		prober:   prober,
		platform: plat,
		expand:   expand,
		dryRun:   dryRun,
	}
}

// CheckManager verifies the fatal precondition: a platform that has a
// package-manager mapping must have that manager on PATH. Without it
// the provisioner cannot proceed and must stop before attempting any
// degraded installs. Platforms without a mapping pass trivially.
func (i *Installer) CheckManager() error {
	m, ok := managerFor(i.platform)
	if !ok {
		return nil
	}
	if _, err := i.runner.LookPath(m.binary); err != nil {
		return errors.Newf(errors.ErrManagerMissing,
			"required package manager %q is not installed; install it and re-run", m.binary).
			WithDetail("platform", i.platform.String())
	}
	return nil
}

// EnsureInstalled converges one tool onto its installed state and
// records the step result on the report. Failures are absorbed into
// the report; the caller continues with the next tool.
func (i *Installer) EnsureInstalled(tool types.ToolSpec, report *types.Report) types.Outcome {
	logger := logging.GetLogger("installer")

	if i.prober.Satisfied(tool.Check) {
		logger.Debug().Str("tool", tool.Name).Msg("already present")
		return i.record(report, tool.Name, types.OutcomeAlreadyPresent, "", nil)
	}

	if pkg, ok := tool.Packages[i.platform]; ok {
		return i.installPackage(tool, pkg, report)
	}
	if tool.Clone != nil {
		return i.installClone(tool, report)
	}
	if tool.Script != nil {
		return i.installScript(tool, report)
	}

	instruction := tool.Manual
	if instruction == "" {
		instruction = fmt.Sprintf("install %s manually (no automated path for %s)", tool.Name, i.platform)
	}
	report.QueueManual(tool.Name, instruction)
	logger.Info().Str("tool", tool.Name).Msg("queued manual step")
	return i.record(report, tool.Name, types.OutcomeManualQueued, instruction, nil)
}

// installPackage installs through the platform package manager.
func (i *Installer) installPackage(tool types.ToolSpec, pkg string, report *types.Report) types.Outcome {
	logger := logging.GetLogger("installer")

	m, ok := managerFor(i.platform)
	if !ok {
		// A package mapping without a manager is a spec mistake; fall
		// to the manual path rather than fail the run.
		instruction := fmt.Sprintf("install package %q for %s manually", pkg, tool.Name)
		report.QueueManual(tool.Name, instruction)
		return i.record(report, tool.Name, types.OutcomeManualQueued, instruction, nil)
	}

	// The manager-level query catches tools whose presence check is
	// platform-specific and missed an existing install.
	if m.installed(i.runner, pkg) {
		logger.Debug().Str("tool", tool.Name).Str("pkg", pkg).Msg("package already installed")
		return i.record(report, tool.Name, types.OutcomeAlreadyPresent, "package "+pkg, nil)
	}

	if i.dryRun {
		return i.record(report, tool.Name, types.OutcomePlanned, fmt.Sprintf("would install package %s via %s", pkg, m.binary), nil)
	}

	out, err := m.install(i.runner, pkg)
	if err != nil {
		logger.Error().Err(err).Str("tool", tool.Name).Str("pkg", pkg).Str("output", out).
			Msg("package install failed")
		werr := errors.Wrapf(err, errors.ErrInstallFailed, "%s install %s failed", m.binary, pkg)
		return i.record(report, tool.Name, types.OutcomeFailed, out, werr)
	}

	logger.Info().Str("tool", tool.Name).Str("pkg", pkg).Msg("installed package")
	return i.record(report, tool.Name, types.OutcomeInstalled, "package "+pkg, nil)
}

// installClone clones a git repository into its fixed directory.
// The directory's existence is the reinstallation guard.
func (i *Installer) installClone(tool types.ToolSpec, report *types.Report) types.Outcome {
	logger := logging.GetLogger("installer")

	dir := i.expand(tool.Clone.Dir)
	if info, err := i.fs.Stat(dir); err == nil && info.IsDir() {
		logger.Debug().Str("tool", tool.Name).Str("dir", dir).Msg("clone target already exists")
		return i.record(report, tool.Name, types.OutcomeAlreadyPresent, dir, nil)
	}

	if i.dryRun {
		return i.record(report, tool.Name, types.OutcomePlanned,
			fmt.Sprintf("would clone %s into %s", tool.Clone.RepoURL, dir), nil)
	}

	args := []string{"clone"}
	if tool.Clone.Depth > 0 {
		args = append(args, "--depth", fmt.Sprintf("%d", tool.Clone.Depth))
	}
	args = append(args, tool.Clone.RepoURL, dir)

	out, err := i.runner.Run("git", args...)
	if err != nil {
		logger.Error().Err(err).Str("tool", tool.Name).Str("repo", tool.Clone.RepoURL).Str("output", out).
			Msg("git clone failed")
		werr := errors.Wrapf(err, errors.ErrCloneFailed, "git clone %s failed", tool.Clone.RepoURL)
		return i.record(report, tool.Name, types.OutcomeFailed, out, werr)
	}

	logger.Info().Str("tool", tool.Name).Str("dir", dir).Msg("cloned")
	return i.record(report, tool.Name, types.OutcomeInstalled, "cloned into "+dir, nil)
}

// installScript fetches and executes a vendor install script.
func (i *Installer) installScript(tool types.ToolSpec, report *types.Report) types.Outcome {
	logger := logging.GetLogger("installer")

	if tool.Script.GuardDir != "" {
		guard := i.expand(tool.Script.GuardDir)
		if info, err := i.fs.Stat(guard); err == nil && info.IsDir() {
			logger.Debug().Str("tool", tool.Name).Str("dir", guard).Msg("script guard dir already exists")
			return i.record(report, tool.Name, types.OutcomeAlreadyPresent, guard, nil)
		}
	}

	if i.dryRun {
		return i.record(report, tool.Name, types.OutcomePlanned,
			"would run install script "+tool.Script.URL, nil)
	}

	shell := tool.Script.Shell
	if shell == "" {
		shell = "sh"
	}

	out, err := i.runner.Run("sh", "-c",
		fmt.Sprintf("curl -fsSL %s | %s", tool.Script.URL, shell))
	if err != nil {
		logger.Error().Err(err).Str("tool", tool.Name).Str("url", tool.Script.URL).Str("output", out).
			Msg("install script failed")
		werr := errors.Wrapf(err, errors.ErrScriptFailed, "install script %s failed", tool.Script.URL)
		return i.record(report, tool.Name, types.OutcomeFailed, out, werr)
	}

	logger.Info().Str("tool", tool.Name).Msg("install script completed")
	return i.record(report, tool.Name, types.OutcomeInstalled, "ran "+tool.Script.URL, nil)
}

func (i *Installer) record(report *types.Report, name string, outcome types.Outcome, detail string, err error) types.Outcome {
	report.AddResult(types.StepResult{
		Name:    name,
		Kind:    types.StepInstall,
		Outcome: outcome,
		Detail:  detail,
		Err:     err,
	})
	return outcome
}
