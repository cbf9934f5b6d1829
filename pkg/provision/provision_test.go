// pkg/provision/provision_test.go
// TEST TYPE: Integration Tests (in-memory)
// DEPENDENCIES: MemoryFS, FakeRunner
// PURPOSE: Test the full provisioning sequence end to end: convergence
// on a second run, the fatal manager precondition, dry-run, and the
// manual-step fallbacks

package provision_test

import (
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigup/rigup/pkg/catalog"
	"github.com/rigup/rigup/pkg/config"
	"github.com/rigup/rigup/pkg/errors"
	"github.com/rigup/rigup/pkg/paths"
	"github.com/rigup/rigup/pkg/provision"
	"github.com/rigup/rigup/pkg/testutil"
	"github.com/rigup/rigup/pkg/types"
)

// fakePaths pins every path under a fixed fake home and source tree.
type fakePaths struct {
	home string
	src  string
}

func (f fakePaths) SourceRoot() string      { return f.src }
func (f fakePaths) UsedFallback() bool      { return false }
func (f fakePaths) HomeDir() string         { return f.home }
func (f fakePaths) DataDir() string         { return f.home + "/.local/share/rigup" }
func (f fakePaths) ConfigDir() string       { return f.home + "/.config/rigup" }
func (f fakePaths) StateDir() string        { return f.home + "/.local/state/rigup" }
func (f fakePaths) SettingsPath() string    { return f.ConfigDir() + "/rigup.toml" }
func (f fakePaths) BackupsRoot() string     { return f.DataDir() + "/backups" }
func (f fakePaths) ShellRC() string         { return f.home + "/.zshrc" }
func (f fakePaths) TmuxConf() string        { return f.home + "/.tmux.conf" }
func (f fakePaths) OhMyZshDir() string      { return f.home + "/.oh-my-zsh" }
func (f fakePaths) TmuxPluginsDir() string  { return f.home + "/.tmux/plugins/tpm" }
func (f fakePaths) EditorConfigDir() string { return f.home + "/.config/nvim" }
func (f fakePaths) SourceEditorDir() string { return f.src + "/nvim" }
func (f fakePaths) SourceTmuxConf() string  { return f.src + "/tmux/tmux.conf" }
func (f fakePaths) LogFilePath() string     { return f.StateDir() + "/rigup.log" }

func (f fakePaths) RunBackupDir(stamp time.Time) string {
	return f.BackupsRoot() + "/" + stamp.Format(paths.BackupStampFormat)
}

func (f fakePaths) Expand(path string) string {
	if path == "~" {
		return f.home
	}
	if strings.HasPrefix(path, "~/") {
		return f.home + path[1:]
	}
	return path
}

var _ paths.Paths = fakePaths{}

func testSettings() *config.Settings {
	return &config.Settings{
		Core: config.CoreSettings{
			Theme:      "agnoster",
			ZshPlugins: []string{"git", "z", "zsh-autosuggestions"},
		},
	}
}

// packageBinaries maps catalog package names to the binary an install
// puts on PATH, so OnRun can emulate a converging environment.
var packageBinaries = map[string]string{
	"git": "git", "zsh": "zsh", "tmux": "tmux", "neovim": "nvim",
	"ripgrep": "rg", "fd-find": "fd", "fd": "fd", "fzf": "fzf",
}

// convergingRunner wires OnRun so every install command has its real
// effect on the fake environment: packages land on PATH, clones and
// scripts create their directories.
func convergingRunner(fs *testutil.MemoryFS, p fakePaths, binaries ...string) *testutil.FakeRunner {
	runner := testutil.NewFakeRunner(binaries...)
	runner.OnRun = func(cmd []string) {
		switch {
		case cmd[0] == "sudo" && cmd[1] == "apt-get" && cmd[2] == "install":
			pkg := cmd[len(cmd)-1]
			if bin, ok := packageBinaries[pkg]; ok {
				runner.Binaries[bin] = "/usr/bin/" + bin
			}
		case cmd[0] == "git" && cmd[1] == "clone":
			_ = fs.MkdirAll(cmd[len(cmd)-1], 0755)
		case cmd[0] == "sh" && strings.Contains(cmd[2], "ohmyzsh"):
			_ = fs.MkdirAll(p.OhMyZshDir(), 0755)
		case cmd[0] == "sh" && strings.Contains(cmd[2], "nvm"):
			_ = fs.MkdirAll(p.Expand("~/.nvm"), 0755)
		}
	}
	return runner
}

func seedDebianHost(t *testing.T, fs *testutil.MemoryFS, p fakePaths) {
	t.Helper()
	testutil.WriteFile(t, fs, p.SourceEditorDir()+"/init.lua", "-- init\n")
	testutil.WriteFile(t, fs, p.SourceTmuxConf(), "set -g mouse on\n")
	testutil.WriteFile(t, fs, p.ShellRC(),
		"export PATH=$PATH\nZSH_THEME=\"robbyrussell\"\nplugins=(git)\n")
}

func TestRunConvergesOnSecondPass(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)

	runner := convergingRunner(fs, p, "apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")

	settings := testSettings()
	cat := catalog.New(p, settings)

	// First pass: everything missing gets installed and configured.
	first, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/bash").Run(false)
	require.NoError(t, err)

	assert.False(t, first.HasFailures())
	assert.Equal(t, 11, first.CountOutcome(types.OutcomeInstalled),
		"six packages, three clones, two scripts")
	assert.Equal(t, 1, first.CountOutcome(types.OutcomeAlreadyPresent), "git was already on PATH")
	assert.Equal(t, 1, first.CountOutcome(types.OutcomeManualQueued), "lazygit has no debian package")

	// 5 config steps applied: two links, three appends; plus 2 line edits.
	assert.Equal(t, 7, first.CountOutcome(types.OutcomeApplied))

	assert.Contains(t, testutil.ReadFile(t, fs, p.ShellRC()), catalog.MarkerAliases)
	assert.Contains(t, testutil.ReadFile(t, fs, p.ShellRC()), `ZSH_THEME="agnoster"`)
	assert.Contains(t, testutil.ReadFile(t, fs, p.ShellRC()), "plugins=(git z zsh-autosuggestions)")
	assert.Contains(t, testutil.ReadFile(t, fs, p.TmuxConf()), catalog.MarkerTPMRun)
	testutil.IsSymlinkTo(t, fs, p.EditorConfigDir(), p.SourceEditorDir())

	// lazygit install plus the login-shell change.
	require.Len(t, first.ManualSteps, 2)
	assert.Equal(t, "lazygit", first.ManualSteps[0].Tool)
	assert.Contains(t, first.ManualSteps[1].Instruction, "chsh")

	// Second pass: every guard holds, nothing runs, nothing changes.
	commands := len(runner.Commands)
	mutations := fs.Mutations()

	second, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/bash").Run(false)
	require.NoError(t, err)

	assert.False(t, second.HasFailures())
	assert.Zero(t, second.CountOutcome(types.OutcomeInstalled))
	assert.Zero(t, second.CountOutcome(types.OutcomeApplied))
	assert.Equal(t, 12, second.CountOutcome(types.OutcomeAlreadyPresent))
	assert.Equal(t, 7, second.CountOutcome(types.OutcomeUnchanged))

	assert.Equal(t, commands, len(runner.Commands), "no command may run on a converged host")
	assert.Equal(t, mutations, fs.Mutations(), "no file may change on a converged host")
}

func TestRunAbortsWhenManagerMissing(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)

	runner := testutil.NewFakeRunner() // no brew
	settings := testSettings()
	cat := catalog.New(p, settings)
	mutations := fs.Mutations()

	report, err := provision.New(fs, runner, p, settings, cat, types.PlatformMacOS, "/bin/zsh").Run(false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrManagerMissing))

	// Aborted before any step: no results, no commands, no writes.
	assert.Empty(t, report.Results)
	assert.Empty(t, report.ManualSteps)
	assert.Empty(t, runner.Commands)
	assert.Equal(t, mutations, fs.Mutations())
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)

	runner := testutil.NewFakeRunner("apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")
	settings := testSettings()
	cat := catalog.New(p, settings)
	mutations := fs.Mutations()

	report, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/bash").Run(true)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 18, report.CountOutcome(types.OutcomePlanned),
		"eleven installs and seven config steps previewed")
	assert.Equal(t, mutations, fs.Mutations())
	assert.Zero(t, runner.RunCount("sudo"))
	assert.Zero(t, runner.RunCount("git clone"))
	assert.Zero(t, runner.RunCount("sh -c"))
}

func TestRunQueuesManualWhenLineAnchorMissing(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	testutil.WriteFile(t, fs, p.SourceEditorDir()+"/init.lua", "-- init\n")
	testutil.WriteFile(t, fs, p.SourceTmuxConf(), "set -g mouse on\n")
	// An rc file with no theme or plugin line to anchor on.
	testutil.WriteFile(t, fs, p.ShellRC(), "export PATH=$PATH\n")

	runner := convergingRunner(fs, p, "apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")
	settings := testSettings()
	cat := catalog.New(p, settings)

	report, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/zsh").Run(false)
	require.NoError(t, err)

	// lazygit plus the two line edits that found nothing to anchor on.
	assert.Equal(t, 3, report.CountOutcome(types.OutcomeManualQueued))

	var lineSteps []types.ManualStep
	for _, s := range report.ManualSteps {
		if strings.Contains(s.Instruction, "by hand") {
			lineSteps = append(lineSteps, s)
		}
	}
	require.Len(t, lineSteps, 2)
	assert.Contains(t, lineSteps[0].Instruction, `ZSH_THEME="agnoster"`)
	assert.Contains(t, lineSteps[1].Instruction, "plugins=(git z zsh-autosuggestions)")
}

func TestRunSkipsShellFollowUpForZshUsers(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)

	runner := convergingRunner(fs, p, "apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")
	settings := testSettings()
	cat := catalog.New(p, settings)

	report, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/usr/bin/zsh").Run(false)
	require.NoError(t, err)

	for _, s := range report.ManualSteps {
		assert.NotContains(t, s.Instruction, "chsh")
	}
}

func TestRunHonorsBackupsDirOverride(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)
	// A stale editor config forces a backup during the link step.
	testutil.WriteFile(t, fs, p.EditorConfigDir()+"/init.vim", "set nocompatible\n")

	runner := convergingRunner(fs, p, "apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")
	settings := testSettings()
	settings.Core.BackupsDir = "~/custom-backups"
	cat := catalog.New(p, settings)

	report, err := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/zsh").Run(false)
	require.NoError(t, err)

	// The stale editor config and the rc file snapshot.
	require.Len(t, report.Backups, 2)
	assert.True(t, strings.HasPrefix(report.BackupDir, "/home/u/custom-backups/"),
		"backup dir %q must live under the override", report.BackupDir)
	assert.Equal(t, "set nocompatible\n",
		testutil.ReadFile(t, fs, report.BackupDir+"/nvim/init.vim"))
	assert.Equal(t, p.ShellRC(), report.Backups[1].Original)
}

func TestRunStampsBackupDirFromClock(t *testing.T) {
	p := fakePaths{home: "/home/u", src: "/src"}
	fs := testutil.NewMemoryFS()
	seedDebianHost(t, fs, p)
	// A stale editor config forces a backup during the link step.
	testutil.WriteFile(t, fs, p.EditorConfigDir()+"/init.vim", "set nocompatible\n")

	runner := convergingRunner(fs, p, "apt-get", "git")
	runner.Failures["dpkg -s"] = stderrors.New("not installed")
	settings := testSettings()
	cat := catalog.New(p, settings)

	stamp := time.Date(2024, 3, 9, 14, 30, 5, 0, time.UTC)
	prov := provision.New(fs, runner, p, settings, cat, types.PlatformDebian, "/bin/zsh").
		WithClock(func() time.Time { return stamp })

	report, err := prov.Run(false)
	require.NoError(t, err)

	assert.Equal(t, stamp, report.StartedAt)
	assert.Equal(t, p.RunBackupDir(stamp), report.BackupDir)
	assert.Equal(t, p.BackupsRoot()+"/20240309-143005", report.BackupDir)
}
