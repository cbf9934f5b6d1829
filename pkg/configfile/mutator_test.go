// pkg/configfile/mutator_test.go
// TEST TYPE: Unit Tests
// DEPENDENCIES: MemoryFS
// PURPOSE: Test idempotent config mutations and the backup invariant

package configfile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rigup/rigup/pkg/configfile"
	"github.com/rigup/rigup/pkg/errors"
	"github.com/rigup/rigup/pkg/testutil"
	"github.com/rigup/rigup/pkg/types"
)

const backupDir = "/backups/20240101-120000"

func TestAppendIfAbsent(t *testing.T) {
	t.Run("appends_block_to_existing_file", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "export PATH=$PATH\n")
		m := configfile.NewMutator(fs, nil, backupDir)

		changed, err := m.AppendIfAbsent("# rigup: aliases", "# rigup: aliases\nalias vim='nvim'", "/home/u/.zshrc", nil)
		require.NoError(t, err)
		assert.True(t, changed)

		content := testutil.ReadFile(t, fs, "/home/u/.zshrc")
		assert.Equal(t, "export PATH=$PATH\n\n# rigup: aliases\nalias vim='nvim'\n", content)
	})

	t.Run("second_apply_is_identical_to_first", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "export PATH=$PATH\n")
		m := configfile.NewMutator(fs, nil, backupDir)

		_, err := m.AppendIfAbsent("# rigup: aliases", "# rigup: aliases\nalias vim='nvim'", "/home/u/.zshrc", nil)
		require.NoError(t, err)
		once := testutil.ReadFile(t, fs, "/home/u/.zshrc")

		changed, err := m.AppendIfAbsent("# rigup: aliases", "# rigup: aliases\nalias vim='nvim'", "/home/u/.zshrc", nil)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, once, testutil.ReadFile(t, fs, "/home/u/.zshrc"))
	})

	t.Run("creates_missing_file", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		m := configfile.NewMutator(fs, nil, backupDir)

		changed, err := m.AppendIfAbsent("marker", "marker\nblock", "/home/u/.zshrc", nil)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Contains(t, testutil.ReadFile(t, fs, "/home/u/.zshrc"), "marker\nblock")
	})

	t.Run("snapshots_the_file_once_per_run", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "original\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformDebian, false)

		_, err := m.AppendIfAbsent("# a", "# a\nfirst", "/home/u/.zshrc", report)
		require.NoError(t, err)
		_, err = m.AppendIfAbsent("# b", "# b\nsecond", "/home/u/.zshrc", report)
		require.NoError(t, err)

		require.Len(t, report.Backups, 1, "one snapshot per file per run")
		assert.Equal(t, "original\n", testutil.ReadFile(t, fs, backupDir+"/.zshrc"))
	})

	t.Run("expands_home_prefix", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "x\n")
		expand := func(p string) string {
			if p == "~/.zshrc" {
				return "/home/u/.zshrc"
			}
			return p
		}
		m := configfile.NewMutator(fs, expand, backupDir)

		changed, err := m.AppendIfAbsent("m", "m", "~/.zshrc", nil)
		require.NoError(t, err)
		assert.True(t, changed)
	})
}

func TestBackupIfExists(t *testing.T) {
	t.Run("noop_for_missing_path", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformDebian, false)

		made, err := m.BackupIfExists("/home/u/.tmux.conf", report)
		require.NoError(t, err)
		assert.False(t, made)
		assert.False(t, testutil.Exists(fs, backupDir), "backup dir must be created lazily")
		assert.Empty(t, report.Backups)
	})

	t.Run("copies_file_into_run_directory", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.tmux.conf", "set -g mouse on\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformDebian, false)

		made, err := m.BackupIfExists("/home/u/.tmux.conf", report)
		require.NoError(t, err)
		assert.True(t, made)
		assert.Equal(t, "set -g mouse on\n", testutil.ReadFile(t, fs, backupDir+"/.tmux.conf"))
		assert.Equal(t, backupDir, report.BackupDir)
		require.Len(t, report.Backups, 1)
		assert.Equal(t, "/home/u/.tmux.conf", report.Backups[0].Original)
	})

	t.Run("never_overwrites_a_prior_backup", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.tmux.conf", "first\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformDebian, false)

		_, err := m.BackupIfExists("/home/u/.tmux.conf", report)
		require.NoError(t, err)

		testutil.WriteFile(t, fs, "/home/u/.tmux.conf", "second\n")
		_, err = m.BackupIfExists("/home/u/.tmux.conf", report)
		require.NoError(t, err)

		assert.Equal(t, "first\n", testutil.ReadFile(t, fs, backupDir+"/.tmux.conf"))
		assert.Equal(t, "second\n", testutil.ReadFile(t, fs, backupDir+"/.tmux.conf.1"))
	})

	t.Run("copies_directory_trees", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.config/nvim/init.lua", "require('core')\n")
		testutil.WriteFile(t, fs, "/home/u/.config/nvim/lua/core.lua", "return {}\n")
		m := configfile.NewMutator(fs, nil, backupDir)

		made, err := m.BackupIfExists("/home/u/.config/nvim", types.NewReport(types.PlatformMacOS, false))
		require.NoError(t, err)
		assert.True(t, made)
		assert.Equal(t, "require('core')\n", testutil.ReadFile(t, fs, backupDir+"/nvim/init.lua"))
		assert.Equal(t, "return {}\n", testutil.ReadFile(t, fs, backupDir+"/nvim/lua/core.lua"))
	})
}

func TestReplaceLineIfMatched(t *testing.T) {
	t.Run("replaces_matching_line", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "# config\nZSH_THEME=\"robbyrussell\"\nplugins=(git)\n")
		m := configfile.NewMutator(fs, nil, backupDir)

		changed, err := m.ReplaceLineIfMatched(`^ZSH_THEME=".*"$`, `ZSH_THEME="agnoster"`, "/home/u/.zshrc", nil)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, "# config\nZSH_THEME=\"agnoster\"\nplugins=(git)\n",
			testutil.ReadFile(t, fs, "/home/u/.zshrc"))
	})

	t.Run("reapply_is_a_noop", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/home/u/.zshrc", "ZSH_THEME=\"agnoster\"\n")
		m := configfile.NewMutator(fs, nil, backupDir)

		changed, err := m.ReplaceLineIfMatched(`^ZSH_THEME=".*"$`, `ZSH_THEME="agnoster"`, "/home/u/.zshrc", nil)
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("missing_file_is_reported", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		m := configfile.NewMutator(fs, nil, backupDir)

		_, err := m.ReplaceLineIfMatched(`^x$`, "y", "/home/u/.zshrc", nil)
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
	})
}

func TestInstallSymlinkOrCopy(t *testing.T) {
	t.Run("creates_link_when_target_missing", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/nvim/init.lua", "-- init\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformMacOS, false)

		outcome, err := m.InstallSymlinkOrCopy("/src/nvim", "/home/u/.config/nvim", types.LinkModeSymlink, report)
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeApplied, outcome)
		testutil.IsSymlinkTo(t, fs, "/home/u/.config/nvim", "/src/nvim")
	})

	t.Run("correct_link_is_a_noop_with_zero_mutations", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/nvim/init.lua", "-- init\n")
		testutil.MkdirAll(t, fs, "/home/u/.config")
		require.NoError(t, fs.Symlink("/src/nvim", "/home/u/.config/nvim"))
		m := configfile.NewMutator(fs, nil, backupDir)
		before := fs.Mutations()

		outcome, err := m.InstallSymlinkOrCopy("/src/nvim", "/home/u/.config/nvim", types.LinkModeSymlink, types.NewReport(types.PlatformMacOS, false))
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeUnchanged, outcome)
		assert.Equal(t, before, fs.Mutations(), "converged link must not touch the filesystem")
	})

	t.Run("wrong_link_is_backed_up_and_replaced", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/nvim/init.lua", "-- init\n")
		testutil.MkdirAll(t, fs, "/home/u/.config")
		require.NoError(t, fs.Symlink("/old/nvim", "/home/u/.config/nvim"))
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformMacOS, false)

		outcome, err := m.InstallSymlinkOrCopy("/src/nvim", "/home/u/.config/nvim", types.LinkModeSymlink, report)
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeApplied, outcome)
		testutil.IsSymlinkTo(t, fs, "/home/u/.config/nvim", "/src/nvim")
		require.Len(t, report.Backups, 1)
	})

	t.Run("plain_directory_is_backed_up_and_replaced", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/nvim/init.lua", "-- init\n")
		testutil.WriteFile(t, fs, "/home/u/.config/nvim/init.lua", "-- old\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		report := types.NewReport(types.PlatformMacOS, false)

		outcome, err := m.InstallSymlinkOrCopy("/src/nvim", "/home/u/.config/nvim", types.LinkModeSymlink, report)
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeApplied, outcome)
		testutil.IsSymlinkTo(t, fs, "/home/u/.config/nvim", "/src/nvim")
		assert.Equal(t, "-- old\n", testutil.ReadFile(t, fs, backupDir+"/nvim/init.lua"))
	})

	t.Run("copy_mode_seeds_missing_target", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/tmux/tmux.conf", "set -g mouse on\n")
		testutil.MkdirAll(t, fs, "/home/u")
		m := configfile.NewMutator(fs, nil, backupDir)

		outcome, err := m.InstallSymlinkOrCopy("/src/tmux/tmux.conf", "/home/u/.tmux.conf", types.LinkModeCopy, types.NewReport(types.PlatformMacOS, false))
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeApplied, outcome)
		assert.Equal(t, "set -g mouse on\n", testutil.ReadFile(t, fs, "/home/u/.tmux.conf"))
	})

	t.Run("copy_mode_keeps_local_edits", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		testutil.WriteFile(t, fs, "/src/tmux/tmux.conf", "set -g mouse on\n")
		testutil.WriteFile(t, fs, "/home/u/.tmux.conf", "set -g mouse on\nbind-key y run 'xclip'\n")
		m := configfile.NewMutator(fs, nil, backupDir)
		before := fs.Mutations()

		outcome, err := m.InstallSymlinkOrCopy("/src/tmux/tmux.conf", "/home/u/.tmux.conf", types.LinkModeCopy, types.NewReport(types.PlatformMacOS, false))
		require.NoError(t, err)
		assert.Equal(t, types.OutcomeUnchanged, outcome)
		assert.Equal(t, "set -g mouse on\nbind-key y run 'xclip'\n", testutil.ReadFile(t, fs, "/home/u/.tmux.conf"))
		assert.Equal(t, before, fs.Mutations())
	})

	t.Run("missing_source_is_reported_not_fatal", func(t *testing.T) {
		fs := testutil.NewMemoryFS()
		m := configfile.NewMutator(fs, nil, backupDir)

		outcome, err := m.InstallSymlinkOrCopy("/src/missing", "/home/u/.config/nvim", types.LinkModeSymlink, types.NewReport(types.PlatformMacOS, false))
		require.Error(t, err)
		assert.Equal(t, types.OutcomeFailed, outcome)
		assert.True(t, errors.IsErrorCode(err, errors.ErrSourceMissing))
	})
}
