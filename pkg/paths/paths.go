package paths

import (
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/mitchellh/go-homedir"
	"github.com/rigup/rigup/pkg/errors"
)

// Environment variable names
const (
	// EnvSourceRoot is the primary environment variable for the
	// bundled dotfiles source tree rigup links configs out of.
	EnvSourceRoot = "RIGUP_SOURCE_ROOT"

	// EnvDataDir overrides the XDG data directory for rigup
	EnvDataDir = "RIGUP_DATA_DIR"

	// EnvConfigDir overrides the XDG config directory for rigup
	EnvConfigDir = "RIGUP_CONFIG_DIR"

	// EnvBackupsDir overrides the backups root
	EnvBackupsDir = "RIGUP_BACKUPS_DIR"

	// EnvHome is the standard home directory variable
	EnvHome = "HOME"
)

// Well-known names and files
// IMPORTANT: these constants define rigup's own directory structure and
// are NOT user-configurable. User-configurable paths belong in pkg/config.
const (
	// RigupDirName is the directory name for rigup-specific files
	RigupDirName = "rigup"

	// BackupsDirName is the subdirectory under the data dir holding
	// per-run backup directories
	BackupsDirName = "backups"

	// BackupStampFormat names one run's backup directory
	BackupStampFormat = "20060102-150405"

	// SettingsFile is the name of the user settings file
	SettingsFile = "rigup.toml"

	// LogFileName is the name of the log file
	LogFileName = "rigup.log"
)

// Paths provides centralized path management for rigup
type Paths interface {
	SourceRoot() string
	UsedFallback() bool
	HomeDir() string
	DataDir() string
	ConfigDir() string
	StateDir() string
	SettingsPath() string
	BackupsRoot() string
	RunBackupDir(stamp time.Time) string
	ShellRC() string
	TmuxConf() string
	OhMyZshDir() string
	TmuxPluginsDir() string
	EditorConfigDir() string
	SourceEditorDir() string
	SourceTmuxConf() string
	LogFilePath() string
	Expand(path string) string
}

type paths struct {
	sourceRoot   string
	home         string
	xdgData      string
	xdgConfig    string
	xdgState     string
	backupsRoot  string
	usedFallback bool
}

// New creates a new Paths instance with the given source root.
// If sourceRoot is empty it is resolved from RIGUP_SOURCE_ROOT, then
// ~/.dotfiles, then the current working directory as a last resort.
func New(sourceRoot string) (Paths, error) {
	home, err := homedir.Dir()
	if err != nil {
		// Fall back to the HOME variable before giving up
		if home = os.Getenv(EnvHome); home == "" {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to resolve home directory")
		}
	}

	p := &paths{home: home}

	if sourceRoot == "" {
		root, usedFallback := findSourceRoot(home)
		p.sourceRoot = root
		p.usedFallback = usedFallback
	} else {
		p.sourceRoot = p.expand(sourceRoot)
	}

	absRoot, err := filepath.Abs(p.sourceRoot)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "failed to get absolute path for source root")
	}
	p.sourceRoot = absRoot

	p.setupXDGDirs()
	p.setupBackupsRoot()

	return p, nil
}

// findSourceRoot determines the bundled dotfiles source using:
// 1. RIGUP_SOURCE_ROOT (if set)
// 2. ~/.dotfiles (if it exists)
// 3. Current working directory (fallback, flagged for a warning)
func findSourceRoot(home string) (string, bool) {
	if root := os.Getenv(EnvSourceRoot); root != "" {
		return expandWithHome(root, home), false
	}

	defaultRoot := filepath.Join(home, ".dotfiles")
	if info, err := os.Stat(defaultRoot); err == nil && info.IsDir() {
		return defaultRoot, false
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultRoot, true
	}
	return cwd, true
}

// setupXDGDirs initializes XDG directories, respecting environment overrides
func (p *paths) setupXDGDirs() {
	if dataDir := os.Getenv(EnvDataDir); dataDir != "" {
		p.xdgData = p.expand(dataDir)
	} else {
		p.xdgData = filepath.Join(xdg.DataHome, RigupDirName)
	}

	if configDir := os.Getenv(EnvConfigDir); configDir != "" {
		p.xdgConfig = p.expand(configDir)
	} else {
		p.xdgConfig = filepath.Join(xdg.ConfigHome, RigupDirName)
	}

	// XDG state; xdg.StateHome covers the XDG_STATE_HOME override
	p.xdgState = filepath.Join(xdg.StateHome, RigupDirName)
}

func (p *paths) setupBackupsRoot() {
	if dir := os.Getenv(EnvBackupsDir); dir != "" {
		p.backupsRoot = p.expand(dir)
		return
	}
	p.backupsRoot = filepath.Join(p.xdgData, BackupsDirName)
}

// SourceRoot returns the bundled dotfiles source tree
func (p *paths) SourceRoot() string {
	return p.sourceRoot
}

// UsedFallback returns true if the current working directory was used
// as the source root
func (p *paths) UsedFallback() bool {
	return p.usedFallback
}

// HomeDir returns the user's home directory
func (p *paths) HomeDir() string {
	return p.home
}

// DataDir returns the XDG data directory for rigup
func (p *paths) DataDir() string {
	return p.xdgData
}

// ConfigDir returns the XDG config directory for rigup
func (p *paths) ConfigDir() string {
	return p.xdgConfig
}

// StateDir returns the XDG state directory for rigup
func (p *paths) StateDir() string {
	return p.xdgState
}

// SettingsPath returns the path to the user settings file
func (p *paths) SettingsPath() string {
	return filepath.Join(p.xdgConfig, SettingsFile)
}

// BackupsRoot returns the fixed root under which per-run backup
// directories are created
func (p *paths) BackupsRoot() string {
	return p.backupsRoot
}

// RunBackupDir returns the timestamp-named backup directory for a run
// started at stamp
func (p *paths) RunBackupDir(stamp time.Time) string {
	return filepath.Join(p.backupsRoot, stamp.Format(BackupStampFormat))
}

// ShellRC returns the user's zsh run-control file
func (p *paths) ShellRC() string {
	return filepath.Join(p.home, ".zshrc")
}

// TmuxConf returns the live tmux configuration file
func (p *paths) TmuxConf() string {
	return filepath.Join(p.home, ".tmux.conf")
}

// OhMyZshDir returns the oh-my-zsh installation directory
func (p *paths) OhMyZshDir() string {
	return filepath.Join(p.home, ".oh-my-zsh")
}

// TmuxPluginsDir returns the tmux plugin manager directory
func (p *paths) TmuxPluginsDir() string {
	return filepath.Join(p.home, ".tmux", "plugins", "tpm")
}

// EditorConfigDir returns the live editor config location
func (p *paths) EditorConfigDir() string {
	return filepath.Join(p.home, ".config", "nvim")
}

// SourceEditorDir returns the bundled editor config inside the source tree
func (p *paths) SourceEditorDir() string {
	return filepath.Join(p.sourceRoot, "nvim")
}

// SourceTmuxConf returns the bundled tmux config inside the source tree
func (p *paths) SourceTmuxConf() string {
	return filepath.Join(p.sourceRoot, "tmux", "tmux.conf")
}

// LogFilePath returns the path to the rigup log file
func (p *paths) LogFilePath() string {
	return filepath.Join(p.xdgState, LogFileName)
}

// Expand expands a leading ~ to the user's home directory
func (p *paths) Expand(path string) string {
	return p.expand(path)
}

func (p *paths) expand(path string) string {
	return expandWithHome(path, p.home)
}

func expandWithHome(path, home string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) == 1 {
		return home
	}
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(home, path[2:])
	}
	// ~otheruser is left as-is
	return path
}

// ExpandHome expands ~ in paths using the current user's home.
// Exposed for callers without a Paths instance.
func ExpandHome(path string) string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.Getenv(EnvHome)
	}
	return expandWithHome(path, home)
}
