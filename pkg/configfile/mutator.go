package configfile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rigup/rigup/pkg/errors"
	"github.com/rigup/rigup/pkg/logging"
	"github.com/rigup/rigup/pkg/types"
)

// Mutator applies idempotent edits to configuration files. One mutator
// serves one run: its backup directory is created lazily on the first
// backup and shared by every subsequent one.
type Mutator struct {
	fs        types.FS
	expand    func(string) string
	backupDir string

	// seen tracks files already snapshotted (or freshly created) this
	// run, so each file is backed up at most once per run.
	seen map[string]bool
}

// NewMutator creates a mutator writing backups under backupDir.
// expand resolves ~ prefixes in file paths; nil means paths are used
// as-is.
func NewMutator(fsys types.FS, expand func(string) string, backupDir string) *Mutator {
	if expand == nil {
		expand = func(s string) string { return s }
	}
	return &Mutator{fs: fsys, expand: expand, backupDir: backupDir, seen: make(map[string]bool)}
}

// BackupDir returns the run's backup directory path. The directory
// only exists on disk once a backup has been taken.
func (m *Mutator) BackupDir() string {
	return m.backupDir
}

// BackupIfExists copies path into the run's backup directory if it
// exists, creating the directory lazily. It returns whether a backup
// was made. Backups within one run never overwrite each other: name
// collisions get a numeric suffix.
func (m *Mutator) BackupIfExists(path string, report *types.Report) (bool, error) {
	logger := logging.GetLogger("configfile")
	path = m.expand(path)

	info, err := m.fs.Lstat(path)
	if err != nil {
		return false, nil
	}

	if err := m.fs.MkdirAll(m.backupDir, 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrBackupFailed, "failed to create backup directory %s", m.backupDir)
	}

	dest := m.uniqueBackupPath(filepath.Base(path))
	if err := m.copyAny(path, dest, info); err != nil {
		return false, errors.Wrapf(err, errors.ErrBackupFailed, "failed to back up %s", path)
	}

	m.seen[path] = true
	if report != nil {
		report.BackupDir = m.backupDir
		report.RecordBackup(path, dest)
	}
	logger.Info().Str("path", path).Str("backup", dest).Msg("backed up")
	return true, nil
}

// backupOnce snapshots path before its first mutation in this run.
// Later mutations of the same file reuse the snapshot.
func (m *Mutator) backupOnce(path string, report *types.Report) error {
	if m.seen[path] {
		return nil
	}
	m.seen[path] = true
	_, err := m.BackupIfExists(path, report)
	return err
}

// uniqueBackupPath finds a destination name that does not collide with
// an earlier backup from the same run.
func (m *Mutator) uniqueBackupPath(base string) string {
	dest := filepath.Join(m.backupDir, base)
	for n := 1; ; n++ {
		if _, err := m.fs.Lstat(dest); err != nil {
			return dest
		}
		dest = filepath.Join(m.backupDir, fmt.Sprintf("%s.%d", base, n))
	}
}

// AppendIfAbsent appends block (prefixed by a blank line) to filePath
// unless marker is already found verbatim in the file. A missing file
// is created; an existing one is snapshotted first. Returns whether
// the file changed.
func (m *Mutator) AppendIfAbsent(marker, block, filePath string, report *types.Report) (bool, error) {
	logger := logging.GetLogger("configfile")
	filePath = m.expand(filePath)

	existing, err := m.fs.ReadFile(filePath)
	if err != nil && !os.IsNotExist(err) {
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", filePath)
	}

	if strings.Contains(string(existing), marker) {
		logger.Debug().Str("path", filePath).Str("marker", marker).Msg("marker already present")
		return false, nil
	}

	if err := m.backupOnce(filePath, report); err != nil {
		return false, err
	}

	var sb strings.Builder
	sb.Write(existing)
	if len(existing) > 0 && !strings.HasSuffix(string(existing), "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(block)
	if !strings.HasSuffix(block, "\n") {
		sb.WriteString("\n")
	}

	if err := m.fs.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return false, errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", filePath)
	}
	if err := m.fs.WriteFile(filePath, []byte(sb.String()), 0644); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", filePath)
	}

	logger.Info().Str("path", filePath).Msg("appended config block")
	return true, nil
}

// ReplaceLineIfMatched rewrites every line matching pattern with
// replacement, snapshotting the file before the first change. The
// pattern must also match the replaced line, so applying the edit
// again is a no-op. Returns whether the file changed; a missing file
// is left untouched and reported as an error.
func (m *Mutator) ReplaceLineIfMatched(pattern, replacement, filePath string, report *types.Report) (bool, error) {
	filePath = m.expand(filePath)

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, errors.Wrapf(err, errors.ErrInvalidInput, "invalid pattern %q", pattern)
	}

	data, err := m.fs.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, errors.Newf(errors.ErrFileNotFound, "cannot edit missing file %s", filePath)
		}
		return false, errors.Wrapf(err, errors.ErrFileAccess, "failed to read %s", filePath)
	}

	lines := strings.Split(string(data), "\n")
	changed := false
	for idx, line := range lines {
		if re.MatchString(line) && line != replacement {
			lines[idx] = replacement
			changed = true
		}
	}

	if !changed {
		return false, nil
	}

	if err := m.backupOnce(filePath, report); err != nil {
		return false, err
	}
	if err := m.fs.WriteFile(filePath, []byte(strings.Join(lines, "\n")), 0644); err != nil {
		return false, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", filePath)
	}
	return true, nil
}

// InstallSymlinkOrCopy materializes a config at target from source.
//
// In symlink mode a target already linking to source is a no-op; a
// link elsewhere, plain file, or directory is backed up, removed, and
// replaced with the link. In copy mode the source is a seed: it is
// copied only when the target is missing, because copy mode exists for
// files expected to accrue per-host edits that must survive re-runs
// and must not land in the shared source tree.
func (m *Mutator) InstallSymlinkOrCopy(source, target string, mode types.LinkMode, report *types.Report) (types.Outcome, error) {
	source = m.expand(source)
	target = m.expand(target)

	if _, err := m.fs.Stat(source); err != nil {
		return types.OutcomeFailed, errors.Newf(errors.ErrSourceMissing, "source %s does not exist", source)
	}

	if mode == types.LinkModeCopy {
		return m.installCopy(source, target, report)
	}
	return m.installSymlink(source, target, report)
}

// installSymlink converges target into a symlink pointing at source.
func (m *Mutator) installSymlink(source, target string, report *types.Report) (types.Outcome, error) {
	logger := logging.GetLogger("configfile")

	if info, err := m.fs.Lstat(target); err == nil {
		if info.Mode()&os.ModeSymlink != 0 {
			if dest, err := m.fs.Readlink(target); err == nil && dest == source {
				logger.Debug().Str("target", target).Msg("symlink already correct")
				return types.OutcomeUnchanged, nil
			}
		}

		// Wrong link, plain file, or directory: archive it, then relink.
		if _, err := m.BackupIfExists(target, report); err != nil {
			return types.OutcomeFailed, err
		}
		if err := m.fs.RemoveAll(target); err != nil {
			return types.OutcomeFailed, errors.Wrapf(err, errors.ErrFileAccess, "failed to remove %s", target)
		}
	}

	if err := m.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", target)
	}
	if err := m.fs.Symlink(source, target); err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, errors.ErrSymlinkCreate, "failed to link %s -> %s", target, source)
	}

	m.seen[target] = true
	logger.Info().Str("target", target).Str("source", source).Msg("symlinked config")
	return types.OutcomeApplied, nil
}

// installCopy seeds target from source when it does not exist yet. An
// existing target is left alone whatever its content: per-host edits
// are expected there and must survive re-runs.
func (m *Mutator) installCopy(source, target string, report *types.Report) (types.Outcome, error) {
	logger := logging.GetLogger("configfile")

	srcData, err := m.fs.ReadFile(source)
	if err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, errors.ErrFileAccess, "failed to read source %s", source)
	}

	if _, err := m.fs.Lstat(target); err == nil {
		logger.Debug().Str("target", target).Msg("copy target already exists, keeping local version")
		return types.OutcomeUnchanged, nil
	}

	if err := m.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", target)
	}
	if err := m.fs.WriteFile(target, srcData, 0644); err != nil {
		return types.OutcomeFailed, errors.Wrapf(err, errors.ErrFileWrite, "failed to write %s", target)
	}

	// The file the run just wrote needs no snapshot before later edits.
	m.seen[target] = true
	logger.Info().Str("target", target).Str("source", source).Msg("copied config")
	return types.OutcomeApplied, nil
}

// copyAny copies a file, directory tree, or symlink into the backup
// directory.
func (m *Mutator) copyAny(src, dest string, info os.FileInfo) error {
	if info.Mode()&os.ModeSymlink != 0 {
		linkDest, err := m.fs.Readlink(src)
		if err != nil {
			return err
		}
		return m.fs.Symlink(linkDest, dest)
	}

	if info.IsDir() {
		entries, err := m.fs.ReadDir(src)
		if err != nil {
			return err
		}
		if err := m.fs.MkdirAll(dest, 0755); err != nil {
			return err
		}
		for _, entry := range entries {
			childInfo, err := m.fs.Lstat(filepath.Join(src, entry.Name()))
			if err != nil {
				return err
			}
			if err := m.copyAny(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name()), childInfo); err != nil {
				return err
			}
		}
		return nil
	}

	data, err := m.fs.ReadFile(src)
	if err != nil {
		return err
	}
	return m.fs.WriteFile(dest, data, info.Mode().Perm())
}
