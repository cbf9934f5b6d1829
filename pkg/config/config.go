// Package config loads rigup's layered settings: embedded TOML
// defaults merged with an optional user file at
// ~/.config/rigup/rigup.toml.
package config

import (
	"os"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	rigerrors "github.com/rigup/rigup/pkg/errors"
	"github.com/rigup/rigup/pkg/logging"
)

// Settings is the typed view of the merged configuration.
type Settings struct {
	Core  CoreSettings `koanf:"core" toml:"core"`
	Tools ToolSettings `koanf:"tools" toml:"tools"`
}

// CoreSettings holds run-level knobs.
type CoreSettings struct {
	SourceRoot string   `koanf:"source_root" toml:"source_root"`
	BackupsDir string   `koanf:"backups_dir" toml:"backups_dir"`
	Theme      string   `koanf:"theme" toml:"theme"`
	ZshPlugins []string `koanf:"zsh_plugins" toml:"zsh_plugins"`
}

// ToolSettings controls which catalog tools take part in a run.
type ToolSettings struct {
	Disabled []string `koanf:"disabled" toml:"disabled"`
}

// IsDisabled reports whether the named tool is switched off.
func (t ToolSettings) IsDisabled(name string) bool {
	for _, d := range t.Disabled {
		if d == name {
			return true
		}
	}
	return false
}

// Load builds the merged settings: embedded defaults first, then the
// user settings file when present. A missing user file is not an
// error; a malformed one is.
func Load(settingsPath string) (*Settings, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, rigerrors.Wrap(err, rigerrors.ErrConfigLoad, "failed to load embedded defaults")
	}

	if settingsPath != "" {
		if _, err := os.Stat(settingsPath); err == nil {
			if err := k.Load(file.Provider(settingsPath), toml.Parser()); err != nil {
				return nil, rigerrors.Wrapf(err, rigerrors.ErrConfigParse, "failed to parse %s", settingsPath)
			}
			logger.Debug().Str("path", settingsPath).Msg("loaded user settings")
		}
	}

	var settings Settings
	if err := k.Unmarshal("", &settings); err != nil {
		return nil, rigerrors.Wrap(err, rigerrors.ErrConfigParse, "failed to decode settings")
	}

	return &settings, nil
}
