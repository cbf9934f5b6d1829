package config

import (
	toml "github.com/pelletier/go-toml/v2"

	rigerrors "github.com/rigup/rigup/pkg/errors"
)

// Marshal renders settings back to TOML, used by the genconfig
// command to show the effective merged configuration as a starting
// point for a user settings file.
func Marshal(settings *Settings) (string, error) {
	out, err := toml.Marshal(settings)
	if err != nil {
		return "", rigerrors.Wrap(err, rigerrors.ErrInternal, "failed to marshal settings")
	}
	return string(out), nil
}
