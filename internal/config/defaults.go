package config

import (
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
)

// DefaultProfile returns the profile used when no file is given: all
// built-in KL25Z rules, text output, no expression rules.
func DefaultProfile() *Profile {
	return &Profile{
		Version: SchemaVersion,
		Name:    "frdm-kl25z",
		Format:  constants.DefaultFormat,
		Log: LogConfig{
			Level:  constants.DefaultLogLevel,
			Pretty: constants.DefaultLogPretty,
		},
		Builtin: BuiltinConfig{
			Enabled: true,
		},
	}
}
