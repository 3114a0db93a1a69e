// Package config loads verification profiles.
package config

import (
	"os"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
)

// ResolveProfilePath picks the profile file to load, in this order:
//  1. The --profile flag value.
//  2. FWVERIFY_PROFILE.
//  3. fwverify.yaml in the working directory, if it exists.
//
// An empty result means the defaults apply.
func ResolveProfilePath(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(constants.EnvProfile); env != "" {
		return env
	}
	if info, err := os.Stat(constants.DefaultProfileFile); err == nil && info.Mode().IsRegular() {
		return constants.DefaultProfileFile
	}
	return ""
}
