// Package constants defines shared configuration constants.
package constants

var (
	// BinaryName is the CLI executable name.
	BinaryName = "fwverify"

	// DefaultProfileFile is picked up from the working directory when no
	// profile is given on the command line.
	DefaultProfileFile = "fwverify.yaml"

	// EnvProfile names a profile file, overridden by --profile.
	EnvProfile = "FWVERIFY_PROFILE"
)
