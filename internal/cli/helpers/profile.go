package helpers

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/config"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/logging"
)

// LoadProfile loads the profile for cmd and applies the flags set on the
// command line: --firmware, --log-level and, when reportFormat is set,
// --format. The result is validated.
func LoadProfile(cmd *cobra.Command, reportFormat bool) (*config.Profile, error) {
	flags := cmd.Flags()

	path, _ := ChangedString(flags, "profile")
	profile, err := config.NewLayeredLoader().LoadProfile(config.ResolveProfilePath(path))
	if err != nil {
		return nil, err
	}

	if v, ok := ChangedString(flags, "firmware"); ok {
		profile.Firmware = v
	}
	if v, ok := ChangedString(flags, "log-level"); ok {
		profile.Log.Level = v
	}
	if v, ok := ChangedString(flags, "format"); ok && reportFormat {
		profile.Format = v
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// NewLogger builds the command logger from the profile's log settings.
func NewLogger(profile *config.Profile, w io.Writer) zerolog.Logger {
	return logging.NewWithComponent(logging.Config{
		Level:  profile.Log.Level,
		Pretty: profile.Log.Pretty,
		Output: w,
	}, "cli")
}
