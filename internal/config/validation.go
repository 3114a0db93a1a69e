package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
)

// ValidateFormat checks a report format name.
func ValidateFormat(format string) error {
	switch format {
	case constants.FormatText, constants.FormatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", format, constants.FormatText, constants.FormatJSON)
	}
}

// ValidateLogLevel checks a log level name. Empty means the default level.
func ValidateLogLevel(level string) error {
	if level == "" || slices.Contains(constants.LogLevels, strings.ToLower(level)) {
		return nil
	}
	return fmt.Errorf("unknown log level %q (want one of %s)", level, strings.Join(constants.LogLevels, ", "))
}
