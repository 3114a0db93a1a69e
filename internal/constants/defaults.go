// Package constants defines shared configuration constants and defaults.
package constants

// Output formats of the verify command.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Logging defaults.
const (
	DefaultLogLevel = "info"

	// DefaultLogPretty enables console output for interactive use.
	DefaultLogPretty = true
)

// DefaultFormat is the report format when neither profile nor flags set one.
const DefaultFormat = FormatText

// LogLevels lists the accepted log level names.
var LogLevels = []string{"trace", "debug", "info", "warn", "error", "disabled"}
