// Package cli implements the fwverify command line.
package cli

import (
	"errors"

	"github.com/spf13/cobra"

	configcmd "github.com/janusboandersen/frdm-kl25z-minimal-build/internal/cli/config"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/version"
)

// Exit codes.
const (
	ExitFailed = 1 // at least one rule failed
	ExitError  = 2 // the image or the profile could not be used
)

// ExitCodeError carries the process exit code of a command error.
type ExitCodeError struct {
	Code int
	Err  error
}

func (e *ExitCodeError) Error() string {
	return e.Err.Error()
}

func (e *ExitCodeError) Unwrap() error {
	return e.Err
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec *ExitCodeError
	if errors.As(err, &ec) {
		return ec.Code
	}
	return ExitError
}

// NewRootCmd builds the fwverify command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.BinaryName,
		Short: "Structural verification of FRDM-KL25Z firmware images",
		Long: `Check a linked firmware ELF before it is flashed.

fwverify decodes the ELF header, section table, symbol table and ARM build
attributes, then checks the Cortex-M0+ expectations of the FRDM-KL25Z board:
vector table at 0x0, flash configuration block at 0x400, runtime bootstrap
symbols and heap/stack layout.

Projects add their own checks as CEL expressions in fwverify.yaml.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("profile", "", "Verification profile (default $FWVERIFY_PROFILE or ./fwverify.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	_ = rootCmd.MarkPersistentFlagFilename("profile", "yaml", "yml")

	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(configcmd.NewConfigCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("fwverify version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
