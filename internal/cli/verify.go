package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/cli/helpers"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/verify"
)

var errNoFirmware = errors.New("no firmware image: pass --firmware, set FWVERIFY_FIRMWARE or add firmware to the profile")

func newVerifyCmd() *cobra.Command {
	var (
		firmware string
		format   string
	)

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run the verification rules against a firmware image",
		Long: `Build the firmware model and run the built-in KL25Z rules plus the
expression rules of the profile. Every rule runs even when others fail.

Exit status is 1 when a rule fails and 2 when the image or the profile
cannot be used.`,
		Example: `  fwverify verify --firmware build/firmware.elf
  fwverify verify -f build/firmware.elf --profile fwverify.yaml -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := helpers.LoadProfile(cmd, true)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			logger := helpers.NewLogger(profile, cmd.ErrOrStderr())

			if profile.Firmware == "" {
				return &ExitCodeError{Code: ExitError, Err: errNoFirmware}
			}

			rules, err := profile.VerifyRules()
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}

			model, err := elfmodel.Build(profile.Firmware,
				elfmodel.WithLogger(logger),
				elfmodel.WithPolicy(profile.ModelPolicy()),
			)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}

			report := verify.New(logger, rules...).Run(cmd.Context(), model)

			out := cmd.OutOrStdout()
			if profile.Format == constants.FormatJSON {
				err = report.WriteJSON(out)
			} else {
				err = report.WriteText(out)
			}
			if err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}

			if !report.OK() {
				return &ExitCodeError{
					Code: ExitFailed,
					Err:  fmt.Errorf("%d of %d rules failed", report.Failed, len(report.Results)),
				}
			}
			return nil
		},
	}

	helpers.AddFirmwareFlag(cmd, &firmware)
	helpers.AddFormatFlag(cmd, &format, constants.DefaultFormat, []helpers.OutputFormat{constants.FormatText, constants.FormatJSON})

	return cmd
}
