// Package config implements the 'fwverify config' command family.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/cli/helpers"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/config"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/constants"
)

// NewConfigCmd creates the config command and its subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate verification profiles",
		Long: `Inspect and validate verification profiles.

Profile resolution:
  1. --profile flag (highest)
  2. FWVERIFY_PROFILE environment variable
  3. fwverify.yaml in the current directory

Values from FWVERIFY_* environment variables override the profile file.`,
	}

	cmd.AddCommand(newViewCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newInitCmd())

	return cmd
}

// loadProfile resolves and loads the profile without validating it.
func loadProfile(cmd *cobra.Command) (*config.Profile, string, error) {
	flag, _ := helpers.ChangedString(cmd.Flags(), "profile")
	path := config.ResolveProfilePath(flag)
	profile, err := config.NewLayeredLoader().LoadProfile(path)
	if err != nil {
		return nil, path, err
	}
	return profile, path, nil
}

func source(path string) string {
	if path == "" {
		return "defaults (no profile file)"
	}
	return path
}

// newViewCmd creates the 'config view' command.
func newViewCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Show the effective profile",
		Long: `Display the profile after defaults, the profile file and environment
variables are merged.

Use --raw to output the merged profile without annotations.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, path, err := loadProfile(cmd)
			if err != nil {
				return err
			}
			return writeView(cmd.OutOrStdout(), profile, path, raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Output raw YAML without annotations")

	return cmd
}

func writeView(w io.Writer, profile *config.Profile, path string, raw bool) error {
	data, err := yaml.Marshal(profile)
	if err != nil {
		return err
	}

	if !raw {
		fmt.Fprintf(w, "# Profile: %s\n", source(path))
		fmt.Fprintln(w, "#")
		fmt.Fprintln(w, "# Config sources (priority order):")
		fmt.Fprintln(w, "#   1. Environment variables (FWVERIFY_*)")
		fmt.Fprintln(w, "#   2. Profile file")
		fmt.Fprintln(w, "#   3. Built-in defaults")
		fmt.Fprintln(w)
	}

	_, err = w.Write(data)
	return err
}

type validationRow struct {
	Field   string `json:"field" header:"FIELD"`
	Message string `json:"message" header:"MESSAGE"`
}

// newValidateCmd creates the 'config validate' command.
func newValidateCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the profile",
		Long: `Validate the effective profile and report every problem found.

Checks:
- Schema version, report format and log level
- Skipped rule names refer to built-in rules
- Expression rules are named uniquely and compile to a boolean
- At least one rule is left to run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(format, []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON}); err != nil {
				return err
			}

			profile, path, err := loadProfile(cmd)
			if err != nil {
				return err
			}

			verr := profile.Validate()
			var multi *config.MultiValidationError
			if verr != nil && !errors.As(verr, &multi) {
				return verr
			}

			rows := []validationRow{}
			if multi != nil {
				for _, e := range multi.Errors {
					rows = append(rows, validationRow{Field: e.Field, Message: e.Message})
				}
			}

			out := cmd.OutOrStdout()
			if format == string(helpers.FormatTable) {
				if len(rows) == 0 {
					fmt.Fprintf(out, "✓ %s is valid\n", source(path))
					return nil
				}
				fmt.Fprintf(out, "✗ %s has %d problem(s):\n\n", source(path), len(rows))
			}

			formatter, err := helpers.NewFormatter(helpers.OutputFormat(format))
			if err != nil {
				return err
			}
			if err := formatter.Format(rows, out); err != nil {
				return err
			}
			return verr
		},
	}

	helpers.AddFormatFlag(cmd, &format, helpers.FormatTable, []helpers.OutputFormat{
		helpers.FormatTable,
		helpers.FormatJSON,
	})

	return cmd
}

// newInitCmd creates the 'config init' command.
func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default profile",
		Long: `Write a profile with the default settings and an example expression
rule to fwverify.yaml, or to the given path.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := constants.DefaultProfileFile
			if len(args) == 1 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			profile := config.DefaultProfile()
			profile.Rules = []config.RuleConfig{{
				Name:        "vector-table-in-flash",
				Description: "The vector table is loaded at address 0",
				Expr:        `section(".isr_vector").addr == 0`,
			}}

			data, err := yaml.Marshal(profile)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("failed to write profile: %w", err)
			}

			cmd.Printf("Wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing profile")

	return cmd
}
