package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/janusboandersen/frdm-kl25z-minimal-build/internal/cli/helpers"
	"github.com/janusboandersen/frdm-kl25z-minimal-build/pkg/elfmodel"
)

type headerRow struct {
	Field string `header:"Field" json:"field"`
	Value string `header:"Value" json:"value"`
}

type sectionRow struct {
	Name  string `header:"Name" json:"name"`
	Type  string `header:"Type" json:"type"`
	Flags string `header:"Flags" json:"flags"`
	Addr  string `header:"Address" json:"addr"`
	Size  string `header:"Size" json:"size"`
	Bytes uint64 `json:"bytes"`
	Align uint64 `header:"Align" json:"align"`
}

type symbolRow struct {
	Name    string `header:"Name" json:"name"`
	Type    string `header:"Type" json:"type"`
	Bind    string `header:"Bind" json:"bind"`
	Section string `header:"Section" json:"section"`
	Addr    string `header:"Address" json:"addr"`
	Size    uint64 `header:"Size" json:"size"`
}

type attributeRow struct {
	Scope string `header:"Scope" json:"scope"`
	Tag   string `header:"Tag" json:"tag"`
	Value string `header:"Value" json:"value"`
}

type inspectOptions struct {
	firmware   string
	format     string
	header     bool
	sections   bool
	symbols    bool
	attributes bool
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the decoded firmware model",
		Long: `Print what the verifier sees: the ELF header, the retained sections and
symbols and the ARM build attributes. Without a selection flag every part is
printed.`,
		Example: `  fwverify inspect -f build/firmware.elf --sections
  fwverify inspect -f build/firmware.elf --symbols -o csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := helpers.ValidateFormat(opts.format, inspectFormats); err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}

			profile, err := helpers.LoadProfile(cmd, false)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}
			if profile.Firmware == "" {
				return &ExitCodeError{Code: ExitError, Err: errNoFirmware}
			}
			logger := helpers.NewLogger(profile, cmd.ErrOrStderr())

			model, err := elfmodel.Build(profile.Firmware,
				elfmodel.WithLogger(logger),
				elfmodel.WithPolicy(profile.ModelPolicy()),
			)
			if err != nil {
				return &ExitCodeError{Code: ExitError, Err: err}
			}

			return printModel(cmd.OutOrStdout(), model, opts)
		},
	}

	helpers.AddFirmwareFlag(cmd, &opts.firmware)
	helpers.AddFormatFlag(cmd, &opts.format, helpers.FormatTable, inspectFormats)
	cmd.Flags().BoolVar(&opts.header, "header", false, "Print the ELF header")
	cmd.Flags().BoolVar(&opts.sections, "sections", false, "Print retained sections")
	cmd.Flags().BoolVar(&opts.symbols, "symbols", false, "Print retained symbols")
	cmd.Flags().BoolVar(&opts.attributes, "attributes", false, "Print ARM build attributes")

	return cmd
}

var inspectFormats = []helpers.OutputFormat{helpers.FormatTable, helpers.FormatJSON, helpers.FormatCSV}

func printModel(w io.Writer, m *elfmodel.Model, opts *inspectOptions) error {
	all := !opts.header && !opts.sections && !opts.symbols && !opts.attributes

	parts := []struct {
		title string
		show  bool
		rows  any
	}{
		{"header", all || opts.header, headerRows(m)},
		{"sections", all || opts.sections, sectionRows(m)},
		{"symbols", all || opts.symbols, symbolRows(m)},
		{"attributes", all || opts.attributes, attributeRows(m)},
	}

	formatter, err := helpers.NewFormatter(helpers.OutputFormat(opts.format))
	if err != nil {
		return err
	}

	if opts.format == string(helpers.FormatJSON) {
		doc := map[string]any{"firmware": m.Path, "digest": fmt.Sprintf("%016x", m.Digest)}
		for _, p := range parts {
			if p.show {
				doc[p.title] = p.rows
			}
		}
		return formatter.Format(doc, w)
	}

	first := true
	for _, p := range parts {
		if !p.show {
			continue
		}
		if opts.format == string(helpers.FormatTable) {
			if !first {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "%s:\n", p.title)
		}
		first = false
		if err := formatter.Format(p.rows, w); err != nil {
			return err
		}
	}
	return nil
}

func hex32(v uint64) string {
	return fmt.Sprintf("%#010x", v)
}

func headerRows(m *elfmodel.Model) []headerRow {
	h := m.Header
	return []headerRow{
		{"Class", h.Class},
		{"Data", h.Data},
		{"Machine", h.Machine},
		{"Type", h.Type},
		{"Entry", hex32(h.Entry)},
		{"Flags", fmt.Sprintf("%#010x (EABI version %d)", h.Flags, h.EABIVersion())},
		{"Digest", fmt.Sprintf("%016x", m.Digest)},
	}
}

func sectionRows(m *elfmodel.Model) []sectionRow {
	return lo.Map(m.SectionsInOrder(), func(s elfmodel.Section, _ int) sectionRow {
		return sectionRow{
			Name:  s.Name,
			Type:  s.Type,
			Flags: s.FlagsString,
			Addr:  hex32(s.Addr),
			Size:  humanize.IBytes(s.Size),
			Bytes: s.Size,
			Align: s.Align,
		}
	})
}

func symbolRows(m *elfmodel.Model) []symbolRow {
	return lo.Map(m.SymbolsInOrder(), func(s elfmodel.Symbol, _ int) symbolRow {
		return symbolRow{
			Name:    s.Name,
			Type:    s.Type,
			Bind:    s.Bind,
			Section: s.Shndx.String(),
			Addr:    hex32(s.Addr),
			Size:    s.Size,
		}
	})
}

func attributeRows(m *elfmodel.Model) []attributeRow {
	return lo.Map(m.Attributes.Entries, func(a elfmodel.Attribute, _ int) attributeRow {
		value := a.Value.String()
		if n, ok := a.Value.Int(); ok {
			value += " (" + strconv.FormatUint(n, 10) + ")"
		}
		if a.Extra != "" {
			value += " " + a.Extra
		}
		return attributeRow{Scope: a.Scope, Tag: a.Tag, Value: value}
	})
}
