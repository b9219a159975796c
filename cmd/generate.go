// File: cmd/generate.go
package cmd

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/intake-cli/internal/export"
	"github.com/xkilldash9x/intake-cli/internal/observability"
	"github.com/xkilldash9x/intake-cli/internal/persona"
)

// newGenerator is swapped in tests for a seeded generator.
var newGenerator = func() *persona.Generator { return persona.New() }

func newGenerateCmd() *cobra.Command {
	var doExport bool

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Prints a synthetic profile without opening a browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}

			p := newGenerator().Generate()
			out := cmd.OutOrStdout()
			renderProfile(out, p)

			if !doExport {
				return nil
			}
			path, err := export.NewWorkbook(cfg.Export, observability.GetLogger()).Append(ctx, p)
			if err != nil {
				return fmt.Errorf("failed to export profile: %w", err)
			}
			fmt.Fprintf(out, "Appended to %s\n", path)
			return nil
		},
	}

	generateCmd.Flags().BoolVarP(&doExport, "export", "e", false, "Append the profile to the configured workbook.")
	return generateCmd
}

func renderProfile(w io.Writer, p persona.Profile) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetTitle(p.FullName())
	t.AppendHeader(table.Row{"Field", "Value"})
	for _, f := range p.Fields() {
		t.AppendRow(table.Row{f.Header, f.Value})
	}
	t.Render()
}
