package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"blitztest/internal/export"
	"blitztest/internal/format"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

var (
	exportFormat string
	exportOutput string
)

// exportFileMode matches the data directory: exports can carry auth tokens.
const exportFileMode = 0o600

func init() {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export every request and collection",
		Long: heredoc.Doc(`
			Export every request and collection.

			The json format is the same one "blitz import json" reads back.
		`),
		Example: heredoc.Doc(`
			$ blitz export > workspace.json
			$ blitz export --format yaml -o workspace.yaml
		`),
		Args: cobra.NoArgs,
		RunE: runExport,
	}
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "json", "Output format: json, yaml or toml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	exporter, err := export.ForName(exportFormat)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, state.store.Export()); err != nil {
		return fmt.Errorf("failed to export workspace: %w", err)
	}

	if exportOutput == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}

	if err := os.WriteFile(exportOutput, buf.Bytes(), exportFileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", exportOutput, err)
	}
	format.PrintSuccess(fmt.Sprintf("Exported workspace to %s", exportOutput))
	return nil
}
