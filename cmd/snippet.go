package cmd

import (
	"fmt"
	"strings"

	"blitztest/internal/format"
	"blitztest/internal/snippet"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var (
	snippetLang string
	copySnippet bool
)

func init() {
	snippetCmd := &cobra.Command{
		Use:   "snippet [request]",
		Short: "Generate code that sends a request",
		Long: fmt.Sprintf("Generate code that sends a request, the active one by default.\n\nLanguages: %s.",
			strings.Join(snippet.Languages(), ", ")),
		Args: cobra.MaximumNArgs(1),
		RunE: runSnippet,
	}
	snippetCmd.Flags().StringVarP(&snippetLang, "lang", "l", "curl", "Snippet language")
	snippetCmd.Flags().BoolVar(&copySnippet, "copy", false, "Copy the snippet to the clipboard")

	rootCmd.AddCommand(snippetCmd)
}

func runSnippet(cmd *cobra.Command, args []string) error {
	req, err := requestArg(args)
	if err != nil {
		return err
	}

	code, err := snippet.Generate(req, snippetLang)
	if err != nil {
		return err
	}

	if copySnippet {
		if err := clipboard.WriteAll(code); err != nil {
			return fmt.Errorf("failed to copy snippet: %w", err)
		}
		format.PrintSuccess(fmt.Sprintf("Copied %s snippet for '%s'", snippetLang, req.Name))
		return nil
	}

	fmt.Fprint(cmd.OutOrStdout(), code)
	return nil
}
