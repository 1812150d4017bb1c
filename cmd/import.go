package cmd

import (
	"fmt"
	"strings"

	"blitztest/internal/format"

	"github.com/MakeNowJust/heredoc"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var fromClipboard bool

func init() {
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Import requests from curl, Postman, blitz JSON or any text",
		Long: heredoc.Doc(`
			Import requests into the workspace.

			Every importer reads the file given as its argument, or stdin when the
			argument is missing or "-".
		`),
	}

	curlCmd := &cobra.Command{
		Use:     "curl [file]",
		Short:   "Import a curl command",
		Example: "  $ echo \"curl -X POST https://api.example.com/users -d '{\\\"a\\\":1}'\" | blitz import curl",
		Args:    cobra.MaximumNArgs(1),
		RunE:    runImportCurl,
	}

	postmanCmd := &cobra.Command{
		Use:   "postman [file]",
		Short: "Import a Postman collection (v2)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImportPostman,
	}

	jsonCmd := &cobra.Command{
		Use:   "json [file]",
		Short: "Import a blitz JSON export",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runImportJSON,
	}

	textCmd := &cobra.Command{
		Use:   "text [file]",
		Short: "Detect the format of pasted text and import it",
		Long: heredoc.Doc(`
			Detect the format of pasted text and import it.

			curl commands, Postman collections and blitz JSON exports are imported
			as such. Anything else becomes a single GET request whose URL is the
			text itself.
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runImportText,
	}
	textCmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "Read the text from the system clipboard")

	importCmd.AddCommand(curlCmd, postmanCmd, jsonCmd, textCmd)
	rootCmd.AddCommand(importCmd)
}

func runImportCurl(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	req, err := state.store.ImportFromCurl(string(content))
	if err != nil {
		return fmt.Errorf("failed to import curl command: %w", err)
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Imported '%s' (%s)", req.Name, req.ID))
	return nil
}

func runImportPostman(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	return importCounted(func() error { return state.store.ImportFromPostman(content) })
}

func runImportJSON(cmd *cobra.Command, args []string) error {
	content, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	return importCounted(func() error { return state.store.ImportFromJSON(content) })
}

func runImportText(cmd *cobra.Command, args []string) error {
	var text string
	if fromClipboard {
		clip, err := clipboard.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		text = clip
	} else {
		content, err := readInput(cmd, args)
		if err != nil {
			return err
		}
		text = string(content)
	}

	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("nothing to import")
	}

	return importCounted(func() error {
		kind, err := state.store.ImportFromText(text)
		if err == nil {
			state.logger.Info("Detected import format", "format", kind)
		}
		return err
	})
}

// importCounted runs an import, saves and reports how much was added.
func importCounted(run func() error) error {
	requests, collections := len(state.store.Requests()), len(state.store.Collections())

	if err := run(); err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	if err := save(); err != nil {
		return err
	}

	format.PrintSuccess(fmt.Sprintf("Imported %d request(s) and %d collection(s)",
		len(state.store.Requests())-requests,
		len(state.store.Collections())-collections,
	))
	return nil
}
