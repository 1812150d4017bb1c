package cmd

import (
	"fmt"
	"strconv"

	"blitztest/internal/format"

	"github.com/spf13/cobra"
)

var historyLimit int

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	historyCmd.PersistentFlags().IntVarP(&historyLimit, "limit", "n", 10, "Number of requests to show")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent requests, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}

	historyCmd.AddCommand(listCmd, showCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	history, err := state.storage.LoadHistory()
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	format.PrintHistoryList(history.Entries, historyLimit)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	identifier := args[0]

	// Try to parse as index first (1-based)
	if index, err := strconv.Atoi(identifier); err == nil {
		history, err := state.storage.LoadHistory()
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if index > 0 && index <= len(history.Entries) {
			format.PrintHistoryDetail(history.Entries[index-1])
			return nil
		}
	}

	entry, err := state.storage.GetHistoryEntry(identifier)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if entry == nil {
		return fmt.Errorf("request not found: %s", identifier)
	}

	format.PrintHistoryDetail(*entry)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if err := state.storage.ClearHistory(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	format.PrintSuccess("History cleared")
	return nil
}
