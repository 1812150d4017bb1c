package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"blitztest/internal/format"
	"blitztest/internal/model"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	description string
	parallel    int
)

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage request collections",
		Long: heredoc.Doc(`
			Manage request collections.

			A collection can be referred to by its id, its name or its 1-based
			position in "blitz collection list".
		`),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
		RunE:  runCollectionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCollectionCreate,
	}
	createCmd.Flags().StringVarP(&description, "description", "d", "", "Collection description")

	showCmd := &cobra.Command{
		Use:   "show [collection]",
		Short: "Show requests in a collection, the active one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCollectionShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <collection>",
		Short: "Delete a collection, keeping its requests",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionDelete,
	}

	addCmd := &cobra.Command{
		Use:   "add <collection> <request>",
		Short: "Move a request into a collection",
		Example: heredoc.Doc(`
			$ blitz collection add my-api 3
		`),
		Args: cobra.ExactArgs(2),
		RunE: runCollectionAdd,
	}

	removeCmd := &cobra.Command{
		Use:   "remove <collection> <request>",
		Short: "Take a request out of a collection",
		Args:  cobra.ExactArgs(2),
		RunE:  runCollectionRemove,
	}

	activateCmd := &cobra.Command{
		Use:   "activate [collection]",
		Short: "Make a collection the active one, or clear it with no argument",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCollectionActivate,
	}

	runCmd := &cobra.Command{
		Use:   "run [collection]",
		Short: "Run all requests in a collection",
		Example: heredoc.Doc(`
			$ blitz collection run my-api
			$ blitz collection run my-api --parallel 4
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runCollectionRun,
	}
	runCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "Number of requests sent at once")
	runCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")

	collectionCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd, addCmd, removeCmd, activateCmd, runCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	active, _ := state.store.ActiveCollection()
	format.PrintCollectionList(state.store.Collections(), active.ID)
	return nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return fmt.Errorf("collection name must not be empty")
	}

	col := state.store.CreateCollection(name, description)
	if err := save(); err != nil {
		return err
	}

	format.PrintSuccess(fmt.Sprintf("Collection '%s' created (%s)", col.Name, col.ID))
	return nil
}

func runCollectionShow(cmd *cobra.Command, args []string) error {
	col, err := collectionArg(args)
	if err != nil {
		return err
	}

	requests, err := state.store.CollectionRequests(col.ID)
	if err != nil {
		return err
	}

	format.PrintCollectionRequests(col, requests)
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	col, err := resolveCollection(args[0])
	if err != nil {
		return err
	}

	if err := state.store.RemoveCollection(col.ID); err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' deleted", col.Name))
	return nil
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	col, err := resolveCollection(args[0])
	if err != nil {
		return err
	}

	req, err := resolveRequest(args[1])
	if err != nil {
		return err
	}

	if err := state.store.AddRequestToCollection(req.ID, col.ID); err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' added to collection '%s'", req.Name, col.Name))
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
	col, err := resolveCollection(args[0])
	if err != nil {
		return err
	}

	req, err := resolveRequest(args[1])
	if err != nil {
		return err
	}

	if err := state.store.RemoveRequestFromCollection(req.ID, col.ID); err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' removed from collection '%s'", req.Name, col.Name))
	return nil
}

func runCollectionActivate(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		if err := state.store.SetActiveCollection(""); err != nil {
			return err
		}
		if err := save(); err != nil {
			return err
		}
		format.PrintSuccess("No collection is active")
		return nil
	}

	col, err := resolveCollection(args[0])
	if err != nil {
		return err
	}

	if err := state.store.SetActiveCollection(col.ID); err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' is now active", col.Name))
	return nil
}

// runResult is the outcome of one request in a collection run.
type runResult struct {
	resp *model.Response
	err  error
}

func runCollectionRun(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	col, err := collectionArg(args)
	if err != nil {
		return err
	}

	requests, err := state.store.CollectionRequests(col.ID)
	if err != nil {
		return err
	}

	if len(requests) == 0 {
		return fmt.Errorf("collection '%s' is empty", col.Name)
	}

	limit := max(parallel, 1)
	fmt.Fprintf(cmd.OutOrStdout(), "Running %d requests from collection '%s'\n\n", len(requests), col.Name)

	results := make([]runResult, len(requests))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, req := range requests {
		g.Go(func() error {
			resp, err := send(cmd.Context(), req)
			results[i] = runResult{resp: resp, err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for i, req := range requests {
		if req.Name != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s\n", i+1, len(requests), req.Name)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d/%d] %s %s\n", i+1, len(requests), req.Method, req.FullURL())
		}

		result := results[i]
		if !noHistory {
			record(req, result.resp)
		}

		if result.err != nil {
			failed++
			format.PrintError(fmt.Sprintf("Request failed: %v", result.err))
			fmt.Fprintln(cmd.OutOrStdout())
			continue
		}

		format.PrintResponse(result.resp, verbose)
		fmt.Fprintln(cmd.OutOrStdout())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d requests in collection '%s' failed", failed, len(requests), col.Name)
	}
	format.PrintSuccess(fmt.Sprintf("Completed running collection '%s'", col.Name))
	return nil
}

// collectionArg resolves an optional collection argument, defaulting to the
// active collection.
func collectionArg(args []string) (model.Collection, error) {
	if len(args) == 1 {
		return resolveCollection(args[0])
	}

	col, ok := state.store.ActiveCollection()
	if !ok {
		return model.Collection{}, fmt.Errorf("no collection given and none is active")
	}
	return col, nil
}

// resolveCollection finds a collection by id, then by name, then by its
// 1-based position.
func resolveCollection(ref string) (model.Collection, error) {
	col, err := state.store.Collection(ref)
	if err == nil {
		return col, nil
	}

	collections := state.store.Collections()
	for _, c := range collections {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}

	if index, convErr := strconv.Atoi(ref); convErr == nil && index > 0 && index <= len(collections) {
		return collections[index-1], nil
	}
	return model.Collection{}, err
}
