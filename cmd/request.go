package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"blitztest/internal/format"
	"blitztest/internal/importer"
	"blitztest/internal/model"
	"blitztest/internal/store"

	"github.com/MakeNowJust/heredoc"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
)

var (
	headers     []string
	params      []string
	data        string
	requestName string
	method      string
	bearer      string
	findLimit   int
)

func init() {
	requestCmd := &cobra.Command{
		Use:     "request",
		Aliases: []string{"req"},
		Short:   "Manage requests in the workspace",
		Long: heredoc.Doc(`
			Manage requests in the workspace.

			A request can be referred to by its id or by its 1-based position in
			"blitz request list".
		`),
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all requests",
		Args:  cobra.NoArgs,
		RunE:  runRequestList,
	}

	showCmd := &cobra.Command{
		Use:   "show [request]",
		Short: "Show a request, the active one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRequestShow,
	}

	newCmd := &cobra.Command{
		Use:   "new [url]",
		Short: "Create a new request and make it active",
		Example: heredoc.Doc(`
			$ blitz request new
			$ blitz request new https://api.example.com/users -X POST -d '{"name": "John"}'
			$ blitz request new https://api.example.com/me -H 'Accept: application/json' --bearer $TOKEN
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runRequestNew,
	}
	newCmd.Flags().StringVarP(&requestName, "name", "n", "", "Request name")
	newCmd.Flags().StringVarP(&method, "method", "X", "GET", "HTTP method")
	newCmd.Flags().StringArrayVarP(&headers, "header", "H", []string{}, "Add header (can be used multiple times)")
	newCmd.Flags().StringArrayVarP(&params, "param", "p", []string{}, "Add query param key=value (can be used multiple times)")
	newCmd.Flags().StringVarP(&data, "data", "d", "", "Request body (JSON string or @filename)")
	newCmd.Flags().StringVar(&bearer, "bearer", "", "Bearer token")

	deleteCmd := &cobra.Command{
		Use:   "delete <request>",
		Short: "Delete a request",
		Args:  cobra.ExactArgs(1),
		RunE:  runRequestDelete,
	}

	activateCmd := &cobra.Command{
		Use:   "activate <request>",
		Short: "Make a request the active one",
		Args:  cobra.ExactArgs(1),
		RunE:  runRequestActivate,
	}

	findCmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Fuzzy search requests by name and URL",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRequestFind,
	}
	findCmd.Flags().IntVarP(&findLimit, "limit", "l", 10, "Maximum number of matches to show")

	beautifyCmd := &cobra.Command{
		Use:   "beautify [request]",
		Short: "Pretty print a request body",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRequestBeautify,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <request> <name>",
		Short: "Rename a request",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRequestRename,
	}

	requestCmd.AddCommand(listCmd, showCmd, newCmd, deleteCmd, activateCmd, findCmd, beautifyCmd, renameCmd)
	rootCmd.AddCommand(requestCmd)
}

func runRequestList(cmd *cobra.Command, args []string) error {
	format.PrintRequestList(state.store.Requests(), state.store.ActiveRequest().ID)
	return nil
}

func runRequestShow(cmd *cobra.Command, args []string) error {
	req, err := requestArg(args)
	if err != nil {
		return err
	}
	format.PrintRequestDetail(req)
	return nil
}

func runRequestNew(cmd *cobra.Command, args []string) error {
	body := data
	if strings.HasPrefix(body, "@") {
		content, err := readBodyFromFile(strings.TrimPrefix(body, "@"))
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		body = content
	}

	req := state.store.NewRequest()
	err := state.store.UpdateRequest(req.ID, func(r *model.Request) {
		r.Method = model.NormalizeMethod(method)
		if len(args) == 1 {
			r.URL = strings.TrimSpace(args[0])
		}
		if requestName != "" {
			r.Name = requestName
		} else if r.URL != "" {
			r.Name = model.SynthesizeName(r.Method, r.URL)
		}
		if parsed := parseHeaders(req.ID, headers); len(parsed) > 0 {
			r.Headers = parsed
		}
		if parsed := parseParams(req.ID, params); len(parsed) > 0 {
			r.Params = parsed
		}
		if bearer != "" {
			r.AuthType = model.AuthBearer
			r.AuthToken = bearer
		}
		if body != "" {
			r.BodyType, r.Body = importer.ClassifyBody(body)
		}
	})
	if err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}

	created, err := state.store.Request(req.ID)
	if err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' created (%s)", created.Name, created.ID))
	return nil
}

func runRequestDelete(cmd *cobra.Command, args []string) error {
	req, err := resolveRequest(args[0])
	if err != nil {
		return err
	}

	if err := state.store.RemoveRequest(req.ID); err != nil {
		if errors.Is(err, store.ErrLastRequest) {
			return fmt.Errorf("cannot delete '%s': the workspace must keep at least one request", req.Name)
		}
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' deleted", req.Name))
	return nil
}

func runRequestActivate(cmd *cobra.Command, args []string) error {
	req, err := resolveRequest(args[0])
	if err != nil {
		return err
	}

	if err := state.store.SetActiveRequest(req.ID); err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' is now active", req.Name))
	return nil
}

// requestSource lets fuzzy search over request names and URLs.
type requestSource []model.Request

func (s requestSource) String(i int) string { return s[i].Name + " " + s[i].URL }
func (s requestSource) Len() int            { return len(s) }

func runRequestFind(cmd *cobra.Command, args []string) error {
	requests := state.store.Requests()
	matches := fuzzy.FindFrom(strings.Join(args, " "), requestSource(requests))
	if len(matches) == 0 {
		return fmt.Errorf("no requests match %q", strings.Join(args, " "))
	}

	if findLimit > 0 && len(matches) > findLimit {
		matches = matches[:findLimit]
	}

	found := make([]model.Request, 0, len(matches))
	for _, match := range matches {
		found = append(found, requests[match.Index])
	}
	format.PrintRequestList(found, state.store.ActiveRequest().ID)
	return nil
}

func runRequestBeautify(cmd *cobra.Command, args []string) error {
	req, err := requestArg(args)
	if err != nil {
		return err
	}

	if strings.TrimSpace(req.Body) == "" {
		return fmt.Errorf("request '%s' has no body to beautify", req.Name)
	}

	pretty := format.Beautify(req.Body)
	err = state.store.UpdateRequest(req.ID, func(r *model.Request) {
		r.Body = pretty
	})
	if err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), pretty)
	return nil
}

func runRequestRename(cmd *cobra.Command, args []string) error {
	req, err := resolveRequest(args[0])
	if err != nil {
		return err
	}

	name := strings.TrimSpace(strings.Join(args[1:], " "))
	if name == "" {
		return fmt.Errorf("request name must not be empty")
	}

	err = state.store.UpdateRequest(req.ID, func(r *model.Request) {
		r.Name = name
	})
	if err != nil {
		return err
	}

	if err := save(); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' renamed to '%s'", req.Name, name))
	return nil
}

// requestArg resolves an optional request argument, defaulting to the active request.
func requestArg(args []string) (model.Request, error) {
	if len(args) == 0 {
		return state.store.ActiveRequest(), nil
	}
	return resolveRequest(args[0])
}

// resolveRequest finds a request by id, falling back to its 1-based position.
func resolveRequest(ref string) (model.Request, error) {
	req, err := state.store.Request(ref)
	if err == nil {
		return req, nil
	}

	if index, convErr := strconv.Atoi(ref); convErr == nil {
		requests := state.store.Requests()
		if index > 0 && index <= len(requests) {
			return requests[index-1], nil
		}
	}
	return model.Request{}, err
}

// parseHeaders turns "Key: Value" flags into enabled header rows.
func parseHeaders(prefix string, headerStrings []string) []model.Header {
	var result []model.Header
	for i, h := range headerStrings {
		key, value, found := strings.Cut(h, ":")
		if !found || strings.TrimSpace(key) == "" {
			continue
		}
		result = append(result, model.Header{
			ID:      fmt.Sprintf("%s-h%d", prefix, i),
			Key:     strings.TrimSpace(key),
			Value:   strings.TrimSpace(value),
			Enabled: true,
		})
	}
	return result
}

// parseParams turns "key=value" flags into enabled query param rows.
func parseParams(prefix string, paramStrings []string) []model.QueryParam {
	var result []model.QueryParam
	for i, p := range paramStrings {
		key, value, _ := strings.Cut(p, "=")
		if strings.TrimSpace(key) == "" {
			continue
		}
		result = append(result, model.QueryParam{
			ID:      fmt.Sprintf("%s-p%d", prefix, i),
			Key:     strings.TrimSpace(key),
			Value:   value,
			Enabled: true,
		})
	}
	return result
}
