package cmd

import (
	"context"
	"time"

	"blitztest/internal/format"
	httpclient "blitztest/internal/http"
	"blitztest/internal/model"

	"github.com/MakeNowJust/heredoc"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var noHistory bool

func init() {
	sendCmd := &cobra.Command{
		Use:   "send [request]",
		Short: "Send a request, the active one by default",
		Example: heredoc.Doc(`
			$ blitz send
			$ blitz send 3 -v
			$ blitz send 6f1c2a9e-... --no-history
		`),
		Args: cobra.MaximumNArgs(1),
		RunE: runSend,
	}
	sendCmd.Flags().BoolVar(&noHistory, "no-history", false, "Don't save to history")

	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	verbose, _ := cmd.Flags().GetBool("verbose")

	req, err := requestArg(args)
	if err != nil {
		return err
	}

	// Warn if body contains potentially sensitive data
	if !noHistory && req.HasBody() && httpclient.LooksSensitive(req.Body) {
		state.logger.Warn("Request body may contain sensitive data (e.g., passwords, tokens). This will be stored in history. Use --no-history to skip storing this request.")
	}

	resp, err := send(cmd.Context(), req)
	if !noHistory {
		record(req, resp)
	}
	if err != nil {
		return err
	}

	format.PrintResponse(resp, verbose)
	return nil
}

// send dispatches one request through the configured client.
func send(ctx context.Context, req model.Request) (*model.Response, error) {
	state.logger.Debug("Sending request", "id", req.ID, "method", req.Method, "url", req.FullURL())
	resp, err := state.client.Send(ctx, req)
	if err != nil {
		state.logger.Debug("Request failed", "id", req.ID, "err", err)
		return nil, err
	}
	state.logger.Debug("Response received", "id", req.ID, "status", resp.StatusCode, "duration_ms", resp.DurationMs)
	return resp, nil
}

// record saves a send to history. resp is nil when the send failed. A failure
// to record never fails the command.
func record(req model.Request, resp *model.Response) {
	entry := httpclient.NewHistoryEntry(uuid.New().String()[:8], req, resp, time.Now())
	if err := state.storage.AddToHistory(entry); err != nil {
		state.logger.Warn("Failed to save history", "err", err)
	}
}
