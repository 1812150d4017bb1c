package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"blitztest/internal/config"
	"blitztest/internal/format"
	httpclient "blitztest/internal/http"
	"blitztest/internal/logging"
	"blitztest/internal/storage"
	"blitztest/internal/store"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// app is everything a command needs, built once per invocation.
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	storage storage.Storage
	store   *store.Store
	client  *httpclient.Client
}

var (
	state      *app
	debug      bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "blitz",
	Short: "A CLI tool for importing, organising and sending HTTP requests",
	Long: heredoc.Doc(`
		blitz keeps a workspace of HTTP requests and collections.

		Requests come in from curl commands, Postman collections, blitz's own
		JSON export or any pasted text, and can be sent, turned into code
		snippets and exported again.
	`),
	Example: heredoc.Doc(`
		$ blitz import curl request.sh
		$ pbpaste | blitz import text
		$ blitz request list
		$ blitz send
		$ blitz collection run my-api --parallel 4
		$ blitz export --format yaml -o workspace.yaml
	`),
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// Execute runs the root command
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		format.PrintError(err.Error())
		_ = teardown(rootCmd, nil)
		cancel()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file")
}

// setup loads the config and the saved workspace before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	debugLogs := debug || cfg.Debug()
	logger := logging.New(debugLogs, cmd.ErrOrStderr())
	if !debugLogs {
		logger.SetLevel(logging.ParseLevel(cfg.LogLevel))
	}

	if !cfg.Color {
		color.NoColor = true
	}

	if cfg.Path != "" {
		logger.Debug("Loaded config", "path", cfg.Path)
	}

	backend, err := storage.Open(cfg.Storage, cfg.DataDir,
		storage.WithLogger(logger),
		storage.WithHistoryLimit(cfg.HistoryLimit),
	)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}

	ws, err := backend.LoadWorkspace()
	if err != nil {
		backend.Close()
		return fmt.Errorf("failed to load workspace: %w", err)
	}

	st := store.New(store.WithLogger(logger))
	st.Restore(ws)

	state = &app{
		cfg:     cfg,
		logger:  logger,
		storage: backend,
		store:   st,
		client: httpclient.NewClient(
			httpclient.WithTimeout(cfg.Timeout),
			httpclient.WithMaxResponseSize(cfg.MaxResponseBytes),
			httpclient.WithLogger(logger),
		),
	}
	logger.Debug("Workspace loaded", "backend", cfg.Storage, "dir", cfg.DataDir, "requests", len(ws.Requests))
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if state == nil {
		return nil
	}
	err := state.storage.Close()
	state = nil
	return err
}

// save persists the store after a mutating command.
func save() error {
	if err := state.storage.SaveWorkspace(state.store.Snapshot()); err != nil {
		return fmt.Errorf("failed to save workspace: %w", err)
	}
	return nil
}
