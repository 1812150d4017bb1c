// Package storage persists a workspace snapshot and the send history between
// runs, either in a SQLite database or in plain JSON files.
package storage

import (
	"fmt"
	"io"
	"os"

	"blitztest/internal/model"

	"github.com/charmbracelet/log"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// DefaultHistoryLimit is the number of history entries kept when no limit is configured.
const DefaultHistoryLimit = 100

const (
	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// Storage is implemented by every backend.
type Storage interface {
	// LoadWorkspace returns the saved workspace, or an empty one if nothing
	// has been saved yet.
	LoadWorkspace() (model.Workspace, error)

	// SaveWorkspace replaces the saved workspace.
	SaveWorkspace(ws model.Workspace) error

	// LoadHistory returns history entries, most recent first.
	LoadHistory() (*model.History, error)

	// AddToHistory records an entry, dropping the oldest beyond the limit.
	AddToHistory(entry model.HistoryEntry) error

	// GetHistoryEntry returns the entry with the given id, or nil if there is none.
	GetHistoryEntry(id string) (*model.HistoryEntry, error)

	// ClearHistory removes every history entry.
	ClearHistory() error

	// Close releases any resources held by the backend.
	Close() error
}

// Option configures a backend.
type Option func(*options)

type options struct {
	logger       *log.Logger
	historyLimit int
}

// WithLogger sets the logger used for non fatal problems such as a failed migration.
func WithLogger(logger *log.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithHistoryLimit sets how many history entries are kept.
func WithHistoryLimit(limit int) Option {
	return func(o *options) {
		if limit > 0 {
			o.historyLimit = limit
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:       log.New(io.Discard),
		historyLimit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Open returns the named backend rooted at dataDir, creating the directory if needed.
func Open(backend, dataDir string, opts ...Option) (Storage, error) {
	switch backend {
	case BackendSQLite, "":
		return NewStorage(dataDir, opts...)
	case BackendJSON:
		return NewJSONStorage(dataDir, opts...)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (expected %s or %s)", backend, BackendSQLite, BackendJSON)
	}
}

// ensureDataDir creates dataDir with owner only permissions.
func ensureDataDir(dataDir string) error {
	if dataDir == "" {
		return fmt.Errorf("data directory must not be empty")
	}
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or verifies/fixes permissions if it does exist. This prevents a TOCTOU race
// condition where the file could be created with insecure default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		f.Close()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}
