package storage

import (
	"encoding/json"
	"os"
	"path/filepath"

	"blitztest/internal/model"
)

const (
	stateFile   = "state.json"
	historyFile = "history.json"
)

// JSONStorage handles JSON file persistence
type JSONStorage struct {
	dataDir      string
	historyLimit int
}

// NewJSONStorage creates a new JSON storage instance rooted at dataDir
func NewJSONStorage(dataDir string, opts ...Option) (*JSONStorage, error) {
	o := buildOptions(opts)

	if err := ensureDataDir(dataDir); err != nil {
		return nil, err
	}

	return &JSONStorage{dataDir: dataDir, historyLimit: o.historyLimit}, nil
}

// Close is a no-op, files are not held open
func (s *JSONStorage) Close() error {
	return nil
}

// statePath returns the path to the workspace file
func (s *JSONStorage) statePath() string {
	return filepath.Join(s.dataDir, stateFile)
}

// historyPath returns the path to the history file
func (s *JSONStorage) historyPath() string {
	return filepath.Join(s.dataDir, historyFile)
}

// LoadWorkspace loads the workspace from disk
func (s *JSONStorage) LoadWorkspace() (model.Workspace, error) {
	ws := model.Workspace{
		Requests:    []model.Request{},
		Collections: []model.Collection{},
	}

	data, err := os.ReadFile(s.statePath())
	if err != nil {
		if os.IsNotExist(err) {
			return ws, nil
		}
		return ws, err
	}

	if err := json.Unmarshal(data, &ws); err != nil {
		return ws, err
	}

	return ws, nil
}

// SaveWorkspace saves the workspace to disk
func (s *JSONStorage) SaveWorkspace(ws model.Workspace) error {
	return writeJSON(s.statePath(), ws)
}

// LoadHistory loads the request history from disk
func (s *JSONStorage) LoadHistory() (*model.History, error) {
	history := &model.History{Entries: []model.HistoryEntry{}}

	data, err := os.ReadFile(s.historyPath())
	if err != nil {
		if os.IsNotExist(err) {
			return history, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, history); err != nil {
		return nil, err
	}

	return history, nil
}

// saveHistory saves the request history to disk
func (s *JSONStorage) saveHistory(history *model.History) error {
	return writeJSON(s.historyPath(), history)
}

// AddToHistory adds an entry to history
func (s *JSONStorage) AddToHistory(entry model.HistoryEntry) error {
	history, err := s.LoadHistory()
	if err != nil {
		return err
	}

	// Prepend new entry (most recent first)
	history.Entries = append([]model.HistoryEntry{entry}, history.Entries...)

	if len(history.Entries) > s.historyLimit {
		history.Entries = history.Entries[:s.historyLimit]
	}

	return s.saveHistory(history)
}

// ClearHistory clears all history
func (s *JSONStorage) ClearHistory() error {
	return s.saveHistory(&model.History{Entries: []model.HistoryEntry{}})
}

// GetHistoryEntry gets a specific entry by ID
func (s *JSONStorage) GetHistoryEntry(id string) (*model.HistoryEntry, error) {
	history, err := s.LoadHistory()
	if err != nil {
		return nil, err
	}

	for _, entry := range history.Entries {
		if entry.ID == id {
			return &entry, nil
		}
	}

	return nil, nil
}

// writeJSON writes v as indented JSON with owner only permissions
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	if err := ensureSecureFile(path); err != nil {
		return err
	}
	return os.WriteFile(path, data, secureFileMode)
}
