package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"blitztest/internal/model"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"
)

const dbFile = "blitz.db"

// Keys of the meta table.
const (
	metaActiveRequest    = "active_request"
	metaActiveCollection = "active_collection"
)

// SQLiteStorage handles SQLite database persistence
type SQLiteStorage struct {
	db           *sql.DB
	dataDir      string
	logger       *log.Logger
	historyLimit int
}

// NewStorage opens (or creates) the SQLite database in dataDir. On first use
// any state left behind by the JSON backend in the same directory is migrated.
func NewStorage(dataDir string, opts ...Option) (*SQLiteStorage, error) {
	o := buildOptions(opts)

	if err := ensureDataDir(dataDir); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dataDir, dbFile)

	// Create database file with secure permissions if it doesn't exist
	// This avoids a race condition where the file is created with default
	// permissions and then chmod'd afterward
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStorage{
		db:           db,
		dataDir:      dataDir,
		logger:       o.logger,
		historyLimit: o.historyLimit,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise schema: %w", err)
	}

	// Migration errors shouldn't prevent startup
	if err := s.migrateFromJSON(); err != nil {
		s.logger.Warn("Could not migrate JSON state", "dir", dataDir, "err", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// initSchema creates the database tables if they don't exist
func (s *SQLiteStorage) initSchema() error {
	// Requests and collections are keyed by position: imported bundles are
	// kept verbatim and may repeat ids.
	schema := `
	-- Workspace requests
	CREATE TABLE IF NOT EXISTS requests (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT DEFAULT '',
		method TEXT NOT NULL,
		url TEXT DEFAULT '',
		headers TEXT DEFAULT '[]',
		params TEXT DEFAULT '[]',
		body_type TEXT DEFAULT 'none',
		body TEXT DEFAULT '',
		auth_type TEXT DEFAULT 'none',
		auth_token TEXT DEFAULT '',
		collection_id TEXT DEFAULT ''
	);

	-- Collections
	CREATE TABLE IF NOT EXISTS collections (
		position INTEGER PRIMARY KEY,
		id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT DEFAULT '',
		created_at TEXT DEFAULT ''
	);

	-- Ordered collection membership (request ids)
	CREATE TABLE IF NOT EXISTS collection_requests (
		collection_position INTEGER NOT NULL,
		position INTEGER NOT NULL,
		request_id TEXT NOT NULL,
		PRIMARY KEY (collection_position, position),
		FOREIGN KEY (collection_position) REFERENCES collections(position) ON DELETE CASCADE
	);

	-- Active pointers
	CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	-- History table (stores sent request + embedded Response)
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		request_id TEXT DEFAULT '',
		timestamp DATETIME NOT NULL,
		method TEXT NOT NULL,
		url TEXT NOT NULL,
		headers TEXT DEFAULT '{}',
		body TEXT DEFAULT '',
		response_status_code INTEGER,
		response_status TEXT,
		response_headers TEXT,
		response_body TEXT,
		response_duration_ms INTEGER,
		response_size_bytes INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_history_timestamp ON history(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Workspace Operations
// =============================================================================

// LoadWorkspace loads requests, collections and active pointers
func (s *SQLiteStorage) LoadWorkspace() (model.Workspace, error) {
	ws := model.Workspace{
		Requests:    []model.Request{},
		Collections: []model.Collection{},
	}

	rows, err := s.db.Query(`
		SELECT id, name, method, url, headers, params, body_type, body,
		       auth_type, auth_token, collection_id
		FROM requests
		ORDER BY position`)
	if err != nil {
		return ws, err
	}
	defer rows.Close()

	for rows.Next() {
		var req model.Request
		var headersJSON, paramsJSON string
		err := rows.Scan(
			&req.ID, &req.Name, &req.Method, &req.URL,
			&headersJSON, &paramsJSON, &req.BodyType, &req.Body,
			&req.AuthType, &req.AuthToken, &req.CollectionID,
		)
		if err != nil {
			return ws, err
		}
		if err := json.Unmarshal([]byte(headersJSON), &req.Headers); err != nil {
			return ws, fmt.Errorf("request %s: failed to parse headers JSON: %w", req.ID, err)
		}
		if err := json.Unmarshal([]byte(paramsJSON), &req.Params); err != nil {
			return ws, fmt.Errorf("request %s: failed to parse params JSON: %w", req.ID, err)
		}
		ws.Requests = append(ws.Requests, req)
	}
	if err := rows.Err(); err != nil {
		return ws, err
	}

	collections, err := s.loadCollections()
	if err != nil {
		return ws, err
	}
	ws.Collections = collections

	ws.ActiveRequest, err = s.meta(metaActiveRequest)
	if err != nil {
		return ws, err
	}
	ws.ActiveCollection, err = s.meta(metaActiveCollection)
	if err != nil {
		return ws, err
	}

	return ws, nil
}

func (s *SQLiteStorage) loadCollections() ([]model.Collection, error) {
	colRows, err := s.db.Query(`
		SELECT position, id, name, description, created_at
		FROM collections
		ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer colRows.Close()

	type colInfo struct {
		position int64
		col      model.Collection
	}
	var cols []colInfo

	for colRows.Next() {
		var info colInfo
		err := colRows.Scan(&info.position, &info.col.ID, &info.col.Name, &info.col.Description, &info.col.CreatedAt)
		if err != nil {
			return nil, err
		}
		info.col.Requests = []string{}
		cols = append(cols, info)
	}
	if err := colRows.Err(); err != nil {
		return nil, err
	}

	collections := make([]model.Collection, 0, len(cols))
	for _, info := range cols {
		memberRows, err := s.db.Query(`
			SELECT request_id
			FROM collection_requests
			WHERE collection_position = ?
			ORDER BY position`, info.position)
		if err != nil {
			return nil, err
		}

		for memberRows.Next() {
			var id string
			if err := memberRows.Scan(&id); err != nil {
				memberRows.Close()
				return nil, err
			}
			info.col.Requests = append(info.col.Requests, id)
		}
		memberRows.Close()

		if err := memberRows.Err(); err != nil {
			return nil, err
		}

		collections = append(collections, info.col)
	}

	return collections, nil
}

func (s *SQLiteStorage) meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SaveWorkspace replaces the whole workspace in a single transaction
func (s *SQLiteStorage) SaveWorkspace(ws model.Workspace) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Cascade clears collection_requests
	for _, table := range []string{"requests", "collections", "meta"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	for i, req := range ws.Requests {
		headersJSON, err := json.Marshal(nonNil(req.Headers))
		if err != nil {
			return err
		}
		paramsJSON, err := json.Marshal(nonNil(req.Params))
		if err != nil {
			return err
		}
		_, err = tx.Exec(`
			INSERT INTO requests (
				position, id, name, method, url, headers, params,
				body_type, body, auth_type, auth_token, collection_id
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			i, req.ID, req.Name, req.Method, req.URL, string(headersJSON), string(paramsJSON),
			req.BodyType, req.Body, req.AuthType, req.AuthToken, req.CollectionID,
		)
		if err != nil {
			return fmt.Errorf("failed to save request %s: %w", req.ID, err)
		}
	}

	for i, col := range ws.Collections {
		_, err := tx.Exec(`
			INSERT INTO collections (position, id, name, description, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			i, col.ID, col.Name, col.Description, col.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save collection %s: %w", col.ID, err)
		}

		for j, id := range col.Requests {
			_, err := tx.Exec(`
				INSERT INTO collection_requests (collection_position, position, request_id)
				VALUES (?, ?, ?)`,
				i, j, id)
			if err != nil {
				return err
			}
		}
	}

	meta := map[string]string{
		metaActiveRequest:    ws.ActiveRequest,
		metaActiveCollection: ws.ActiveCollection,
	}
	for key, value := range meta {
		if _, err := tx.Exec("INSERT INTO meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// nonNil keeps empty row lists encoded as [] rather than null.
func nonNil[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// =============================================================================
// History Operations
// =============================================================================

const historyColumns = `
	id, request_id, timestamp, method, url, headers, body,
	response_status_code, response_status, response_headers,
	response_body, response_duration_ms, response_size_bytes`

// LoadHistory loads the request history from the database
func (s *SQLiteStorage) LoadHistory() (*model.History, error) {
	rows, err := s.db.Query(`
		SELECT`+historyColumns+`
		FROM history
		ORDER BY timestamp DESC
		LIMIT ?`, s.historyLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := &model.History{Entries: []model.HistoryEntry{}}

	for rows.Next() {
		entry, err := scanHistoryEntry(rows)
		if err != nil {
			return nil, err
		}
		history.Entries = append(history.Entries, entry)
	}

	return history, rows.Err()
}

// AddToHistory adds an entry to history
func (s *SQLiteStorage) AddToHistory(entry model.HistoryEntry) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertHistoryEntry(tx, entry); err != nil {
		return err
	}

	// Enforce the history limit by deleting oldest entries
	_, err = tx.Exec(`
		DELETE FROM history
		WHERE id NOT IN (
			SELECT id FROM history ORDER BY timestamp DESC LIMIT ?
		)`, s.historyLimit)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// ClearHistory clears all history
func (s *SQLiteStorage) ClearHistory() error {
	_, err := s.db.Exec("DELETE FROM history")
	return err
}

// GetHistoryEntry gets a specific entry by ID
func (s *SQLiteStorage) GetHistoryEntry(id string) (*model.HistoryEntry, error) {
	row := s.db.QueryRow(`
		SELECT`+historyColumns+`
		FROM history
		WHERE id = ?`, id)

	entry, err := scanHistoryEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanHistoryEntry(row scanner) (model.HistoryEntry, error) {
	var entry model.HistoryEntry
	var headersJSON string
	var respStatusCode, respDurationMs, respSizeBytes sql.NullInt64
	var respStatus, respHeaders, respBody sql.NullString

	err := row.Scan(
		&entry.ID, &entry.RequestID, &entry.Timestamp, &entry.Method, &entry.URL,
		&headersJSON, &entry.Body,
		&respStatusCode, &respStatus, &respHeaders,
		&respBody, &respDurationMs, &respSizeBytes,
	)
	if err != nil {
		return entry, err
	}

	// A corrupt header blob is not worth failing the whole listing for
	entry.Headers, _ = parseJSONHeaders(headersJSON)

	if respStatusCode.Valid {
		entry.Response = &model.Response{
			StatusCode: int(respStatusCode.Int64),
			Status:     respStatus.String,
			Body:       respBody.String,
			DurationMs: respDurationMs.Int64,
			SizeBytes:  respSizeBytes.Int64,
		}
		if respHeaders.Valid {
			entry.Response.Headers, _ = parseJSONHeaders(respHeaders.String)
		} else {
			entry.Response.Headers = make(map[string]string)
		}
	}

	return entry, nil
}

func insertHistoryEntry(tx *sql.Tx, entry model.HistoryEntry) error {
	headersJSON, err := json.Marshal(entry.Headers)
	if err != nil {
		return err
	}

	var respStatusCode, respDurationMs, respSizeBytes sql.NullInt64
	var respStatus, respHeaders, respBody sql.NullString

	if entry.Response != nil {
		respHeadersJSON, err := json.Marshal(entry.Response.Headers)
		if err != nil {
			return err
		}
		respStatusCode = sql.NullInt64{Int64: int64(entry.Response.StatusCode), Valid: true}
		respStatus = sql.NullString{String: entry.Response.Status, Valid: true}
		respHeaders = sql.NullString{String: string(respHeadersJSON), Valid: true}
		respBody = sql.NullString{String: entry.Response.Body, Valid: true}
		respDurationMs = sql.NullInt64{Int64: entry.Response.DurationMs, Valid: true}
		respSizeBytes = sql.NullInt64{Int64: entry.Response.SizeBytes, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO history (`+historyColumns+`
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.RequestID, entry.Timestamp, entry.Method, entry.URL, string(headersJSON), entry.Body,
		respStatusCode, respStatus, respHeaders, respBody, respDurationMs, respSizeBytes,
	)
	return err
}

// parseJSONHeaders safely parses JSON headers, returning an empty map on error
func parseJSONHeaders(jsonStr string) (map[string]string, error) {
	if jsonStr == "" || jsonStr == "null" {
		return make(map[string]string), nil
	}

	var headers map[string]string
	if err := json.Unmarshal([]byte(jsonStr), &headers); err != nil {
		return make(map[string]string), fmt.Errorf("failed to parse headers JSON: %w", err)
	}

	if headers == nil {
		headers = make(map[string]string)
	}
	return headers, nil
}

// =============================================================================
// Migration from JSON
// =============================================================================

// migrateFromJSON moves state written by the JSON backend into an empty
// database, renaming the migrated files so it only ever happens once.
func (s *SQLiteStorage) migrateFromJSON() error {
	var count int
	for _, table := range []string{"requests", "collections", "history"} {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return nil
		}
	}

	statePath := filepath.Join(s.dataDir, stateFile)
	if data, err := os.ReadFile(statePath); err == nil {
		var ws model.Workspace
		if err := json.Unmarshal(data, &ws); err != nil {
			return fmt.Errorf("%s: %w", stateFile, err)
		}
		if len(ws.Requests) > 0 || len(ws.Collections) > 0 {
			if err := s.SaveWorkspace(ws); err != nil {
				return err
			}
			if err := os.Rename(statePath, statePath+".migrated"); err != nil {
				return err
			}
			s.logger.Info("Migrated workspace from JSON", "requests", len(ws.Requests), "collections", len(ws.Collections))
		}
	}

	historyPath := filepath.Join(s.dataDir, historyFile)
	if data, err := os.ReadFile(historyPath); err == nil {
		var history model.History
		if err := json.Unmarshal(data, &history); err != nil {
			return fmt.Errorf("%s: %w", historyFile, err)
		}
		if len(history.Entries) > 0 {
			for _, entry := range history.Entries {
				if err := s.AddToHistory(entry); err != nil {
					return err
				}
			}
			if err := os.Rename(historyPath, historyPath+".migrated"); err != nil {
				return err
			}
			s.logger.Info("Migrated history from JSON", "entries", len(history.Entries))
		}
	}

	return nil
}
