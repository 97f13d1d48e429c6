package querylog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/embedmcp/embed-mcp/internal/logger"
)

var log = logger.ForComponent("querylog")

// Entry is one recorded tool execution.
type Entry struct {
	ID              string
	ToolName        string
	Input           interface{}
	Output          interface{}
	ExecutionTimeMS int64
	Success         bool
	ErrorMessage    string
	CreatedDate     time.Time
}

// Store persists tool call executions to SQLite. Recording failures are
// logged and swallowed so a broken log never fails a caller's request.
type Store struct {
	db              *sql.DB
	mu              sync.RWMutex
	excludePatterns []string
}

func NewStore(dbPath string, excludePatterns []string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create querylog dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, err
	}

	store := &Store{db: db, excludePatterns: excludePatterns}
	if err := store.initSchema(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *Store) initSchema() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	_, _ = s.db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, schemaVersion)
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Excluded reports whether the tool name matches any configured exclude
// glob, e.g. "debug_*" or "internal/**".
func (s *Store) Excluded(toolName string) bool {
	for _, pattern := range s.excludePatterns {
		if match, _ := doublestar.Match(pattern, toolName); match {
			return true
		}
	}
	return false
}

// Record writes one execution to the log. Excluded tools are skipped.
func (s *Store) Record(entry Entry) {
	if s.Excluded(entry.ToolName) {
		return
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	inputData, err := json.Marshal(entry.Input)
	if err != nil {
		inputData = []byte("{}")
	}
	outputData, err := json.Marshal(entry.Output)
	if err != nil {
		outputData = []byte("null")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO mcp_queries (id, tool_name, input_data, output_data, execution_time_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.ToolName, string(inputData), string(outputData),
		entry.ExecutionTimeMS, entry.Success, nullable(entry.ErrorMessage))

	if err != nil {
		log.Error("failed to record query", "tool", entry.ToolName, "error", err)
	}
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, tool_name, input_data, output_data, execution_time_ms, success, error_message, created_date
		FROM mcp_queries
		ORDER BY created_date DESC, id
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByTool returns the newest entries for one tool, most recent first.
func (s *Store) ByTool(toolName string, limit int) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT id, tool_name, input_data, output_data, execution_time_ms, success, error_message, created_date
		FROM mcp_queries
		WHERE tool_name = ?
		ORDER BY created_date DESC, id
		LIMIT ?
	`, toolName, limit)
	if err != nil {
		return nil, fmt.Errorf("query by tool: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var inputData, outputData string
		var execMS sql.NullInt64
		var errMsg sql.NullString
		var created sql.NullTime

		if err := rows.Scan(&e.ID, &e.ToolName, &inputData, &outputData,
			&execMS, &e.Success, &errMsg, &created); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		_ = json.Unmarshal([]byte(inputData), &e.Input)
		_ = json.Unmarshal([]byte(outputData), &e.Output)
		if execMS.Valid {
			e.ExecutionTimeMS = execMS.Int64
		}
		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}
		if created.Valid {
			e.CreatedDate = created.Time
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
