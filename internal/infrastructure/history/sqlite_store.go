package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/filesystem"
	"github.com/doeshing/sqlchat/internal/ports"
)

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	mu       sync.Mutex
	fallback *FileStore
}

// NewSQLiteStore creates (or opens) the database at path. When the database
// cannot be opened, records go to a jsonl file next to it instead.
func NewSQLiteStore(path string) *SQLiteStore {
	path = filesystem.ExpandPath(path)
	if path == "" {
		path = filepath.Join(filesystem.AppDir(), "history", "history.db")
	}
	fallback := NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	_ = os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path, fallback: fallback}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS queries (
		query_id TEXT PRIMARY KEY,
		user_name TEXT,
		start_time TEXT,
		end_time TEXT,
		elapsed_time REAL,
		user_prompt TEXT,
		sql_query TEXT,
		output TEXT,
		original_user_question TEXT
	);`)
	return err
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save implements ports.RecordSink.
func (s *SQLiteStore) Save(ctx context.Context, record domain.QueryRecord) error {
	if s.db == nil {
		return s.fallback.Save(ctx, record)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `INSERT INTO queries
		(query_id, user_name, start_time, end_time, elapsed_time, user_prompt, sql_query, output, original_user_question)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.UserName,
		formatTime(record.StartTime),
		formatTime(record.EndTime),
		record.ElapsedSeconds,
		record.UserPrompt,
		record.SQLQuery,
		record.Output,
		record.OriginalQuestion,
	)
	if err != nil {
		return fmt.Errorf("insert record %s: %w", record.ID, err)
	}
	return nil
}

// Records returns entries newest first (limit/search optional).
func (s *SQLiteStore) Records(ctx context.Context, limit int, search string) ([]domain.QueryRecord, error) {
	if s.db == nil {
		return s.fallback.Records(ctx, limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString(`SELECT query_id, user_name, start_time, end_time, elapsed_time,
		user_prompt, sql_query, output, original_user_question FROM queries`)
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE original_user_question LIKE ? OR sql_query LIKE ? OR output LIKE ?")
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	builder.WriteString(" ORDER BY start_time DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, builder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []domain.QueryRecord
	for rows.Next() {
		var rec domain.QueryRecord
		var start, end string
		if err := rows.Scan(&rec.ID, &rec.UserName, &start, &end, &rec.ElapsedSeconds,
			&rec.UserPrompt, &rec.SQLQuery, &rec.Output, &rec.OriginalQuestion); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.StartTime = parseTime(start)
		rec.EndTime = parseTime(end)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear deletes all records.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	_, err := s.db.Exec("DELETE FROM queries")
	return err
}

// Location returns the database path, or the fallback file when SQLite is
// unavailable.
func (s *SQLiteStore) Location() string {
	if s.db == nil {
		return s.fallback.Location()
	}
	return s.path
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
