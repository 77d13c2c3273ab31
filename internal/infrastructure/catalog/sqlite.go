package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/filesystem"
	"github.com/doeshing/sqlchat/internal/ports"
)

// SQLiteCatalog serves a local SQLite file, mostly for offline runs and tests.
type SQLiteCatalog struct {
	db         *sql.DB
	path       string
	guard      ports.SQLGuard
	sampleRows int
	maxRows    int
}

// NewSQLiteCatalog opens the database at path.
func NewSQLiteCatalog(path string, guard ports.SQLGuard, sampleRows int) (*SQLiteCatalog, error) {
	path = filesystem.ExpandPath(path)
	if path == "" {
		return nil, fmt.Errorf("open sqlite catalog: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite catalog: %w", err)
	}
	return NewSQLiteCatalogFromDB(db, path, guard, sampleRows), nil
}

// NewSQLiteCatalogFromDB wraps an already opened handle.
func NewSQLiteCatalogFromDB(db *sql.DB, path string, guard ports.SQLGuard, sampleRows int) *SQLiteCatalog {
	return &SQLiteCatalog{db: db, path: path, guard: guard, sampleRows: sampleRows, maxRows: defaultMaxRows}
}

// Close releases the underlying handle.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// Dialect implements ports.Catalog.
func (c *SQLiteCatalog) Dialect() string {
	return "SQLite"
}

// ListTables implements ports.Catalog.
func (c *SQLiteCatalog) ListTables(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT name FROM sqlite_master
		WHERE type IN ('table', 'view') AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetSchema returns CREATE statements plus a few sample rows per table.
func (c *SQLiteCatalog) GetSchema(ctx context.Context, tables []string) (string, error) {
	var blocks []string
	for _, table := range tables {
		var ddl string
		err := c.db.QueryRowContext(ctx, `SELECT sql FROM sqlite_master WHERE name = ?`, table).Scan(&ddl)
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("table %s not found", table)
		}
		if err != nil {
			return "", fmt.Errorf("describe %s: %w", table, err)
		}
		block := strings.TrimSpace(ddl)
		if c.sampleRows > 0 {
			sample, err := c.query(ctx, fmt.Sprintf("SELECT * FROM %s LIMIT %d", quoteIdent(table), c.sampleRows))
			if err != nil {
				return "", fmt.Errorf("sample %s: %w", table, err)
			}
			block += sampleBlock(table, sample)
		}
		blocks = append(blocks, block)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// ValidateQuery runs the guardrail and has SQLite compile the statement
// through EXPLAIN, which reports syntax and unknown-column errors without
// reading any rows.
func (c *SQLiteCatalog) ValidateQuery(ctx context.Context, query string) error {
	if err := checkGuard(c.guard, query); err != nil {
		return err
	}
	rows, err := c.db.QueryContext(ctx, "EXPLAIN "+strings.TrimSpace(query))
	if err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	defer rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("invalid query: %w", err)
	}
	return nil
}

// ExecuteQuery implements ports.Catalog.
func (c *SQLiteCatalog) ExecuteQuery(ctx context.Context, query string) (domain.QueryResult, error) {
	if err := checkGuard(c.guard, query); err != nil {
		return domain.QueryResult{}, err
	}
	return c.query(ctx, query)
}

func (c *SQLiteCatalog) query(ctx context.Context, query string) (domain.QueryResult, error) {
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return domain.QueryResult{}, fmt.Errorf("read columns: %w", err)
	}
	result := domain.QueryResult{Columns: columns}
	for rows.Next() {
		if c.maxRows > 0 && len(result.Rows) >= c.maxRows {
			break
		}
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.QueryResult{}, fmt.Errorf("scan row: %w", err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, rows.Err()
}

func cellString(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}

var _ ports.Catalog = (*SQLiteCatalog)(nil)
