package history

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/doeshing/sqlchat/internal/domain"
	"github.com/doeshing/sqlchat/internal/pkg/filesystem"
	"github.com/doeshing/sqlchat/internal/ports"
)

// FileStore appends records to a jsonl file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore creates a store at path, defaulting to ~/.sqlchat/history/history.jsonl.
func NewFileStore(path string) *FileStore {
	path = filesystem.ExpandPath(path)
	if path == "" {
		path = filepath.Join(filesystem.AppDir(), "history", "history.jsonl")
	}
	return &FileStore{path: path}
}

// Save implements ports.RecordSink.
func (f *FileStore) Save(_ context.Context, record domain.QueryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(f.path), domain.DirectoryPermissions); err != nil {
		return fmt.Errorf("create history dir: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, domain.SecureFilePermissions)
	if err != nil {
		return fmt.Errorf("open history file: %w", err)
	}
	defer file.Close()
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	_, err = file.Write(append(data, '\n'))
	return err
}

// Location returns the backing file path.
func (f *FileStore) Location() string {
	return f.path
}

// Clear removes the history file.
func (f *FileStore) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Records loads entries newest first. Unreadable lines are skipped.
func (f *FileStore) Records(_ context.Context, limit int, search string) ([]domain.QueryRecord, error) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var records []domain.QueryRecord
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec domain.QueryRecord
		if err := json.Unmarshal(line, &rec); err == nil {
			records = append(records, rec)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}
	return newestFirst(records, limit, search), nil
}

var _ ports.HistoryRepository = (*FileStore)(nil)
