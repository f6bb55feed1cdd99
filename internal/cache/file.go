package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileStore keeps all entries in one JSON object on disk.
type FileStore struct {
	Path string

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (s *FileStore) Load(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		return nil, false, err
	}
	data, ok := records[key]
	return data, ok, nil
}

func (s *FileStore) Save(_ context.Context, key string, data []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read()
	if err != nil {
		// Unreadable stores are rebuilt rather than blocking writes.
		records = make(map[string]json.RawMessage)
	}
	records[key] = json.RawMessage(data)

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}

	out, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal cache file: %w", err)
	}
	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return fmt.Errorf("write cache tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename cache file: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]json.RawMessage, error) {
	records := make(map[string]json.RawMessage)
	if s.Path == "" {
		return records, nil
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	return records, nil
}
