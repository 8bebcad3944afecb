package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type entry struct {
	Model   string    `json:"model"`
	Reply   string    `json:"reply"`
	Created time.Time `json:"created"`
	Expires time.Time `json:"expires"`
}

// FileStore keeps one JSON file per entry under dir.
type FileStore struct {
	dir string
	ttl time.Duration
}

// NewFileStore creates dir if needed. A zero ttl keeps entries forever.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("file cache needs a directory")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl}, nil
}

// Get looks up a cached reply. Expired or corrupt entries are removed.
func (s *FileStore) Get(_ context.Context, model, message string) (string, bool) {
	path := s.entryPath(model, message)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		_ = os.Remove(path)
		return "", false
	}

	if !e.Expires.IsZero() && time.Now().After(e.Expires) {
		_ = os.Remove(path)
		return "", false
	}

	return e.Reply, true
}

// Put stores a reply.
func (s *FileStore) Put(_ context.Context, model, message, reply string) error {
	now := time.Now()
	e := entry{
		Model:   model,
		Reply:   reply,
		Created: now,
	}
	if s.ttl > 0 {
		e.Expires = now.Add(s.ttl)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".entry-*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	return os.Rename(name, s.entryPath(model, message))
}

// Close is a no-op for the file store.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) entryPath(model, message string) string {
	return filepath.Join(s.dir, Key(model, message)+".json")
}
