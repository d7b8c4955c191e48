package credstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// File is a Store backed by a single JSON file holding a key-value object.
// The file is created with 0600 permissions since it holds live credentials.
// Writes rewrite the whole file; a mutex serializes access within the
// process, but nothing guards against other processes writing concurrently.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file-backed store at path. The file and its parent
// directory are created lazily on first write.
func NewFile(path string) *File {
	return &File{path: path}
}

// Get implements Store.
func (s *File) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return "", err
	}
	val, ok := m[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

// Set implements Store.
func (s *File) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	m[key] = value
	return s.save(m)
}

// Delete implements Store.
func (s *File) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.save(m)
}

func (s *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("credstore: failed to read %s: %w", s.path, err)
	}

	m := make(map[string]string)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("credstore: failed to parse %s: %w", s.path, err)
		}
	}
	return m, nil
}

func (s *File) save(m map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("credstore: failed to create directory for %s: %w", s.path, err)
	}

	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("credstore: failed to serialize credentials: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o600); err != nil {
		return fmt.Errorf("credstore: failed to write %s: %w", s.path, err)
	}
	return nil
}
