package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// FileStore writes one file per key under a directory. Writes go to a temp
// file that is renamed over the target, so readers never see a partial record.
type FileStore struct {
	dir    string
	sealer *sealer
	mu     sync.Mutex
}

// NewFileStore creates dir if needed. A non-empty secret enables sealing.
func NewFileStore(dir, secret string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	s := &FileStore{dir: dir}
	if secret != "" {
		sl, err := newSealer(secret)
		if err != nil {
			return nil, err
		}
		s.sealer = sl
	}
	return s, nil
}

func (s *FileStore) path(key string) (string, error) {
	if !validKey.MatchString(key) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid key %q", key)
	}
	ext := ".json"
	if s.sealer != nil {
		ext = ".sealed"
	}
	return filepath.Join(s.dir, key+ext), nil
}

func (s *FileStore) Get(_ context.Context, key string, dest any) (err error) {
	start := time.Now()
	defer func() { observe("file", "get", start, err) }()

	p, err := s.path(key)
	if err != nil {
		return NewStoreError("file", "get", key, err)
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return NewStoreError("file", "get", key, err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.open(key, data); err != nil {
			return NewStoreError("file", "get", key, err)
		}
	}
	if err := decode(data, dest); err != nil {
		return NewStoreError("file", "get", key, err)
	}
	return nil
}

func (s *FileStore) Set(_ context.Context, key string, value any) (err error) {
	start := time.Now()
	defer func() { observe("file", "set", start, err) }()

	p, err := s.path(key)
	if err != nil {
		return NewStoreError("file", "set", key, err)
	}
	data, err := encode(value)
	if err != nil {
		return NewStoreError("file", "set", key, err)
	}
	if s.sealer != nil {
		if data, err = s.sealer.seal(key, data); err != nil {
			return NewStoreError("file", "set", key, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeAtomic(s.dir, p, data); err != nil {
		return NewStoreError("file", "set", key, err)
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, key string) (err error) {
	start := time.Now()
	defer func() { observe("file", "delete", start, err) }()

	p, err := s.path(key)
	if err != nil {
		return NewStoreError("file", "delete", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return NewStoreError("file", "delete", key, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

func writeAtomic(dir, target string, data []byte) error {
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, target)
}
