package storage

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

// DocumentStore persists a set of keyed JSON values as a single document on
// disk. Every write replaces the whole file through a temp file rename, so a
// crash leaves either the previous or the new document.
type DocumentStore struct {
	mu   sync.RWMutex
	path string
	docs map[string]json.RawMessage
}

// DocumentTx stages changes applied by DocumentStore.Update.
type DocumentTx struct {
	docs map[string]json.RawMessage
}

// OpenDocumentStore loads the document at path, creating its directory when
// missing. A missing file yields an empty store.
func OpenDocumentStore(path string) (*DocumentStore, error) {
	if path == "" {
		return nil, errors.New("document store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	s := &DocumentStore{path: path, docs: map[string]json.RawMessage{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("read document store: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.docs); err != nil {
		return nil, fmt.Errorf("decode document store: %w", err)
	}
	if s.docs == nil {
		s.docs = map[string]json.RawMessage{}
	}
	return s, nil
}

// Path returns the file backing the store.
func (s *DocumentStore) Path() string {
	return s.path
}

// Get decodes the value stored under key into dst. It reports false when the
// key is absent.
func (s *DocumentStore) Get(key string, dst interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Put stores a single value.
func (s *DocumentStore) Put(ctx context.Context, key string, value interface{}) error {
	return s.Update(ctx, func(tx *DocumentTx) error {
		return tx.Put(key, value)
	})
}

// Delete removes a single key. Removing an absent key is not an error.
func (s *DocumentStore) Delete(ctx context.Context, key string) error {
	return s.Update(ctx, func(tx *DocumentTx) error {
		tx.Delete(key)
		return nil
	})
}

// Update applies fn to a staged copy of the document and writes it to disk.
// The in-memory document changes only when the write succeeds.
func (s *DocumentStore) Update(ctx context.Context, fn func(tx *DocumentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	staged := make(map[string]json.RawMessage, len(s.docs)+1)
	for k, v := range s.docs {
		staged[k] = v
	}
	tx := &DocumentTx{docs: staged}
	if err := fn(tx); err != nil {
		return err
	}

	if err := s.flush(staged); err != nil {
		return err
	}
	s.docs = staged
	return nil
}

func (s *DocumentStore) flush(docs map[string]json.RawMessage) error {
	payload, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace document store: %w", err)
	}
	return nil
}

// Put encodes value under key.
func (tx *DocumentTx) Put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	tx.docs[key] = raw
	return nil
}

// Delete removes key from the staged document.
func (tx *DocumentTx) Delete(key string) {
	delete(tx.docs, key)
}
