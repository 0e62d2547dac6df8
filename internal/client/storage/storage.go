package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/storystudio/ledger/internal/models"
)

// FileStore keeps each key as a JSON file in a directory.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (fs *FileStore) path(key string) string {
	return filepath.Join(fs.dir, key+".json")
}

// Read loads every stored key. It returns nil, nil when the cache is empty.
func (fs *FileStore) Read() (*models.Snapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	raw := make(map[string][]byte)
	for _, key := range []string{KeySession, KeyTransactions, KeyUsers, KeyConfig} {
		b, err := os.ReadFile(fs.path(key))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		raw[key] = b
	}
	return decodeSnapshot(raw)
}

// Write stores transactions, users, config and, when present, the session.
// Each file is replaced atomically.
func (fs *FileStore) Write(snap models.Snapshot) error {
	parts, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	for key, b := range parts {
		if err := writeFileAtomic(fs.path(key), b); err != nil {
			return fmt.Errorf("write %s: %w", key, err)
		}
	}
	return nil
}

// ClearSession removes the stored session.
func (fs *FileStore) ClearSession() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := os.Remove(fs.path(KeySession)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Close is a no-op; it lets FileStore and SQLiteStore share an interface.
func (fs *FileStore) Close() error { return nil }

func writeFileAtomic(path string, b []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
