package media

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// Store defines the interface for the object store holding original and
// processed photo bytes. Keys are slash-separated paths within a bucket.
type Store interface {
	// Download retrieves the full contents of an object, or an error if it
	// does not exist
	Download(bucket, key string) ([]byte, error)
	// Upload writes an object, overwriting any previous contents
	Upload(bucket, key string, data []byte, contentType string) error
}

// LocalStorage implements the Store interface using the local filesystem,
// with buckets as top-level directories under a base path
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem object store
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}

	if err := os.MkdirAll(absBasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base storage directory '%s': %w", absBasePath, err)
	}

	log.Printf("media.store: Initialized LocalStorage at %s", absBasePath)
	return &LocalStorage{basePath: absBasePath}, nil
}

// resolve calculates the absolute path for a bucket/key pair and performs a
// traversal check
func (ls *LocalStorage) resolve(bucket, key string) (string, error) {
	cleanKey := filepath.Clean(filepath.FromSlash(key))
	fullPath := filepath.Join(ls.basePath, bucket, cleanKey)

	absFullPath, err := filepath.Abs(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path for '%s/%s': %w", bucket, key, err)
	}

	if !strings.HasPrefix(absFullPath, ls.basePath) {
		return "", fmt.Errorf("invalid key: access denied for '%s/%s'", bucket, key)
	}

	return absFullPath, nil
}

func (ls *LocalStorage) Download(bucket, key string) ([]byte, error) {
	fullPath, err := ls.resolve(bucket, key)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found at '%s/%s': %w", bucket, key, err)
		}
		return nil, fmt.Errorf("failed to read object '%s/%s': %w", bucket, key, err)
	}
	return data, nil
}

// Upload writes the object. contentType is accepted for interface parity
// with remote stores; the filesystem has nowhere to record it.
func (ls *LocalStorage) Upload(bucket, key string, data []byte, contentType string) error {
	fullPath, err := ls.resolve(bucket, key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s/%s': %w", bucket, key, err)
	}

	if err := os.WriteFile(fullPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write object '%s/%s': %w", bucket, key, err)
	}
	return nil
}
