package display

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BlobStore materialises persisted data URIs as transient references the
// presentation layer can load, and releases them when the controller is
// done. References are valid only until released.
type BlobStore interface {
	// Create turns a data URI into a transient reference
	Create(dataURI string) (string, error)

	// Release invalidates a reference. Exactly-once discipline is the
	// caller's responsibility.
	Release(ref string) error
}

// BlobCache is the file-backed BlobStore: each reference is a uniquely
// named file in a scratch directory, removed on release
type BlobCache struct {
	logger *zap.Logger
	dir    string
}

// NewBlobCache creates the scratch directory if needed
func NewBlobCache(logger *zap.Logger, dir string) (*BlobCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &BlobCache{logger: logger, dir: dir}, nil
}

// Create decodes the data URI payload into a fresh scratch file
func (b *BlobCache) Create(dataURI string) (string, error) {
	payload, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	path := filepath.Join(b.dir, uuid.NewString())
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return "", fmt.Errorf("failed to write blob: %w", err)
	}

	b.logger.Debug("Transient reference created",
		zap.String("ref", path),
		zap.Int("bytes", len(payload)))
	return path, nil
}

// Release removes the scratch file backing ref
func (b *BlobCache) Release(ref string) error {
	if err := os.Remove(ref); err != nil {
		return fmt.Errorf("failed to release blob: %w", err)
	}
	b.logger.Debug("Transient reference released", zap.String("ref", ref))
	return nil
}

// Close removes the scratch directory and everything left in it
func (b *BlobCache) Close() error {
	return os.RemoveAll(b.dir)
}

// decodeDataURI extracts the raw payload from a base64 data URI
func decodeDataURI(uri string) ([]byte, error) {
	const marker = ";base64,"
	idx := strings.Index(uri, marker)
	if !strings.HasPrefix(uri, "data:") || idx < 0 {
		return nil, fmt.Errorf("not a base64 data uri")
	}
	payload, err := base64.StdEncoding.DecodeString(uri[idx+len(marker):])
	if err != nil {
		return nil, fmt.Errorf("invalid data uri payload: %w", err)
	}
	return payload, nil
}
