// Package storage provides object storage backends for product media files.
package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/draheim/zoho-sync/internal/infrastructure/config"
)

// ObjectStorage stores media payloads under string keys and hands back an
// addressable URL for each stored object.
type ObjectStorage interface {
	// Put stores the payload under key and returns the URL the stored
	// object is reachable at.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// Exists reports whether an object is stored under key.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes the object stored under key. Deleting a missing key
	// is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the storage backend selected in configuration.
func New(cfg *config.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStorage(cfg.LocalDir)
	case "s3":
		return NewS3Storage(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
