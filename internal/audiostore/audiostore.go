// Package audiostore persists synthesized reply audio and serves it back by
// reference, so cached answers can replay audio without re-synthesis.
package audiostore

import (
	"context"
	"fmt"

	"AIAvatar/internal/config"
	"AIAvatar/pkg/logger"
)

// Store saves audio blobs and retrieves them by the reference recorded in the
// answer store.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (string, error)
	Get(ctx context.Context, ref string) ([]byte, error)
}

// New selects the configured backend.
func New(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (Store, error) {
	switch cfg.AudioStore.Backend {
	case "", "local":
		return NewLocalStore(cfg.AudioStore.Dir, log)
	case "minio":
		return NewMinIOStore(ctx, &cfg.MinIO, log)
	default:
		return nil, fmt.Errorf("unsupported audio store backend: %s", cfg.AudioStore.Backend)
	}
}
