package store

import (
	"context"
	"strings"
)

// NewPersister picks a backend from the storage URL scheme: postgres for a
// shared database, redis for a shared cache, any other non-empty value is
// treated as a SQLite file path. Empty keeps state in memory only.
func NewPersister(ctx context.Context, storageURL string) (Persister, error) {
	url := strings.TrimSpace(storageURL)
	switch {
	case url == "":
		return NewInMemoryPersister(), nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return NewPostgresPersister(ctx, url)
	case strings.HasPrefix(url, "redis://"), strings.HasPrefix(url, "rediss://"):
		return NewRedisPersister(ctx, url)
	default:
		return NewSQLitePersister(ctx, url)
	}
}
