package store

import (
	"context"
	"errors"
)

// ErrNoState signals that nothing has been saved under the namespace yet.
var ErrNoState = errors.New("no persisted state")

// Persister stores the serialized state subset under a namespace key.
type Persister interface {
	Save(ctx context.Context, namespace string, data []byte) error
	Load(ctx context.Context, namespace string) ([]byte, error)
	Close() error
}
