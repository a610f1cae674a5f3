package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestInMemoryPersisterRoundTrip(t *testing.T) {
	p := NewInMemoryPersister()
	ctx := context.Background()

	if _, err := p.Load(ctx, "ns"); !errors.Is(err, ErrNoState) {
		t.Fatalf("Load() on empty store error = %v, want ErrNoState", err)
	}

	if err := p.Save(ctx, "ns", []byte(`{"isVoiceMode":true}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	got, err := p.Load(ctx, "ns")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != `{"isVoiceMode":true}` {
		t.Fatalf("Load() = %s", got)
	}

	if _, err := p.Load(ctx, "other-ns"); !errors.Is(err, ErrNoState) {
		t.Fatalf("namespaces should be independent, got err = %v", err)
	}
}

func TestSQLitePersisterRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.db")

	p, err := NewSQLitePersister(ctx, path)
	if err != nil {
		t.Fatalf("NewSQLitePersister() error = %v", err)
	}
	defer p.Close()

	if _, err := p.Load(ctx, "ns"); !errors.Is(err, ErrNoState) {
		t.Fatalf("Load() on empty db error = %v, want ErrNoState", err)
	}

	if err := p.Save(ctx, "ns", []byte(`{"user":null}`)); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Overwrite must replace, not duplicate.
	if err := p.Save(ctx, "ns", []byte(`{"user":{"id":"u1"}}`)); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	got, err := p.Load(ctx, "ns")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if string(got) != `{"user":{"id":"u1"}}` {
		t.Fatalf("Load() = %s", got)
	}
}

func TestNewPersisterSelectsBackend(t *testing.T) {
	ctx := context.Background()

	p, err := NewPersister(ctx, "")
	if err != nil {
		t.Fatalf("NewPersister(\"\") error = %v", err)
	}
	if _, ok := p.(*InMemoryPersister); !ok {
		t.Fatalf("empty url should select the in-memory backend, got %T", p)
	}

	path := filepath.Join(t.TempDir(), "state.db")
	p, err = NewPersister(ctx, path)
	if err != nil {
		t.Fatalf("NewPersister(file) error = %v", err)
	}
	defer p.Close()
	if _, ok := p.(*SQLitePersister); !ok {
		t.Fatalf("file path should select the sqlite backend, got %T", p)
	}
}
