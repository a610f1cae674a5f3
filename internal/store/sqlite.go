package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLitePersister stores the state document in an embedded SQLite file.
// This is the default local backend for a single-user install.
type SQLitePersister struct {
	db *sql.DB
}

func NewSQLitePersister(ctx context.Context, path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time keeps the KV upsert free of SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx,
		`CREATE TABLE IF NOT EXISTS app_state (
			namespace TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Save(ctx context.Context, namespace string, data []byte) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO app_state (namespace, document, updated_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (namespace) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		namespace,
		string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (p *SQLitePersister) Load(ctx context.Context, namespace string) ([]byte, error) {
	var data string
	err := p.db.QueryRowContext(ctx,
		`SELECT document FROM app_state WHERE namespace = ?`,
		namespace,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return []byte(data), nil
}

func (p *SQLitePersister) Close() error {
	return p.db.Close()
}
