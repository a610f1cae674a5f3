package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresPersister stores the state document in a PostgreSQL key-value
// table, one row per namespace.
type PostgresPersister struct {
	pool *pgxpool.Pool
}

func NewPostgresPersister(ctx context.Context, databaseURL string) (*PostgresPersister, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresPersister{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS app_state (
			namespace TEXT PRIMARY KEY,
			document JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (p *PostgresPersister) Save(ctx context.Context, namespace string, data []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO app_state (namespace, document, updated_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (namespace) DO UPDATE SET document = EXCLUDED.document, updated_at = EXCLUDED.updated_at`,
		namespace,
		data,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (p *PostgresPersister) Load(ctx context.Context, namespace string) ([]byte, error) {
	var data []byte
	err := p.pool.QueryRow(ctx,
		`SELECT document FROM app_state WHERE namespace = $1`,
		namespace,
	).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return data, nil
}

func (p *PostgresPersister) Close() error {
	p.pool.Close()
	return nil
}
