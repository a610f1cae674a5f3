package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPersister stores the state document as a single Redis value keyed
// by the namespace. Useful when several companion instances should share
// one user's state.
type RedisPersister struct {
	client *redis.Client
}

func NewRedisPersister(ctx context.Context, redisURL string) (*RedisPersister, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisPersister{client: client}, nil
}

func (p *RedisPersister) Save(ctx context.Context, namespace string, data []byte) error {
	if err := p.client.Set(ctx, namespace, data, 0).Err(); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (p *RedisPersister) Load(ctx context.Context, namespace string) ([]byte, error) {
	data, err := p.client.Get(ctx, namespace).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return data, nil
}

func (p *RedisPersister) Close() error {
	return p.client.Close()
}
