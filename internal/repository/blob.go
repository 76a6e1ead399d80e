package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Blob binds one storage key to a JSON encoded value of type T.
type Blob[T any] struct {
	repo *KVRepository
	key  string
}

func NewBlob[T any](repo *KVRepository, key string) *Blob[T] {
	return &Blob[T]{repo: repo, key: key}
}

func (b *Blob[T]) Key() string { return b.key }

// Load decodes the stored value. It returns ErrNotFound when nothing is stored.
func (b *Blob[T]) Load(ctx context.Context) (T, error) {
	var value T
	entry, err := b.repo.Get(ctx, b.key)
	if err != nil {
		return value, err
	}
	if err := json.Unmarshal(entry.Value, &value); err != nil {
		return value, fmt.Errorf("decode %s: %w", b.key, err)
	}
	return value, nil
}

// LoadOr is Load with fallback returned when nothing is stored.
func (b *Blob[T]) LoadOr(ctx context.Context, fallback T) (T, error) {
	value, err := b.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}
		return fallback, err
	}
	return value, nil
}

func (b *Blob[T]) Save(ctx context.Context, value T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", b.key, err)
	}
	return b.repo.Put(ctx, b.key, payload)
}
