package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when no blob is stored under a key.
var ErrNotFound = errors.New("not found")

// Storage keys, one per domain.
const (
	KeyTimers      = "countdown-timers"
	KeyEvents      = "countdown-events"
	KeySettings    = "countdown-settings"
	KeyPomodoro    = "pomodoro"
	KeyWorldClocks = "world-clocks"
)

// Entry is one stored blob.
type Entry struct {
	Key       string    `json:"key"`
	Value     []byte    `json:"value"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// KVRepository stores opaque values by key in the kv_store table.
type KVRepository struct {
	db *sql.DB
}

func NewKVRepository(db *sql.DB) *KVRepository {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(ctx context.Context, key string) (*Entry, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT key, value, updated_at FROM kv_store WHERE key = ?`,
		key,
	)
	return scanEntry(row)
}

func (r *KVRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key,
		string(value),
		formatTimestamp(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, key string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s rows affected: %w", key, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *KVRepository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM kv_store ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	entry := Entry{}
	var value string
	var updatedAt string
	if err := s.Scan(&entry.Key, &value, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan entry: %w", err)
	}
	entry.Value = []byte(value)

	parsedUpdatedAt, err := parseTimestamp(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("entry %s updated_at: %w", entry.Key, err)
	}
	entry.UpdatedAt = parsedUpdatedAt
	return &entry, nil
}
