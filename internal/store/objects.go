package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chris-coyne/job-scraping-pipeline/internal/objstore"
)

// Objects is an objstore.Store kept in a single sqlite table.
type Objects struct {
	db *DB
}

var _ objstore.Store = (*Objects)(nil)

func NewObjects(db *DB) *Objects {
	return &Objects{db: db}
}

func (o *Objects) Get(ctx context.Context, key string) ([]byte, error) {
	var body []byte
	err := o.db.Pool.QueryRowContext(ctx, `SELECT body FROM objects WHERE key = ? LIMIT 1;`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %q: %w", key, objstore.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return body, nil
}

func (o *Objects) Put(ctx context.Context, key string, body []byte, contentType string) error {
	if body == nil {
		body = []byte{}
	}
	_, err := o.db.Pool.ExecContext(ctx, `
INSERT INTO objects(key, content_type, body, updated_at)
VALUES(?,?,?,?)
ON CONFLICT(key) DO UPDATE SET
  content_type = excluded.content_type,
  body = excluded.body,
  updated_at = excluded.updated_at;`,
		key, contentType, body, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (o *Objects) List(ctx context.Context, prefix string) ([]string, error) {
	rows, err := o.db.Pool.QueryContext(ctx, `SELECT key FROM objects WHERE instr(key, ?) = 1;`, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (o *Objects) DeleteMany(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	tx, err := o.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM objects WHERE key = ?;`, k); err != nil {
			return fmt.Errorf("delete %q: %w", k, err)
		}
	}
	return tx.Commit()
}

func (o *Objects) Location(key string) string {
	return "sqlite://" + o.db.Path + "#" + key
}
