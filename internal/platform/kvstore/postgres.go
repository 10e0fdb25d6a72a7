package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of *pgxpool.Pool the Postgres store needs.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// PGStore keeps documents in the kv_document table as JSONB.
type PGStore struct {
	pool   Pool
	table  string
	upsert string
}

// DefaultSchema is used when NewPGStore is given an empty schema.
const DefaultSchema = "public"

// NewPGStore creates a store on pool reading schema.kv_document, the table
// created by `migrate up --schema`. An empty schema means public.
func NewPGStore(pool Pool, schema string) *PGStore {
	if schema == "" {
		schema = DefaultSchema
	}
	table := pgx.Identifier{schema, "kv_document"}.Sanitize()
	return &PGStore{
		pool:  pool,
		table: table,
		upsert: `INSERT INTO ` + table + ` (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
	}
}

func (s *PGStore) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT value FROM `+s.table+` WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return data, nil
}

func (s *PGStore) Put(ctx context.Context, key string, value []byte) error {
	if _, err := s.pool.Exec(ctx, s.upsert, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Update locks the row with SELECT ... FOR UPDATE for the length of the
// transaction. A missing row is not locked, so two first writers may race;
// the upsert keeps the later one.
func (s *PGStore) Update(ctx context.Context, key string, fn UpdateFunc) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current []byte
	exists := true
	err = tx.QueryRow(ctx, `SELECT value FROM `+s.table+` WHERE key = $1 FOR UPDATE`, key).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		exists = false
	} else if err != nil {
		return fmt.Errorf("lock %s: %w", key, err)
	}

	next, err := fn(current, exists)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, s.upsert, key, next); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
