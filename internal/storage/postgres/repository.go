package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Togather-Foundation/contests/internal/config"
	"github.com/Togather-Foundation/contests/internal/domain/contests"
	"github.com/Togather-Foundation/contests/internal/storage"
)

var _ storage.Store = (*Repository)(nil)

// queryer is satisfied by both *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository groups the PostgreSQL-backed repositories.
type Repository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Contests() contests.Repository {
	return &ContestRepository{pool: r.pool, tx: r.tx}
}

// Ping reports whether the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// Nested calls reuse the outer transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, *Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &Repository{pool: r.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Connect opens a pool sized from cfg and verifies connectivity.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConnections)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}
