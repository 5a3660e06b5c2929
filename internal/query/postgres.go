package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a small pool and pings it once.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.HealthCheckPeriod = 30 * time.Second
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// pgxQuerier is the part of *pgxpool.Pool the executor uses.
type pgxQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresExecutor runs queries directly against the store through pgx,
// for deployments that can reach the database without the proxy.
type PostgresExecutor struct {
	pool pgxQuerier
}

func NewPostgresExecutor(pool *pgxpool.Pool) *PostgresExecutor {
	return &PostgresExecutor{pool: pool}
}

func (e *PostgresExecutor) Execute(ctx context.Context, query string, params ...any) (*Result, error) {
	rows, err := e.pool.Query(ctx, query, params...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	res := &Result{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResponseParse, err)
		}
		row := make(Row, len(fields))
		for i, f := range fields {
			row[f.Name] = values[i]
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	res.RowCount = int(rows.CommandTag().RowsAffected())
	return res, nil
}

// classify separates errors the server raised from errors on the way to it.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %w: %w", ErrTransport, ErrNotSent, err)
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}
