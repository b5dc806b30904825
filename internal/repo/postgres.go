package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresSlots struct { // Слоты в таблице slots
	pool *pgxpool.Pool
}

// OpenPostgres подключается к БД и создает таблицу слотов при необходимости
func OpenPostgres(ctx context.Context, dsn string) (*PostgresSlots, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", mapPgError(err))
	}

	s := NewPostgresSlots(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func NewPostgresSlots(pool *pgxpool.Pool) *PostgresSlots { // Конструктор
	return &PostgresSlots{pool: pool}
}

func (s *PostgresSlots) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS slots (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("create slots table: %w", mapPgError(err))
	}
	return nil
}

func (s *PostgresSlots) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `
		SELECT value FROM slots WHERE key = $1
	`, key).Scan(&value)

	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrorNotFound
	}
	return value, mapPgError(err)
}

func (s *PostgresSlots) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO slots (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	return mapPgError(err)
}

func (s *PostgresSlots) Close() error {
	s.pool.Close()
	return nil
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", ErrorUnavailable, err)
	}
	return err
}
