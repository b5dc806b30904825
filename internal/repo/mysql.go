package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

type MySQLSlots struct {
	db *sql.DB
}

// OpenMySQL принимает DSN в формате драйвера: user:pass@tcp(host:3306)/db
func OpenMySQL(ctx context.Context, dsn string) (*MySQLSlots, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", mapMySQLError(err))
	}

	s := &MySQLSlots{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLSlots) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS slots (
    slot_key VARCHAR(191) PRIMARY KEY,
    value LONGTEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`)
	if err != nil {
		return fmt.Errorf("create slots table: %w", mapMySQLError(err))
	}
	return nil
}

func (s *MySQLSlots) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE slot_key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrorNotFound
	}
	return value, mapMySQLError(err)
}

func (s *MySQLSlots) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO slots (slot_key, value) VALUES (?, ?)
    ON DUPLICATE KEY UPDATE value = VALUES(value)`, key, value)
	return mapMySQLError(err)
}

func (s *MySQLSlots) Close() error { return s.db.Close() }

func mapMySQLError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", ErrorUnavailable, err)
	}
	return err
}
