// Package backend opens a ledger backend by kind and DSN.
package backend

import (
	"context"
	"fmt"

	"sales-intelligence/internal/storage"
	chstore "sales-intelligence/internal/storage/clickhouse"
	"sales-intelligence/internal/storage/memory"
	"sales-intelligence/internal/storage/migrations"
	"sales-intelligence/internal/storage/mysql"
	"sales-intelligence/internal/storage/postgres"
)

// Backend kinds.
const (
	KindMemory     = "memory"
	KindPostgres   = "postgres"
	KindClickHouse = "clickhouse"
	KindMySQL      = "mysql"
)

// Ledger is a readable and writable transaction ledger.
type Ledger interface {
	storage.TransactionSource
	storage.TransactionWriter
}

// Backend is an open ledger plus its connection cleanup.
type Backend struct {
	Kind   string
	Ledger Ledger
	close  func() error
}

// Close releases the underlying connection.
func (b *Backend) Close() error {
	if b.close == nil {
		return nil
	}
	return b.close()
}

// Open connects to the backend of the given kind. With migrate set, the
// ledger schema is created first.
func Open(ctx context.Context, kind, dsn string, migrate bool) (*Backend, error) {
	switch kind {
	case KindMemory:
		return &Backend{Kind: kind, Ledger: memory.NewTransactionSource()}, nil

	case KindPostgres:
		pool, err := postgres.NewPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		return &Backend{
			Kind:   kind,
			Ledger: postgres.NewTransactionSource(pool),
			close:  func() error { pool.Close(); return nil },
		}, nil

	case KindClickHouse:
		var conn *chstore.Conn
		var err error
		if migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, dsn)
		} else {
			conn, err = chstore.NewConn(ctx, dsn)
		}
		if err != nil {
			return nil, err
		}
		return &Backend{Kind: kind, Ledger: chstore.NewTransactionSource(conn), close: conn.Close}, nil

	case KindMySQL:
		db, err := mysql.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := migrations.RunMySQLMigrations(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("mysql migrations: %w", err)
			}
		}
		return &Backend{Kind: kind, Ledger: mysql.NewTransactionSource(db), close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown backend %q: %w", kind, storage.ErrInvalidInput)
	}
}
