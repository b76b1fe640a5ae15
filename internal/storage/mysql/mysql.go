// Package mysql reads the transaction ledger from MySQL or MariaDB.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"sales-intelligence/internal/storage"
)

// Open accepts mariadb://, mysql:// or a native driver DSN and returns a
// verified handle. Connection failures wrap storage.ErrSourceUnavailable.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	native, err := toMySQLDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSourceUnavailable, err)
	}
	db, err := sql.Open("mysql", native)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w: %w", storage.ErrSourceUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w: %w", storage.ErrSourceUnavailable, err)
	}
	return db, nil
}

// toMySQLDSN converts URL-style DSNs to the driver format. Native DSNs pass through.
func toMySQLDSN(dsn string) (string, error) {
	if !strings.HasPrefix(dsn, "mariadb://") && !strings.HasPrefix(dsn, "mysql://") {
		return dsn, nil
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("parse dsn: %w", err)
	}
	user, pass := "", ""
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	db := strings.TrimPrefix(u.Path, "/")
	if user == "" || u.Host == "" || db == "" {
		return "", fmt.Errorf("incomplete dsn: user, host and database are required")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&interpolateParams=true",
		user, pass, u.Host, db), nil
}
