package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunMySQLMigrations applies all embedded MySQL/MariaDB files statement by statement.
func RunMySQLMigrations(ctx context.Context, db *sql.DB) error {
	byFile, order, err := statements(MySQLFS, "mysql")
	if err != nil {
		return err
	}
	for _, name := range order {
		for _, stmt := range byFile[name] {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %s: %w", name, err)
			}
		}
	}
	return nil
}
