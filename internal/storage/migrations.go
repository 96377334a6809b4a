package storage

import (
	"context"

	"github.com/pkg/errors"
)

// Migrate creates all necessary tables.
func (r *SQLiteRepository) Migrate(ctx context.Context) error {
	migrations := []struct {
		name string
		sql  string
	}{
		{
			name: "create_users",
			sql: `CREATE TABLE IF NOT EXISTS users (
				chat_id TEXT PRIMARY KEY,
				name TEXT NOT NULL
			)`,
		},
		{
			name: "create_debts",
			sql: `CREATE TABLE IF NOT EXISTS debts (
				debt_id TEXT PRIMARY KEY,
				creditor_id TEXT NOT NULL,
				debtor_id TEXT NOT NULL,
				category TEXT NOT NULL,
				amount TEXT NOT NULL,
				deadline TEXT NOT NULL,
				is_accepted BOOLEAN NOT NULL DEFAULT 0,
				is_paid BOOLEAN NOT NULL DEFAULT 0,
				FOREIGN KEY (creditor_id) REFERENCES users(chat_id),
				FOREIGN KEY (debtor_id) REFERENCES users(chat_id)
			)`,
		},
		{
			name: "create_indexes",
			sql: `CREATE INDEX IF NOT EXISTS idx_debts_creditor_id ON debts(creditor_id);
				CREATE INDEX IF NOT EXISTS idx_debts_debtor_id ON debts(debtor_id);`,
		},
	}

	for _, migration := range migrations {
		if _, err := r.db.ExecContext(ctx, migration.sql); err != nil {
			return errors.Wrapf(err, "migration %s failed", migration.name)
		}
	}

	return nil
}
