package storage

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// Repository is the durable backing of the Store. Save must be atomic from
// a reader's perspective: a crash mid-write leaves the previous snapshot
// intact.
type Repository interface {
	LoadAll(ctx context.Context) ([]User, []Debt, error)
	Save(ctx context.Context, users []User, debts []Debt) error
	Close() error
}

// SQLiteRepository persists full snapshots of users and debts in a SQLite
// database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository opens (and creates, if necessary) the SQLite database at dsn.
func NewRepository(dsn string) (*SQLiteRepository, error) {
	if dsn == "" {
		dsn = "bot.db"
	}

	if dsn != ":memory:" {
		absPath, err := filepath.Abs(dsn)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to resolve database path %q", dsn)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, errors.Wrapf(err, "failed to create database directory for %q", absPath)
		}
		dsn = absPath
	}

	db, err := sql.Open("sqlite", dsn+"?_foreign_keys=1")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %q", dsn)
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrapf(err, "failed to ping database %q", dsn)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// LoadAll returns the last persisted snapshot.
func (r *SQLiteRepository) LoadAll(ctx context.Context) ([]User, []Debt, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT chat_id, name FROM users")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to query users")
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ChatID, &u.Name); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan user")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to iterate users")
	}

	drows, err := r.db.QueryContext(ctx,
		"SELECT debt_id, creditor_id, debtor_id, category, amount, deadline, is_accepted, is_paid FROM debts")
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to query debts")
	}
	defer drows.Close()

	var debts []Debt
	for drows.Next() {
		var d Debt
		if err := drows.Scan(&d.ID, &d.CreditorID, &d.DebtorID, &d.Category,
			&d.Amount, &d.Deadline, &d.Accepted, &d.Paid); err != nil {
			return nil, nil, errors.Wrap(err, "failed to scan debt")
		}
		debts = append(debts, d)
	}
	if err := drows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "failed to iterate debts")
	}

	return users, debts, nil
}

// Save replaces the stored snapshot with the given one in a single
// transaction.
func (r *SQLiteRepository) Save(ctx context.Context, users []User, debts []Debt) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM users"); err != nil {
		return errors.Wrap(err, "failed to clear users")
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM debts"); err != nil {
		return errors.Wrap(err, "failed to clear debts")
	}

	for _, u := range users {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO users (chat_id, name) VALUES (?, ?)",
			u.ChatID, u.Name,
		); err != nil {
			return errors.Wrapf(err, "failed to insert user %s", u.ChatID)
		}
	}

	for _, d := range debts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO debts (debt_id, creditor_id, debtor_id, category, amount, deadline, is_accepted, is_paid)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.CreditorID, d.DebtorID, d.Category, d.Amount, d.Deadline, d.Accepted, d.Paid,
		); err != nil {
			return errors.Wrapf(err, "failed to insert debt %s", d.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "failed to commit snapshot")
	}
	return nil
}
