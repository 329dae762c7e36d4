package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/tabungan-api/internal/models"
)

const sqlBatchSize = 500

const (
	studentColumns     = `id, nis, name, class_label, grade, category, balance, created_at, updated_at`
	transactionColumns = `id, student_id, type, amount, date, description, created_by, created_at, updated_at`
)

// SQLGateway persists the ledger in PostgreSQL or SQLite. Every save
// rewrites the collection inside one database transaction: rows are upserted
// in batches and rows missing from the snapshot are deleted.
type SQLGateway struct {
	db *sqlx.DB
}

// NewSQLGateway constructs a gateway over an open database handle whose
// schema has been migrated.
func NewSQLGateway(db *sqlx.DB) *SQLGateway {
	return &SQLGateway{db: db}
}

// LoadStudents returns every stored student.
func (g *SQLGateway) LoadStudents(ctx context.Context) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at, id`
	students := make([]models.Student, 0)
	if err := g.db.SelectContext(ctx, &students, query); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	return students, nil
}

// LoadTransactions returns every stored transaction.
func (g *SQLGateway) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY date, id`
	txns := make([]models.Transaction, 0)
	if err := g.db.SelectContext(ctx, &txns, query); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txns, nil
}

// SaveStudents replaces the stored students with the given collection.
func (g *SQLGateway) SaveStudents(ctx context.Context, students []models.Student) error {
	return g.withTx(ctx, func(tx *sqlx.Tx) error {
		return saveStudents(ctx, tx, students)
	})
}

// SaveTransactions replaces the stored transactions with the given collection.
func (g *SQLGateway) SaveTransactions(ctx context.Context, txns []models.Transaction) error {
	return g.withTx(ctx, func(tx *sqlx.Tx) error {
		return saveTransactions(ctx, tx, txns)
	})
}

// SaveLedger writes both collections atomically.
func (g *SQLGateway) SaveLedger(ctx context.Context, students []models.Student, txns []models.Transaction) error {
	return g.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := saveStudents(ctx, tx, students); err != nil {
			return err
		}
		return saveTransactions(ctx, tx, txns)
	})
}

// SaveCurrentUser stores the single current-user record.
func (g *SQLGateway) SaveCurrentUser(ctx context.Context, session models.Session) error {
	const query = `INSERT INTO app_session (slot, user_id, username, name, role, session_id, logged_in_at)
        VALUES (1, :user_id, :username, :name, :role, :session_id, :logged_in_at)
        ON CONFLICT (slot) DO UPDATE SET user_id = excluded.user_id, username = excluded.username, name = excluded.name,
        role = excluded.role, session_id = excluded.session_id, logged_in_at = excluded.logged_in_at`
	if _, err := g.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

// LoadCurrentUser returns the current-user record or nil when none is stored.
func (g *SQLGateway) LoadCurrentUser(ctx context.Context) (*models.Session, error) {
	const query = `SELECT user_id, username, name, role, session_id, logged_in_at FROM app_session WHERE slot = 1`
	var session models.Session
	if err := g.db.GetContext(ctx, &session, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load current user: %w", err)
	}
	return &session, nil
}

// ClearCurrentUser removes the current-user record.
func (g *SQLGateway) ClearCurrentUser(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM app_session`); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}

func (g *SQLGateway) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := g.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func saveStudents(ctx context.Context, tx *sqlx.Tx, students []models.Student) error {
	const upsert = `INSERT INTO students (` + studentColumns + `)
        VALUES (:id, :nis, :name, :class_label, :grade, :category, :balance, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET nis = excluded.nis, name = excluded.name, class_label = excluded.class_label,
        grade = excluded.grade, category = excluded.category, balance = excluded.balance, updated_at = excluded.updated_at`

	keep := make(map[string]struct{}, len(students))
	for _, s := range students {
		keep[s.ID] = struct{}{}
	}
	if err := deleteMissing(ctx, tx, "students", keep); err != nil {
		return err
	}
	for start := 0; start < len(students); start += sqlBatchSize {
		end := min(start+sqlBatchSize, len(students))
		if _, err := tx.NamedExecContext(ctx, upsert, students[start:end]); err != nil {
			return fmt.Errorf("upsert students: %w", err)
		}
	}
	return nil
}

func saveTransactions(ctx context.Context, tx *sqlx.Tx, txns []models.Transaction) error {
	const upsert = `INSERT INTO transactions (` + transactionColumns + `)
        VALUES (:id, :student_id, :type, :amount, :date, :description, :created_by, :created_at, :updated_at)
        ON CONFLICT (id) DO UPDATE SET type = excluded.type, amount = excluded.amount, date = excluded.date,
        description = excluded.description, updated_at = excluded.updated_at`

	keep := make(map[string]struct{}, len(txns))
	for _, t := range txns {
		keep[t.ID] = struct{}{}
	}
	if err := deleteMissing(ctx, tx, "transactions", keep); err != nil {
		return err
	}
	for start := 0; start < len(txns); start += sqlBatchSize {
		end := min(start+sqlBatchSize, len(txns))
		if _, err := tx.NamedExecContext(ctx, upsert, txns[start:end]); err != nil {
			return fmt.Errorf("upsert transactions: %w", err)
		}
	}
	return nil
}

// deleteMissing removes rows of table whose id is not in keep. Deletions run
// before upserts so a reused NIS never collides with a row about to vanish.
func deleteMissing(ctx context.Context, tx *sqlx.Tx, table string, keep map[string]struct{}) error {
	var ids []string
	if err := tx.SelectContext(ctx, &ids, `SELECT id FROM `+table); err != nil {
		return fmt.Errorf("list %s ids: %w", table, err)
	}

	stale := make([]string, 0)
	for _, id := range ids {
		if _, ok := keep[id]; !ok {
			stale = append(stale, id)
		}
	}

	for start := 0; start < len(stale); start += sqlBatchSize {
		end := min(start+sqlBatchSize, len(stale))
		query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE id IN (?)`, stale[start:end])
		if err != nil {
			return fmt.Errorf("build %s delete: %w", table, err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("delete stale %s: %w", table, err)
		}
	}
	return nil
}
