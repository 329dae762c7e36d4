package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/pkg/storage"
)

// Document keys shared with the mobile client's local storage layout.
const (
	keyUser         = "@user"
	keyStudents     = "@students"
	keyTransactions = "@transactions"
)

// FileGateway persists the ledger as a single JSON document on local disk.
type FileGateway struct {
	store *storage.DocumentStore
}

// NewFileGateway wraps an opened document store.
func NewFileGateway(store *storage.DocumentStore) *FileGateway {
	return &FileGateway{store: store}
}

// LoadStudents returns the stored students, or an empty list when none exist.
func (g *FileGateway) LoadStudents(_ context.Context) ([]models.Student, error) {
	students := make([]models.Student, 0)
	if _, err := g.store.Get(keyStudents, &students); err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	return students, nil
}

// LoadTransactions returns the stored transactions.
func (g *FileGateway) LoadTransactions(_ context.Context) ([]models.Transaction, error) {
	txns := make([]models.Transaction, 0)
	if _, err := g.store.Get(keyTransactions, &txns); err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	return txns, nil
}

// SaveStudents replaces the stored students.
func (g *FileGateway) SaveStudents(ctx context.Context, students []models.Student) error {
	if err := g.store.Put(ctx, keyStudents, nonNilStudents(students)); err != nil {
		return fmt.Errorf("save students: %w", err)
	}
	return nil
}

// SaveTransactions replaces the stored transactions.
func (g *FileGateway) SaveTransactions(ctx context.Context, txns []models.Transaction) error {
	if err := g.store.Put(ctx, keyTransactions, nonNilTransactions(txns)); err != nil {
		return fmt.Errorf("save transactions: %w", err)
	}
	return nil
}

// SaveLedger writes both collections in one document replacement.
func (g *FileGateway) SaveLedger(ctx context.Context, students []models.Student, txns []models.Transaction) error {
	err := g.store.Update(ctx, func(tx *storage.DocumentTx) error {
		if err := tx.Put(keyStudents, nonNilStudents(students)); err != nil {
			return err
		}
		return tx.Put(keyTransactions, nonNilTransactions(txns))
	})
	if err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

// SaveCurrentUser stores the current-user record.
func (g *FileGateway) SaveCurrentUser(ctx context.Context, session models.Session) error {
	if err := g.store.Put(ctx, keyUser, session); err != nil {
		return fmt.Errorf("save current user: %w", err)
	}
	return nil
}

// LoadCurrentUser returns the current-user record or nil when absent.
func (g *FileGateway) LoadCurrentUser(_ context.Context) (*models.Session, error) {
	var session models.Session
	found, err := g.store.Get(keyUser, &session)
	if err != nil {
		return nil, fmt.Errorf("load current user: %w", err)
	}
	if !found {
		return nil, nil
	}
	return &session, nil
}

// ClearCurrentUser removes the current-user record.
func (g *FileGateway) ClearCurrentUser(ctx context.Context) error {
	if err := g.store.Delete(ctx, keyUser); err != nil {
		return fmt.Errorf("clear current user: %w", err)
	}
	return nil
}

func nonNilStudents(students []models.Student) []models.Student {
	if students == nil {
		return []models.Student{}
	}
	return students
}

func nonNilTransactions(txns []models.Transaction) []models.Transaction {
	if txns == nil {
		return []models.Transaction{}
	}
	return txns
}
