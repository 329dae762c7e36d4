package models

import "time"

// LedgerEventType names a committed ledger change.
type LedgerEventType string

const (
	EventStudentCreated     LedgerEventType = "student.created"
	EventStudentUpdated     LedgerEventType = "student.updated"
	EventStudentDeleted     LedgerEventType = "student.deleted"
	EventTransactionCreated LedgerEventType = "transaction.created"
	EventTransactionUpdated LedgerEventType = "transaction.updated"
	EventTransactionDeleted LedgerEventType = "transaction.deleted"
)

// LedgerEvent is emitted after a mutation has been persisted.
type LedgerEvent struct {
	ID            string          `json:"id"`
	Type          LedgerEventType `json:"type"`
	Revision      uint64          `json:"revision"`
	StudentID     string          `json:"student_id"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Balance       int64           `json:"balance"`
	ActorID       string          `json:"actor_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
