package dto

import (
	"time"

	"github.com/noah-isme/tabungan-api/internal/models"
)

// CreateTransactionRequest records a deposit or withdrawal. Date defaults
// to the current time when omitted.
type CreateTransactionRequest struct {
	StudentID   string                 `json:"student_id" validate:"required"`
	Type        models.TransactionType `json:"type" validate:"required,oneof=deposit withdrawal"`
	Amount      int64                  `json:"amount" validate:"required,gt=0,lte=1000000000000"`
	Date        *time.Time             `json:"date"`
	Description string                 `json:"description" validate:"omitempty,max=255"`
}

// UpdateTransactionRequest edits a transaction. The owning student cannot
// be changed.
type UpdateTransactionRequest struct {
	Type        *models.TransactionType `json:"type" validate:"omitempty,oneof=deposit withdrawal"`
	Amount      *int64                  `json:"amount" validate:"omitempty,gt=0,lte=1000000000000"`
	Date        *time.Time              `json:"date"`
	Description *string                 `json:"description" validate:"omitempty,max=255"`
}
