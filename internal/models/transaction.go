package models

import "time"

// TransactionType discriminates the sign of a transaction.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	return t == TransactionDeposit || t == TransactionWithdrawal
}

// MaxTransactionAmount bounds a single deposit or withdrawal in rupiah.
const MaxTransactionAmount int64 = 1_000_000_000_000

// Transaction is a single deposit or withdrawal on a student's savings.
type Transaction struct {
	ID          string          `db:"id" json:"id"`
	StudentID   string          `db:"student_id" json:"student_id"`
	Type        TransactionType `db:"type" json:"type"`
	Amount      int64           `db:"amount" json:"amount"`
	Date        time.Time       `db:"date" json:"date"`
	Description string          `db:"description" json:"description"`
	CreatedBy   string          `db:"created_by" json:"created_by"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// SignedAmount returns the amount with the sign carried by the type.
func (t Transaction) SignedAmount() int64 {
	if t.Type == TransactionWithdrawal {
		return -t.Amount
	}
	return t.Amount
}

// AddAmount returns a+b and false when the sum does not fit in an int64.
func AddAmount(a, b int64) (int64, bool) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, false
	}
	return sum, true
}
