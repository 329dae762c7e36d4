package models

// ClassReport aggregates balances for one class or grade-level group.
type ClassReport struct {
	ClassLabel       string   `json:"class_label"`
	Grade            int      `json:"grade"`
	Classes          []string `json:"classes"`
	TotalStudents    int      `json:"total_students"`
	TotalBalance     int64    `json:"total_balance"`
	TotalDeposits    int64    `json:"total_deposits"`
	TotalWithdrawals int64    `json:"total_withdrawals"`
}

// StudentReportRow is one student line of a ClassReportDetail.
type StudentReportRow struct {
	StudentID        string `json:"student_id"`
	NIS              string `json:"nis"`
	Name             string `json:"name"`
	ClassLabel       string `json:"class_label"`
	Balance          int64  `json:"balance"`
	TotalDeposits    int64  `json:"total_deposits"`
	TotalWithdrawals int64  `json:"total_withdrawals"`
}

// ClassReportDetail is a ClassReport together with its per-student rows.
type ClassReportDetail struct {
	ClassReport
	Students []StudentReportRow `json:"students"`
}

// BalanceDiscrepancy reports a student whose stored balance disagrees with
// the sum of its transactions.
type BalanceDiscrepancy struct {
	StudentID       string `json:"student_id"`
	StoredBalance   int64  `json:"stored_balance"`
	ComputedBalance int64  `json:"computed_balance"`
}

// LedgerAudit is the result of recomputing every balance.
type LedgerAudit struct {
	Revision         uint64               `json:"revision"`
	StudentsChecked  int                  `json:"students_checked"`
	Discrepancies    []BalanceDiscrepancy `json:"discrepancies"`
	OrphanedTxnCount int                  `json:"orphaned_transactions"`
}
