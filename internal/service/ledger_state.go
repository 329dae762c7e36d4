package service

import (
	"sort"

	"github.com/noah-isme/tabungan-api/internal/models"
)

// ledgerState is an immutable snapshot once published. Mutations operate on
// a clone and replace the published pointer after a successful save.
type ledgerState struct {
	revision     uint64
	students     []models.Student
	transactions []models.Transaction
	studentIdx   map[string]int
	txnIdx       map[string]int
}

func newLedgerState(revision uint64, students []models.Student, txns []models.Transaction) *ledgerState {
	st := &ledgerState{
		revision:     revision,
		students:     students,
		transactions: txns,
	}
	if st.students == nil {
		st.students = []models.Student{}
	}
	if st.transactions == nil {
		st.transactions = []models.Transaction{}
	}
	st.reindex()
	return st
}

func (st *ledgerState) reindex() {
	st.studentIdx = make(map[string]int, len(st.students))
	for i, s := range st.students {
		st.studentIdx[s.ID] = i
	}
	st.txnIdx = make(map[string]int, len(st.transactions))
	for i, t := range st.transactions {
		st.txnIdx[t.ID] = i
	}
}

func (st *ledgerState) clone() *ledgerState {
	students := make([]models.Student, len(st.students))
	copy(students, st.students)
	txns := make([]models.Transaction, len(st.transactions))
	copy(txns, st.transactions)

	next := &ledgerState{
		revision:     st.revision,
		students:     students,
		transactions: txns,
		studentIdx:   make(map[string]int, len(st.studentIdx)),
		txnIdx:       make(map[string]int, len(st.txnIdx)),
	}
	for k, v := range st.studentIdx {
		next.studentIdx[k] = v
	}
	for k, v := range st.txnIdx {
		next.txnIdx[k] = v
	}
	return next
}

func (st *ledgerState) student(id string) (*models.Student, bool) {
	i, ok := st.studentIdx[id]
	if !ok {
		return nil, false
	}
	return &st.students[i], true
}

func (st *ledgerState) transaction(id string) (*models.Transaction, bool) {
	i, ok := st.txnIdx[id]
	if !ok {
		return nil, false
	}
	return &st.transactions[i], true
}

func (st *ledgerState) studentByNIS(nis string) (*models.Student, bool) {
	for i := range st.students {
		if st.students[i].NIS == nis {
			return &st.students[i], true
		}
	}
	return nil, false
}

func (st *ledgerState) addStudent(s models.Student) {
	st.studentIdx[s.ID] = len(st.students)
	st.students = append(st.students, s)
}

func (st *ledgerState) addTransaction(t models.Transaction) {
	st.txnIdx[t.ID] = len(st.transactions)
	st.transactions = append(st.transactions, t)
}

// removeStudent drops the student and every transaction referencing it and
// returns how many transactions were removed.
func (st *ledgerState) removeStudent(id string) int {
	students := st.students[:0]
	for _, s := range st.students {
		if s.ID != id {
			students = append(students, s)
		}
	}
	st.students = students

	removed := 0
	txns := st.transactions[:0]
	for _, t := range st.transactions {
		if t.StudentID == id {
			removed++
			continue
		}
		txns = append(txns, t)
	}
	st.transactions = txns
	st.reindex()
	return removed
}

func (st *ledgerState) removeTransaction(id string) {
	txns := st.transactions[:0]
	for _, t := range st.transactions {
		if t.ID != id {
			txns = append(txns, t)
		}
	}
	st.transactions = txns
	st.reindex()
}

// transactionsOf returns the student's transactions, newest date first.
func (st *ledgerState) transactionsOf(studentID string) []models.Transaction {
	out := make([]models.Transaction, 0)
	for _, t := range st.transactions {
		if t.StudentID == studentID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// computedBalances sums signed amounts per student id.
func (st *ledgerState) computedBalances() map[string]int64 {
	sums := make(map[string]int64, len(st.students))
	for _, t := range st.transactions {
		sums[t.StudentID] += t.SignedAmount()
	}
	return sums
}

func (st *ledgerState) totals() (int, int64) {
	var total int64
	for _, s := range st.students {
		total = saturatingAdd(total, s.Balance)
	}
	return len(st.students), total
}
