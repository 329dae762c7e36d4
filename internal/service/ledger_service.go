package service

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/noah-isme/tabungan-api/internal/dto"
	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

// LedgerGateway is the durable store behind the ledger and the session gate.
type LedgerGateway interface {
	LoadStudents(ctx context.Context) ([]models.Student, error)
	SaveStudents(ctx context.Context, students []models.Student) error
	LoadTransactions(ctx context.Context) ([]models.Transaction, error)
	SaveTransactions(ctx context.Context, txns []models.Transaction) error
	SaveLedger(ctx context.Context, students []models.Student, txns []models.Transaction) error
	SaveCurrentUser(ctx context.Context, session models.Session) error
	LoadCurrentUser(ctx context.Context) (*models.Session, error)
	ClearCurrentUser(ctx context.Context) error
}

type ledgerPublisher interface {
	Publish(event models.LedgerEvent)
}

type ledgerMetrics interface {
	ObserveLedgerOperation(operation, outcome string, duration time.Duration)
	SetLedgerTotals(students int, totalBalance int64)
}

// Ledger operation outcomes reported to metrics.
const (
	outcomeOK          = "ok"
	outcomeRejected    = "rejected"
	outcomePersistence = "persistence_error"
)

// LedgerSnapshot is a read-only copy of the committed ledger.
type LedgerSnapshot struct {
	Revision     uint64
	Students     []models.Student
	Transactions []models.Transaction
}

// LedgerService owns the students and transactions collections and keeps
// every balance equal to the sum of the student's transactions.
type LedgerService struct {
	gateway   LedgerGateway
	publisher ledgerPublisher
	metrics   ledgerMetrics
	validator *validator.Validate
	logger    *zap.Logger

	gate   *semaphore.Weighted
	state  atomic.Pointer[ledgerState]
	loaded atomic.Bool

	now   func() time.Time
	newID func() string
}

// NewLedgerService constructs the ledger engine with an empty state. Call
// Load to read the persisted collections.
func NewLedgerService(gateway LedgerGateway, publisher ledgerPublisher, metrics ledgerMetrics, validate *validator.Validate, logger *zap.Logger) *LedgerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LedgerService{
		gateway:   gateway,
		publisher: publisher,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		gate:      semaphore.NewWeighted(1),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	s.state.Store(newLedgerState(0, nil, nil))
	return s
}

// Load reads both collections in parallel, drops transactions whose student
// no longer exists and repairs balances that disagree with their
// transactions. A repaired snapshot is written back.
func (s *LedgerService) Load(ctx context.Context) error {
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ledger busy")
	}
	defer s.gate.Release(1)

	var (
		students []models.Student
		txns     []models.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		students, err = s.gateway.LoadStudents(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txns, err = s.gateway.LoadTransactions(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load ledger", zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load data")
	}

	next := newLedgerState(s.state.Load().revision+1, students, txns)
	if repaired := s.repair(next); repaired {
		if err := s.gateway.SaveLedger(ctx, next.students, next.transactions); err != nil {
			s.logger.Warn("failed to persist repaired ledger", zap.Error(err))
		}
	}

	s.state.Store(next)
	s.loaded.Store(true)
	s.reportTotals(next)
	s.logger.Info("ledger loaded",
		zap.Int("students", len(next.students)),
		zap.Int("transactions", len(next.transactions)),
		zap.Uint64("revision", next.revision),
	)
	return nil
}

func (s *LedgerService) repair(st *ledgerState) bool {
	repaired := false

	txns := st.transactions[:0]
	for _, t := range st.transactions {
		if _, ok := st.studentIdx[t.StudentID]; !ok {
			s.logger.Warn("dropping orphaned transaction", zap.String("transaction_id", t.ID), zap.String("student_id", t.StudentID))
			repaired = true
			continue
		}
		txns = append(txns, t)
	}
	st.transactions = txns

	sums := st.computedBalances()
	for i := range st.students {
		student := &st.students[i]
		if grade := models.GradeFromClass(student.ClassLabel); grade != student.Grade {
			student.Grade = grade
			repaired = true
		}
		if computed := sums[student.ID]; computed != student.Balance {
			s.logger.Warn("repairing student balance",
				zap.String("student_id", student.ID),
				zap.Int64("stored", student.Balance),
				zap.Int64("computed", computed),
			)
			student.Balance = computed
			repaired = true
		}
	}

	st.reindex()
	return repaired
}

// ledgerChange describes what a mutation touched.
type ledgerChange struct {
	students     bool
	transactions bool
	events       []models.LedgerEvent
}

// mutate serializes fn against the committed state. fn edits a clone; the
// clone becomes visible only after the gateway accepted it.
func (s *LedgerService) mutate(ctx context.Context, operation string, fn func(next *ledgerState) (ledgerChange, error)) error {
	start := time.Now()
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "ledger busy")
	}
	defer s.gate.Release(1)

	current := s.state.Load()
	next := current.clone()

	change, err := fn(next)
	if err != nil {
		s.observe(operation, outcomeRejected, start)
		return err
	}

	if err := s.persist(ctx, next, change); err != nil {
		s.observe(operation, outcomePersistence, start)
		s.logger.Error("ledger persistence failed",
			zap.String("operation", operation),
			zap.Bool("students", change.students),
			zap.Bool("transactions", change.transactions),
			zap.Error(err),
		)
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, appErrors.ErrPersistence.Message)
	}

	next.revision = current.revision + 1
	s.state.Store(next)
	s.observe(operation, outcomeOK, start)
	s.reportTotals(next)

	if s.publisher != nil {
		for _, evt := range change.events {
			evt.Revision = next.revision
			s.publisher.Publish(evt)
		}
	}
	return nil
}

func (s *LedgerService) persist(ctx context.Context, st *ledgerState, change ledgerChange) error {
	switch {
	case change.students && change.transactions:
		return s.gateway.SaveLedger(ctx, st.students, st.transactions)
	case change.students:
		return s.gateway.SaveStudents(ctx, st.students)
	case change.transactions:
		return s.gateway.SaveTransactions(ctx, st.transactions)
	}
	return nil
}

func (s *LedgerService) observe(operation, outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveLedgerOperation(operation, outcome, time.Since(start))
	}
}

func (s *LedgerService) reportTotals(st *ledgerState) {
	if s.metrics != nil {
		count, total := st.totals()
		s.metrics.SetLedgerTotals(count, total)
	}
}

func authorize(actor models.User, capability models.Capability) error {
	if !actor.Role.Can(capability) {
		return appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" may not perform this action")
	}
	return nil
}

func (s *LedgerService) event(kind models.LedgerEventType, actor models.User, student models.Student, txnID string) models.LedgerEvent {
	return models.LedgerEvent{
		ID:            s.newID(),
		Type:          kind,
		StudentID:     student.ID,
		TransactionID: txnID,
		Balance:       student.Balance,
		ActorID:       actor.ID,
		OccurredAt:    s.now(),
	}
}

func insufficientFunds(balance, requested, resulting int64) error {
	return appErrors.WithDetails(appErrors.ErrInsufficientFunds, "", map[string]interface{}{
		"balance":           balance,
		"requested":         requested,
		"resulting_balance": resulting,
	})
}

func balanceOverflow() error {
	return validationError("resulting balance exceeds the supported range")
}

func validationError(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

// AddStudent registers a student with a zero balance.
func (s *LedgerService) AddStudent(ctx context.Context, actor models.User, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := authorize(actor, models.CapManageStudents); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	nis := strings.TrimSpace(req.NIS)
	name := strings.TrimSpace(req.Name)
	classLabel := models.NormalizeClassLabel(req.ClassLabel)
	if nis == "" || name == "" || classLabel == "" {
		return nil, validationError("nis, name and class_label are required")
	}
	grade := models.GradeFromClass(classLabel)
	if grade == 0 {
		return nil, validationError("class_label must start with a grade number")
	}

	var created models.Student
	err := s.mutate(ctx, "add_student", func(next *ledgerState) (ledgerChange, error) {
		if _, exists := next.studentByNIS(nis); exists {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrConflict, "nis already registered")
		}
		now := s.now()
		created = models.Student{
			ID:         s.newID(),
			NIS:        nis,
			Name:       name,
			ClassLabel: classLabel,
			Grade:      grade,
			Category:   strings.TrimSpace(req.Category),
			Balance:    0,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		next.addStudent(created)
		return ledgerChange{
			students: true,
			events:   []models.LedgerEvent{s.event(models.EventStudentCreated, actor, created, "")},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateStudent merges the non-nil identity fields into the student.
func (s *LedgerService) UpdateStudent(ctx context.Context, actor models.User, id string, req dto.UpdateStudentRequest) (*models.Student, error) {
	if err := authorize(actor, models.CapManageStudents); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	var updated models.Student
	err := s.mutate(ctx, "update_student", func(next *ledgerState) (ledgerChange, error) {
		student, ok := next.student(id)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		if req.NIS != nil {
			nis := strings.TrimSpace(*req.NIS)
			if nis == "" {
				return ledgerChange{}, validationError("nis must not be blank")
			}
			if other, exists := next.studentByNIS(nis); exists && other.ID != id {
				return ledgerChange{}, appErrors.Clone(appErrors.ErrConflict, "nis already registered")
			}
			student.NIS = nis
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return ledgerChange{}, validationError("name must not be blank")
			}
			student.Name = name
		}
		if req.ClassLabel != nil {
			classLabel := models.NormalizeClassLabel(*req.ClassLabel)
			grade := models.GradeFromClass(classLabel)
			if grade == 0 {
				return ledgerChange{}, validationError("class_label must start with a grade number")
			}
			student.ClassLabel = classLabel
			student.Grade = grade
		}
		if req.Category != nil {
			student.Category = strings.TrimSpace(*req.Category)
		}
		student.UpdatedAt = s.now()
		updated = *student
		return ledgerChange{
			students: true,
			events:   []models.LedgerEvent{s.event(models.EventStudentUpdated, actor, updated, "")},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteStudent removes the student together with all of its transactions.
func (s *LedgerService) DeleteStudent(ctx context.Context, actor models.User, id string) error {
	if err := authorize(actor, models.CapManageStudents); err != nil {
		return err
	}
	return s.mutate(ctx, "delete_student", func(next *ledgerState) (ledgerChange, error) {
		student, ok := next.student(id)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		deleted := *student
		removed := next.removeStudent(id)
		s.logger.Info("student deleted", zap.String("student_id", id), zap.Int("transactions_removed", removed))

		deleted.Balance = 0
		return ledgerChange{
			students:     true,
			transactions: true,
			events:       []models.LedgerEvent{s.event(models.EventStudentDeleted, actor, deleted, "")},
		}, nil
	})
}

// AddTransaction records a deposit or withdrawal and adjusts the balance.
// Withdrawals may not exceed the current balance.
func (s *LedgerService) AddTransaction(ctx context.Context, actor models.User, req dto.CreateTransactionRequest) (*models.Transaction, error) {
	if err := authorize(actor, models.CapRecordTransactions); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transaction payload")
	}
	if req.Amount <= 0 {
		return nil, validationError("amount must be greater than zero")
	}
	if req.Amount > models.MaxTransactionAmount {
		return nil, validationError("amount exceeds the maximum per transaction")
	}
	if !req.Type.Valid() {
		return nil, validationError("type must be deposit or withdrawal")
	}

	var created models.Transaction
	err := s.mutate(ctx, "add_transaction", func(next *ledgerState) (ledgerChange, error) {
		student, ok := next.student(req.StudentID)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}

		now := s.now()
		created = models.Transaction{
			ID:          s.newID(),
			StudentID:   student.ID,
			Type:        req.Type,
			Amount:      req.Amount,
			Date:        now,
			Description: strings.TrimSpace(req.Description),
			CreatedBy:   actor.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if req.Date != nil && !req.Date.IsZero() {
			created.Date = req.Date.UTC()
		}

		resulting, ok := models.AddAmount(student.Balance, created.SignedAmount())
		if !ok {
			return ledgerChange{}, balanceOverflow()
		}
		if resulting < 0 {
			return ledgerChange{}, insufficientFunds(student.Balance, created.Amount, resulting)
		}
		student.Balance = resulting
		student.UpdatedAt = now
		next.addTransaction(created)

		return ledgerChange{
			students:     true,
			transactions: true,
			events:       []models.LedgerEvent{s.event(models.EventTransactionCreated, actor, *student, created.ID)},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateTransaction edits type, amount, date or description. The balance is
// recomputed as balance - old + new in one step and must stay non-negative.
func (s *LedgerService) UpdateTransaction(ctx context.Context, actor models.User, id string, req dto.UpdateTransactionRequest) (*models.Transaction, error) {
	if err := authorize(actor, models.CapRecordTransactions); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transaction payload")
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, validationError("amount must be greater than zero")
	}
	if req.Amount != nil && *req.Amount > models.MaxTransactionAmount {
		return nil, validationError("amount exceeds the maximum per transaction")
	}
	if req.Type != nil && !req.Type.Valid() {
		return nil, validationError("type must be deposit or withdrawal")
	}

	var updated models.Transaction
	err := s.mutate(ctx, "update_transaction", func(next *ledgerState) (ledgerChange, error) {
		txn, ok := next.transaction(id)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		student, ok := next.student(txn.StudentID)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}

		candidate := *txn
		if req.Type != nil {
			candidate.Type = *req.Type
		}
		if req.Amount != nil {
			candidate.Amount = *req.Amount
		}
		if req.Date != nil && !req.Date.IsZero() {
			candidate.Date = req.Date.UTC()
		}
		if req.Description != nil {
			candidate.Description = strings.TrimSpace(*req.Description)
		}

		reverted, ok := models.AddAmount(student.Balance, -txn.SignedAmount())
		if !ok {
			return ledgerChange{}, balanceOverflow()
		}
		resulting, ok := models.AddAmount(reverted, candidate.SignedAmount())
		if !ok {
			return ledgerChange{}, balanceOverflow()
		}
		if resulting < 0 {
			return ledgerChange{}, insufficientFunds(student.Balance, candidate.Amount, resulting)
		}

		now := s.now()
		candidate.UpdatedAt = now
		*txn = candidate
		student.Balance = resulting
		student.UpdatedAt = now
		updated = candidate

		return ledgerChange{
			students:     true,
			transactions: true,
			events:       []models.LedgerEvent{s.event(models.EventTransactionUpdated, actor, *student, candidate.ID)},
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction reverses the transaction's effect and removes it. The
// reversal always applies, even when it leaves the balance negative.
func (s *LedgerService) DeleteTransaction(ctx context.Context, actor models.User, id string) error {
	if err := authorize(actor, models.CapRecordTransactions); err != nil {
		return err
	}
	return s.mutate(ctx, "delete_transaction", func(next *ledgerState) (ledgerChange, error) {
		txn, ok := next.transaction(id)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "transaction not found")
		}
		student, ok := next.student(txn.StudentID)
		if !ok {
			return ledgerChange{}, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}

		resulting, ok := models.AddAmount(student.Balance, -txn.SignedAmount())
		if !ok {
			return ledgerChange{}, balanceOverflow()
		}
		if resulting < 0 {
			s.logger.Warn("transaction removal leaves a negative balance",
				zap.String("transaction_id", txn.ID),
				zap.String("student_id", student.ID),
				zap.Int64("balance", resulting),
			)
		}
		student.Balance = resulting
		student.UpdatedAt = s.now()
		snapshot := *student
		next.removeTransaction(id)

		return ledgerChange{
			students:     true,
			transactions: true,
			events:       []models.LedgerEvent{s.event(models.EventTransactionDeleted, actor, snapshot, id)},
		}, nil
	})
}

// GetStudent returns the student with the given id.
func (s *LedgerService) GetStudent(id string) (models.Student, bool) {
	student, ok := s.state.Load().student(id)
	if !ok {
		return models.Student{}, false
	}
	return *student, true
}

// GetTransaction returns the transaction with the given id.
func (s *LedgerService) GetTransaction(id string) (models.Transaction, bool) {
	txn, ok := s.state.Load().transaction(id)
	if !ok {
		return models.Transaction{}, false
	}
	return *txn, true
}

// TransactionsByStudent returns the student's transactions, newest first.
// An unknown student yields an empty list.
func (s *LedgerService) TransactionsByStudent(studentID string) []models.Transaction {
	return s.state.Load().transactionsOf(studentID)
}

// ListStudents filters, sorts and paginates the committed students.
func (s *LedgerService) ListStudents(filter models.StudentFilter) ([]models.Student, *models.Pagination) {
	st := s.state.Load()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	classLabel := models.NormalizeClassLabel(filter.ClassLabel)
	matched := make([]models.Student, 0, len(st.students))
	for _, student := range st.students {
		if filter.Grade > 0 && student.Grade != filter.Grade {
			continue
		}
		if classLabel != "" && student.ClassLabel != classLabel {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(student.Name), search) && !strings.Contains(strings.ToLower(student.NIS), search) {
			continue
		}
		matched = append(matched, student)
	}

	sortStudents(matched, filter.SortBy, strings.ToLower(filter.SortOrder) == "desc")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	if size > 200 {
		size = 200
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: len(matched)}

	start := (page - 1) * size
	if start >= len(matched) {
		return []models.Student{}, pagination
	}
	end := min(start+size, len(matched))
	return matched[start:end], pagination
}

func sortStudents(students []models.Student, sortBy string, desc bool) {
	less := func(a, b models.Student) bool {
		switch sortBy {
		case "nis":
			return a.NIS < b.NIS
		case "balance":
			return a.Balance < b.Balance
		case "created_at":
			return a.CreatedAt.Before(b.CreatedAt)
		case "class":
			if a.ClassLabel != b.ClassLabel {
				return a.ClassLabel < b.ClassLabel
			}
			return a.Name < b.Name
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	}
	sort.SliceStable(students, func(i, j int) bool {
		if desc {
			return less(students[j], students[i])
		}
		return less(students[i], students[j])
	})
}

// Snapshot returns a copy of the committed collections.
func (s *LedgerService) Snapshot() LedgerSnapshot {
	st := s.state.Load()
	students := make([]models.Student, len(st.students))
	copy(students, st.students)
	txns := make([]models.Transaction, len(st.transactions))
	copy(txns, st.transactions)
	return LedgerSnapshot{Revision: st.revision, Students: students, Transactions: txns}
}

// Loaded reports whether Load has completed successfully.
func (s *LedgerService) Loaded() bool {
	return s.loaded.Load()
}

// Revision returns the revision of the committed state.
func (s *LedgerService) Revision() uint64 {
	return s.state.Load().revision
}

// Audit recomputes every balance from the transactions and reports the
// students whose stored balance differs.
func (s *LedgerService) Audit(actor models.User) (*models.LedgerAudit, error) {
	if err := authorize(actor, models.CapAuditLedger); err != nil {
		return nil, err
	}
	st := s.state.Load()
	sums := st.computedBalances()

	audit := &models.LedgerAudit{
		Revision:        st.revision,
		StudentsChecked: len(st.students),
		Discrepancies:   []models.BalanceDiscrepancy{},
	}
	for _, student := range st.students {
		if computed := sums[student.ID]; computed != student.Balance {
			audit.Discrepancies = append(audit.Discrepancies, models.BalanceDiscrepancy{
				StudentID:       student.ID,
				StoredBalance:   student.Balance,
				ComputedBalance: computed,
			})
		}
	}
	for _, t := range st.transactions {
		if _, ok := st.studentIdx[t.StudentID]; !ok {
			audit.OrphanedTxnCount++
		}
	}
	return audit, nil
}
