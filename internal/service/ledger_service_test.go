package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tabungan-api/internal/dto"
	"github.com/noah-isme/tabungan-api/internal/models"
	appErrors "github.com/noah-isme/tabungan-api/pkg/errors"
)

type memoryGateway struct {
	mu           sync.Mutex
	students     []models.Student
	transactions []models.Transaction
	session      *models.Session
	failSaves    error
	saveCalls    []string
}

func (m *memoryGateway) LoadStudents(context.Context) ([]models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Student(nil), m.students...), nil
}

func (m *memoryGateway) LoadTransactions(context.Context) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Transaction(nil), m.transactions...), nil
}

func (m *memoryGateway) SaveStudents(_ context.Context, students []models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls = append(m.saveCalls, "students")
	if m.failSaves != nil {
		return m.failSaves
	}
	m.students = append([]models.Student(nil), students...)
	return nil
}

func (m *memoryGateway) SaveTransactions(_ context.Context, txns []models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls = append(m.saveCalls, "transactions")
	if m.failSaves != nil {
		return m.failSaves
	}
	m.transactions = append([]models.Transaction(nil), txns...)
	return nil
}

func (m *memoryGateway) SaveLedger(_ context.Context, students []models.Student, txns []models.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveCalls = append(m.saveCalls, "ledger")
	if m.failSaves != nil {
		return m.failSaves
	}
	m.students = append([]models.Student(nil), students...)
	m.transactions = append([]models.Transaction(nil), txns...)
	return nil
}

func (m *memoryGateway) SaveCurrentUser(_ context.Context, session models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaves != nil {
		return m.failSaves
	}
	m.session = &session
	return nil
}

func (m *memoryGateway) LoadCurrentUser(context.Context) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil
	}
	copied := *m.session
	return &copied, nil
}

func (m *memoryGateway) ClearCurrentUser(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = nil
	return nil
}

func (m *memoryGateway) setFailure(err error) {
	m.mu.Lock()
	m.failSaves = err
	m.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.LedgerEvent
}

func (r *recordingPublisher) Publish(evt models.LedgerEvent) {
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

var (
	adminUser   = models.User{ID: "u-admin", Username: "admin", Name: "Admin", Role: models.RoleAdmin}
	teacherUser = models.User{ID: "u-guru", Username: "guru", Name: "Ibu Siti", Role: models.RoleTeacher}
)

func newTestLedger(t *testing.T) (*LedgerService, *memoryGateway, *recordingPublisher) {
	t.Helper()
	gw := &memoryGateway{}
	pub := &recordingPublisher{}
	svc := NewLedgerService(gw, pub, nil, nil, nil)
	require.NoError(t, svc.Load(context.Background()))
	return svc, gw, pub
}

func mustAddStudent(t *testing.T, svc *LedgerService, nis, class string) models.Student {
	t.Helper()
	student, err := svc.AddStudent(context.Background(), adminUser, dto.CreateStudentRequest{NIS: nis, Name: "Siswa " + nis, ClassLabel: class})
	require.NoError(t, err)
	return *student
}

func mustTxn(t *testing.T, svc *LedgerService, studentID string, kind models.TransactionType, amount int64) models.Transaction {
	t.Helper()
	txn, err := svc.AddTransaction(context.Background(), teacherUser, dto.CreateTransactionRequest{StudentID: studentID, Type: kind, Amount: amount})
	require.NoError(t, err)
	return *txn
}

func balanceOf(t *testing.T, svc *LedgerService, id string) int64 {
	t.Helper()
	student, ok := svc.GetStudent(id)
	require.True(t, ok)
	return student.Balance
}

func assertInvariant(t *testing.T, svc *LedgerService) {
	t.Helper()
	snap := svc.Snapshot()
	sums := map[string]int64{}
	for _, txn := range snap.Transactions {
		sums[txn.StudentID] += txn.SignedAmount()
	}
	for _, s := range snap.Students {
		assert.Equal(t, sums[s.ID], s.Balance, "balance invariant for %s", s.ID)
	}
}

func TestLedgerAddStudent(t *testing.T) {
	svc, gw, pub := newTestLedger(t)

	student, err := svc.AddStudent(context.Background(), adminUser, dto.CreateStudentRequest{NIS: " 1001 ", Name: "Andi", ClassLabel: "4a"})
	require.NoError(t, err)
	assert.Equal(t, "1001", student.NIS)
	assert.Equal(t, "4A", student.ClassLabel)
	assert.Equal(t, 4, student.Grade)
	assert.Zero(t, student.Balance)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, []string{"students"}, gw.saveCalls)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.EventStudentCreated, pub.events[0].Type)
	assert.Equal(t, svc.Revision(), pub.events[0].Revision)
}

func TestLedgerAddStudentValidation(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: "1", Name: "", ClassLabel: "4A"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: "1", Name: "   ", ClassLabel: "4A"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: "1", Name: "Andi", ClassLabel: "A"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	mustAddStudent(t, svc, "1", "4A")
	_, err = svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: "1", Name: "Budi", ClassLabel: "5B"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestLedgerPermissions(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()

	_, err := svc.AddStudent(ctx, teacherUser, dto.CreateStudentRequest{NIS: "1", Name: "Andi", ClassLabel: "4A"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	student := mustAddStudent(t, svc, "1", "4A")
	name := "Budi"
	_, err = svc.UpdateStudent(ctx, teacherUser, student.ID, dto.UpdateStudentRequest{Name: &name})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
	assert.True(t, errors.Is(svc.DeleteStudent(ctx, teacherUser, student.ID), appErrors.ErrForbidden))

	_, err = svc.AddTransaction(ctx, models.User{ID: "x", Role: "guest"}, dto.CreateTransactionRequest{StudentID: student.ID, Type: models.TransactionDeposit, Amount: 1})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = svc.Audit(teacherUser)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestLedgerUpdateStudent(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	mustAddStudent(t, svc, "1002", "4B")
	mustTxn(t, svc, student.ID, models.TransactionDeposit, 5000)

	class := "5c"
	updated, err := svc.UpdateStudent(ctx, adminUser, student.ID, dto.UpdateStudentRequest{ClassLabel: &class})
	require.NoError(t, err)
	assert.Equal(t, "5C", updated.ClassLabel)
	assert.Equal(t, 5, updated.Grade)
	assert.Equal(t, int64(5000), updated.Balance)
	assert.Equal(t, "1001", updated.NIS)

	dup := "1002"
	_, err = svc.UpdateStudent(ctx, adminUser, student.ID, dto.UpdateStudentRequest{NIS: &dup})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = svc.UpdateStudent(ctx, adminUser, "missing", dto.UpdateStudentRequest{ClassLabel: &class})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestLedgerDepositWithdrawScenario(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	assert.Zero(t, balanceOf(t, svc, student.ID))

	mustTxn(t, svc, student.ID, models.TransactionDeposit, 50000)
	assert.Equal(t, int64(50000), balanceOf(t, svc, student.ID))

	mustTxn(t, svc, student.ID, models.TransactionDeposit, 25000)
	assert.Equal(t, int64(75000), balanceOf(t, svc, student.ID))

	mustTxn(t, svc, student.ID, models.TransactionWithdrawal, 75000)
	assert.Zero(t, balanceOf(t, svc, student.ID))

	_, err := svc.AddTransaction(ctx, teacherUser, dto.CreateTransactionRequest{StudentID: student.ID, Type: models.TransactionWithdrawal, Amount: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInsufficientFunds))
	appErr := appErrors.FromError(err)
	assert.Equal(t, int64(0), appErr.Details["balance"])
	assert.Equal(t, int64(1), appErr.Details["requested"])
	assert.Zero(t, balanceOf(t, svc, student.ID))
	assert.Len(t, svc.TransactionsByStudent(student.ID), 3)
	assertInvariant(t, svc)
}

func TestLedgerEditRejectedWhenBalanceWouldGoNegative(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	student := mustAddStudent(t, svc, "1001", "4A")
	txn := mustTxn(t, svc, student.ID, models.TransactionDeposit, 10000)
	before := svc.Revision()

	kind := models.TransactionWithdrawal
	amount := int64(5000)
	_, err := svc.UpdateTransaction(context.Background(), teacherUser, txn.ID, dto.UpdateTransactionRequest{Type: &kind, Amount: &amount})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInsufficientFunds))
	assert.Equal(t, int64(-5000), appErrors.FromError(err).Details["resulting_balance"])

	assert.Equal(t, int64(10000), balanceOf(t, svc, student.ID))
	stored, ok := svc.GetTransaction(txn.ID)
	require.True(t, ok)
	assert.Equal(t, models.TransactionDeposit, stored.Type)
	assert.Equal(t, before, svc.Revision())
}

func TestLedgerEditEquivalentToRecreate(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	mustTxn(t, svc, student.ID, models.TransactionDeposit, 20000)
	withdrawal := mustTxn(t, svc, student.ID, models.TransactionWithdrawal, 5000)

	amount := int64(12000)
	desc := "beli buku"
	updated, err := svc.UpdateTransaction(ctx, teacherUser, withdrawal.ID, dto.UpdateTransactionRequest{Amount: &amount, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, int64(12000), updated.Amount)
	assert.Equal(t, withdrawal.StudentID, updated.StudentID)
	assert.Equal(t, int64(8000), balanceOf(t, svc, student.ID))

	fresh, _, _ := newTestLedger(t)
	other := mustAddStudent(t, fresh, "1001", "4A")
	mustTxn(t, fresh, other.ID, models.TransactionDeposit, 20000)
	mustTxn(t, fresh, other.ID, models.TransactionWithdrawal, 12000)
	assert.Equal(t, balanceOf(t, fresh, other.ID), balanceOf(t, svc, student.ID))
	assertInvariant(t, svc)
}

func TestLedgerDeleteTransaction(t *testing.T) {
	svc, _, pub := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	deposit := mustTxn(t, svc, student.ID, models.TransactionDeposit, 10000)
	small := mustTxn(t, svc, student.ID, models.TransactionDeposit, 3000)
	mustTxn(t, svc, student.ID, models.TransactionWithdrawal, 8000)

	// A mistyped deposit stays removable after part of it was withdrawn.
	require.NoError(t, svc.DeleteTransaction(ctx, teacherUser, deposit.ID))
	assert.Equal(t, int64(-5000), balanceOf(t, svc, student.ID))
	assertInvariant(t, svc)

	require.NoError(t, svc.DeleteTransaction(ctx, teacherUser, small.ID))
	assert.Equal(t, int64(-8000), balanceOf(t, svc, student.ID))
	_, ok := svc.GetTransaction(small.ID)
	assert.False(t, ok)
	assert.Equal(t, models.EventTransactionDeleted, pub.events[len(pub.events)-1].Type)

	assert.True(t, errors.Is(svc.DeleteTransaction(ctx, teacherUser, small.ID), appErrors.ErrNotFound))
	assertInvariant(t, svc)
}

func TestLedgerRejectsAmountsAboveLimit(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	deposit := mustTxn(t, svc, student.ID, models.TransactionDeposit, models.MaxTransactionAmount)

	_, err := svc.AddTransaction(ctx, teacherUser, dto.CreateTransactionRequest{
		StudentID: student.ID,
		Type:      models.TransactionDeposit,
		Amount:    models.MaxTransactionAmount + 1,
	})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	amount := models.MaxTransactionAmount + 1
	_, err = svc.UpdateTransaction(ctx, teacherUser, deposit.ID, dto.UpdateTransactionRequest{Amount: &amount})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Equal(t, models.MaxTransactionAmount, balanceOf(t, svc, student.ID))
}

func TestLedgerBalanceOverflowIsValidationError(t *testing.T) {
	gw := &memoryGateway{
		students: []models.Student{
			{ID: "s1", NIS: "1", Name: "Andi", ClassLabel: "4A", Grade: 4, Balance: math.MaxInt64},
		},
		transactions: []models.Transaction{
			{ID: "t1", StudentID: "s1", Type: models.TransactionDeposit, Amount: math.MaxInt64 - 10},
			{ID: "t2", StudentID: "s1", Type: models.TransactionDeposit, Amount: 10},
		},
	}
	svc := NewLedgerService(gw, nil, nil, nil, nil)
	require.NoError(t, svc.Load(context.Background()))
	ctx := context.Background()
	before := svc.Revision()

	_, err := svc.AddTransaction(ctx, teacherUser, dto.CreateTransactionRequest{StudentID: "s1", Type: models.TransactionDeposit, Amount: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.False(t, errors.Is(err, appErrors.ErrInsufficientFunds))

	amount := int64(1000)
	_, err = svc.UpdateTransaction(ctx, teacherUser, "t2", dto.UpdateTransactionRequest{Amount: &amount})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	assert.Equal(t, int64(math.MaxInt64), balanceOf(t, svc, "s1"))
	assert.Equal(t, before, svc.Revision())

	_, err = svc.AddTransaction(ctx, teacherUser, dto.CreateTransactionRequest{StudentID: "s1", Type: models.TransactionWithdrawal, Amount: 5})
	require.NoError(t, err)
	assertInvariant(t, svc)
}

func TestLedgerDeleteStudentCascades(t *testing.T) {
	svc, gw, pub := newTestLedger(t)
	ctx := context.Background()
	keep := mustAddStudent(t, svc, "1001", "4A")
	drop := mustAddStudent(t, svc, "1002", "4A")
	mustTxn(t, svc, keep.ID, models.TransactionDeposit, 1000)
	mustTxn(t, svc, drop.ID, models.TransactionDeposit, 2000)
	mustTxn(t, svc, drop.ID, models.TransactionWithdrawal, 500)

	require.NoError(t, svc.DeleteStudent(ctx, adminUser, drop.ID))
	assert.Empty(t, svc.TransactionsByStudent(drop.ID))
	_, ok := svc.GetStudent(drop.ID)
	assert.False(t, ok)
	assert.Equal(t, "ledger", gw.saveCalls[len(gw.saveCalls)-1])
	assert.Len(t, gw.transactions, 1)
	assert.Equal(t, models.EventStudentDeleted, pub.events[len(pub.events)-1].Type)

	reports := ComputeClassReports(svc.Snapshot().Students, svc.Snapshot().Transactions, GroupByGrade)
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].TotalStudents)
	assert.Equal(t, int64(1000), reports[0].TotalDeposits)

	assert.True(t, errors.Is(svc.DeleteStudent(ctx, adminUser, drop.ID), appErrors.ErrNotFound))
}

func TestLedgerAddTransactionUnknownStudent(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, err := svc.AddTransaction(context.Background(), teacherUser, dto.CreateTransactionRequest{StudentID: "missing", Type: models.TransactionDeposit, Amount: 100})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.AddTransaction(context.Background(), teacherUser, dto.CreateTransactionRequest{StudentID: "missing", Type: models.TransactionDeposit, Amount: 0})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.AddTransaction(context.Background(), teacherUser, dto.CreateTransactionRequest{StudentID: "missing", Type: "refund", Amount: 10})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestLedgerPersistenceFailureKeepsState(t *testing.T) {
	svc, gw, pub := newTestLedger(t)
	ctx := context.Background()
	student := mustAddStudent(t, svc, "1001", "4A")
	mustTxn(t, svc, student.ID, models.TransactionDeposit, 10000)
	revision := svc.Revision()
	events := len(pub.events)

	gw.setFailure(errors.New("disk unavailable"))
	_, err := svc.AddTransaction(ctx, teacherUser, dto.CreateTransactionRequest{StudentID: student.ID, Type: models.TransactionDeposit, Amount: 5000})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPersistence))

	assert.Equal(t, int64(10000), balanceOf(t, svc, student.ID))
	assert.Len(t, svc.TransactionsByStudent(student.ID), 1)
	assert.Equal(t, revision, svc.Revision())
	assert.Len(t, pub.events, events)

	gw.setFailure(nil)
	mustTxn(t, svc, student.ID, models.TransactionDeposit, 5000)
	assert.Equal(t, int64(15000), balanceOf(t, svc, student.ID))
}

func TestLedgerConcurrentMutationsAreSerialized(t *testing.T) {
	svc, gw, _ := newTestLedger(t)
	student := mustAddStudent(t, svc, "1001", "4A")
	mustTxn(t, svc, student.ID, models.TransactionDeposit, 100000)

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			kind := models.TransactionDeposit
			if i%2 == 0 {
				kind = models.TransactionWithdrawal
			}
			_, _ = svc.AddTransaction(context.Background(), teacherUser, dto.CreateTransactionRequest{
				StudentID:   student.ID,
				Type:        kind,
				Amount:      1000,
				Description: fmt.Sprintf("txn %d", i),
			})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(100000), balanceOf(t, svc, student.ID))
	assert.Len(t, svc.TransactionsByStudent(student.ID), 41)
	assertInvariant(t, svc)
	assert.Len(t, gw.transactions, 41)
}

func TestLedgerLoadRepairsBalancesAndDropsOrphans(t *testing.T) {
	gw := &memoryGateway{
		students: []models.Student{
			{ID: "s1", NIS: "1", Name: "Andi", ClassLabel: "4A", Grade: 4, Balance: 999},
			{ID: "s2", NIS: "2", Name: "Budi", ClassLabel: "5B", Grade: 0, Balance: 0},
		},
		transactions: []models.Transaction{
			{ID: "t1", StudentID: "s1", Type: models.TransactionDeposit, Amount: 700},
			{ID: "t2", StudentID: "s1", Type: models.TransactionWithdrawal, Amount: 200},
			{ID: "t3", StudentID: "gone", Type: models.TransactionDeposit, Amount: 50},
		},
	}
	svc := NewLedgerService(gw, nil, nil, nil, nil)
	assert.False(t, svc.Loaded())
	require.NoError(t, svc.Load(context.Background()))
	assert.True(t, svc.Loaded())

	assert.Equal(t, int64(500), balanceOf(t, svc, "s1"))
	s2, ok := svc.GetStudent("s2")
	require.True(t, ok)
	assert.Equal(t, 5, s2.Grade)
	assert.Len(t, svc.Snapshot().Transactions, 2)
	assert.Equal(t, []string{"ledger"}, gw.saveCalls)

	audit, err := svc.Audit(adminUser)
	require.NoError(t, err)
	assert.Empty(t, audit.Discrepancies)
	assert.Equal(t, 2, audit.StudentsChecked)
}

func TestLedgerListStudents(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx := context.Background()
	for i, class := range []string{"4A", "4B", "5A"} {
		_, err := svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: fmt.Sprintf("10%d", i), Name: fmt.Sprintf("Siswa %c", 'C'-i), ClassLabel: class})
		require.NoError(t, err)
	}

	all, page := svc.ListStudents(models.StudentFilter{})
	require.Len(t, all, 3)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, "Siswa A", all[0].Name)

	grade4, _ := svc.ListStudents(models.StudentFilter{Grade: 4})
	assert.Len(t, grade4, 2)

	class, _ := svc.ListStudents(models.StudentFilter{ClassLabel: "4b"})
	require.Len(t, class, 1)
	assert.Equal(t, "4B", class[0].ClassLabel)

	paged, page := svc.ListStudents(models.StudentFilter{Page: 2, PageSize: 2})
	assert.Len(t, paged, 1)
	assert.Equal(t, 2, page.Page)

	search, _ := svc.ListStudents(models.StudentFilter{Search: "101"})
	assert.Len(t, search, 1)
}

func TestLedgerLookupsReturnAbsent(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	_, ok := svc.GetStudent("missing")
	assert.False(t, ok)
	_, ok = svc.GetTransaction("missing")
	assert.False(t, ok)
	assert.Empty(t, svc.TransactionsByStudent("missing"))
}

func TestLedgerMutationHonoursCancelledContext(t *testing.T) {
	svc, _, _ := newTestLedger(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Hold the gate so Acquire has to wait on the cancelled context.
	require.NoError(t, svc.gate.Acquire(context.Background(), 1))
	defer svc.gate.Release(1)

	_, err := svc.AddStudent(ctx, adminUser, dto.CreateStudentRequest{NIS: "1", Name: "Andi", ClassLabel: "4A"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
