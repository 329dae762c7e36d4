package service

import (
	"context"
	"time"

	"github.com/noah-isme/tabungan-api/internal/models"
)

type storeObserver interface {
	ObserveStoreOperation(operation string, failed bool, duration time.Duration)
}

// InstrumentedGateway times every call of the wrapped gateway.
type InstrumentedGateway struct {
	next    LedgerGateway
	metrics storeObserver
}

// NewInstrumentedGateway wraps next with store latency metrics.
func NewInstrumentedGateway(next LedgerGateway, metrics storeObserver) *InstrumentedGateway {
	return &InstrumentedGateway{next: next, metrics: metrics}
}

func (g *InstrumentedGateway) observe(operation string, start time.Time, err error) {
	if g.metrics != nil {
		g.metrics.ObserveStoreOperation(operation, err != nil, time.Since(start))
	}
}

func (g *InstrumentedGateway) LoadStudents(ctx context.Context) (students []models.Student, err error) {
	start := time.Now()
	defer func() { g.observe("load_students", start, err) }()
	return g.next.LoadStudents(ctx)
}

func (g *InstrumentedGateway) SaveStudents(ctx context.Context, students []models.Student) (err error) {
	start := time.Now()
	defer func() { g.observe("save_students", start, err) }()
	return g.next.SaveStudents(ctx, students)
}

func (g *InstrumentedGateway) LoadTransactions(ctx context.Context) (txns []models.Transaction, err error) {
	start := time.Now()
	defer func() { g.observe("load_transactions", start, err) }()
	return g.next.LoadTransactions(ctx)
}

func (g *InstrumentedGateway) SaveTransactions(ctx context.Context, txns []models.Transaction) (err error) {
	start := time.Now()
	defer func() { g.observe("save_transactions", start, err) }()
	return g.next.SaveTransactions(ctx, txns)
}

func (g *InstrumentedGateway) SaveLedger(ctx context.Context, students []models.Student, txns []models.Transaction) (err error) {
	start := time.Now()
	defer func() { g.observe("save_ledger", start, err) }()
	return g.next.SaveLedger(ctx, students, txns)
}

func (g *InstrumentedGateway) SaveCurrentUser(ctx context.Context, session models.Session) (err error) {
	start := time.Now()
	defer func() { g.observe("save_current_user", start, err) }()
	return g.next.SaveCurrentUser(ctx, session)
}

func (g *InstrumentedGateway) LoadCurrentUser(ctx context.Context) (session *models.Session, err error) {
	start := time.Now()
	defer func() { g.observe("load_current_user", start, err) }()
	return g.next.LoadCurrentUser(ctx)
}

func (g *InstrumentedGateway) ClearCurrentUser(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { g.observe("clear_current_user", start, err) }()
	return g.next.ClearCurrentUser(ctx)
}
