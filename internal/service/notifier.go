package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/models"
	"github.com/noah-isme/tabungan-api/pkg/jobs"
)

// LedgerObserver receives committed ledger events.
type LedgerObserver func(ctx context.Context, event models.LedgerEvent) error

const ledgerEventJob = "ledger_event"

// Notifier fans ledger events out to subscribed observers. Events are
// delivered in publish order by a single-worker queue once StartAsync has
// been called; before that they are delivered synchronously.
type Notifier struct {
	mu        sync.RWMutex
	observers map[uint64]namedObserver
	nextID    uint64
	queue     *jobs.Queue
	logger    *zap.Logger
}

type namedObserver struct {
	name string
	fn   LedgerObserver
}

// NewNotifier builds a notifier without observers.
func NewNotifier(logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{observers: make(map[uint64]namedObserver), logger: logger}
	n.queue = jobs.NewQueue("ledger-events", n.handleJob, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 0,
		Logger:     logger,
	})
	return n
}

// Subscribe registers an observer and returns a func that removes it.
func (n *Notifier) Subscribe(name string, fn LedgerObserver) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	id := n.nextID
	n.observers[id] = namedObserver{name: name, fn: fn}
	return func() {
		n.mu.Lock()
		delete(n.observers, id)
		n.mu.Unlock()
	}
}

// StartAsync switches delivery to the background queue.
func (n *Notifier) StartAsync(ctx context.Context) {
	n.queue.Start(ctx)
}

// Close delivers every pending event and stops the background worker.
func (n *Notifier) Close() {
	n.queue.Drain()
}

// Publish hands an event to the observers. Observer failures are logged and
// never reach the publisher.
func (n *Notifier) Publish(event models.LedgerEvent) {
	if n.queue.Started() {
		err := n.queue.Enqueue(jobs.Job{ID: event.ID, Type: ledgerEventJob, Payload: event})
		if err == nil {
			return
		}
		n.logger.Warn("ledger event queue unavailable, delivering inline", zap.String("event_id", event.ID), zap.Error(err))
	}
	n.deliver(context.Background(), event)
}

func (n *Notifier) handleJob(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.LedgerEvent)
	if !ok {
		return fmt.Errorf("unexpected payload %T", job.Payload)
	}
	n.deliver(ctx, event)
	return nil
}

func (n *Notifier) deliver(ctx context.Context, event models.LedgerEvent) {
	n.mu.RLock()
	ids := make([]uint64, 0, len(n.observers))
	for id := range n.observers {
		ids = append(ids, id)
	}
	observers := make([]namedObserver, 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		observers = append(observers, n.observers[id])
	}
	n.mu.RUnlock()

	for _, observer := range observers {
		if err := observer.fn(ctx, event); err != nil {
			n.logger.Warn("ledger observer failed",
				zap.String("observer", observer.name),
				zap.String("event", string(event.Type)),
				zap.String("event_id", event.ID),
				zap.Error(err))
		}
	}
}
