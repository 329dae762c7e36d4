package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/tabungan-api/internal/models"
)

type messagePublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// EventForwarder publishes committed ledger events to a message broker with
// the event type as routing key.
type EventForwarder struct {
	publisher messagePublisher
	logger    *zap.Logger
}

// NewEventForwarder constructs a forwarder over publisher.
func NewEventForwarder(publisher messagePublisher, logger *zap.Logger) *EventForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventForwarder{publisher: publisher, logger: logger}
}

// Forward is a LedgerObserver.
func (f *EventForwarder) Forward(ctx context.Context, event models.LedgerEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode ledger event: %w", err)
	}
	if err := f.publisher.Publish(ctx, string(event.Type), body); err != nil {
		return fmt.Errorf("publish ledger event %s: %w", event.ID, err)
	}
	f.logger.Debug("ledger event forwarded", zap.String("event_id", event.ID), zap.String("type", string(event.Type)))
	return nil
}
